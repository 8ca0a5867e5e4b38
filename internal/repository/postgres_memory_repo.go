package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/glockstar/fanpage/internal/model"
)

// PostgresMemoryRepo はPostgreSQLを使用した思い出リポジトリ。
type PostgresMemoryRepo struct {
	db *sql.DB
}

// NewPostgresMemoryRepo はPostgresMemoryRepoを生成する。
func NewPostgresMemoryRepo(db *sql.DB) *PostgresMemoryRepo {
	return &PostgresMemoryRepo{db: db}
}

// List は全件をcreated_at降順で返す。
func (r *PostgresMemoryRepo) List(ctx context.Context) ([]*model.Memory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, titulo, descripcion, imagen_url, created_at, user_id
		 FROM recuerdos
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("思い出一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var memories []*model.Memory
	for rows.Next() {
		memory := &model.Memory{}
		var imagenURL sql.NullString

		if err := rows.Scan(
			&memory.ID, &memory.Titulo, &memory.Descripcion,
			&imagenURL, &memory.CreatedAt, &memory.UserID,
		); err != nil {
			return nil, fmt.Errorf("思い出行の読み取りに失敗しました: %w", err)
		}

		memory.ImagenURL = nullStringValue(imagenURL)
		memories = append(memories, memory)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("思い出一覧の走査に失敗しました: %w", err)
	}

	return memories, nil
}

// FindByID は指定IDの思い出を取得する。見つからない場合はnilを返す。
func (r *PostgresMemoryRepo) FindByID(ctx context.Context, id string) (*model.Memory, error) {
	memory := &model.Memory{}
	var imagenURL sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, titulo, descripcion, imagen_url, created_at, user_id
		 FROM recuerdos WHERE id = $1`,
		id,
	).Scan(&memory.ID, &memory.Titulo, &memory.Descripcion,
		&imagenURL, &memory.CreatedAt, &memory.UserID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("思い出の取得に失敗しました: %w", err)
	}

	memory.ImagenURL = nullStringValue(imagenURL)

	return memory, nil
}

// Probe はテーブルへの読み取りアクセスを確認する。
// 結果の行数は問わず、クエリが実行できればアクセス可能とみなす。
func (r *PostgresMemoryRepo) Probe(ctx context.Context) error {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM recuerdos LIMIT 1`,
	).Scan(&id)

	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("recuerdosテーブルへのアクセス確認に失敗しました: %w", err)
	}
	return nil
}

// Create は思い出を作成する。
func (r *PostgresMemoryRepo) Create(ctx context.Context, memory *model.Memory) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recuerdos (id, titulo, descripcion, imagen_url, created_at, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		memory.ID, memory.Titulo, memory.Descripcion,
		nullString(memory.ImagenURL), memory.CreatedAt, memory.UserID,
	)
	if err != nil {
		return fmt.Errorf("思い出の作成に失敗しました: %w", err)
	}
	return nil
}

// nullString は空文字列をNULLに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ MemoryRepository = (*PostgresMemoryRepo)(nil)
