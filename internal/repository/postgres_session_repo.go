package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/glockstar/fanpage/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, access_token, refresh_token, token_expiry, username, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.AccessToken, nullString(session.RefreshToken),
		session.TokenExpiry, nullString(session.Username), session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	var refreshToken, username sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, access_token, refresh_token, token_expiry, username, created_at
		 FROM sessions
		 WHERE id = $1`,
		id,
	).Scan(&session.ID, &session.AccessToken, &refreshToken,
		&session.TokenExpiry, &username, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}

	session.RefreshToken = nullStringValue(refreshToken)
	session.Username = nullStringValue(username)

	return session, nil
}

// UpdateTokens はトークン更新後のアクセストークンと有効期限を保存する。
func (r *PostgresSessionRepo) UpdateTokens(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET access_token = $2, refresh_token = $3, token_expiry = $4
		 WHERE id = $1`,
		session.ID, session.AccessToken, nullString(session.RefreshToken), session.TokenExpiry,
	)
	if err != nil {
		return fmt.Errorf("セッショントークンの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
