// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/glockstar/fanpage/internal/model"
)

// SessionRepository はRedditトークンセッションの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// UpdateTokens はトークン更新後のアクセストークンと有効期限を保存する。
	UpdateTokens(ctx context.Context, session *model.Session) error

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// MemoryRepository は思い出（recuerdos）データの永続化インターフェース。
type MemoryRepository interface {
	// List は全件をcreated_at降順で返す。
	List(ctx context.Context) ([]*model.Memory, error)

	// FindByID は指定IDの思い出を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Memory, error)

	// Probe はテーブルへの読み取りアクセスを確認する。
	// 挿入の失敗とアクセス権限の問題を区別するため、Createの前に呼ばれる。
	Probe(ctx context.Context) error

	// Create は思い出を作成し、永続化されたレコードを返す。
	Create(ctx context.Context, memory *model.Memory) error
}
