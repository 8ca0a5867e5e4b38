package repository

import (
	"database/sql"
	"testing"
)

// TestPostgresMemoryRepo_ImplementsInterface はPostgresMemoryRepoがMemoryRepositoryを実装することを検証する。
func TestPostgresMemoryRepo_ImplementsInterface(t *testing.T) {
	// コンパイル時チェック：PostgresMemoryRepoがMemoryRepositoryを満たすことを検証
	var _ MemoryRepository = (*PostgresMemoryRepo)(nil)
}

// TestPostgresSessionRepo_ImplementsInterface はPostgresSessionRepoがSessionRepositoryを実装することを検証する。
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	// コンパイル時チェック：PostgresSessionRepoがSessionRepositoryを満たすことを検証
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

func TestNullString(t *testing.T) {
	if ns := nullString(""); ns.Valid {
		t.Error("nullString(\"\") should be invalid")
	}
	if ns := nullString("x"); !ns.Valid || ns.String != "x" {
		t.Errorf("nullString(\"x\") = %+v, want valid \"x\"", ns)
	}
}

func TestNullStringValue(t *testing.T) {
	if v := nullStringValue(sql.NullString{}); v != "" {
		t.Errorf("nullStringValue(invalid) = %q, want \"\"", v)
	}
	if v := nullStringValue(sql.NullString{String: "x", Valid: true}); v != "x" {
		t.Errorf("nullStringValue(valid) = %q, want \"x\"", v)
	}
}
