package database

import (
	"strings"
	"testing"
)

// TestMigrationsFS_ContainsAllPairs は埋め込みマイグレーションにup/downの
// ペアが揃っていることを検証する。
func TestMigrationsFS_ContainsAllPairs(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}

	ups := make(map[string]bool)
	downs := make(map[string]bool)
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file name: %s", name)
		}
	}

	if len(ups) == 0 {
		t.Fatal("expected at least one up migration")
	}
	for base := range ups {
		if !downs[base] {
			t.Errorf("missing down migration for %s", base)
		}
	}
	for base := range downs {
		if !ups[base] {
			t.Errorf("missing up migration for %s", base)
		}
	}
}

// TestNewMigrator_InvalidURL は不正なデータベースURLでエラーになることを検証する。
func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator("not-a-database-url")
	if err == nil {
		t.Fatal("expected error for invalid database URL")
	}
}
