package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/court-scheduler/internal/persistence/sqlite"
)

// NewSQLiteStore opens a migrated snapshot store on a temporary database file.
// The store is closed automatically when the test finishes.
func NewSQLiteStore(tb testing.TB) *sqlite.Store {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "court_schedule.db")
	store, err := sqlite.Open(sqlite.TempFileTestConfig(path))
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}
	tb.Cleanup(func() {
		_ = store.Close()
	})

	if _, err := store.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate store: %v", err)
	}
	return store
}
