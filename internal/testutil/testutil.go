package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"sitereports/internal/db"
)

// OpenTestDB opens a migrated SQLite database in the test's temp dir and
// closes it on cleanup.
func OpenTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.OpenSQLite(filepath.Join(t.TempDir(), "app.db"), 1, 1, time.Minute)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := db.Migrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}
