// Package testutil provides shared test helpers for setting up durable entry stores.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/notenest/internal/sqlstore"
	"github.com/starford/notenest/internal/storage"
)

// TestEntryStore returns a JSON entry store backed by a file in a temp dir.
// The file does not exist until the first Insert.
func TestEntryStore(t *testing.T) *storage.CodableEntryStore {
	t.Helper()
	return storage.NewCodableEntryStore(filepath.Join(t.TempDir(), "entries.json"))
}

// TestSQLStore creates a temporary SQLite entry store that is automatically cleaned up.
func TestSQLStore(t *testing.T) *sqlstore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notenest-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := sqlstore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
