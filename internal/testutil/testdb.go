package testutil

import (
	"database/sql"
	"testing"

	"skusheet/internal/store"
)

// OpenTestDB creates an in-memory ledger database with the schema applied.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// Every pooled connection would get its own :memory: database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}
