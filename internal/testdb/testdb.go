// Package testdb provides an in-memory SQLite helper for fast,
// realistic testing against the storage layer.
package testdb

import (
	"context"
	"testing"

	"github.com/metgalaxy/artvec/internal/database"
)

// New creates an in-memory SQLite database, closed when the test ends.
func New(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.New(ctx, "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("testdb.New: open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// WithSchema creates an in-memory SQLite database and executes the given
// SQL statements to set up the schema. The artwork table is owned by an
// external ingestion process in production, so tests declare it themselves.
func WithSchema(t *testing.T, statements ...string) database.Database {
	t.Helper()
	ctx := context.Background()
	db := New(t)
	for _, stmt := range statements {
		if err := db.Session(ctx).Exec(stmt).Error; err != nil {
			t.Fatalf("testdb.WithSchema: %v\nSQL: %s", err, stmt)
		}
	}
	return db
}
