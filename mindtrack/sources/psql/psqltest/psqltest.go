// Package psqltest opens migrated in-memory SQLite databases for tests.
package psqltest

import (
	"context"
	"fmt"
	"testing"

	"mindtrack/mindtrack/sources/psql"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB returns a private in-memory database. The pool holds a single
// connection, so concurrent callers queue on it exactly as writers queue on
// the SQLite file lock.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := psql.Open(context.Background(), sqlite.Open(dsn), psql.PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(db.Close)
	return db.DB
}
