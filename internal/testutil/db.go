package testutil

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"task-manager/internal/repository"
)

// Logger returns a logger that discards everything.
func Logger() *log.Logger {
	return log.New(io.Discard)
}

// NewTestDB opens an in-memory SQLite database with all migrations applied.
// It automatically closes the database when the test completes.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := repository.NewDB(":memory:", Logger())
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err != nil {
			return
		}
		if err := sqlDB.Close(); err != nil {
			t.Errorf("closing test db: %v", err)
		}
	})

	return db
}
