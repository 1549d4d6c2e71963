package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/guilherme-santos/calendarhub/internal"
)

const DriverName = "sqlite3"

type Storage struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewStorage(db *sql.DB) *Storage {
	s := &Storage{
		db:  sqlx.NewDb(db, DriverName),
		now: func() time.Time { return time.Now().UTC() },
	}
	err := s.RunMigrations()
	if err != nil {
		panic(fmt.Sprintf("sqlite: running migrations: %v", err))
	}
	return s
}

// Open opens the database file at path, creating its directory if needed.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open(DriverName, path+"?_journal_mode=WAL&_foreign_keys=1&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// sqlite only handles one writer; avoid "database is locked".
	db.SetMaxOpenConns(1)
	return db, nil
}

func newID() string {
	return ulid.Make().String()
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &internal.PersistenceError{Op: op, Err: err}
}
