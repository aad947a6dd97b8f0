package data

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DataFileName string = "data.db"

	driverSQLite   = "sqlite"
	driverPostgres = "postgres"

	dirMode = 0700
)

var (
	//go:embed sql/*
	f embed.FS

	// ErrDBNotInitialized is returned when a nil database handle is passed in.
	ErrDBNotInitialized = errors.New("database not initialized")
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know about
	sqlx.BindDriver(driverSQLite, sqlx.QUESTION)
}

// DriverFor returns the database/sql driver name for a DSN. Postgres URLs
// select lib/pq, anything else is treated as a sqlite file path.
func DriverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres
	}
	return driverSQLite
}

// Open connects to the database at dsn and makes sure the schema exists.
func Open(dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, errors.New("database path or URL not specified")
	}

	driver := DriverFor(dsn)
	if driver == driverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), dirMode); err != nil {
			return nil, fmt.Errorf("error creating database dir for %s: %w", dsn, err)
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == driverSQLite {
		// single writer keeps modernc from returning SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	if err := Init(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Init creates the schema if it does not exist yet. Safe to call repeatedly.
func Init(db *sqlx.DB) error {
	if db == nil {
		return ErrDBNotInitialized
	}

	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		return fmt.Errorf("failed to read the schema creation file: %w", err)
	}

	slog.Debug("applying db schema", "driver", db.DriverName())
	if _, err := db.Exec(string(b)); err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}

	return nil
}

// SchemaVersion returns the highest applied schema version.
func SchemaVersion(db *sqlx.DB) (int, error) {
	if db == nil {
		return 0, ErrDBNotInitialized
	}

	var version int
	if err := db.Get(&version, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("error reading schema version: %w", err)
	}
	return version, nil
}

func rollbackTransaction(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Error("error rolling back transaction", "error", err)
	}
}
