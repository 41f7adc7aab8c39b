package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// OpenSQLite opens (creating if needed) the single-file store, tunes it and migrates it.
func OpenSQLite(path string, logger zerolog.Logger) (*sql.DB, error) {
	logger = logger.With().Str("module", "repository").Str("component", "sqlite").Logger()
	logger.Info().Str("path", path).Msg("opening sqlite store")

	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps the single-slot semantics simple and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := tuneSQLite(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to tune sqlite: %w", err)
	}
	if err := Migrate(db, "sqlite3", logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Msg("sqlite store ready")
	return db, nil
}

func tuneSQLite(db *sql.DB, logger zerolog.Logger) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "ON"},
		{"temp_store", "MEMORY"},
	}

	for _, pragma := range pragmas {
		query := fmt.Sprintf("PRAGMA %s = %s", pragma.name, pragma.value)
		if _, err := db.Exec(query); err != nil {
			logger.Warn().Err(err).Str("pragma", pragma.name).Str("value", pragma.value).Msg("failed to set pragma")
			return fmt.Errorf("failed to set PRAGMA %s: %w", pragma.name, err)
		}
		logger.Debug().Str("pragma", pragma.name).Str("value", pragma.value).Msg("SQLite pragma set")
	}
	return nil
}
