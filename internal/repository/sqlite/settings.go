package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/maxviazov/sideline-stats-service/internal/repository"
)

type settingsRepository struct{ db *sql.DB }

func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	if err := ensureDB(r.db); err != nil {
		return "", err
	}
	var v string
	err := getQ(ctx, r.db).QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", repository.MapSQLiteError(err)
	}
	return v, nil
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	_, err := getQ(ctx, r.db).ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return repository.MapSQLiteError(err)
}
