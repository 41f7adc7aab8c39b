// Package sqlite implements the repository ports on a single-file SQLite database.
// Entities are stored as JSON documents next to the columns used for lookup and ordering.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/maxviazov/sideline-stats-service/internal/repository"
)

// NewStore wires every port to db. Close closes db.
func NewStore(db *sql.DB) repository.Store {
	return repository.Store{
		Current:    NewCurrentMatchStore(db),
		History:    NewMatchHistoryRepository(db),
		Squads:     NewSquadRepository(db),
		Attendance: NewAttendanceRepository(db),
		Settings:   NewSettingsRepository(db),
		Tx:         NewTxManager(db),
		Pinger:     NewPinger(db),
		Usage:      NewUsageReporter(db),
		Close:      func() { _ = db.Close() },
	}
}

type pinger struct{ db *sql.DB }

// NewPinger adapts *sql.DB to the repository.Pinger interface.
func NewPinger(db *sql.DB) repository.Pinger { return &pinger{db: db} }

func (p *pinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

type usage struct{ db *sql.DB }

// NewUsageReporter reports the database file size from the page counters.
func NewUsageReporter(db *sql.DB) repository.UsageReporter { return &usage{db: db} }

func (u *usage) Usage(ctx context.Context) (int64, error) {
	var n int64
	err := getQ(ctx, u.db).QueryRowContext(ctx,
		`SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()`,
	).Scan(&n)
	if err != nil {
		return 0, repository.MapSQLiteError(err)
	}
	return n, nil
}
