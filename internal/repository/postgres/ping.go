package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/sideline-stats-service/internal/repository"
)

type pinger struct{ pool *pgxpool.Pool }

// NewPinger adapts pgxpool to the repository.Pinger interface.
func NewPinger(pool *pgxpool.Pool) repository.Pinger { return &pinger{pool: pool} }

func (p *pinger) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

type usage struct{ pool *pgxpool.Pool }

// NewUsageReporter reports the size of the current database.
func NewUsageReporter(pool *pgxpool.Pool) repository.UsageReporter { return &usage{pool: pool} }

func (u *usage) Usage(ctx context.Context) (int64, error) {
	var n int64
	if err := getQ(ctx, u.pool).QueryRow(ctx, `SELECT pg_database_size(current_database())`).Scan(&n); err != nil {
		return 0, repository.MapPgError(err)
	}
	return n, nil
}

// NewStore wires every port to pool. Close closes the pool.
func NewStore(pool *pgxpool.Pool) repository.Store {
	return repository.Store{
		Current:    NewCurrentMatchStore(pool),
		History:    NewMatchHistoryRepository(pool),
		Squads:     NewSquadRepository(pool),
		Attendance: NewAttendanceRepository(pool),
		Settings:   NewSettingsRepository(pool),
		Tx:         NewTxManager(pool),
		Pinger:     NewPinger(pool),
		Usage:      NewUsageReporter(pool),
		Close:      pool.Close,
	}
}
