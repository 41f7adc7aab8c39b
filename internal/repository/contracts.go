package repository

import (
	"context"

	"github.com/maxviazov/sideline-stats-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
// I pass context through so nested calls can honor cancellations and deadlines.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// UsageReporter tells how many bytes the store currently occupies.
type UsageReporter interface {
	Usage(ctx context.Context) (int64, error)
}

// CurrentMatchStore holds the one working match. Load returns (nil, nil) when the slot is empty;
// older documents are migrated on read.
type CurrentMatchStore interface {
	Load(ctx context.Context) (*model.Match, error)
	Save(ctx context.Context, m model.Match) error
	Clear(ctx context.Context) error
}

// MatchHistoryRepository stores finished matches keyed by match id.
// Lists are ordered by match date, newest first.
type MatchHistoryRepository interface {
	// Save inserts or replaces the match with the same id.
	Save(ctx context.Context, m model.Match) error
	GetByID(ctx context.Context, id string) (model.Match, error)
	List(ctx context.Context, p Page) (PageResult[model.Match], error)
	ListAll(ctx context.Context) ([]model.Match, error)
	// ListByTeam matches either team name, case-insensitively, by substring.
	ListByTeam(ctx context.Context, team string) ([]model.Match, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// SquadRepository stores rosters. Deleting a squad deletes its attendance events.
type SquadRepository interface {
	Save(ctx context.Context, s model.Squad) error
	GetByID(ctx context.Context, id string) (model.Squad, error)
	// List orders by team name.
	List(ctx context.Context) ([]model.Squad, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	// Clear removes every squad and every attendance event.
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// AttendanceRepository stores roll calls. Saving an event for an unknown squad yields ErrConflict.
type AttendanceRepository interface {
	Save(ctx context.Context, e model.AttendanceEvent) error
	GetByID(ctx context.Context, id string) (model.AttendanceEvent, error)
	// ListBySquad orders by event date, newest first.
	ListBySquad(ctx context.Context, squadID string) ([]model.AttendanceEvent, error)
	ListAll(ctx context.Context) ([]model.AttendanceEvent, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// SettingsRepository is a small string key/value table. Get returns ErrNotFound for an unset key.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Store bundles every port a backend provides.
type Store struct {
	Current    CurrentMatchStore
	History    MatchHistoryRepository
	Squads     SquadRepository
	Attendance AttendanceRepository
	Settings   SettingsRepository
	Tx         TxManager
	Pinger     Pinger
	Usage      UsageReporter
	Close      func()
}
