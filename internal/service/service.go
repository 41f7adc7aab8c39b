// Package service holds business logic orchestration across the match engine, repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/maxviazov/sideline-stats-service/internal/model"
	"github.com/maxviazov/sideline-stats-service/internal/repository"
	"github.com/maxviazov/sideline-stats-service/internal/stats"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

var (
	// ErrNoActiveMatch is returned by reads that need a working match when there is none.
	ErrNoActiveMatch = errors.New("no active match")
	// ErrMatchInProgress guards against silently discarding an unfinished match.
	ErrMatchInProgress = errors.New("a match is already in progress")
)

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// newInvalidInput builds an aggregated validation error if any field errors are present.
func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// NewInvalidInputError exposes the aggregated validation error to handlers that
// reject a request before it reaches a service.
func NewInvalidInputError(fe []FieldError) error { return newInvalidInput(fe) }

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	var v feIface
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// Ledger is the slice of the match engine the services drive.
type Ledger interface {
	Match() *model.Match
	StartNewMatch(ctx context.Context, homeTeam, awayTeam, date string, trackShots, trackKickouts bool) (model.Match, error)
	Record(ctx context.Context, team model.Team, eventType model.EventType, loc *model.Location) (*model.Action, error)
	RecordEvent(ctx context.Context, team model.Team, eventType model.EventType) (*model.Action, error)
	RecordShot(ctx context.Context, team model.Team, shotType model.EventType, x, y float64) (*model.Action, error)
	RecordKickout(ctx context.Context, team model.Team, kickoutType model.EventType, x, y float64) (*model.Action, error)
	SaveHalfTime(ctx context.Context) (bool, error)
	SaveFullTime(ctx context.Context) (bool, error)
	UndoLastAction(ctx context.Context) (*model.Action, error)
	LastAction() *model.Action
	ClearMatch(ctx context.Context) error
}

// StartMatchInput carries a new match's header.
type StartMatchInput struct {
	HomeTeam      string
	AwayTeam      string
	Date          string
	TrackShots    bool
	TrackKickouts bool
	// Force discards an unfinished working match.
	Force bool
}

// RecordInput is one tap on the tracker. X and Y are pitch percentages and are
// required when the event's location tracking is on.
type RecordInput struct {
	Team      string
	EventType string
	X         *float64
	Y         *float64
}

// RecordResult reports what a record call did. Applied is false for a no-op.
type RecordResult struct {
	Applied bool          `json:"applied"`
	Action  *model.Action `json:"action,omitempty"`
	Match   *model.Match  `json:"match,omitempty"`
}

// TransitionResult reports a half time / full time call.
type TransitionResult struct {
	Applied bool         `json:"applied"`
	Match   *model.Match `json:"match,omitempty"`
}

// MatchService defines live-match use cases.
type MatchService interface {
	Current(ctx context.Context) (model.Match, error)
	Start(ctx context.Context, in StartMatchInput) (model.Match, error)
	Record(ctx context.Context, in RecordInput) (RecordResult, error)
	HalfTime(ctx context.Context) (TransitionResult, error)
	FullTime(ctx context.Context) (TransitionResult, error)
	Undo(ctx context.Context) (RecordResult, error)
	LastAction(ctx context.Context) (*model.Action, error)
	Abandon(ctx context.Context) error
	Breakdown(ctx context.Context, view string) (stats.MatchBreakdown, error)
	Timeline(ctx context.Context, filter string) ([]stats.TimelineEntry, error)
}

// ShotQuery narrows a team's shot map.
type ShotQuery struct {
	From string
	To   string
}

// ShotMap is the located shots of a team plus the zone grid built from them.
type ShotMap struct {
	Team  string              `json:"team"`
	Shots []stats.LocatedShot `json:"shots"`
	Zones [][]stats.Zone      `json:"zones"`
}

// HistoryService defines finished-match use cases.
type HistoryService interface {
	List(ctx context.Context, page repository.Page) (repository.PageResult[model.Match], error)
	Get(ctx context.Context, id string) (model.Match, error)
	Breakdown(ctx context.Context, id, view string) (stats.MatchBreakdown, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	ByTeam(ctx context.Context, team string) ([]model.Match, error)
	TeamSummary(ctx context.Context, team string) (stats.TeamSummary, error)
	ShotZones(ctx context.Context, team string, q ShotQuery) (ShotMap, error)
	Count(ctx context.Context) (int, error)
}

// SquadService defines roster and attendance use cases.
type SquadService interface {
	CreateSquad(ctx context.Context, teamName string) (model.Squad, error)
	RenameSquad(ctx context.Context, id, teamName string) (model.Squad, error)
	ListSquads(ctx context.Context) ([]model.Squad, error)
	GetSquad(ctx context.Context, id string) (model.Squad, error)
	DeleteSquad(ctx context.Context, id string) error
	AddPlayer(ctx context.Context, squadID, name, number string) (model.Player, error)
	UpdatePlayer(ctx context.Context, squadID, playerID, name, number string) (model.Player, error)
	RemovePlayer(ctx context.Context, squadID, playerID string) error
	CreateEvent(ctx context.Context, squadID, name, date string) (model.AttendanceEvent, error)
	SetAttendance(ctx context.Context, eventID string, roll []model.PlayerAttendance) (model.AttendanceEvent, error)
	ToggleAttendance(ctx context.Context, eventID, playerID, field string) (model.AttendanceEvent, error)
	ListEvents(ctx context.Context, squadID string) ([]model.AttendanceEvent, error)
	DeleteEvent(ctx context.Context, id string) error
}

// BackupService defines export/import use cases.
type BackupService interface {
	Export(ctx context.Context) (BackupData, error)
	Import(ctx context.Context, r io.Reader, mode ImportMode) (ImportResult, error)
	Summary(ctx context.Context) (DataSummary, error)
	LastBackup(ctx context.Context) (*time.Time, error)
	Reminder(ctx context.Context) (Reminder, error)
	DismissReminder(ctx context.Context) (time.Time, error)
}

// Option customises a service's clock or id source.
type Option func(*base)

type base struct {
	now   func() time.Time
	newID func() (string, error)
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDs replaces the id generator used for squads, players and events.
func WithIDs(next func() (string, error)) Option {
	return func(b *base) {
		if next != nil {
			b.newID = next
		}
	}
}

func newBase(opts []Option) base {
	b := base{now: time.Now, newID: newNanoID}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}
