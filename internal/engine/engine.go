// Package engine owns the live match: it applies recorded events to the ledger,
// keeps the counters in step with it, handles the half and full time transitions,
// and undoes the most recent ledger entry.
//
// Every mutation works on a deep copy. The copy is persisted first and replaces the
// in-memory match only after the store accepted it, so a failed write leaves the
// engine exactly as it was. Calls that have nothing to act on (no match, finished
// match, empty ledger) are no-ops that return a nil result and a nil error.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/sideline-stats-service/internal/model"
)

var (
	// ErrUnknownTeam is returned for a side other than home or away.
	ErrUnknownTeam = errors.New("unknown team")
	// ErrUnknownEvent is returned for an event tag the call cannot record.
	ErrUnknownEvent = errors.New("unknown event type")
	// ErrLocationRequired is returned by Record when the match tracks the event's
	// location and none was given.
	ErrLocationRequired = errors.New("location required")
)

// Store is the single-slot persistence port for the working match.
type Store interface {
	Load(ctx context.Context) (*model.Match, error)
	Save(ctx context.Context, m model.Match) error
	Clear(ctx context.Context) error
}

// HistorySink receives matches once they are finished.
type HistorySink interface {
	Save(ctx context.Context, m model.Match) error
}

// SpaceGuard rejects a write of the given size when storage is short.
type SpaceGuard interface {
	Ensure(ctx context.Context, required int64) error
}

// Engine is safe for concurrent use; mutations are serialised in call order.
type Engine struct {
	mu      sync.Mutex
	current *model.Match

	store   Store
	history HistorySink
	guard   SpaceGuard
	now     func() time.Time
	newID   func() string
	log     zerolog.Logger
}

// New builds an engine with no active match. Call Restore to pick up a saved one.
func New(store Store, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   defaultClock,
		newID: defaultIDs,
		log:   logger.With().Str("module", "engine").Str("component", "ledger").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Restore loads the working match from the store, migrating older records.
// It reports whether a match is now active.
func (e *Engine) Restore(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("restore match: %w", err)
	}
	if m == nil {
		e.current = nil
		return false, nil
	}
	model.Normalize(m)
	e.current = m
	e.log.Info().Str("match_id", m.ID).Int("actions", len(m.Actions)).Bool("finished", m.IsFinished).Msg("working match restored")
	return true, nil
}

// Match returns a copy of the working match, or nil when none is active.
func (e *Engine) Match() *model.Match {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	c := e.current.Clone()
	return &c
}

// StartNewMatch replaces any working match with a fresh one.
func (e *Engine) StartNewMatch(ctx context.Context, homeTeam, awayTeam, date string, trackShots, trackKickouts bool) (model.Match, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := model.NewMatch(e.newID(), homeTeam, awayTeam, date, trackShots, trackKickouts, e.stamp())
	if err := e.commit(ctx, m, true); err != nil {
		return model.Match{}, err
	}
	e.log.Info().Str("match_id", m.ID).Str("home", homeTeam).Str("away", awayTeam).Msg("match started")
	return m.Clone(), nil
}

// locator attaches a shot or kickout record to the action being appended.
type locator func(next *model.Match, a *model.Action)

// Record appends an action, taking the located path when the working match tracks
// the event's location. The tracking flags are read under the same lock as the write.
// loc may be nil for untracked events; a tracked one without it fails with ErrLocationRequired.
func (e *Engine) Record(ctx context.Context, team model.Team, eventType model.EventType, loc *model.Location) (*model.Action, error) {
	if err := checkTeam(team); err != nil {
		return nil, err
	}
	if !eventType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, eventType)
	}
	return e.record(ctx, team, eventType, func(cur *model.Match) (locator, error) {
		located := (eventType.IsShot() && cur.TrackShots) || (eventType.IsKickout() && cur.TrackKickouts)
		switch {
		case !located:
			return nil, nil
		case loc == nil:
			return nil, ErrLocationRequired
		case eventType.IsShot():
			return e.shotAt(team, eventType, loc.X, loc.Y), nil
		default:
			return e.kickoutAt(team, eventType, loc.X, loc.Y), nil
		}
	})
}

// RecordEvent appends a plain action and bumps its counter. It accepts every event
// tag; shots and kickouts recorded here carry no location.
func (e *Engine) RecordEvent(ctx context.Context, team model.Team, eventType model.EventType) (*model.Action, error) {
	if err := checkTeam(team); err != nil {
		return nil, err
	}
	if !eventType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, eventType)
	}
	return e.record(ctx, team, eventType, plain)
}

// RecordShot stores a located shot together with its ledger action.
func (e *Engine) RecordShot(ctx context.Context, team model.Team, shotType model.EventType, x, y float64) (*model.Action, error) {
	if err := checkTeam(team); err != nil {
		return nil, err
	}
	if !shotType.IsShot() {
		return nil, fmt.Errorf("%w: %q is not a shot", ErrUnknownEvent, shotType)
	}
	return e.record(ctx, team, shotType, always(e.shotAt(team, shotType, x, y)))
}

// RecordKickout stores a located kickout together with its ledger action.
func (e *Engine) RecordKickout(ctx context.Context, team model.Team, kickoutType model.EventType, x, y float64) (*model.Action, error) {
	if err := checkTeam(team); err != nil {
		return nil, err
	}
	if !kickoutType.IsKickout() {
		return nil, fmt.Errorf("%w: %q is not a kickout", ErrUnknownEvent, kickoutType)
	}
	return e.record(ctx, team, kickoutType, always(e.kickoutAt(team, kickoutType, x, y)))
}

func plain(*model.Match) (locator, error) { return nil, nil }

func always(l locator) func(*model.Match) (locator, error) {
	return func(*model.Match) (locator, error) { return l, nil }
}

func (e *Engine) shotAt(team model.Team, shotType model.EventType, x, y float64) locator {
	return func(next *model.Match, a *model.Action) {
		shot := model.Shot{
			ID:        e.newID(),
			Team:      team,
			Type:      shotType,
			IsScore:   shotType.IsScore(),
			X:         x,
			Y:         y,
			Timestamp: a.Timestamp,
			Half:      next.CurrentHalf,
		}
		next.Shots = append(next.Shots, shot)
		a.ShotID = shot.ID
	}
}

func (e *Engine) kickoutAt(team model.Team, kickoutType model.EventType, x, y float64) locator {
	return func(next *model.Match, a *model.Action) {
		k := model.Kickout{
			ID:        e.newID(),
			Team:      team,
			Type:      kickoutType,
			Won:       kickoutType == model.EventKickoutWon,
			X:         x,
			Y:         y,
			Timestamp: a.Timestamp,
			Half:      next.CurrentHalf,
		}
		next.Kickouts = append(next.Kickouts, k)
		a.KickoutID = k.ID
	}
}

// record is the shared append path: new action, optional location record, counter + 1.
// choose runs under the lock and picks the location record for the current match.
func (e *Engine) record(ctx context.Context, team model.Team, eventType model.EventType, choose func(cur *model.Match) (locator, error)) (*model.Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.mutable() {
		e.log.Debug().Str("event_type", string(eventType)).Msg("record ignored: no live match")
		return nil, nil
	}
	locate, err := choose(e.current)
	if err != nil {
		return nil, err
	}
	next := e.current.Clone()
	a := model.Action{ID: e.newID(), Team: team, EventType: eventType, Timestamp: e.stamp()}
	if locate != nil {
		locate(&next, &a)
	}
	counter, _ := next.StatsFor(team).Counter(eventType)
	*counter++
	next.Actions = append(next.Actions, a)

	if err := e.commit(ctx, next, true); err != nil {
		return nil, err
	}
	e.log.Debug().Str("event_type", string(eventType)).Str("team", string(team)).Int("actions", len(next.Actions)).Msg("event recorded")
	return &a, nil
}

// SaveHalfTime freezes the first-half stats and moves play to the second half.
// It applies only during an unfinished first half and reports whether it did.
func (e *Engine) SaveHalfTime(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.mutable() || e.current.CurrentHalf != model.FirstHalf {
		e.log.Debug().Msg("half time ignored")
		return false, nil
	}
	next := e.current.Clone()
	next.CurrentHalf = model.SecondHalf
	next.HalfTimeSnapshot = &model.HalfTimeSnapshot{Home: next.HomeStats, Away: next.AwayStats}
	ts := e.stamp()
	next.SecondHalfStartTime = &ts
	if err := e.commit(ctx, next, false); err != nil {
		return false, err
	}
	e.log.Info().Str("match_id", next.ID).Msg("half time")
	return true, nil
}

// SaveFullTime finishes the match and files it with the history sink. It applies
// only during an unfinished second half and reports whether it did. If filing fails
// the finished match stays in the working slot and the error is returned.
func (e *Engine) SaveFullTime(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.mutable() || e.current.CurrentHalf != model.SecondHalf {
		e.log.Debug().Msg("full time ignored")
		return false, nil
	}
	next := e.current.Clone()
	next.IsFinished = true
	ts := e.stamp()
	next.MatchEndTime = &ts
	if err := e.commit(ctx, next, false); err != nil {
		return false, err
	}
	e.log.Info().Str("match_id", next.ID).Msg("full time")
	if e.history != nil {
		if err := e.history.Save(ctx, next.Clone()); err != nil {
			e.log.Error().Err(err).Str("match_id", next.ID).Msg("file finished match")
			return true, fmt.Errorf("file finished match: %w", err)
		}
	}
	return true, nil
}

// UndoLastAction removes the newest ledger entry along with its counter increment
// and any shot or kickout it created. It returns the removed action, or nil when
// there is nothing to undo.
func (e *Engine) UndoLastAction(ctx context.Context) (*model.Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.mutable() {
		return nil, nil
	}
	last, ok := e.current.LastAction()
	if !ok {
		e.log.Debug().Msg("undo ignored: empty ledger")
		return nil, nil
	}
	next := e.current.Clone()
	stats := next.StatsFor(last.Team)
	if stats == nil {
		return nil, nil
	}
	counter, ok := stats.Counter(last.EventType)
	if !ok || *counter <= 0 {
		e.log.Warn().Str("action_id", last.ID).Msg("undo ignored: counter already zero")
		return nil, nil
	}
	if last.ShotID != "" {
		next.Shots = removeShot(next.Shots, last.ShotID)
	}
	if last.KickoutID != "" {
		next.Kickouts = removeKickout(next.Kickouts, last.KickoutID)
	}
	next.Actions = next.Actions[:len(next.Actions)-1]
	*counter--

	if err := e.commit(ctx, next, false); err != nil {
		return nil, err
	}
	e.log.Debug().Str("event_type", string(last.EventType)).Str("team", string(last.Team)).Int("actions", len(next.Actions)).Msg("action undone")
	return &last, nil
}

// LastAction peeks at the ledger tail; nil when there is none.
func (e *Engine) LastAction() *model.Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	a, ok := e.current.LastAction()
	if !ok {
		return nil
	}
	return &a
}

// ClearMatch discards the working match.
func (e *Engine) ClearMatch(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Clear(ctx); err != nil {
		e.log.Error().Err(err).Msg("clear working match")
		return fmt.Errorf("clear match: %w", err)
	}
	e.current = nil
	e.log.Info().Msg("working match cleared")
	return nil
}

// commit persists next and only then makes it current. Caller holds mu.
// Only growing writes (new match, new action) are checked against the space guard;
// undo and the half / full time transitions must stay possible on a full store.
func (e *Engine) commit(ctx context.Context, next model.Match, grow bool) error {
	if grow && e.guard != nil {
		raw, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode match: %w", err)
		}
		if err := e.guard.Ensure(ctx, int64(len(raw))); err != nil {
			e.log.Warn().Err(err).Int("bytes", len(raw)).Msg("write refused by space guard")
			return err
		}
	}
	if err := e.store.Save(ctx, next); err != nil {
		e.log.Error().Err(err).Str("match_id", next.ID).Msg("persist working match")
		return fmt.Errorf("persist match: %w", err)
	}
	e.current = &next
	return nil
}

func (e *Engine) mutable() bool {
	return e.current != nil && !e.current.IsFinished
}

func (e *Engine) stamp() int64 { return e.now().UnixMilli() }

func checkTeam(t model.Team) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTeam, t)
	}
	return nil
}

func removeShot(shots []model.Shot, id string) []model.Shot {
	out := shots[:0]
	for _, s := range shots {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

func removeKickout(ks []model.Kickout, id string) []model.Kickout {
	out := ks[:0]
	for _, k := range ks {
		if k.ID != id {
			out = append(out, k)
		}
	}
	return out
}
