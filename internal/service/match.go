package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/sideline-stats-service/internal/engine"
	"github.com/maxviazov/sideline-stats-service/internal/model"
	"github.com/maxviazov/sideline-stats-service/internal/repository"
	"github.com/maxviazov/sideline-stats-service/internal/stats"
)

// matchService drives the live match: validation and routing, no transport / SQL details.
type matchService struct {
	ledger  Ledger
	history repository.MatchHistoryRepository
	base
	log zerolog.Logger
}

func NewMatchService(ledger Ledger, history repository.MatchHistoryRepository, logger zerolog.Logger, opts ...Option) MatchService {
	l := logger.With().Str("module", "service").Str("component", "match").Logger()
	return &matchService{ledger: ledger, history: history, base: newBase(opts), log: l}
}

func (s *matchService) Current(_ context.Context) (model.Match, error) {
	m := s.ledger.Match()
	if m == nil {
		return model.Match{}, ErrNoActiveMatch
	}
	return *m, nil
}

// Start opens a new match. An unfinished working match blocks it unless in.Force is set;
// a finished one that never reached the history is filed there first.
func (s *matchService) Start(ctx context.Context, in StartMatchInput) (model.Match, error) {
	start := time.Now()
	var ferrs []FieldError
	home := requireName("homeTeam", in.HomeTeam, &ferrs)
	away := requireName("awayTeam", in.AwayTeam, &ferrs)
	date := optionalDate("date", in.Date, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("start match validation failed")
		return model.Match{}, err
	}
	if date == "" {
		date = s.now().Format(dateLayout)
	}

	if cur := s.ledger.Match(); cur != nil {
		switch {
		case cur.IsFinished:
			if err := s.history.Save(ctx, *cur); err != nil {
				s.log.Error().Err(err).Str("match_id", cur.ID).Msg("file finished match before start failed")
				return model.Match{}, err
			}
		case !in.Force:
			return model.Match{}, ErrMatchInProgress
		default:
			s.log.Warn().Str("match_id", cur.ID).Int("actions", len(cur.Actions)).Msg("unfinished match discarded")
		}
	}

	m, err := s.ledger.StartNewMatch(ctx, home, away, date, in.TrackShots, in.TrackKickouts)
	if err != nil {
		return model.Match{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Str("match_id", m.ID).Msg("match started")
	return m, nil
}

// Record routes a tap to the shot, kickout or plain path depending on the match's
// tracking flags. Located paths need both coordinates. The engine reads the flags
// and writes the action under one lock.
func (s *matchService) Record(ctx context.Context, in RecordInput) (RecordResult, error) {
	var ferrs []FieldError
	team := parseTeam(in.Team, &ferrs)
	eventType := parseEventType(in.EventType, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return RecordResult{}, err
	}

	var loc *model.Location
	if in.X != nil && in.Y != nil {
		loc = &model.Location{X: *in.X, Y: *in.Y}
	}
	a, err := s.ledger.Record(ctx, team, eventType, loc)
	if errors.Is(err, engine.ErrLocationRequired) {
		if in.X == nil {
			ferrs = append(ferrs, FieldError{Field: "x", Message: "is required when location tracking is on"})
		}
		if in.Y == nil {
			ferrs = append(ferrs, FieldError{Field: "y", Message: "is required when location tracking is on"})
		}
		return RecordResult{}, newInvalidInput(ferrs)
	}
	if err != nil {
		return RecordResult{}, err
	}
	return s.result(a), nil
}

func (s *matchService) HalfTime(ctx context.Context) (TransitionResult, error) {
	ok, err := s.ledger.SaveHalfTime(ctx)
	if err != nil {
		return TransitionResult{}, err
	}
	return TransitionResult{Applied: ok, Match: s.ledger.Match()}, nil
}

// FullTime returns the finished match even when filing it to the history failed,
// together with that error.
func (s *matchService) FullTime(ctx context.Context) (TransitionResult, error) {
	ok, err := s.ledger.SaveFullTime(ctx)
	return TransitionResult{Applied: ok, Match: s.ledger.Match()}, err
}

func (s *matchService) Undo(ctx context.Context) (RecordResult, error) {
	a, err := s.ledger.UndoLastAction(ctx)
	if err != nil {
		return RecordResult{}, err
	}
	return s.result(a), nil
}

func (s *matchService) LastAction(_ context.Context) (*model.Action, error) {
	if s.ledger.Match() == nil {
		return nil, ErrNoActiveMatch
	}
	return s.ledger.LastAction(), nil
}

// Abandon clears the working match. A finished one is filed to the history first,
// and stays in place when that fails.
func (s *matchService) Abandon(ctx context.Context) error {
	if cur := s.ledger.Match(); cur != nil {
		if cur.IsFinished {
			if err := s.history.Save(ctx, *cur); err != nil {
				s.log.Error().Err(err).Str("match_id", cur.ID).Msg("file finished match before clear failed")
				return err
			}
		} else {
			s.log.Info().Str("match_id", cur.ID).Int("actions", len(cur.Actions)).Msg("match abandoned")
		}
	}
	return s.ledger.ClearMatch(ctx)
}

func (s *matchService) Breakdown(_ context.Context, view string) (stats.MatchBreakdown, error) {
	v, err := stats.ParseView(view)
	if err != nil {
		return stats.MatchBreakdown{}, newInvalidInput([]FieldError{{Field: "view", Message: "must be overall, first or second"}})
	}
	m := s.ledger.Match()
	if m == nil {
		return stats.MatchBreakdown{}, ErrNoActiveMatch
	}
	return stats.Breakdown(*m, v), nil
}

func (s *matchService) Timeline(_ context.Context, filter string) ([]stats.TimelineEntry, error) {
	f, err := stats.ParseFilter(filter)
	if err != nil {
		return nil, newInvalidInput([]FieldError{{Field: "filter", Message: "must be all, shots, kickouts or turnovers"}})
	}
	m := s.ledger.Match()
	if m == nil {
		return nil, ErrNoActiveMatch
	}
	return stats.Timeline(*m, f), nil
}

func (s *matchService) result(a *model.Action) RecordResult {
	if a == nil {
		return RecordResult{}
	}
	return RecordResult{Applied: true, Action: a, Match: s.ledger.Match()}
}
