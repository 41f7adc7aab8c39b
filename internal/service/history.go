package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/maxviazov/sideline-stats-service/internal/model"
	"github.com/maxviazov/sideline-stats-service/internal/repository"
	"github.com/maxviazov/sideline-stats-service/internal/stats"
)

// historyService reads and prunes finished matches and builds the per-team analytics.
type historyService struct {
	repo repository.MatchHistoryRepository
	log  zerolog.Logger
}

func NewHistoryService(repo repository.MatchHistoryRepository, logger zerolog.Logger) HistoryService {
	l := logger.With().Str("module", "service").Str("component", "history").Logger()
	return &historyService{repo: repo, log: l}
}

func (s *historyService) List(ctx context.Context, page repository.Page) (repository.PageResult[model.Match], error) {
	p := page.Sanitize()
	res, err := s.repo.List(ctx, p)
	if err != nil {
		s.log.Error().Err(err).Int("limit", p.Limit).Int("offset", p.Offset).Msg("list history failed")
		return repository.PageResult[model.Match]{}, err
	}
	return res, nil
}

func (s *historyService) Get(ctx context.Context, id string) (model.Match, error) {
	var ferrs []FieldError
	id = requireID("id", id, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return model.Match{}, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *historyService) Breakdown(ctx context.Context, id, view string) (stats.MatchBreakdown, error) {
	v, err := stats.ParseView(view)
	if err != nil {
		return stats.MatchBreakdown{}, newInvalidInput([]FieldError{{Field: "view", Message: "must be overall, first or second"}})
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return stats.MatchBreakdown{}, err
	}
	return stats.Breakdown(m, v), nil
}

func (s *historyService) Delete(ctx context.Context, id string) error {
	var ferrs []FieldError
	id = requireID("id", id, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("match_id", id).Msg("match deleted from history")
	return nil
}

func (s *historyService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("clear history failed")
		return err
	}
	s.log.Warn().Msg("match history cleared")
	return nil
}

// ByTeam matches either side's name by case-insensitive substring.
func (s *historyService) ByTeam(ctx context.Context, team string) ([]model.Match, error) {
	var ferrs []FieldError
	team = requireName("team", team, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return nil, err
	}
	return s.repo.ListByTeam(ctx, team)
}

// TeamSummary aggregates the matches where the team played under exactly this name.
// The repository narrows by substring; stats.Summarize keeps exact names only.
func (s *historyService) TeamSummary(ctx context.Context, team string) (stats.TeamSummary, error) {
	matches, err := s.ByTeam(ctx, team)
	if err != nil {
		return stats.TeamSummary{}, err
	}
	sum := stats.Summarize(strings.TrimSpace(team), matches)
	if len(sum.Matches) == 0 {
		return stats.TeamSummary{}, repository.ErrNotFound
	}
	return sum, nil
}

func (s *historyService) ShotZones(ctx context.Context, team string, q ShotQuery) (ShotMap, error) {
	var ferrs []FieldError
	from := optionalDate("from", q.From, &ferrs)
	to := optionalDate("to", q.To, &ferrs)
	if from != "" && to != "" && from > to {
		ferrs = append(ferrs, FieldError{Field: "from", Message: "must not be after to"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return ShotMap{}, err
	}
	matches, err := s.ByTeam(ctx, team)
	if err != nil {
		return ShotMap{}, err
	}
	team = strings.TrimSpace(team)
	located := stats.ShotsForTeam(team, matches, stats.DateRange{From: from, To: to})
	return ShotMap{Team: team, Shots: located, Zones: stats.ShotZones(stats.Shots(located))}, nil
}

func (s *historyService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
