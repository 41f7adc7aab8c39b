package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/maxviazov/sideline-stats-service/internal/model"
	"github.com/maxviazov/sideline-stats-service/internal/repository"
)

// SpaceGuard rejects a write of the given size when storage is short.
type SpaceGuard interface {
	Ensure(ctx context.Context, required int64) error
}

func newNanoID() (string, error) { return gonanoid.New() }

const maxPlayerNumber = 4

// squadService keeps rosters and roll calls. Read-modify-write updates run in one
// transaction; the space check runs before it opens.
type squadService struct {
	squads repository.SquadRepository
	events repository.AttendanceRepository
	tx     repository.TxManager
	guard  SpaceGuard
	base
	log zerolog.Logger
}

func NewSquadService(squads repository.SquadRepository, events repository.AttendanceRepository, tx repository.TxManager, guard SpaceGuard, logger zerolog.Logger, opts ...Option) SquadService {
	l := logger.With().Str("module", "service").Str("component", "squad").Logger()
	return &squadService{squads: squads, events: events, tx: tx, guard: guard, base: newBase(opts), log: l}
}

func (s *squadService) CreateSquad(ctx context.Context, teamName string) (model.Squad, error) {
	var ferrs []FieldError
	teamName = requireName("teamName", teamName, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return model.Squad{}, err
	}
	id, err := s.newID()
	if err != nil {
		return model.Squad{}, fmt.Errorf("generate squad id: %w", err)
	}
	sq := model.NewSquad(id, teamName, s.millis())
	if err := s.ensure(ctx, sq); err != nil {
		return model.Squad{}, err
	}
	if err := s.squads.Save(ctx, sq); err != nil {
		s.log.Error().Err(err).Str("team_name", teamName).Msg("create squad failed")
		return model.Squad{}, err
	}
	s.log.Info().Str("squad_id", sq.ID).Msg("squad created")
	return sq, nil
}

func (s *squadService) RenameSquad(ctx context.Context, id, teamName string) (model.Squad, error) {
	var ferrs []FieldError
	id = requireID("id", id, &ferrs)
	teamName = requireName("teamName", teamName, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return model.Squad{}, err
	}
	return s.updateSquad(ctx, id, func(sq *model.Squad) error {
		sq.TeamName = teamName
		return nil
	})
}

func (s *squadService) ListSquads(ctx context.Context) ([]model.Squad, error) {
	return s.squads.List(ctx)
}

func (s *squadService) GetSquad(ctx context.Context, id string) (model.Squad, error) {
	var ferrs []FieldError
	id = requireID("id", id, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return model.Squad{}, err
	}
	return s.squads.GetByID(ctx, id)
}

// DeleteSquad removes the squad and, through the store, every event it owns.
func (s *squadService) DeleteSquad(ctx context.Context, id string) error {
	var ferrs []FieldError
	id = requireID("id", id, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return err
	}
	if err := s.squads.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("squad_id", id).Msg("squad deleted")
	return nil
}

func (s *squadService) AddPlayer(ctx context.Context, squadID, name, number string) (model.Player, error) {
	var ferrs []FieldError
	squadID = requireID("squadId", squadID, &ferrs)
	name = requireName("name", name, &ferrs)
	number = playerNumber(number, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return model.Player{}, err
	}
	id, err := s.newID()
	if err != nil {
		return model.Player{}, fmt.Errorf("generate player id: %w", err)
	}
	p := model.Player{ID: id, Name: name, Number: number, IsActive: true}
	if err := s.ensure(ctx, p); err != nil {
		return model.Player{}, err
	}
	if _, err := s.updateSquad(ctx, squadID, func(sq *model.Squad) error {
		sq.Players = append(sq.Players, p)
		return nil
	}); err != nil {
		return model.Player{}, err
	}
	return p, nil
}

func (s *squadService) UpdatePlayer(ctx context.Context, squadID, playerID, name, number string) (model.Player, error) {
	var ferrs []FieldError
	squadID = requireID("squadId", squadID, &ferrs)
	playerID = requireID("playerId", playerID, &ferrs)
	name = requireName("name", name, &ferrs)
	number = playerNumber(number, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return model.Player{}, err
	}
	var out model.Player
	_, err := s.updateSquad(ctx, squadID, func(sq *model.Squad) error {
		p := findPlayer(sq, playerID)
		if p == nil {
			return repository.ErrNotFound
		}
		p.Name, p.Number = name, number
		out = *p
		return nil
	})
	return out, err
}

// RemovePlayer marks the player inactive; past roll calls keep referring to them.
func (s *squadService) RemovePlayer(ctx context.Context, squadID, playerID string) error {
	var ferrs []FieldError
	squadID = requireID("squadId", squadID, &ferrs)
	playerID = requireID("playerId", playerID, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return err
	}
	_, err := s.updateSquad(ctx, squadID, func(sq *model.Squad) error {
		p := findPlayer(sq, playerID)
		if p == nil {
			return repository.ErrNotFound
		}
		p.IsActive = false
		return nil
	})
	return err
}

// CreateEvent opens a roll call listing the squad's active players, all absent.
func (s *squadService) CreateEvent(ctx context.Context, squadID, name, date string) (model.AttendanceEvent, error) {
	var ferrs []FieldError
	squadID = requireID("squadId", squadID, &ferrs)
	name = requireName("name", name, &ferrs)
	date = optionalDate("date", date, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return model.AttendanceEvent{}, err
	}
	if date == "" {
		date = s.now().Format(dateLayout)
	}
	sq, err := s.squads.GetByID(ctx, squadID)
	if err != nil {
		return model.AttendanceEvent{}, err
	}
	id, err := s.newID()
	if err != nil {
		return model.AttendanceEvent{}, fmt.Errorf("generate event id: %w", err)
	}
	ev := model.NewAttendanceEvent(id, sq.ID, name, date, sq.Players, s.millis())
	if err := s.ensure(ctx, ev); err != nil {
		return model.AttendanceEvent{}, err
	}
	if err := s.events.Save(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("squad_id", squadID).Msg("create event failed")
		return model.AttendanceEvent{}, err
	}
	s.log.Info().Str("event_id", ev.ID).Int("players", len(ev.Attendance)).Msg("attendance event created")
	return ev, nil
}

// SetAttendance replaces the whole roll of an event.
func (s *squadService) SetAttendance(ctx context.Context, eventID string, roll []model.PlayerAttendance) (model.AttendanceEvent, error) {
	var ferrs []FieldError
	eventID = requireID("id", eventID, &ferrs)
	seen := make(map[string]bool, len(roll))
	for i, a := range roll {
		field := fmt.Sprintf("attendance[%d].playerId", i)
		switch {
		case strings.TrimSpace(a.PlayerID) == "":
			ferrs = append(ferrs, FieldError{Field: field, Message: "must not be empty"})
		case seen[a.PlayerID]:
			ferrs = append(ferrs, FieldError{Field: field, Message: "duplicate player"})
		}
		seen[a.PlayerID] = true
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.AttendanceEvent{}, err
	}
	if roll == nil {
		roll = []model.PlayerAttendance{}
	}
	return s.updateEvent(ctx, eventID, func(ev *model.AttendanceEvent) error {
		ev.Attendance = roll
		return nil
	})
}

// ToggleAttendance flips present or injured for one player.
func (s *squadService) ToggleAttendance(ctx context.Context, eventID, playerID, field string) (model.AttendanceEvent, error) {
	var ferrs []FieldError
	eventID = requireID("id", eventID, &ferrs)
	playerID = requireID("playerId", playerID, &ferrs)
	field = strings.ToLower(strings.TrimSpace(field))
	if field != "present" && field != "injured" {
		ferrs = append(ferrs, FieldError{Field: "field", Message: "must be present or injured"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.AttendanceEvent{}, err
	}
	return s.updateEvent(ctx, eventID, func(ev *model.AttendanceEvent) error {
		for i := range ev.Attendance {
			a := &ev.Attendance[i]
			if a.PlayerID != playerID {
				continue
			}
			if field == "present" {
				a.Present = !a.Present
			} else {
				a.Injured = !a.Injured
			}
			return nil
		}
		return repository.ErrNotFound
	})
}

func (s *squadService) ListEvents(ctx context.Context, squadID string) ([]model.AttendanceEvent, error) {
	var ferrs []FieldError
	squadID = requireID("squadId", squadID, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return nil, err
	}
	ok, err := s.squads.Exists(ctx, squadID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.events.ListBySquad(ctx, squadID)
}

func (s *squadService) DeleteEvent(ctx context.Context, id string) error {
	var ferrs []FieldError
	id = requireID("id", id, &ferrs)
	if err := newInvalidInput(ferrs); err != nil {
		return err
	}
	return s.events.Delete(ctx, id)
}

func (s *squadService) updateSquad(ctx context.Context, id string, mutate func(*model.Squad) error) (model.Squad, error) {
	var out model.Squad
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sq, err := s.squads.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := mutate(&sq); err != nil {
			return err
		}
		sq.UpdatedAt = s.millis()
		if err := s.squads.Save(ctx, sq); err != nil {
			return err
		}
		out = sq
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("squad_id", id).Msg("update squad failed")
		return model.Squad{}, err
	}
	return out, nil
}

func (s *squadService) updateEvent(ctx context.Context, id string, mutate func(*model.AttendanceEvent) error) (model.AttendanceEvent, error) {
	var out model.AttendanceEvent
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ev, err := s.events.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := mutate(&ev); err != nil {
			return err
		}
		if err := s.events.Save(ctx, ev); err != nil {
			return err
		}
		out = ev
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Str("event_id", id).Msg("update event failed")
		return model.AttendanceEvent{}, err
	}
	return out, nil
}

func (s *squadService) ensure(ctx context.Context, v any) error {
	if s.guard == nil {
		return nil
	}
	return s.guard.Ensure(ctx, repository.EstimateSize(v))
}

func (s *squadService) millis() int64 { return s.now().UnixMilli() }

func findPlayer(sq *model.Squad, id string) *model.Player {
	for i := range sq.Players {
		if sq.Players[i].ID == id {
			return &sq.Players[i]
		}
	}
	return nil
}

func playerNumber(v string, ferrs *[]FieldError) string {
	v = strings.TrimSpace(v)
	if utf8.RuneCountInString(v) > maxPlayerNumber {
		*ferrs = append(*ferrs, FieldError{Field: "number", Message: "must be at most 4 characters"})
	}
	return v
}
