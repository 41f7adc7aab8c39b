package service_test

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/maxviazov/sideline-stats-service/internal/model"
	"github.com/maxviazov/sideline-stats-service/internal/repository"
	"github.com/maxviazov/sideline-stats-service/internal/service"
)

func serviceErrIsInvalid(err error) bool { return errors.Is(err, service.ErrInvalidInput) }

func hasField(err error, field string) bool {
	for _, f := range service.FieldErrors(err) {
		if f.Field == field {
			return true
		}
	}
	return false
}

type memSlot struct {
	m *model.Match
}

func (s *memSlot) Load(context.Context) (*model.Match, error) {
	if s.m == nil {
		return nil, nil
	}
	c := s.m.Clone()
	return &c, nil
}
func (s *memSlot) Save(_ context.Context, m model.Match) error { c := m.Clone(); s.m = &c; return nil }
func (s *memSlot) Clear(context.Context) error                 { s.m = nil; return nil }

type fakeHistory struct {
	mu      sync.Mutex
	items   map[string]model.Match
	saveErr error
	saved   int
}

func newFakeHistory(ms ...model.Match) *fakeHistory {
	f := &fakeHistory{items: map[string]model.Match{}}
	for _, m := range ms {
		f.items[m.ID] = m
	}
	return f
}

func (f *fakeHistory) sorted() []model.Match {
	out := make([]model.Match, 0, len(f.items))
	for _, m := range f.items {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeHistory) Save(_ context.Context, m model.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved++
	f.items[m.ID] = m
	return nil
}
func (f *fakeHistory) GetByID(_ context.Context, id string) (model.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.items[id]
	if !ok {
		return model.Match{}, repository.ErrNotFound
	}
	return m, nil
}
func (f *fakeHistory) List(_ context.Context, p repository.Page) (repository.PageResult[model.Match], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted()
	res := repository.PageResult[model.Match]{Items: []model.Match{}, Total: len(all)}
	for i := p.Offset; i < len(all) && i < p.Offset+p.Limit; i++ {
		res.Items = append(res.Items, all[i])
	}
	return res, nil
}
func (f *fakeHistory) ListAll(context.Context) ([]model.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(), nil
}
func (f *fakeHistory) ListByTeam(_ context.Context, team string) ([]model.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(team)
	out := []model.Match{}
	for _, m := range f.sorted() {
		if strings.Contains(strings.ToLower(m.HomeTeam), q) || strings.Contains(strings.ToLower(m.AwayTeam), q) {
			out = append(out, m)
		}
	}
	return out, nil
}
func (f *fakeHistory) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[id]
	return ok, nil
}
func (f *fakeHistory) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}
func (f *fakeHistory) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = map[string]model.Match{}
	return nil
}
func (f *fakeHistory) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items), nil
}

var _ repository.MatchHistoryRepository = (*fakeHistory)(nil)

// fakeRoster backs both squads and events so deleting a squad can cascade.
type fakeRoster struct {
	mu     sync.Mutex
	squads map[string]model.Squad
	events map[string]model.AttendanceEvent
}

func newFakeRoster() *fakeRoster {
	return &fakeRoster{squads: map[string]model.Squad{}, events: map[string]model.AttendanceEvent{}}
}

type fakeSquads struct{ *fakeRoster }
type fakeEvents struct{ *fakeRoster }

func (f fakeSquads) Save(_ context.Context, s model.Squad) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.Players = append([]model.Player(nil), s.Players...)
	f.squads[s.ID] = s
	return nil
}
func (f fakeSquads) GetByID(_ context.Context, id string) (model.Squad, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.squads[id]
	if !ok {
		return model.Squad{}, repository.ErrNotFound
	}
	s.Players = append([]model.Player{}, s.Players...)
	return s, nil
}
func (f fakeSquads) List(context.Context) ([]model.Squad, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Squad{}
	for _, s := range f.squads {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamName < out[j].TeamName })
	return out, nil
}
func (f fakeSquads) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.squads[id]
	return ok, nil
}
func (f fakeSquads) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.squads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.squads, id)
	for k, e := range f.events {
		if e.SquadID == id {
			delete(f.events, k)
		}
	}
	return nil
}
func (f fakeSquads) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.squads = map[string]model.Squad{}
	f.events = map[string]model.AttendanceEvent{}
	return nil
}
func (f fakeSquads) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.squads), nil
}

func (f fakeEvents) Save(_ context.Context, e model.AttendanceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.squads[e.SquadID]; !ok {
		return repository.ErrConflict
	}
	e.Attendance = append([]model.PlayerAttendance(nil), e.Attendance...)
	f.events[e.ID] = e
	return nil
}
func (f fakeEvents) GetByID(_ context.Context, id string) (model.AttendanceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return model.AttendanceEvent{}, repository.ErrNotFound
	}
	e.Attendance = append([]model.PlayerAttendance{}, e.Attendance...)
	return e, nil
}
func (f fakeEvents) ListBySquad(_ context.Context, squadID string) ([]model.AttendanceEvent, error) {
	all, _ := f.ListAll(context.Background())
	out := []model.AttendanceEvent{}
	for _, e := range all {
		if e.SquadID == squadID {
			out = append(out, e)
		}
	}
	return out, nil
}
func (f fakeEvents) ListAll(context.Context) ([]model.AttendanceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.AttendanceEvent{}
	for _, e := range f.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}
func (f fakeEvents) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.events[id]
	return ok, nil
}
func (f fakeEvents) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.events, id)
	return nil
}
func (f fakeEvents) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events), nil
}

var (
	_ repository.SquadRepository      = fakeSquads{}
	_ repository.AttendanceRepository = fakeEvents{}
)

type fakeSettings struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeSettings() *fakeSettings { return &fakeSettings{values: map[string]string{}} }

func (f *fakeSettings) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}
func (f *fakeSettings) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

// passTx runs fn directly; calls counts units of work.
type passTx struct{ calls int }

func (p *passTx) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	p.calls++
	return fn(ctx)
}

type fakeGuard struct {
	err   error
	asked []int64
}

func (g *fakeGuard) Ensure(_ context.Context, n int64) error {
	g.asked = append(g.asked, n)
	return g.err
}

func seqIDs(prefix string) func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return prefix + strconv.Itoa(n), nil
	}
}
