package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/sideline-stats-service/internal/handler"
	"github.com/maxviazov/sideline-stats-service/internal/model"
	"github.com/maxviazov/sideline-stats-service/internal/repository"
	"github.com/maxviazov/sideline-stats-service/internal/service"
	"github.com/maxviazov/sideline-stats-service/internal/stats"
)

// stubPinger implements handler.Pinger for health endpoints.
type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

type stubStorage struct{ check repository.SpaceCheck }

func (s stubStorage) Check(ctx context.Context, required int64) repository.SpaceCheck { return s.check }

// fakeInvalid replicates aggregated validation error semantics.
type fakeInvalid struct{ fe []service.FieldError }

func (f *fakeInvalid) Error() string                { return service.ErrInvalidInput.Error() }
func (f *fakeInvalid) Unwrap() error                { return service.ErrInvalidInput }
func (f *fakeInvalid) Fields() []service.FieldError { return f.fe }

// stubMatchService records the last input and returns canned results.
type stubMatchService struct {
	service.MatchService
	started  service.StartMatchInput
	recorded service.RecordInput
	startErr error
	record   service.RecordResult
	full     service.TransitionResult
	fullErr  error
	last     *model.Action
	lastErr  error
	view     string
}

func (s *stubMatchService) Current(ctx context.Context) (model.Match, error) {
	return model.Match{}, service.ErrNoActiveMatch
}
func (s *stubMatchService) Start(ctx context.Context, in service.StartMatchInput) (model.Match, error) {
	s.started = in
	if s.startErr != nil {
		return model.Match{}, s.startErr
	}
	return model.NewMatch("m1", in.HomeTeam, in.AwayTeam, "2025-03-01", in.TrackShots, in.TrackKickouts, 1), nil
}
func (s *stubMatchService) Record(ctx context.Context, in service.RecordInput) (service.RecordResult, error) {
	s.recorded = in
	return s.record, nil
}
func (s *stubMatchService) FullTime(ctx context.Context) (service.TransitionResult, error) {
	return s.full, s.fullErr
}
func (s *stubMatchService) LastAction(ctx context.Context) (*model.Action, error) {
	return s.last, s.lastErr
}
func (s *stubMatchService) Abandon(ctx context.Context) error { return nil }
func (s *stubMatchService) Breakdown(ctx context.Context, view string) (stats.MatchBreakdown, error) {
	s.view = view
	return stats.MatchBreakdown{}, &fakeInvalid{fe: []service.FieldError{{Field: "view", Message: "bad"}}}
}

type stubHistoryService struct {
	service.HistoryService
	page    repository.Page
	cleared bool
	query   service.ShotQuery
}

func (s *stubHistoryService) List(ctx context.Context, p repository.Page) (repository.PageResult[model.Match], error) {
	s.page = p
	return repository.PageResult[model.Match]{Items: []model.Match{}, Total: 0}, nil
}
func (s *stubHistoryService) Get(ctx context.Context, id string) (model.Match, error) {
	return model.Match{}, fmt.Errorf("get %s: %w", id, repository.ErrNotFound)
}
func (s *stubHistoryService) Clear(ctx context.Context) error { s.cleared = true; return nil }
func (s *stubHistoryService) ShotZones(ctx context.Context, team string, q service.ShotQuery) (service.ShotMap, error) {
	s.query = q
	return service.ShotMap{Team: team}, nil
}

type stubSquadService struct {
	service.SquadService
	toggled string
}

func (s *stubSquadService) CreateSquad(ctx context.Context, teamName string) (model.Squad, error) {
	return model.NewSquad("sq1", teamName, 1), nil
}
func (s *stubSquadService) AddPlayer(ctx context.Context, squadID, name, number string) (model.Player, error) {
	return model.Player{}, repository.ErrInsufficientStorage
}
func (s *stubSquadService) ToggleAttendance(ctx context.Context, eventID, playerID, field string) (model.AttendanceEvent, error) {
	s.toggled = field
	return model.AttendanceEvent{ID: eventID}, nil
}

type stubBackupService struct {
	service.BackupService
	mode service.ImportMode
	body string
}

func (s *stubBackupService) Export(ctx context.Context) (service.BackupData, error) {
	return service.BackupData{Version: 1, ExportDate: "2025-03-01T10:00:00.000Z", AppName: service.AppName}, nil
}
func (s *stubBackupService) Import(ctx context.Context, r io.Reader, mode service.ImportMode) (service.ImportResult, error) {
	s.mode = mode
	raw, _ := io.ReadAll(r)
	s.body = string(raw)
	if s.body == "nope" {
		return service.ImportResult{Errors: []string{"Invalid JSON file"}}, fmt.Errorf("%w: Invalid JSON file", service.ErrInvalidBackup)
	}
	return service.ImportResult{Success: true, Errors: []string{}}, nil
}

func newRouter(svc handler.Services) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.Register(r, stubPinger{}, stubStorage{check: repository.SpaceCheck{CanStore: true, Message: "ok"}}, svc)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, rd))
	return w
}

func TestHealth(t *testing.T) {
	r := newRouter(handler.Services{})
	if w := do(r, http.MethodGet, "/live", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/health/ready", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w := do(r, http.MethodGet, "/api/v1/health/storage", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"canStore":true`)) {
		t.Fatalf("unexpected storage response %d: %s", w.Code, w.Body.String())
	}

	gin.SetMode(gin.TestMode)
	down := gin.New()
	handler.Register(down, stubPinger{err: errors.New("db down")}, nil, handler.Services{})
	if w := do(down, http.MethodGet, "/ready", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestMatchHandler_Start(t *testing.T) {
	stub := &stubMatchService{}
	r := newRouter(handler.Services{Match: stub})

	w := do(r, http.MethodPost, "/api/v1/match?force=1", map[string]any{
		"homeTeam": "Kilmacud", "awayTeam": "Ballyboden", "trackKickouts": false,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if !stub.started.TrackShots || stub.started.TrackKickouts || !stub.started.Force {
		t.Fatalf("unexpected start input %+v", stub.started)
	}

	stub.startErr = service.ErrMatchInProgress
	w = do(r, http.MethodPost, "/api/v1/match", map[string]any{"homeTeam": "A", "awayTeam": "B"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	w = do(r, http.MethodPost, "/api/v1/match", "{bad")
	if w.Code != http.StatusBadRequest || !bytes.Contains(w.Body.Bytes(), []byte("invalid_input")) {
		t.Fatalf("expected 400 invalid_input, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMatchHandler_CurrentWithoutMatch(t *testing.T) {
	r := newRouter(handler.Services{Match: &stubMatchService{}})
	w := do(r, http.MethodGet, "/api/v1/match", nil)
	if w.Code != http.StatusNotFound || !bytes.Contains(w.Body.Bytes(), []byte("no_active_match")) {
		t.Fatalf("expected 404 no_active_match, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMatchHandler_Record(t *testing.T) {
	stub := &stubMatchService{}
	r := newRouter(handler.Services{Match: stub})

	w := do(r, http.MethodPost, "/api/v1/match/events", map[string]any{"team": "home", "eventType": "goal", "x": 40.5, "y": 12})
	if w.Code != http.StatusOK {
		t.Fatalf("no-op record should answer 200, got %d", w.Code)
	}
	if stub.recorded.X == nil || *stub.recorded.X != 40.5 || stub.recorded.EventType != "goal" {
		t.Fatalf("unexpected record input %+v", stub.recorded)
	}

	stub.record = service.RecordResult{Applied: true, Action: &model.Action{ID: "a1"}}
	w = do(r, http.MethodPost, "/api/v1/match/events", map[string]any{"team": "away", "eventType": "wide"})
	if w.Code != http.StatusCreated || !bytes.Contains(w.Body.Bytes(), []byte(`"a1"`)) {
		t.Fatalf("expected 201 with action, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMatchHandler_LastActionAndViews(t *testing.T) {
	stub := &stubMatchService{}
	r := newRouter(handler.Services{Match: stub})

	if w := do(r, http.MethodGet, "/api/v1/match/last-action", nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	stub.lastErr = service.ErrNoActiveMatch
	if w := do(r, http.MethodGet, "/api/v1/match/last-action", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	w := do(r, http.MethodGet, "/api/v1/match/breakdown?view=extra", nil)
	if w.Code != http.StatusBadRequest || stub.view != "extra" {
		t.Fatalf("expected 400 for bad view, got %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/api/v1/match", nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestMatchHandler_FullTimeFilingFailure(t *testing.T) {
	m := model.NewMatch("m1", "A", "B", "2025-03-01", true, true, 1)
	m.IsFinished = true
	stub := &stubMatchService{full: service.TransitionResult{Applied: true, Match: &m}, fullErr: errors.New("disk full")}
	r := newRouter(handler.Services{Match: stub})

	w := do(r, http.MethodPost, "/api/v1/match/full-time", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("warning")) {
		t.Fatalf("expected 200 with warning, got %d: %s", w.Code, w.Body.String())
	}

	stub.full = service.TransitionResult{}
	w = do(r, http.MethodPost, "/api/v1/match/full-time", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestHistoryHandler(t *testing.T) {
	stub := &stubHistoryService{}
	r := newRouter(handler.Services{History: stub})

	if w := do(r, http.MethodGet, "/api/v1/history?limit=5&offset=10", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stub.page.Limit != 5 || stub.page.Offset != 10 {
		t.Fatalf("unexpected page %+v", stub.page)
	}
	if w := do(r, http.MethodGet, "/api/v1/history/m404", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/api/v1/history", nil); w.Code != http.StatusBadRequest || stub.cleared {
		t.Fatalf("clear without confirm must be refused, got %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/api/v1/history?confirm=true", nil); w.Code != http.StatusNoContent || !stub.cleared {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w := do(r, http.MethodGet, "/api/v1/history/teams/Kilmacud/zones?from=2025-01-01&to=2025-02-01", nil)
	if w.Code != http.StatusOK || stub.query.From != "2025-01-01" || stub.query.To != "2025-02-01" {
		t.Fatalf("unexpected zones call %d %+v", w.Code, stub.query)
	}
}

func TestSquadHandler(t *testing.T) {
	stub := &stubSquadService{}
	r := newRouter(handler.Services{Squads: stub})

	w := do(r, http.MethodPost, "/api/v1/squads", map[string]string{"teamName": "Seniors"})
	if w.Code != http.StatusCreated || !bytes.Contains(w.Body.Bytes(), []byte("Seniors")) {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodPost, "/api/v1/squads/sq1/players", map[string]string{"name": "Paddy"})
	if w.Code != http.StatusInsufficientStorage {
		t.Fatalf("expected 507, got %d", w.Code)
	}
	w = do(r, http.MethodPost, "/api/v1/events/ev1/attendance/p1/toggle?field=injured", nil)
	if w.Code != http.StatusOK || stub.toggled != "injured" {
		t.Fatalf("expected injured toggle, got %d %q", w.Code, stub.toggled)
	}
	do(r, http.MethodPost, "/api/v1/events/ev1/attendance/p1/toggle", nil)
	if stub.toggled != "present" {
		t.Fatalf("toggle should default to present, got %q", stub.toggled)
	}
}

func TestBackupHandler(t *testing.T) {
	stub := &stubBackupService{}
	r := newRouter(handler.Services{Backup: stub})

	w := do(r, http.MethodGet, "/api/v1/backup", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="sideline-iq-backup-2025-03-01.json"` {
		t.Fatalf("unexpected disposition %q", got)
	}

	w = do(r, http.MethodPost, "/api/v1/backup/import?mode=replace", `{"version":1}`)
	if w.Code != http.StatusOK || stub.mode != service.ImportReplace || stub.body != `{"version":1}` {
		t.Fatalf("unexpected import %d mode=%s body=%s", w.Code, stub.mode, stub.body)
	}

	w = do(r, http.MethodPost, "/api/v1/backup/import", "nope")
	if w.Code != http.StatusBadRequest || !bytes.Contains(w.Body.Bytes(), []byte("Invalid JSON file")) {
		t.Fatalf("expected 400 with reason, got %d: %s", w.Code, w.Body.String())
	}
	if stub.mode != service.ImportMerge {
		t.Fatalf("mode should default to merge, got %s", stub.mode)
	}

	w = do(r, http.MethodPost, "/api/v1/backup/import?mode=append", "{}")
	if w.Code != http.StatusBadRequest || !bytes.Contains(w.Body.Bytes(), []byte("mode")) {
		t.Fatalf("expected 400 for mode, got %d", w.Code)
	}
}

