package fx_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/maxviazov/sideline-stats-service/internal/config"
	fxmodules "github.com/maxviazov/sideline-stats-service/internal/fx"
	"github.com/maxviazov/sideline-stats-service/internal/logger"
	"github.com/maxviazov/sideline-stats-service/internal/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{
			Name: "sideline-test", Env: "dev", Port: 18080, ShutdownTimeout: 1,
			CORSOrigins: []string{"*"},
		},
		Logger:  logger.LoggerConfig{Level: "error", Format: "json", Env: "dev"},
		Storage: config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "sideline.db")},
		Backup:  config.BackupConfig{ReminderDays: 14},
	}
}

func TestModule_GraphIsComplete(t *testing.T) {
	err := fx.ValidateApp(fxmodules.Module, fx.Invoke(fxmodules.RunServer))
	require.NoError(t, err)
}

func send(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
	return w
}

func TestCore_PlaysAMatchOverSQLite(t *testing.T) {
	cfg := testConfig(t)
	var h http.Handler
	app := fxtest.New(t, fx.Supply(cfg), fxmodules.Core, fx.Populate(&h))
	app.RequireStart()
	defer app.RequireStop()

	w := send(t, h, http.MethodPost, "/api/v1/match", map[string]any{
		"homeTeam": "Kilmacud", "awayTeam": "Ballyboden", "date": "2025-03-01", "trackShots": false,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	for _, ev := range []string{"goal", "point", "point", "wide"} {
		w = send(t, h, http.MethodPost, "/api/v1/match/events", map[string]string{"team": "home", "eventType": ev})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w = send(t, h, http.MethodPost, "/api/v1/match/undo", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = send(t, h, http.MethodGet, "/api/v1/match", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var m model.Match
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, 1, m.HomeStats.Goal)
	assert.Equal(t, 2, m.HomeStats.Point)
	assert.Equal(t, 0, m.HomeStats.Wide)
	assert.Len(t, m.Actions, 3)

	require.Equal(t, http.StatusOK, send(t, h, http.MethodPost, "/api/v1/match/half-time", nil).Code)
	require.Equal(t, http.StatusOK, send(t, h, http.MethodPost, "/api/v1/match/full-time", nil).Code)

	w = send(t, h, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = send(t, h, http.MethodGet, "/api/v1/backup/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"matchCount":1`)
}

func TestCore_RestoresWorkingMatch(t *testing.T) {
	cfg := testConfig(t)

	var h http.Handler
	first := fxtest.New(t, fx.Supply(cfg), fxmodules.Core, fx.Populate(&h))
	first.RequireStart()
	w := send(t, h, http.MethodPost, "/api/v1/match", map[string]any{"homeTeam": "A", "awayTeam": "B"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, http.StatusCreated,
		send(t, h, http.MethodPost, "/api/v1/match/events", map[string]string{"team": "away", "eventType": "turnover_won"}).Code)
	first.RequireStop()

	second := fxtest.New(t, fx.Supply(cfg), fxmodules.Core, fx.Populate(&h))
	second.RequireStart()
	defer second.RequireStop()

	w = send(t, h, http.MethodGet, "/api/v1/match", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var m model.Match
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, 1, m.AwayStats.TurnoverWon)
}
