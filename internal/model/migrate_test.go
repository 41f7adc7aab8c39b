package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/sideline-stats-service/internal/model"
)

func TestDecodeMatch_MigratesLegacyRecord(t *testing.T) {
	legacy := `{
		"id": "old-1",
		"homeTeam": "Kilmacud",
		"awayTeam": "Ballyboden",
		"date": "2023-04-01",
		"homeStats": {"point": 4, "goal": 1, "wide": 2, "short": 0, "saved": 0,
			"kickout_won": 0, "kickout_lost": 0, "turnover_won": 0, "turnover_lost": 0},
		"awayStats": {"point": 2},
		"shots": [{"id": "s1", "team": "home", "type": "goal", "isScore": true, "x": 50, "y": 10, "timestamp": 1, "half": 1}],
		"halfTimeSnapshot": null
	}`

	m, err := model.DecodeMatch([]byte(legacy))
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, []model.Action{}, m.Actions)
	assert.Equal(t, []model.Kickout{}, m.Kickouts)
	assert.Len(t, m.Shots, 1)
	assert.Equal(t, 0, m.HomeStats.TwoPoint)
	assert.Equal(t, 4, m.HomeStats.Point)
	assert.Equal(t, 0, m.AwayStats.TwoPoint)
	assert.Equal(t, model.FirstHalf, m.CurrentHalf)
	assert.False(t, m.IsFinished)
	assert.True(t, m.TrackShots)
	assert.True(t, m.TrackKickouts)
	assert.Nil(t, m.FirstHalfStartTime)
	assert.Nil(t, m.SecondHalfStartTime)
	assert.Nil(t, m.MatchEndTime)
}

func TestDecodeMatch_KeepsExplicitValues(t *testing.T) {
	in := model.NewMatch("m2", "A", "B", "2024-05-01", false, false, 100)
	in.CurrentHalf = model.SecondHalf
	in.IsFinished = true
	end := int64(900)
	in.MatchEndTime = &end

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := model.DecodeMatch(raw)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in, *out)
}

func TestDecodeMatch_NoIDIsAbsent(t *testing.T) {
	m, err := model.DecodeMatch([]byte(`{"homeTeam": "A"}`))
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestDecodeMatch_Garbage(t *testing.T) {
	_, err := model.DecodeMatch([]byte(`{not json`))
	assert.Error(t, err)
}
