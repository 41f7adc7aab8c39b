package service_test

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/sideline-stats-service/internal/model"
	"github.com/maxviazov/sideline-stats-service/internal/repository"
	"github.com/maxviazov/sideline-stats-service/internal/service"
)

func played(id, home, away, date string, hs, as model.TeamStats, shots ...model.Shot) model.Match {
	m := model.NewMatch(id, home, away, date, true, true, 0)
	m.HomeStats, m.AwayStats = hs, as
	m.Shots = append(m.Shots, shots...)
	m.CurrentHalf = model.SecondHalf
	m.IsFinished = true
	return m
}

func seededHistory() *fakeHistory {
	return newFakeHistory(
		played("m1", "Kilmacud", "Ballyboden", "2025-01-10",
			model.TeamStats{Goal: 1, Point: 10, Wide: 4}, model.TeamStats{Point: 9},
			model.Shot{ID: "s1", Team: model.Home, Type: model.EventGoal, IsScore: true, X: 50, Y: 5},
			model.Shot{ID: "s2", Team: model.Away, Type: model.EventPoint, IsScore: true, X: 40, Y: 90},
		),
		played("m2", "Na Fianna", "Kilmacud", "2025-02-10",
			model.TeamStats{Point: 12}, model.TeamStats{Point: 12},
			model.Shot{ID: "s3", Team: model.Away, Type: model.EventWide, X: 99, Y: 99},
		),
		played("m3", "Kilmacud Crokes II", "Ballyboden", "2025-03-10",
			model.TeamStats{Point: 1}, model.TeamStats{Point: 2},
		),
	)
}

func TestHistoryService_ListSanitizesPage(t *testing.T) {
	svc := service.NewHistoryService(seededHistory(), zerolog.New(io.Discard))
	res, err := svc.List(context.Background(), repository.Page{Limit: 0, Offset: -5})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "m3", res.Items[0].ID)
}

func TestHistoryService_GetAndDelete(t *testing.T) {
	svc := service.NewHistoryService(seededHistory(), zerolog.New(io.Discard))
	ctx := context.Background()

	_, err := svc.Get(ctx, " ")
	assert.True(t, serviceErrIsInvalid(err))

	_, err = svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "m1"))
	assert.ErrorIs(t, svc.Delete(ctx, "m1"), repository.ErrNotFound)
	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, svc.Clear(ctx))
	n, _ = svc.Count(ctx)
	assert.Zero(t, n)
}

func TestHistoryService_Breakdown(t *testing.T) {
	svc := service.NewHistoryService(seededHistory(), zerolog.New(io.Discard))
	b, err := svc.Breakdown(context.Background(), "m1", "overall")
	require.NoError(t, err)
	assert.Equal(t, "1-10", b.Home.Score)
	assert.Equal(t, "0-09", b.Away.Score)

	_, err = svc.Breakdown(context.Background(), "m1", "extra-time")
	assert.True(t, hasField(err, "view"))
}

func TestHistoryService_TeamSummary_ExactName(t *testing.T) {
	svc := service.NewHistoryService(seededHistory(), zerolog.New(io.Discard))
	sum, err := svc.TeamSummary(context.Background(), "Kilmacud")
	require.NoError(t, err)
	// "Kilmacud Crokes II" shares the substring but is a different team.
	require.Len(t, sum.Matches, 2)
	assert.Equal(t, 1, sum.Wins)
	assert.Equal(t, 1, sum.Draws)
	assert.Equal(t, 0, sum.Losses)
	assert.Equal(t, 75, sum.WinPct)

	_, err = svc.TeamSummary(context.Background(), "St Vincents")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHistoryService_ShotZones(t *testing.T) {
	svc := service.NewHistoryService(seededHistory(), zerolog.New(io.Discard))
	ctx := context.Background()

	all, err := svc.ShotZones(ctx, "Kilmacud", service.ShotQuery{})
	require.NoError(t, err)
	require.Len(t, all.Shots, 2)
	assert.Len(t, all.Zones, 8)

	feb, err := svc.ShotZones(ctx, "Kilmacud", service.ShotQuery{From: "2025-02-01", To: "2025-02-28"})
	require.NoError(t, err)
	require.Len(t, feb.Shots, 1)
	assert.Equal(t, "s3", feb.Shots[0].ID)

	_, err = svc.ShotZones(ctx, "Kilmacud", service.ShotQuery{From: "2025-03-01", To: "2025-02-01"})
	assert.True(t, hasField(err, "from"))
}
