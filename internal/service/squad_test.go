package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/sideline-stats-service/internal/model"
	"github.com/maxviazov/sideline-stats-service/internal/repository"
	"github.com/maxviazov/sideline-stats-service/internal/service"
)

type squadFixture struct {
	svc    service.SquadService
	roster *fakeRoster
	tx     *passTx
	guard  *fakeGuard
}

func newSquadFixture() squadFixture {
	roster := newFakeRoster()
	tx := &passTx{}
	guard := &fakeGuard{}
	clock := func() time.Time { return time.Date(2025, 3, 4, 19, 30, 0, 0, time.UTC) }
	svc := service.NewSquadService(fakeSquads{roster}, fakeEvents{roster}, tx, guard, zerolog.New(io.Discard),
		service.WithClock(clock), service.WithIDs(seqIDs("id-")))
	return squadFixture{svc: svc, roster: roster, tx: tx, guard: guard}
}

func TestSquadService_CreateSquad(t *testing.T) {
	f := newSquadFixture()
	ctx := context.Background()

	_, err := f.svc.CreateSquad(ctx, "   ")
	assert.True(t, hasField(err, "teamName"))

	sq, err := f.svc.CreateSquad(ctx, " Senior Football ")
	require.NoError(t, err)
	assert.Equal(t, "id-1", sq.ID)
	assert.Equal(t, "Senior Football", sq.TeamName)
	assert.NotNil(t, sq.Players)
	assert.Len(t, f.guard.asked, 1)

	f.guard.err = repository.ErrInsufficientStorage
	_, err = f.svc.CreateSquad(ctx, "Minor")
	assert.ErrorIs(t, err, repository.ErrInsufficientStorage)
	n, _ := fakeSquads{f.roster}.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestSquadService_Players(t *testing.T) {
	f := newSquadFixture()
	ctx := context.Background()
	sq, err := f.svc.CreateSquad(ctx, "Seniors")
	require.NoError(t, err)

	p1, err := f.svc.AddPlayer(ctx, sq.ID, "Paul Mannion", "14")
	require.NoError(t, err)
	assert.True(t, p1.IsActive)
	_, err = f.svc.AddPlayer(ctx, sq.ID, "Shane Walsh", "12345")
	assert.True(t, hasField(err, "number"))
	_, err = f.svc.AddPlayer(ctx, "missing", "Nobody", "")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	up, err := f.svc.UpdatePlayer(ctx, sq.ID, p1.ID, "Paul Mannion", "15")
	require.NoError(t, err)
	assert.Equal(t, "15", up.Number)

	require.NoError(t, f.svc.RemovePlayer(ctx, sq.ID, p1.ID))
	assert.ErrorIs(t, f.svc.RemovePlayer(ctx, sq.ID, "ghost"), repository.ErrNotFound)

	got, err := f.svc.GetSquad(ctx, sq.ID)
	require.NoError(t, err)
	require.Len(t, got.Players, 1)
	assert.False(t, got.Players[0].IsActive, "removed players are kept inactive")
	assert.GreaterOrEqual(t, f.tx.calls, 3)
}

func TestSquadService_RenameAndList(t *testing.T) {
	f := newSquadFixture()
	ctx := context.Background()
	a, _ := f.svc.CreateSquad(ctx, "Zeta")
	_, _ = f.svc.CreateSquad(ctx, "Minor")

	_, err := f.svc.RenameSquad(ctx, a.ID, "Alpha")
	require.NoError(t, err)
	list, err := f.svc.ListSquads(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].TeamName)

	_, err = f.svc.RenameSquad(ctx, "missing", "Beta")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSquadService_Events(t *testing.T) {
	f := newSquadFixture()
	ctx := context.Background()
	sq, _ := f.svc.CreateSquad(ctx, "Seniors")
	active, _ := f.svc.AddPlayer(ctx, sq.ID, "Active", "1")
	gone, _ := f.svc.AddPlayer(ctx, sq.ID, "Gone", "2")
	require.NoError(t, f.svc.RemovePlayer(ctx, sq.ID, gone.ID))

	ev, err := f.svc.CreateEvent(ctx, sq.ID, "Tuesday training", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", ev.Date)
	require.Len(t, ev.Attendance, 1)
	assert.Equal(t, active.ID, ev.Attendance[0].PlayerID)
	assert.False(t, ev.Attendance[0].Present)

	_, err = f.svc.CreateEvent(ctx, sq.ID, "Match", "4 March")
	assert.True(t, hasField(err, "date"))
	_, err = f.svc.CreateEvent(ctx, "missing", "Match", "")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	ev, err = f.svc.ToggleAttendance(ctx, ev.ID, active.ID, "present")
	require.NoError(t, err)
	assert.True(t, ev.Attendance[0].Present)
	ev, err = f.svc.ToggleAttendance(ctx, ev.ID, active.ID, "injured")
	require.NoError(t, err)
	assert.True(t, ev.Attendance[0].Injured)
	_, err = f.svc.ToggleAttendance(ctx, ev.ID, active.ID, "late")
	assert.True(t, hasField(err, "field"))
	_, err = f.svc.ToggleAttendance(ctx, ev.ID, "ghost", "present")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	roll := []model.PlayerAttendance{{PlayerID: active.ID}, {PlayerID: gone.ID, Present: true}}
	ev, err = f.svc.SetAttendance(ctx, ev.ID, roll)
	require.NoError(t, err)
	assert.Len(t, ev.Attendance, 2)
	_, err = f.svc.SetAttendance(ctx, ev.ID, []model.PlayerAttendance{{PlayerID: "x"}, {PlayerID: "x"}})
	assert.True(t, hasField(err, "attendance[1].playerId"))

	events, err := f.svc.ListEvents(ctx, sq.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	_, err = f.svc.ListEvents(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, f.svc.DeleteSquad(ctx, sq.ID))
	n, _ := fakeEvents{f.roster}.Count(ctx)
	assert.Zero(t, n, "events go with their squad")
	assert.ErrorIs(t, f.svc.DeleteEvent(ctx, ev.ID), repository.ErrNotFound)
}
