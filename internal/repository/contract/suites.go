package contract

import (
	"context"
	"errors"
	"testing"

	"github.com/maxviazov/sideline-stats-service/internal/model"
	"github.com/maxviazov/sideline-stats-service/internal/repository"
)

// StoreFactory opens a clean store for one subtest and returns its cleanup.
type StoreFactory func(t *testing.T) (repository.Store, func())

func finished(id, home, away, date string) model.Match {
	m := model.NewMatch(id, home, away, date, true, true, 1_700_000_000_000)
	m.HomeStats.Point = 3
	m.AwayStats.Goal = 1
	m.CurrentHalf = model.SecondHalf
	m.IsFinished = true
	return m
}

func RunCurrentMatchContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("load_empty", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		m, err := s.Current.Load(context.Background())
		if err != nil || m != nil {
			t.Fatalf("expected empty slot, got %+v err=%v", m, err)
		}
	})

	t.Run("save_overwrites_and_clear", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		first := model.NewMatch("m1", "Kilmacud", "Ballyboden", "2025-03-01", true, false, 1)
		if err := s.Current.Save(ctx, first); err != nil {
			t.Fatalf("save: %v", err)
		}
		second := first.Clone()
		second.HomeStats.Point = 4
		second.Actions = append(second.Actions, model.Action{ID: "a1", Team: model.Home, EventType: model.EventPoint, Timestamp: 2})
		if err := s.Current.Save(ctx, second); err != nil {
			t.Fatalf("save2: %v", err)
		}
		got, err := s.Current.Load(ctx)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if got == nil || got.ID != "m1" || got.HomeStats.Point != 4 || len(got.Actions) != 1 || !got.TrackShots {
			t.Fatalf("unexpected match: %+v", got)
		}
		if err := s.Current.Clear(ctx); err != nil {
			t.Fatalf("clear: %v", err)
		}
		if got, err := s.Current.Load(ctx); err != nil || got != nil {
			t.Fatalf("expected empty after clear, got %+v err=%v", got, err)
		}
	})
}

func RunMatchHistoryContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("save_get_upsert", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		m := finished("h1", "Kilmacud", "Ballyboden", "2025-03-01")
		if err := s.History.Save(ctx, m); err != nil {
			t.Fatalf("save: %v", err)
		}
		m.HomeStats.Point = 9
		if err := s.History.Save(ctx, m); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		got, err := s.History.GetByID(ctx, "h1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.HomeStats.Point != 9 || got.AwayStats.Goal != 1 || !got.IsFinished {
			t.Fatalf("mismatch: %+v", got)
		}
		n, err := s.History.Count(ctx)
		if err != nil || n != 1 {
			t.Fatalf("expected one row, got %d err=%v", n, err)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		_, err := s.History.GetByID(context.Background(), "missing")
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list_newest_first_with_total", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		dates := []string{"2025-01-05", "2025-03-01", "2024-11-20", "2025-02-14", "2025-01-30"}
		for i, d := range dates {
			if err := s.History.Save(ctx, finished("h"+string(rune('a'+i)), "Home", "Away", d)); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		res, err := s.History.List(ctx, repository.Page{Limit: 2, Offset: 0})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(res.Items) != 2 || res.Total != 5 {
			t.Fatalf("unexpected page: len=%d total=%d", len(res.Items), res.Total)
		}
		if res.Items[0].Date != "2025-03-01" || res.Items[1].Date != "2025-02-14" {
			t.Fatalf("unexpected order: %s, %s", res.Items[0].Date, res.Items[1].Date)
		}
		res2, err := s.History.List(ctx, repository.Page{Limit: 2, Offset: 4})
		if err != nil {
			t.Fatalf("list2: %v", err)
		}
		if len(res2.Items) != 1 || res2.Items[0].Date != "2024-11-20" {
			t.Fatalf("unexpected last page: %+v", res2.Items)
		}
		all, err := s.History.ListAll(ctx)
		if err != nil || len(all) != 5 {
			t.Fatalf("list all: len=%d err=%v", len(all), err)
		}
	})

	t.Run("list_by_team_case_insensitive", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		seed := []model.Match{
			finished("t1", "Kilmacud Crokes", "Ballyboden", "2025-01-01"),
			finished("t2", "Na Fianna", "Kilmacud Crokes", "2025-02-01"),
			finished("t3", "Na Fianna", "Ballyboden", "2025-03-01"),
		}
		for _, m := range seed {
			if err := s.History.Save(ctx, m); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		got, err := s.History.ListByTeam(ctx, "kilmacud")
		if err != nil {
			t.Fatalf("by team: %v", err)
		}
		if len(got) != 2 || got[0].ID != "t2" || got[1].ID != "t1" {
			t.Fatalf("unexpected matches: %+v", got)
		}
		none, err := s.History.ListByTeam(ctx, "St Vincents")
		if err != nil || len(none) != 0 {
			t.Fatalf("expected none, got %d err=%v", len(none), err)
		}
	})

	t.Run("delete_exists_clear", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for _, id := range []string{"d1", "d2"} {
			if err := s.History.Save(ctx, finished(id, "A", "B", "2025-01-01")); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		if ok, err := s.History.Exists(ctx, "d1"); err != nil || !ok {
			t.Fatalf("expected d1 to exist, ok=%v err=%v", ok, err)
		}
		if err := s.History.Delete(ctx, "d1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if ok, err := s.History.Exists(ctx, "d1"); err != nil || ok {
			t.Fatalf("expected d1 gone, ok=%v err=%v", ok, err)
		}
		if err := s.History.Delete(ctx, "d1"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
		if err := s.History.Clear(ctx); err != nil {
			t.Fatalf("clear: %v", err)
		}
		if n, err := s.History.Count(ctx); err != nil || n != 0 {
			t.Fatalf("expected empty history, got %d err=%v", n, err)
		}
	})
}

func RunSquadContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("save_list_ordered_by_name", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for i, name := range []string{"Senior Football", "Minor", "Junior B"} {
			sq := model.NewSquad("s"+string(rune('1'+i)), name, 10)
			sq.Players = append(sq.Players, model.Player{ID: "p1", Name: "Paul Mannion", Number: "14", IsActive: true})
			if err := s.Squads.Save(ctx, sq); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		got, err := s.Squads.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 3 || got[0].TeamName != "Junior B" || got[2].TeamName != "Senior Football" {
			t.Fatalf("unexpected order: %+v", got)
		}
		one, err := s.Squads.GetByID(ctx, "s1")
		if err != nil || len(one.Players) != 1 || one.Players[0].Number != "14" {
			t.Fatalf("get: %+v err=%v", one, err)
		}
	})

	t.Run("delete_cascades_attendance", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		sq := model.NewSquad("sq", "Seniors", 1)
		if err := s.Squads.Save(ctx, sq); err != nil {
			t.Fatalf("squad: %v", err)
		}
		ev := model.NewAttendanceEvent("ev", "sq", "Tuesday training", "2025-03-04", nil, 2)
		if err := s.Attendance.Save(ctx, ev); err != nil {
			t.Fatalf("event: %v", err)
		}
		if err := s.Squads.Delete(ctx, "sq"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.Attendance.GetByID(ctx, "ev"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected cascaded delete, got %v", err)
		}
		if err := s.Squads.Delete(ctx, "sq"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("clear_removes_everything", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if err := s.Squads.Save(ctx, model.NewSquad("sq", "Seniors", 1)); err != nil {
			t.Fatalf("squad: %v", err)
		}
		if err := s.Attendance.Save(ctx, model.NewAttendanceEvent("ev", "sq", "Match", "2025-03-04", nil, 2)); err != nil {
			t.Fatalf("event: %v", err)
		}
		if err := s.Squads.Clear(ctx); err != nil {
			t.Fatalf("clear: %v", err)
		}
		if n, err := s.Squads.Count(ctx); err != nil || n != 0 {
			t.Fatalf("squads left: %d err=%v", n, err)
		}
		if n, err := s.Attendance.Count(ctx); err != nil || n != 0 {
			t.Fatalf("events left: %d err=%v", n, err)
		}
	})
}

func RunAttendanceContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("unknown_squad_conflict", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		err := s.Attendance.Save(context.Background(), model.NewAttendanceEvent("ev", "nope", "Training", "2025-03-04", nil, 1))
		if !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("list_by_squad_newest_first", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for _, id := range []string{"a", "b"} {
			if err := s.Squads.Save(ctx, model.NewSquad(id, "Squad "+id, 1)); err != nil {
				t.Fatalf("squad: %v", err)
			}
		}
		players := []model.Player{{ID: "p1", Name: "One", IsActive: true}, {ID: "p2", Name: "Two"}}
		seed := []model.AttendanceEvent{
			model.NewAttendanceEvent("e1", "a", "Training", "2025-03-01", players, 1),
			model.NewAttendanceEvent("e2", "a", "Match", "2025-03-08", players, 2),
			model.NewAttendanceEvent("e3", "b", "Training", "2025-03-05", players, 3),
		}
		for _, e := range seed {
			if err := s.Attendance.Save(ctx, e); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		got, err := s.Attendance.ListBySquad(ctx, "a")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 2 || got[0].ID != "e2" || got[1].ID != "e1" {
			t.Fatalf("unexpected events: %+v", got)
		}
		if len(got[0].Attendance) != 1 || got[0].Attendance[0].PlayerID != "p1" {
			t.Fatalf("unexpected roll: %+v", got[0].Attendance)
		}
		all, err := s.Attendance.ListAll(ctx)
		if err != nil || len(all) != 3 {
			t.Fatalf("list all: %d err=%v", len(all), err)
		}
		if ok, err := s.Attendance.Exists(ctx, "e3"); err != nil || !ok {
			t.Fatalf("exists: %v err=%v", ok, err)
		}
		if err := s.Attendance.Delete(ctx, "e3"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if n, err := s.Attendance.Count(ctx); err != nil || n != 2 {
			t.Fatalf("count: %d err=%v", n, err)
		}
	})
}

func RunSettingsContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("get_set", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := s.Settings.Get(ctx, "last_backup"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		for _, v := range []string{"2025-01-01T00:00:00Z", "2025-02-01T00:00:00Z"} {
			if err := s.Settings.Set(ctx, "last_backup", v); err != nil {
				t.Fatalf("set: %v", err)
			}
		}
		v, err := s.Settings.Get(ctx, "last_backup")
		if err != nil || v != "2025-02-01T00:00:00Z" {
			t.Fatalf("get: %q err=%v", v, err)
		}
	})
}

func RunTxManagerContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()

	t.Run("commit_on_nil_error", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.Squads.Save(ctx, model.NewSquad("tx", "TxCommit", 1)); err != nil {
				return err
			}
			return s.Attendance.Save(ctx, model.NewAttendanceEvent("txe", "tx", "Training", "2025-01-01", nil, 1))
		})
		if err != nil {
			t.Fatalf("WithinTx: %v", err)
		}
		if _, err := s.Attendance.GetByID(ctx, "txe"); err != nil {
			t.Fatalf("expected committed row visible, got err=%v", err)
		}
	})

	t.Run("rollback_on_error", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		errMarker := errors.New("boom")
		err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.History.Save(ctx, finished("rb", "A", "B", "2025-01-01")); err != nil {
				return err
			}
			return errMarker
		})
		if !errors.Is(err, errMarker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		if _, err := s.History.GetByID(ctx, "rb"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after rollback, got %v", err)
		}
	})

	t.Run("nested_joins_outer", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		errMarker := errors.New("outer failed")
		err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			inner := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
				return s.Settings.Set(ctx, "k", "v")
			})
			if inner != nil {
				return inner
			}
			return errMarker
		})
		if !errors.Is(err, errMarker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		if _, err := s.Settings.Get(ctx, "k"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("inner write should roll back with outer, got %v", err)
		}
	})
}

func RunPingerContract(t *testing.T, makeStore StoreFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		if err := s.Pinger.Ping(context.Background()); err != nil {
			t.Fatalf("expected ping ok, got %v", err)
		}
	})
	t.Run("usage_positive", func(t *testing.T) {
		s, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		n, err := s.Usage.Usage(context.Background())
		if err != nil || n <= 0 {
			t.Fatalf("expected positive usage, got %d err=%v", n, err)
		}
	})
}

// RunAll runs every suite against one backend.
func RunAll(t *testing.T, makeStore StoreFactory) {
	t.Run("current_match", func(t *testing.T) { RunCurrentMatchContract(t, makeStore) })
	t.Run("history", func(t *testing.T) { RunMatchHistoryContract(t, makeStore) })
	t.Run("squads", func(t *testing.T) { RunSquadContract(t, makeStore) })
	t.Run("attendance", func(t *testing.T) { RunAttendanceContract(t, makeStore) })
	t.Run("settings", func(t *testing.T) { RunSettingsContract(t, makeStore) })
	t.Run("tx", func(t *testing.T) { RunTxManagerContract(t, makeStore) })
	t.Run("pinger", func(t *testing.T) { RunPingerContract(t, makeStore) })
}
