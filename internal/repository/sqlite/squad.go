package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/maxviazov/sideline-stats-service/internal/model"
	"github.com/maxviazov/sideline-stats-service/internal/repository"
)

type squadRepository struct{ db *sql.DB }

func NewSquadRepository(db *sql.DB) repository.SquadRepository {
	return &squadRepository{db: db}
}

func (r *squadRepository) Save(ctx context.Context, s model.Squad) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode squad: %w", err)
	}
	_, err = getQ(ctx, r.db).ExecContext(ctx,
		`INSERT INTO squads (id, team_name, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   team_name = excluded.team_name,
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		s.ID, s.TeamName, string(payload), s.UpdatedAt,
	)
	return repository.MapSQLiteError(err)
}

func (r *squadRepository) GetByID(ctx context.Context, id string) (model.Squad, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Squad{}, err
	}
	var payload []byte
	err := getQ(ctx, r.db).QueryRowContext(ctx, `SELECT payload FROM squads WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Squad{}, repository.ErrNotFound
		}
		return model.Squad{}, repository.MapSQLiteError(err)
	}
	return decodeSquad(payload)
}

func (r *squadRepository) List(ctx context.Context) ([]model.Squad, error) {
	if err := ensureDB(r.db); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.db).QueryContext(ctx, `SELECT payload FROM squads ORDER BY team_name, id`)
	if err != nil {
		return nil, repository.MapSQLiteError(err)
	}
	defer rows.Close()
	out := []model.Squad{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, repository.MapSQLiteError(err)
		}
		s, err := decodeSquad(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, repository.MapSQLiteError(rows.Err())
}

func (r *squadRepository) Exists(ctx context.Context, id string) (bool, error) {
	if err := ensureDB(r.db); err != nil {
		return false, err
	}
	var exists bool
	err := getQ(ctx, r.db).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM squads WHERE id = ?)`, id).Scan(&exists)
	return exists, repository.MapSQLiteError(err)
}

// Delete relies on ON DELETE CASCADE for the squad's events.
func (r *squadRepository) Delete(ctx context.Context, id string) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	res, err := getQ(ctx, r.db).ExecContext(ctx, `DELETE FROM squads WHERE id = ?`, id)
	if err != nil {
		return repository.MapSQLiteError(err)
	}
	return affected(res)
}

func (r *squadRepository) Clear(ctx context.Context) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	exec := getQ(ctx, r.db)
	if _, err := exec.ExecContext(ctx, `DELETE FROM attendance_events`); err != nil {
		return repository.MapSQLiteError(err)
	}
	_, err := exec.ExecContext(ctx, `DELETE FROM squads`)
	return repository.MapSQLiteError(err)
}

func (r *squadRepository) Count(ctx context.Context) (int, error) {
	if err := ensureDB(r.db); err != nil {
		return 0, err
	}
	var n int
	err := getQ(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM squads`).Scan(&n)
	return n, repository.MapSQLiteError(err)
}

func decodeSquad(payload []byte) (model.Squad, error) {
	var s model.Squad
	if err := json.Unmarshal(payload, &s); err != nil {
		return model.Squad{}, fmt.Errorf("decode squad: %w", err)
	}
	if s.Players == nil {
		s.Players = []model.Player{}
	}
	return s, nil
}

type attendanceRepository struct{ db *sql.DB }

func NewAttendanceRepository(db *sql.DB) repository.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Save(ctx context.Context, e model.AttendanceEvent) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode attendance event: %w", err)
	}
	_, err = getQ(ctx, r.db).ExecContext(ctx,
		`INSERT INTO attendance_events (id, squad_id, event_date, payload, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   squad_id = excluded.squad_id,
		   event_date = excluded.event_date,
		   payload = excluded.payload`,
		e.ID, e.SquadID, e.Date, string(payload), e.CreatedAt,
	)
	return repository.MapSQLiteError(err)
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string) (model.AttendanceEvent, error) {
	if err := ensureDB(r.db); err != nil {
		return model.AttendanceEvent{}, err
	}
	var payload []byte
	err := getQ(ctx, r.db).QueryRowContext(ctx, `SELECT payload FROM attendance_events WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AttendanceEvent{}, repository.ErrNotFound
		}
		return model.AttendanceEvent{}, repository.MapSQLiteError(err)
	}
	return decodeEvent(payload)
}

func (r *attendanceRepository) ListBySquad(ctx context.Context, squadID string) ([]model.AttendanceEvent, error) {
	if err := ensureDB(r.db); err != nil {
		return nil, err
	}
	return r.query(ctx,
		`SELECT payload FROM attendance_events WHERE squad_id = ? ORDER BY event_date DESC, created_at DESC, id`,
		squadID,
	)
}

func (r *attendanceRepository) ListAll(ctx context.Context) ([]model.AttendanceEvent, error) {
	if err := ensureDB(r.db); err != nil {
		return nil, err
	}
	return r.query(ctx, `SELECT payload FROM attendance_events ORDER BY event_date DESC, created_at DESC, id`)
}

func (r *attendanceRepository) Exists(ctx context.Context, id string) (bool, error) {
	if err := ensureDB(r.db); err != nil {
		return false, err
	}
	var exists bool
	err := getQ(ctx, r.db).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM attendance_events WHERE id = ?)`, id).Scan(&exists)
	return exists, repository.MapSQLiteError(err)
}

func (r *attendanceRepository) Delete(ctx context.Context, id string) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	res, err := getQ(ctx, r.db).ExecContext(ctx, `DELETE FROM attendance_events WHERE id = ?`, id)
	if err != nil {
		return repository.MapSQLiteError(err)
	}
	return affected(res)
}

func (r *attendanceRepository) Count(ctx context.Context) (int, error) {
	if err := ensureDB(r.db); err != nil {
		return 0, err
	}
	var n int
	err := getQ(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance_events`).Scan(&n)
	return n, repository.MapSQLiteError(err)
}

func (r *attendanceRepository) query(ctx context.Context, query string, args ...any) ([]model.AttendanceEvent, error) {
	rows, err := getQ(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, repository.MapSQLiteError(err)
	}
	defer rows.Close()
	out := []model.AttendanceEvent{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, repository.MapSQLiteError(err)
		}
		e, err := decodeEvent(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, repository.MapSQLiteError(rows.Err())
}

func decodeEvent(payload []byte) (model.AttendanceEvent, error) {
	var e model.AttendanceEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return model.AttendanceEvent{}, fmt.Errorf("decode attendance event: %w", err)
	}
	if e.Attendance == nil {
		e.Attendance = []model.PlayerAttendance{}
	}
	return e, nil
}
