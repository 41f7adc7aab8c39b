package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/sideline-stats-service/internal/model"
	"github.com/maxviazov/sideline-stats-service/internal/repository"
)

type squadRepository struct{ pool *pgxpool.Pool }

func NewSquadRepository(pool *pgxpool.Pool) repository.SquadRepository {
	return &squadRepository{pool: pool}
}

func (r *squadRepository) Save(ctx context.Context, s model.Squad) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode squad: %w", err)
	}
	_, err = getQ(ctx, r.pool).Exec(ctx,
		`INSERT INTO squads (id, team_name, payload, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		   team_name = EXCLUDED.team_name,
		   payload = EXCLUDED.payload,
		   updated_at = EXCLUDED.updated_at`,
		s.ID, s.TeamName, payload, s.UpdatedAt,
	)
	return repository.MapPgError(err)
}

func (r *squadRepository) GetByID(ctx context.Context, id string) (model.Squad, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Squad{}, err
	}
	var payload []byte
	err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT payload FROM squads WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Squad{}, repository.ErrNotFound
		}
		return model.Squad{}, repository.MapPgError(err)
	}
	return decodeSquad(payload)
}

func (r *squadRepository) List(ctx context.Context) ([]model.Squad, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx, `SELECT payload FROM squads ORDER BY team_name, id`)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	out := []model.Squad{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, repository.MapPgError(err)
		}
		s, err := decodeSquad(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, repository.MapPgError(rows.Err())
}

func (r *squadRepository) Exists(ctx context.Context, id string) (bool, error) {
	if err := ensurePool(r.pool); err != nil {
		return false, err
	}
	var exists bool
	err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM squads WHERE id = $1)`, id).Scan(&exists)
	return exists, repository.MapPgError(err)
}

func (r *squadRepository) Delete(ctx context.Context, id string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM squads WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	return affected(tag)
}

func (r *squadRepository) Clear(ctx context.Context) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	_, err := getQ(ctx, r.pool).Exec(ctx, `TRUNCATE TABLE attendance_events, squads`)
	return repository.MapPgError(err)
}

func (r *squadRepository) Count(ctx context.Context) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	var n int
	err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM squads`).Scan(&n)
	return n, repository.MapPgError(err)
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

type attendanceRepository struct{ pool *pgxpool.Pool }

func NewAttendanceRepository(pool *pgxpool.Pool) repository.AttendanceRepository {
	return &attendanceRepository{pool: pool}
}

func (r *attendanceRepository) Save(ctx context.Context, e model.AttendanceEvent) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode attendance event: %w", err)
	}
	_, err = getQ(ctx, r.pool).Exec(ctx,
		`INSERT INTO attendance_events (id, squad_id, event_date, payload, created_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   squad_id = EXCLUDED.squad_id,
		   event_date = EXCLUDED.event_date,
		   payload = EXCLUDED.payload`,
		e.ID, e.SquadID, e.Date, payload, e.CreatedAt,
	)
	return repository.MapPgError(err)
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string) (model.AttendanceEvent, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.AttendanceEvent{}, err
	}
	var payload []byte
	err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT payload FROM attendance_events WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AttendanceEvent{}, repository.ErrNotFound
		}
		return model.AttendanceEvent{}, repository.MapPgError(err)
	}
	return decodeEvent(payload)
}

func (r *attendanceRepository) ListBySquad(ctx context.Context, squadID string) ([]model.AttendanceEvent, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	return r.query(ctx,
		`SELECT payload FROM attendance_events WHERE squad_id = $1 ORDER BY event_date DESC, created_at DESC, id`,
		squadID,
	)
}

func (r *attendanceRepository) ListAll(ctx context.Context) ([]model.AttendanceEvent, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	return r.query(ctx, `SELECT payload FROM attendance_events ORDER BY event_date DESC, created_at DESC, id`)
}

func (r *attendanceRepository) Exists(ctx context.Context, id string) (bool, error) {
	if err := ensurePool(r.pool); err != nil {
		return false, err
	}
	var exists bool
	err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attendance_events WHERE id = $1)`, id).Scan(&exists)
	return exists, repository.MapPgError(err)
}

func (r *attendanceRepository) Delete(ctx context.Context, id string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM attendance_events WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	return affected(tag)
}

func (r *attendanceRepository) Count(ctx context.Context) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	var n int
	err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM attendance_events`).Scan(&n)
	return n, repository.MapPgError(err)
}

func (r *attendanceRepository) query(ctx context.Context, sql string, args ...any) ([]model.AttendanceEvent, error) {
	rows, err := getQ(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	out := []model.AttendanceEvent{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, repository.MapPgError(err)
		}
		e, err := decodeEvent(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, repository.MapPgError(rows.Err())
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

type settingsRepository struct{ pool *pgxpool.Pool }

func NewSettingsRepository(pool *pgxpool.Pool) repository.SettingsRepository {
	return &settingsRepository{pool: pool}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	if err := ensurePool(r.pool); err != nil {
		return "", err
	}
	var v string
	err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", repository.MapPgError(err)
	}
	return v, nil
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	_, err := getQ(ctx, r.pool).Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	return repository.MapPgError(err)
}
