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

const currentSlot = "current"

type currentMatchStore struct{ db *sql.DB }

func NewCurrentMatchStore(db *sql.DB) repository.CurrentMatchStore {
	return &currentMatchStore{db: db}
}

func (s *currentMatchStore) Load(ctx context.Context) (*model.Match, error) {
	if err := ensureDB(s.db); err != nil {
		return nil, err
	}
	var payload []byte
	err := getQ(ctx, s.db).QueryRowContext(ctx,
		`SELECT payload FROM current_match WHERE slot = ?`, currentSlot,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, repository.MapSQLiteError(err)
	}
	return model.DecodeMatch(payload)
}

func (s *currentMatchStore) Save(ctx context.Context, m model.Match) error {
	if err := ensureDB(s.db); err != nil {
		return err
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match: %w", err)
	}
	_, err = getQ(ctx, s.db).ExecContext(ctx,
		`INSERT INTO current_match (slot, payload, updated_at)
		 VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		 ON CONFLICT (slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		currentSlot, string(payload),
	)
	return repository.MapSQLiteError(err)
}

func (s *currentMatchStore) Clear(ctx context.Context) error {
	if err := ensureDB(s.db); err != nil {
		return err
	}
	_, err := getQ(ctx, s.db).ExecContext(ctx, `DELETE FROM current_match WHERE slot = ?`, currentSlot)
	return repository.MapSQLiteError(err)
}

type matchHistoryRepository struct{ db *sql.DB }

func NewMatchHistoryRepository(db *sql.DB) repository.MatchHistoryRepository {
	return &matchHistoryRepository{db: db}
}

func (r *matchHistoryRepository) Save(ctx context.Context, m model.Match) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match: %w", err)
	}
	_, err = getQ(ctx, r.db).ExecContext(ctx,
		`INSERT INTO matches (id, home_team, away_team, match_date, is_finished, payload)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   home_team = excluded.home_team,
		   away_team = excluded.away_team,
		   match_date = excluded.match_date,
		   is_finished = excluded.is_finished,
		   payload = excluded.payload`,
		m.ID, m.HomeTeam, m.AwayTeam, m.Date, m.IsFinished, string(payload),
	)
	return repository.MapSQLiteError(err)
}

func (r *matchHistoryRepository) GetByID(ctx context.Context, id string) (model.Match, error) {
	if err := ensureDB(r.db); err != nil {
		return model.Match{}, err
	}
	var payload []byte
	err := getQ(ctx, r.db).QueryRowContext(ctx, `SELECT payload FROM matches WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Match{}, repository.ErrNotFound
		}
		return model.Match{}, repository.MapSQLiteError(err)
	}
	return decodeMatch(payload)
}

const matchOrder = ` ORDER BY match_date DESC, created_at DESC, id`

func (r *matchHistoryRepository) List(ctx context.Context, p repository.Page) (repository.PageResult[model.Match], error) {
	if err := ensureDB(r.db); err != nil {
		return repository.PageResult[model.Match]{}, err
	}
	p = p.Sanitize()
	total, err := r.Count(ctx)
	if err != nil {
		return repository.PageResult[model.Match]{}, err
	}
	items, err := r.query(ctx, `SELECT payload FROM matches`+matchOrder+` LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	if err != nil {
		return repository.PageResult[model.Match]{}, err
	}
	return repository.PageResult[model.Match]{Items: items, Total: total}, nil
}

func (r *matchHistoryRepository) ListAll(ctx context.Context) ([]model.Match, error) {
	if err := ensureDB(r.db); err != nil {
		return nil, err
	}
	return r.query(ctx, `SELECT payload FROM matches`+matchOrder)
}

func (r *matchHistoryRepository) ListByTeam(ctx context.Context, team string) ([]model.Match, error) {
	if err := ensureDB(r.db); err != nil {
		return nil, err
	}
	return r.query(ctx,
		`SELECT payload FROM matches
		 WHERE instr(lower(home_team), lower(?1)) > 0 OR instr(lower(away_team), lower(?1)) > 0`+matchOrder,
		team,
	)
}

func (r *matchHistoryRepository) Exists(ctx context.Context, id string) (bool, error) {
	if err := ensureDB(r.db); err != nil {
		return false, err
	}
	var exists bool
	err := getQ(ctx, r.db).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM matches WHERE id = ?)`, id).Scan(&exists)
	return exists, repository.MapSQLiteError(err)
}

func (r *matchHistoryRepository) Delete(ctx context.Context, id string) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	res, err := getQ(ctx, r.db).ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return repository.MapSQLiteError(err)
	}
	return affected(res)
}

func (r *matchHistoryRepository) Clear(ctx context.Context) error {
	if err := ensureDB(r.db); err != nil {
		return err
	}
	_, err := getQ(ctx, r.db).ExecContext(ctx, `DELETE FROM matches`)
	return repository.MapSQLiteError(err)
}

func (r *matchHistoryRepository) Count(ctx context.Context) (int, error) {
	if err := ensureDB(r.db); err != nil {
		return 0, err
	}
	var n int
	err := getQ(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&n)
	return n, repository.MapSQLiteError(err)
}

func (r *matchHistoryRepository) query(ctx context.Context, query string, args ...any) ([]model.Match, error) {
	rows, err := getQ(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, repository.MapSQLiteError(err)
	}
	defer rows.Close()
	out := []model.Match{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, repository.MapSQLiteError(err)
		}
		m, err := decodeMatch(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, repository.MapSQLiteError(rows.Err())
}

func decodeMatch(payload []byte) (model.Match, error) {
	m, err := model.DecodeMatch(payload)
	if err != nil {
		return model.Match{}, err
	}
	if m == nil {
		return model.Match{}, errors.New("stored match has no id")
	}
	return *m, nil
}
