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

const currentSlot = "current"

type currentMatchStore struct{ pool *pgxpool.Pool }

func NewCurrentMatchStore(pool *pgxpool.Pool) repository.CurrentMatchStore {
	return &currentMatchStore{pool: pool}
}

func (s *currentMatchStore) Load(ctx context.Context) (*model.Match, error) {
	if err := ensurePool(s.pool); err != nil {
		return nil, err
	}
	var payload []byte
	err := getQ(ctx, s.pool).QueryRow(ctx, `SELECT payload FROM current_match WHERE slot = $1`, currentSlot).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, repository.MapPgError(err)
	}
	return model.DecodeMatch(payload)
}

func (s *currentMatchStore) Save(ctx context.Context, m model.Match) error {
	if err := ensurePool(s.pool); err != nil {
		return err
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match: %w", err)
	}
	_, err = getQ(ctx, s.pool).Exec(ctx,
		`INSERT INTO current_match (slot, payload, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (slot) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		currentSlot, payload,
	)
	return repository.MapPgError(err)
}

func (s *currentMatchStore) Clear(ctx context.Context) error {
	if err := ensurePool(s.pool); err != nil {
		return err
	}
	_, err := getQ(ctx, s.pool).Exec(ctx, `DELETE FROM current_match WHERE slot = $1`, currentSlot)
	return repository.MapPgError(err)
}

type matchHistoryRepository struct{ pool *pgxpool.Pool }

func NewMatchHistoryRepository(pool *pgxpool.Pool) repository.MatchHistoryRepository {
	return &matchHistoryRepository{pool: pool}
}

func (r *matchHistoryRepository) Save(ctx context.Context, m model.Match) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match: %w", err)
	}
	_, err = getQ(ctx, r.pool).Exec(ctx,
		`INSERT INTO matches (id, home_team, away_team, match_date, is_finished, payload)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   home_team = EXCLUDED.home_team,
		   away_team = EXCLUDED.away_team,
		   match_date = EXCLUDED.match_date,
		   is_finished = EXCLUDED.is_finished,
		   payload = EXCLUDED.payload`,
		m.ID, m.HomeTeam, m.AwayTeam, m.Date, m.IsFinished, payload,
	)
	return repository.MapPgError(err)
}

func (r *matchHistoryRepository) GetByID(ctx context.Context, id string) (model.Match, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Match{}, err
	}
	var payload []byte
	err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT payload FROM matches WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, repository.ErrNotFound
		}
		return model.Match{}, repository.MapPgError(err)
	}
	return decodeMatch(payload)
}

const matchOrder = ` ORDER BY match_date DESC, created_at DESC, id`

func (r *matchHistoryRepository) List(ctx context.Context, p repository.Page) (repository.PageResult[model.Match], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.Match]{}, err
	}
	p = p.Sanitize()
	total, err := r.Count(ctx)
	if err != nil {
		return repository.PageResult[model.Match]{}, err
	}
	items, err := r.query(ctx, `SELECT payload FROM matches`+matchOrder+` LIMIT $1 OFFSET $2`, p.Limit, p.Offset)
	if err != nil {
		return repository.PageResult[model.Match]{}, err
	}
	return repository.PageResult[model.Match]{Items: items, Total: total}, nil
}

func (r *matchHistoryRepository) ListAll(ctx context.Context) ([]model.Match, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	return r.query(ctx, `SELECT payload FROM matches`+matchOrder)
}

func (r *matchHistoryRepository) ListByTeam(ctx context.Context, team string) ([]model.Match, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	return r.query(ctx,
		`SELECT payload FROM matches
		 WHERE strpos(lower(home_team), lower($1)) > 0 OR strpos(lower(away_team), lower($1)) > 0`+matchOrder,
		team,
	)
}

func (r *matchHistoryRepository) Exists(ctx context.Context, id string) (bool, error) {
	if err := ensurePool(r.pool); err != nil {
		return false, err
	}
	var exists bool
	err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM matches WHERE id = $1)`, id).Scan(&exists)
	return exists, repository.MapPgError(err)
}

func (r *matchHistoryRepository) Delete(ctx context.Context, id string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	return affected(tag)
}

func (r *matchHistoryRepository) Clear(ctx context.Context) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	_, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM matches`)
	return repository.MapPgError(err)
}

func (r *matchHistoryRepository) Count(ctx context.Context) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	var n int
	err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM matches`).Scan(&n)
	return n, repository.MapPgError(err)
}

func (r *matchHistoryRepository) query(ctx context.Context, sql string, args ...any) ([]model.Match, error) {
	rows, err := getQ(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	out := []model.Match{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, repository.MapPgError(err)
		}
		m, err := decodeMatch(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, repository.MapPgError(rows.Err())
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
