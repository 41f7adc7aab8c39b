package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/maxviazov/sideline-stats-service/internal/repository"
)

// q is a minimal query executor implemented by both *sql.DB and *sql.Tx.
type q interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

func withTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func getQ(ctx context.Context, db *sql.DB) q {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok && tx != nil {
		return tx
	}
	return db
}

type txManager struct{ db *sql.DB }

func NewTxManager(db *sql.DB) repository.TxManager { return &txManager{db: db} }

// WithinTx runs fn in a transaction. A nested call joins the outer transaction.
func (m *txManager) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.MapSQLiteError(err)
	}
	defer func() {
		// no-op once committed
		_ = tx.Rollback()
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		return repository.MapSQLiteError(err)
	}
	if err := tx.Commit(); err != nil {
		return repository.MapSQLiteError(err)
	}
	return nil
}

var _ repository.TxManager = (*txManager)(nil)

func ensureDB(db *sql.DB) error {
	if db == nil {
		return errors.New("sqlite db is nil")
	}
	return nil
}

// affected turns a zero-row write into ErrNotFound.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return repository.MapSQLiteError(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
