package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Domain-level errors I prefer to bubble up from repository implementations.
var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrConflict            = errors.New("conflict")
	ErrInsufficientStorage = errors.New("insufficient storage")
)

// MapPgError translates common Postgres error codes to domain errors.
// I only map what I expect to handle explicitly at higher layers; everything else passes through.
func MapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrAlreadyExists
		case pgerrcode.ForeignKeyViolation:
			return ErrConflict
		case pgerrcode.DiskFull, pgerrcode.InsufficientResources:
			return ErrInsufficientStorage
		}
	}
	return err
}

// MapSQLiteError does the same for go-sqlite3 extended codes.
func MapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrAlreadyExists
		case sqlite3.ErrConstraintForeignKey:
			return ErrConflict
		}
		if sqlErr.Code == sqlite3.ErrFull {
			return ErrInsufficientStorage
		}
	}
	return err
}
