package database

import (
	"errors"
	"fmt"

	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories care about
var pgErrorSentinels = map[string]error{
	"23505": models.ErrConflict,   // unique_violation
	"23503": models.ErrBadRequest, // foreign_key_violation
	"23502": models.ErrBadRequest, // not_null_violation
	"23514": models.ErrBadRequest, // check_violation
	"22001": models.ErrBadRequest, // string_data_right_truncation
	"22P02": models.ErrNotFound,   // invalid_text_representation: a malformed uuid never matches a row
}

// MapPostgresError translates driver errors into model sentinels so services
// never depend on pgx directly. The violated constraint, when known, is kept
// in the message.
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	sentinel, ok := pgErrorSentinels[pgErr.Code]
	if !ok {
		return err
	}
	if pgErr.ConstraintName != "" {
		return fmt.Errorf("%w: %s", sentinel, pgErr.ConstraintName)
	}
	return sentinel
}
