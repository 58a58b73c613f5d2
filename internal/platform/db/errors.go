package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

// Classify maps a driver or store error onto the apperr taxonomy. Errors
// that already carry a Kind pass through untouched. The resulting message
// never contains connection parameters.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.KindNotFound, err, "record not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPgError(pgErr)
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return apperr.Wrap(apperr.KindConnectivity, err, "query timed out")
	}
	if errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.KindConnectivity, err, "request cancelled")
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) || errors.Is(err, pgx.ErrTxClosed) {
		return apperr.Wrap(apperr.KindConnectivity, err, "database unavailable")
	}

	return apperr.Wrap(apperr.KindInternal, err, "internal error")
}

func classifyPgError(pgErr *pgconn.PgError) *apperr.Error {
	e := &apperr.Error{
		Constraint: pgErr.ConstraintName,
		Argument:   pgErr.ColumnName,
		Err:        pgErr,
	}

	switch {
	case pgErr.Code == "23505":
		e.Kind = apperr.KindIntegrity
		e.Message = fmt.Sprintf("duplicate value violates unique constraint %q", pgErr.ConstraintName)
	case pgErr.Code == "23503":
		e.Kind = apperr.KindIntegrity
		e.Message = fmt.Sprintf("foreign key constraint %q violated: referenced row missing or still referenced", pgErr.ConstraintName)
	case pgErr.Code == "23514":
		e.Kind = apperr.KindIntegrity
		e.Message = fmt.Sprintf("check constraint %q violated", pgErr.ConstraintName)
	case pgErr.Code == "23502":
		e.Kind = apperr.KindIntegrity
		e.Message = fmt.Sprintf("column %q must not be null", pgErr.ColumnName)
	case pgErr.Code == "428C9":
		e.Kind = apperr.KindIntegrity
		e.Message = "generated columns cannot be written"
	case strings.HasPrefix(pgErr.Code, "23"):
		e.Kind = apperr.KindIntegrity
		e.Message = pgErr.Message
	case strings.HasPrefix(pgErr.Code, "22"):
		e.Kind = apperr.KindValidation
		e.Message = pgErr.Message
	case strings.HasPrefix(pgErr.Code, "08"),
		strings.HasPrefix(pgErr.Code, "53"),
		pgErr.Code == "57P01", pgErr.Code == "57P02", pgErr.Code == "57P03":
		e.Kind = apperr.KindConnectivity
		e.Message = "database unavailable"
	case pgErr.Code == "57014":
		e.Kind = apperr.KindConnectivity
		e.Message = "query cancelled"
	case pgErr.Code == "40001", pgErr.Code == "40P01":
		e.Kind = apperr.KindConnectivity
		e.Message = "transaction conflict, retry"
	default:
		e.Kind = apperr.KindInternal
		e.Message = "internal error"
	}
	return e
}
