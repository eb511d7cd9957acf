package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

// PostgreSQL error codes.
const (
	pgErrUniqueViolation      = "23505"
	pgErrForeignKeyViolation  = "23503"
	pgErrCheckViolation       = "23514"
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrTooManyConnections   = "53300"
	pgErrAdminShutdown        = "57P01"
	pgErrCannotConnectNow     = "57P03"
)

// Constraint names from the migrations.
const (
	constraintAccountsPkey    = "accounts_pkey"
	constraintAccountsSlugKey = "accounts_slug_key"

	constraintAccountsBalanceCheck = "accounts_balance_check"
)

var errUnexpectedTx = errors.New("postgres: transaction was not started by this store")

// mapError translates driver errors into domain errors. Transient failures
// become ErrStorageUnavailable while keeping the driver error reachable for
// the Retrier.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == constraintAccountsSlugKey:
			return fmt.Errorf("%w: %s", domain.ErrDuplicateSlug, pgErr.Detail)
		case pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == constraintAccountsPkey:
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, pgErr.Detail)
		case pgErr.Code == pgErrForeignKeyViolation && strings.HasPrefix(pgErr.Message, "insert or update"):
			return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, pgErr.Detail)
		case pgErr.Code == pgErrForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrAccountHasTransactions, pgErr.Detail)
		case pgErr.Code == pgErrCheckViolation && pgErr.ConstraintName == constraintAccountsBalanceCheck:
			return fmt.Errorf("%w: %s", domain.ErrInvalidAmount, pgErr.Message)
		case isTransientCode(pgErr.Code):
			return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}

		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if isConnectionError(err) {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	return err
}

func isTransientCode(code string) bool {
	switch code {
	case pgErrDeadlock, pgErrSerializationFailure, pgErrTooManyConnections, pgErrAdminShutdown, pgErrCannotConnectNow:
		return true
	}

	// Class 08: connection exception.
	return strings.HasPrefix(code, "08")
}

func isConnectionError(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// pgxTx extracts the pgx transaction from a usecase.Tx.
func pgxTx(tx usecase.Tx) (pgx.Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, errUnexpectedTx
	}

	return t.PgxTx(), nil
}
