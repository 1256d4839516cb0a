package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
)

// Ledger / transfers
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSameAccount       = errors.New("source and destination resolve to the same account")
	ErrCurrencyDisabled  = errors.New("currency not enabled")
	ErrFlowViolation     = errors.New("transfer direction not permitted by wallet flow")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrAccountNotFound   = errors.New("wallet account not found")
	ErrRateUnavailable   = errors.New("no current rate for currency")
	ErrWalletExists      = errors.New("wallet already exists")
)

func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// IsValidation reports whether err is any of the business validation
// failures that should never be retried.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrSameAccount) ||
		errors.Is(err, ErrCurrencyDisabled) ||
		errors.Is(err, ErrFlowViolation)
}
