package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ledger-service/pkg/xerrors"
)

// AccountRef names one side of a transfer without resolving it: either a
// user's account or a platform wallet's account. Resolution to a concrete
// WalletAccount happens inside the posting transaction.
type AccountRef struct {
	UserID       *string `json:"user_id,omitempty"`
	PlatformName *string `json:"platform_name,omitempty"`
	AccountName  string  `json:"account_name"`
}

func (r *AccountRef) IsUser() bool { return r.UserID != nil }

// Equal reports whether two refs name the same account.
func (r *AccountRef) Equal(o *AccountRef) bool {
	if r == nil || o == nil {
		return false
	}
	if r.AccountName != o.AccountName {
		return false
	}
	if r.IsUser() != o.IsUser() {
		return false
	}
	if r.IsUser() {
		return *r.UserID == *o.UserID
	}
	return *r.PlatformName == *o.PlatformName
}

// TransferSpec is the fully-collected intent of one transfer. The builder
// accumulates into it; Validate checks it in full before the posting engine
// touches storage. Direction is expressed by Source/Destination, so Amount
// is always strictly positive.
type TransferSpec struct {
	Amount        decimal.Decimal `json:"amount"`
	CurrencyCode  string          `json:"currency_code"`
	Purpose       Purpose         `json:"purpose"`
	RequesterType RequesterType   `json:"requester_type"`
	RequesterID   string          `json:"requester_id"`
	Memo          *string         `json:"memo,omitempty"`
	Source        *AccountRef     `json:"source"`
	Destination   *AccountRef     `json:"destination"`
}

// Validate checks the spec for completeness and structural soundness.
func (s *TransferSpec) Validate() error {
	if !s.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", xerrors.ErrValidation, s.Amount)
	}
	if s.CurrencyCode == "" {
		return fmt.Errorf("%w: currency code is required", xerrors.ErrValidation)
	}
	if !s.Purpose.IsValid() {
		return fmt.Errorf("%w: unknown purpose %q", xerrors.ErrValidation, s.Purpose)
	}
	if !s.RequesterType.IsValid() || s.RequesterID == "" {
		return fmt.Errorf("%w: requester is required", xerrors.ErrValidation)
	}
	if err := validateRef(s.Source, "source"); err != nil {
		return err
	}
	if err := validateRef(s.Destination, "destination"); err != nil {
		return err
	}
	if s.Source.Equal(s.Destination) {
		return xerrors.ErrSameAccount
	}
	return nil
}

func validateRef(r *AccountRef, side string) error {
	if r == nil {
		return fmt.Errorf("%w: %s account is required", xerrors.ErrValidation, side)
	}
	if (r.UserID == nil) == (r.PlatformName == nil) {
		return fmt.Errorf("%w: %s must name exactly one of user or platform wallet", xerrors.ErrValidation, side)
	}
	if r.UserID != nil && *r.UserID == "" {
		return fmt.Errorf("%w: %s user id is empty", xerrors.ErrValidation, side)
	}
	if r.PlatformName != nil && *r.PlatformName == "" {
		return fmt.Errorf("%w: %s platform wallet name is empty", xerrors.ErrValidation, side)
	}
	if r.AccountName == "" {
		return fmt.Errorf("%w: %s account name is empty", xerrors.ErrValidation, side)
	}
	return nil
}
