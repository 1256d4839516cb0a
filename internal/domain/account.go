package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Well-known account names. The name is a semantic kind ("withdrawable",
// "diamonds"), not an identifier: an account is keyed by (wallet, name) and
// carries exactly one currency.
const (
	AccountMain         = "main"
	AccountWithdrawable = "withdrawable"
	AccountDiamonds     = "diamonds"
)

// WalletAccount is the balance-bearing unit: one row per wallet, currency
// and account name. The balance column is a cache over the sum of posted
// transaction legs and is mutated only by the posting engine.
type WalletAccount struct {
	ID            int64           `json:"id"`
	WalletID      int64           `json:"wallet_id"`
	CurrencyCode  string          `json:"currency_code"`
	Name          string          `json:"name"`
	Balance       decimal.Decimal `json:"balance"`
	AllowNegative bool            `json:"allow_negative"`
	CreatedAt     time.Time       `json:"-"`
	UpdatedAt     time.Time       `json:"-"`
}

// CanDebit reports whether applying delta (negative for a debit) keeps the
// account within its permitted balance range.
func (a *WalletAccount) CanDebit(delta decimal.Decimal) bool {
	if a.AllowNegative {
		return true
	}
	return a.Balance.Add(delta).GreaterThanOrEqual(decimal.Zero)
}

type AccountFilter struct {
	WalletID     *int64
	CurrencyCode *string
	Name         *string
}
