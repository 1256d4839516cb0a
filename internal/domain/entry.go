package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purpose classifies what a transfer was for
type Purpose string

const (
	PurposeDeposit       Purpose = "deposit"
	PurposeWithdrawal    Purpose = "withdrawal"
	PurposeBuyIn         Purpose = "buy_in"
	PurposePayOut        Purpose = "pay_out"
	PurposeJackpotPayout Purpose = "jackpot_payout"
	PurposeAdjustment    Purpose = "adjustment"
	PurposePromotion     Purpose = "promotion"
	PurposeSubscription  Purpose = "subscription"
	PurposeRefund        Purpose = "refund"
	PurposePurchase      Purpose = "purchase"
)

// IsValid reports whether p is one of the known purposes.
func (p Purpose) IsValid() bool {
	switch p {
	case PurposeDeposit, PurposeWithdrawal, PurposeBuyIn, PurposePayOut,
		PurposeJackpotPayout, PurposeAdjustment, PurposePromotion,
		PurposeSubscription, PurposeRefund, PurposePurchase:
		return true
	}
	return false
}

// RequesterType records what kind of principal initiated a transfer
type RequesterType string

const (
	RequesterUser     RequesterType = "user"
	RequesterEmployee RequesterType = "employee"
	RequesterSystem   RequesterType = "system"
)

func (t RequesterType) IsValid() bool {
	switch t {
	case RequesterUser, RequesterEmployee, RequesterSystem:
		return true
	}
	return false
}

// WalletEntry is one logical transfer: an immutable header owning exactly
// two transaction legs, created together in one database transaction.
// Corrections are new entries with PurposeAdjustment, never updates.
type WalletEntry struct {
	ID            int64         `json:"id"`
	ReferenceCode string        `json:"reference_code"`
	Purpose       Purpose       `json:"purpose"`
	RequesterType RequesterType `json:"requester_type"`
	RequesterID   string        `json:"requester_id"`
	Memo          *string       `json:"memo,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`

	Transactions []*WalletTransaction `json:"transactions,omitempty"`
}

// WalletTransaction is one leg of an entry, posted against one account.
// Amount is signed in the account's own currency: negative for the debit
// leg, positive for the credit leg. BaseAmount is the same movement
// expressed in the base currency; across the two legs of an entry it sums
// to zero exactly. AmountRaw keeps the pre-rounding account-currency value
// so rounding residuals stay auditable.
type WalletTransaction struct {
	ID            int64           `json:"id"`
	EntryID       int64           `json:"entry_id"`
	AccountID     int64           `json:"account_id"`
	WalletID      int64           `json:"wallet_id"`
	Amount        decimal.Decimal `json:"amount"`
	AmountRaw     decimal.Decimal `json:"amount_raw"`
	BaseAmount    decimal.Decimal `json:"base_amount"`
	CurrencyCode  string          `json:"currency_code"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	Purpose       Purpose         `json:"purpose"`
	RequesterType RequesterType   `json:"requester_type"`
	RequesterID   string          `json:"requester_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IsBalanced reports whether the entry's legs cancel out in the base
// currency. Entries with anything other than two legs are never balanced.
func (e *WalletEntry) IsBalanced() bool {
	if len(e.Transactions) != 2 {
		return false
	}
	sum := decimal.Zero
	for _, t := range e.Transactions {
		sum = sum.Add(t.BaseAmount)
	}
	return sum.IsZero()
}

// EntryFilter narrows entry/transaction listings
type EntryFilter struct {
	WalletID  *int64
	AccountID *int64
	Purpose   *Purpose
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
