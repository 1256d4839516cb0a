package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the fixed reference currency every cross-currency leg is
// reconciled through.
const BaseCurrency = "USD"

// BaseDecimals is the minor-unit precision of the base currency. Leg base
// amounts are rounded to this precision so the two legs of an entry cancel
// exactly.
const BaseDecimals = 2

type Currency struct {
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Decimals       int32     `json:"decimals"`
	Enabled        bool      `json:"enabled"`
	UserSelectable bool      `json:"user_selectable"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// CurrencyRate converts between a currency and the base currency: Rate is
// how many units of the currency one unit of the base currency buys.
// Exactly one rate per currency is current at any time; older rows stay as
// history.
type CurrencyRate struct {
	ID           int64           `json:"id"`
	CurrencyCode string          `json:"currency_code"`
	Rate         decimal.Decimal `json:"rate"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// DefaultCurrencies returns the static list seeded at startup.
func DefaultCurrencies() []*Currency {
	now := time.Now()
	return []*Currency{
		{
			Code:           "USD",
			Name:           "US Dollar",
			Decimals:       2,
			Enabled:        true,
			UserSelectable: true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			Code:           "EUR",
			Name:           "Euro",
			Decimals:       2,
			Enabled:        true,
			UserSelectable: true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			Code:           "DIA",
			Name:           "Diamonds",
			Decimals:       0, // virtual currency, whole units only
			Enabled:        true,
			UserSelectable: false,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

// DefaultRates returns the seed rates (units of currency per 1 USD).
func DefaultRates() []*CurrencyRate {
	now := time.Now()
	return []*CurrencyRate{
		{CurrencyCode: "USD", Rate: decimal.NewFromInt(1), UpdatedAt: now},
		{CurrencyCode: "EUR", Rate: decimal.RequireFromString("0.92"), UpdatedAt: now},
		{CurrencyCode: "DIA", Rate: decimal.NewFromInt(10000), UpdatedAt: now},
	}
}
