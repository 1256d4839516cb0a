package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ledger-service/internal/domain"
	"ledger-service/pkg/xerrors"
)

type CurrencyRepository interface {
	GetCurrency(ctx context.Context, code string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]*domain.Currency, error)
	UpsertCurrencies(ctx context.Context, tx pgx.Tx, currencies []*domain.Currency) error

	// GetCurrentRate returns the latest rate row for a currency.
	GetCurrentRate(ctx context.Context, code string) (*domain.CurrencyRate, error)
	UpsertRates(ctx context.Context, tx pgx.Tx, rates []*domain.CurrencyRate) error
}

type currencyRepo struct {
	db *pgxpool.Pool
}

func NewCurrencyRepo(db *pgxpool.Pool) CurrencyRepository {
	return &currencyRepo{db: db}
}

func (r *currencyRepo) GetCurrency(ctx context.Context, code string) (*domain.Currency, error) {
	row := r.db.QueryRow(ctx, `
		SELECT code, name, decimals, enabled, user_selectable, created_at, updated_at
		FROM currencies
		WHERE code=$1
	`, code)

	var c domain.Currency
	err := row.Scan(&c.Code, &c.Name, &c.Decimals, &c.Enabled, &c.UserSelectable, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("currency %s: %w", code, xerrors.ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

func (r *currencyRepo) ListCurrencies(ctx context.Context) ([]*domain.Currency, error) {
	rows, err := r.db.Query(ctx, `
		SELECT code, name, decimals, enabled, user_selectable, created_at, updated_at
		FROM currencies
		ORDER BY code ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var currencies []*domain.Currency
	for rows.Next() {
		var c domain.Currency
		if err := rows.Scan(&c.Code, &c.Name, &c.Decimals, &c.Enabled, &c.UserSelectable, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		currencies = append(currencies, &c)
	}
	return currencies, rows.Err()
}

func (r *currencyRepo) UpsertCurrencies(ctx context.Context, tx pgx.Tx, currencies []*domain.Currency) error {
	if tx == nil {
		return pgx.ErrTxClosed
	}

	now := time.Now()
	for _, c := range currencies {
		_, err := tx.Exec(ctx, `
			INSERT INTO currencies (code, name, decimals, enabled, user_selectable, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (code) DO UPDATE
			SET name = EXCLUDED.name,
			    decimals = EXCLUDED.decimals,
			    enabled = EXCLUDED.enabled,
			    user_selectable = EXCLUDED.user_selectable,
			    updated_at = EXCLUDED.updated_at
		`, c.Code, c.Name, c.Decimals, c.Enabled, c.UserSelectable, now, now)
		if err != nil {
			return fmt.Errorf("failed to upsert currency %s: %w", c.Code, err)
		}
	}
	return nil
}

func (r *currencyRepo) GetCurrentRate(ctx context.Context, code string) (*domain.CurrencyRate, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, currency_code, rate::text, updated_at
		FROM currency_rates
		WHERE currency_code=$1
		ORDER BY updated_at DESC
		LIMIT 1
	`, code)

	var cr domain.CurrencyRate
	var rate string
	err := row.Scan(&cr.ID, &cr.CurrencyCode, &rate, &cr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("currency %s: %w", code, xerrors.ErrRateUnavailable)
		}
		return nil, err
	}
	if cr.Rate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("invalid rate for currency %s: %w", code, err)
	}
	return &cr, nil
}

func (r *currencyRepo) UpsertRates(ctx context.Context, tx pgx.Tx, rates []*domain.CurrencyRate) error {
	if tx == nil {
		return pgx.ErrTxClosed
	}

	for _, cr := range rates {
		_, err := tx.Exec(ctx, `
			INSERT INTO currency_rates (currency_code, rate, updated_at)
			VALUES ($1,$2,$3)
			ON CONFLICT (currency_code, updated_at) DO UPDATE
			SET rate = EXCLUDED.rate
		`, cr.CurrencyCode, cr.Rate.String(), cr.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert rate for %s: %w", cr.CurrencyCode, err)
		}
	}
	return nil
}
