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

type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.WalletAccount, error)
	ListByWallet(ctx context.Context, walletID int64) ([]*domain.WalletAccount, error)

	// GetForUpdate locks the account row for the duration of tx.
	GetForUpdate(ctx context.Context, tx pgx.Tx, walletID int64, name string) (*domain.WalletAccount, error)
	Create(ctx context.Context, tx pgx.Tx, a *domain.WalletAccount) error

	// ApplyDelta adjusts the cached balance by delta (signed). Only the
	// posting engine calls this, always inside the posting transaction.
	ApplyDelta(ctx context.Context, tx pgx.Tx, accountID int64, delta decimal.Decimal) error
}

type accountRepo struct {
	db *pgxpool.Pool
}

func NewAccountRepo(db *pgxpool.Pool) AccountRepository {
	return &accountRepo{db: db}
}

const accountColumns = `id, wallet_id, currency_code, name, balance::text, allow_negative, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.WalletAccount, error) {
	var a domain.WalletAccount
	var balance string
	err := row.Scan(&a.ID, &a.WalletID, &a.CurrencyCode, &a.Name, &balance,
		&a.AllowNegative, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrAccountNotFound
		}
		return nil, err
	}
	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance for account %d: %w", a.ID, err)
	}
	return &a, nil
}

func (r *accountRepo) GetByID(ctx context.Context, id int64) (*domain.WalletAccount, error) {
	return scanAccount(r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM wallet_accounts
		WHERE id=$1
	`, id))
}

func (r *accountRepo) ListByWallet(ctx context.Context, walletID int64) ([]*domain.WalletAccount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM wallet_accounts
		WHERE wallet_id=$1
		ORDER BY currency_code, name
	`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.WalletAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetForUpdate fetches an account by (wallet, name) and takes a row lock so
// concurrent postings against the same account serialize.
func (r *accountRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, walletID int64, name string) (*domain.WalletAccount, error) {
	if tx == nil {
		return nil, errors.New("transaction cannot be nil")
	}
	return scanAccount(tx.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM wallet_accounts
		WHERE wallet_id=$1 AND name=$2
		FOR UPDATE
	`, walletID, name))
}

// Create inserts an account inside a transaction
func (r *accountRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.WalletAccount) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	now := time.Now()
	err := tx.QueryRow(ctx, `
		INSERT INTO wallet_accounts (wallet_id, currency_code, name, balance, allow_negative, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at
	`, a.WalletID, a.CurrencyCode, a.Name, a.Balance.String(), a.AllowNegative, now, now).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet account: %w", err)
	}
	return nil
}

func (r *accountRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, accountID int64, delta decimal.Decimal) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	tag, err := tx.Exec(ctx, `
		UPDATE wallet_accounts
		SET balance = balance + $2::numeric, updated_at = $3
		WHERE id=$1
	`, accountID, delta.String(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to update balance for account %d: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrAccountNotFound
	}
	return nil
}
