package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledger-service/internal/domain"
	"ledger-service/pkg/xerrors"
)

type WalletRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Wallet, error)
	GetUserWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	GetPlatformWallet(ctx context.Context, name string) (*domain.Wallet, error)

	// Tx variants join an enclosing posting transaction.
	GetUserWalletTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.Wallet, error)
	GetPlatformWalletTx(ctx context.Context, tx pgx.Tx, name string) (*domain.Wallet, error)
	Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error
}

type walletRepo struct {
	db *pgxpool.Pool
}

func NewWalletRepo(db *pgxpool.Pool) WalletRepository {
	return &walletRepo{db: db}
}

const walletColumns = `id, wallet_type, user_id, name, flow, created_at`

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	err := row.Scan(&w.ID, &w.Type, &w.UserID, &w.Name, &w.Flow, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrWalletNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *walletRepo) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	return scanWallet(r.db.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE id=$1
	`, id))
}

func (r *walletRepo) GetUserWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return scanWallet(r.db.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE wallet_type=$1 AND user_id=$2
	`, domain.WalletTypeUser, userID))
}

func (r *walletRepo) GetPlatformWallet(ctx context.Context, name string) (*domain.Wallet, error) {
	return scanWallet(r.db.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE wallet_type=$1 AND name=$2
	`, domain.WalletTypePlatform, name))
}

func (r *walletRepo) GetUserWalletTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.Wallet, error) {
	if tx == nil {
		return nil, errors.New("transaction cannot be nil")
	}
	return scanWallet(tx.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE wallet_type=$1 AND user_id=$2
	`, domain.WalletTypeUser, userID))
}

func (r *walletRepo) GetPlatformWalletTx(ctx context.Context, tx pgx.Tx, name string) (*domain.Wallet, error) {
	if tx == nil {
		return nil, errors.New("transaction cannot be nil")
	}
	return scanWallet(tx.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE wallet_type=$1 AND name=$2
	`, domain.WalletTypePlatform, name))
}

// Create inserts a wallet inside a transaction
func (r *walletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO wallets (wallet_type, user_id, name, flow, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at
	`, w.Type, w.UserID, w.Name, w.Flow, time.Now()).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		if xerrors.ParsePGErrorCode(err) == "23505" {
			return xerrors.ErrWalletExists
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}
