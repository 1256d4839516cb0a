package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository"
	"ledger-service/pkg/xerrors"
)

// WalletUsecase provisions wallets and serves balance reads. It never
// touches balances itself; those belong to the posting engine.
type WalletUsecase struct {
	walletRepo   repository.WalletRepository
	accountRepo  repository.AccountRepository
	currencyRepo repository.CurrencyRepository
	runner       *repository.TxRunner
	log          *zap.Logger
}

func NewWalletUsecase(
	walletRepo repository.WalletRepository,
	accountRepo repository.AccountRepository,
	currencyRepo repository.CurrencyRepository,
	runner *repository.TxRunner,
	log *zap.Logger,
) *WalletUsecase {
	return &WalletUsecase{
		walletRepo:   walletRepo,
		accountRepo:  accountRepo,
		currencyRepo: currencyRepo,
		runner:       runner,
		log:          log,
	}
}

// ProvisionUserWallet creates the user's wallet and seeds a main account
// for every enabled currency. One wallet per user; a second call returns
// the existing wallet unchanged.
func (uc *WalletUsecase) ProvisionUserWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", xerrors.ErrValidation)
	}

	if existing, err := uc.walletRepo.GetUserWallet(ctx, userID); err == nil {
		return existing, nil
	} else if !errors.Is(err, xerrors.ErrWalletNotFound) {
		return nil, err
	}

	currencies, err := uc.currencyRepo.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}

	wallet := &domain.Wallet{
		Type:   domain.WalletTypeUser,
		UserID: &userID,
		Flow:   domain.WalletFlowAll,
	}

	err = uc.runner.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := uc.walletRepo.Create(ctx, tx, wallet); err != nil {
			return err
		}
		for _, c := range currencies {
			if !c.Enabled {
				continue
			}
			acc := &domain.WalletAccount{
				WalletID:      wallet.ID,
				CurrencyCode:  c.Code,
				Name:          accountNameFor(c),
				Balance:       decimal.Zero,
				AllowNegative: false,
			}
			if err := uc.accountRepo.Create(ctx, tx, acc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Lost a provisioning race: the other writer's wallet wins.
		if errors.Is(err, xerrors.ErrWalletExists) {
			return uc.walletRepo.GetUserWallet(ctx, userID)
		}
		return nil, err
	}

	uc.log.Info("provisioned user wallet",
		zap.String("user_id", userID),
		zap.Int64("wallet_id", wallet.ID),
	)

	return wallet, nil
}

// UserBalances lists the user's accounts with their cached balances.
func (uc *WalletUsecase) UserBalances(ctx context.Context, userID string) ([]*domain.WalletAccount, error) {
	wallet, err := uc.walletRepo.GetUserWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.accountRepo.ListByWallet(ctx, wallet.ID)
}

// PlatformBalances lists a platform wallet's accounts.
func (uc *WalletUsecase) PlatformBalances(ctx context.Context, name string) ([]*domain.WalletAccount, error) {
	wallet, err := uc.walletRepo.GetPlatformWallet(ctx, name)
	if err != nil {
		return nil, err
	}
	return uc.accountRepo.ListByWallet(ctx, wallet.ID)
}

// accountNameFor maps a currency onto the semantic account it is held in.
// Names are unique per wallet: base-currency funds live in the withdrawable
// account, diamonds in their own, any other currency under its own code.
func accountNameFor(c *domain.Currency) string {
	switch c.Code {
	case "DIA":
		return domain.AccountDiamonds
	case domain.BaseCurrency:
		return domain.AccountWithdrawable
	default:
		return strings.ToLower(c.Code)
	}
}
