package service

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

// SystemSeeder provisions the reference data the engine assumes at
// runtime: currencies, their seed rates, the platform wallets and one
// account per platform wallet and enabled currency. Seeding is idempotent
// and safe to run on every startup.
type SystemSeeder struct {
	walletRepo   repository.WalletRepository
	accountRepo  repository.AccountRepository
	currencyRepo repository.CurrencyRepository
	runner       *repository.TxRunner
	providers    []string // payment provider wallet names
	log          *zap.Logger
}

func NewSystemSeeder(
	walletRepo repository.WalletRepository,
	accountRepo repository.AccountRepository,
	currencyRepo repository.CurrencyRepository,
	runner *repository.TxRunner,
	providers []string,
	log *zap.Logger,
) *SystemSeeder {
	return &SystemSeeder{
		walletRepo:   walletRepo,
		accountRepo:  accountRepo,
		currencyRepo: currencyRepo,
		runner:       runner,
		providers:    providers,
		log:          log,
	}
}

func (s *SystemSeeder) SeedSystem(ctx context.Context) error {
	if err := s.seedCurrencies(ctx); err != nil {
		return fmt.Errorf("failed to seed currencies: %w", err)
	}
	if err := s.seedPlatformWallets(ctx); err != nil {
		return fmt.Errorf("failed to seed platform wallets: %w", err)
	}

	s.log.Info("system seeding completed")
	return nil
}

func (s *SystemSeeder) seedCurrencies(ctx context.Context) error {
	return s.runner.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.currencyRepo.UpsertCurrencies(ctx, tx, domain.DefaultCurrencies()); err != nil {
			return err
		}
		// Seed rates are placeholders until the rate ingestion job takes
		// over; upsert keyed on (currency, updated_at) keeps history.
		return s.currencyRepo.UpsertRates(ctx, tx, domain.DefaultRates())
	})
}

func (s *SystemSeeder) seedPlatformWallets(ctx context.Context) error {
	currencies, err := s.currencyRepo.ListCurrencies(ctx)
	if err != nil {
		return err
	}

	for _, w := range domain.DefaultPlatformWallets(s.providers) {
		wallet := w

		existing, err := s.walletRepo.GetPlatformWallet(ctx, *wallet.Name)
		switch {
		case err == nil:
			wallet = existing
		case errors.Is(err, xerrors.ErrWalletNotFound):
			err = s.runner.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
				return s.walletRepo.Create(ctx, tx, wallet)
			})
			if err != nil && !errors.Is(err, xerrors.ErrWalletExists) {
				return err
			}
			s.log.Info("created platform wallet",
				zap.String("name", *wallet.Name),
				zap.String("flow", string(wallet.Flow)),
			)
		default:
			return err
		}

		if err := s.seedAccounts(ctx, wallet, currencies); err != nil {
			return err
		}
	}

	return nil
}

// seedAccounts ensures the platform wallet has one account per enabled
// currency. Platform accounts may run negative: the corporate wallet is
// the counterparty funding user balances.
func (s *SystemSeeder) seedAccounts(ctx context.Context, wallet *domain.Wallet, currencies []*domain.Currency) error {
	existing, err := s.accountRepo.ListByWallet(ctx, wallet.ID)
	if err != nil {
		return err
	}
	byName := make(map[string]bool, len(existing))
	for _, a := range existing {
		byName[a.Name] = true
	}

	return s.runner.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, c := range currencies {
			if !c.Enabled {
				continue
			}
			name := platformAccountNameFor(c)
			if byName[name] {
				continue
			}
			acc := &domain.WalletAccount{
				WalletID:      wallet.ID,
				CurrencyCode:  c.Code,
				Name:          name,
				Balance:       decimal.Zero,
				AllowNegative: true,
			}
			if err := s.accountRepo.Create(ctx, tx, acc); err != nil {
				return err
			}
		}
		return nil
	})
}

// platformAccountNameFor mirrors the naming used for user wallets so the
// builder's default resolution finds the same kinds on both sides.
func platformAccountNameFor(c *domain.Currency) string {
	switch c.Code {
	case "DIA":
		return domain.AccountDiamonds
	case domain.BaseCurrency:
		return domain.AccountMain
	default:
		return "main_" + strings.ToLower(c.Code)
	}
}
