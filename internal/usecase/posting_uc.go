package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository"
	"ledger-service/pkg/xerrors"
)

// EntryPublisher pushes committed entries to downstream consumers.
// Publishing is best-effort: the entry is already durable when it runs.
type EntryPublisher interface {
	EntryPosted(ctx context.Context, e *domain.WalletEntry)
}

// ReferenceGenerator mints the human-facing reference code for an entry.
type ReferenceGenerator interface {
	Next() string
}

// PostingUsecase is the double-entry posting engine. Given a validated
// transfer spec it computes the two balanced legs, converts across
// currencies through the base currency, checks balance-direction rules and
// commits everything atomically through the retryable runner. All
// WalletAccount balance writes in the system funnel through here.
type PostingUsecase struct {
	walletRepo   repository.WalletRepository
	accountRepo  repository.AccountRepository
	entryRepo    repository.EntryRepository
	currencyRepo repository.CurrencyRepository
	rates        RateProvider
	runner       *repository.TxRunner
	refs         ReferenceGenerator
	pub          EntryPublisher // optional
	log          *zap.Logger
}

func NewPostingUsecase(
	walletRepo repository.WalletRepository,
	accountRepo repository.AccountRepository,
	entryRepo repository.EntryRepository,
	currencyRepo repository.CurrencyRepository,
	rates RateProvider,
	runner *repository.TxRunner,
	refs ReferenceGenerator,
	pub EntryPublisher,
	log *zap.Logger,
) *PostingUsecase {
	return &PostingUsecase{
		walletRepo:   walletRepo,
		accountRepo:  accountRepo,
		entryRepo:    entryRepo,
		currencyRepo: currencyRepo,
		rates:        rates,
		runner:       runner,
		refs:         refs,
		pub:          pub,
		log:          log,
	}
}

// Post validates the spec and commits the transfer. Either the entry, both
// legs and both balance updates become durable together, or nothing does.
func (uc *PostingUsecase) Post(ctx context.Context, spec *domain.TransferSpec) (*domain.WalletEntry, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	currency, err := uc.currencyRepo.GetCurrency(ctx, spec.CurrencyCode)
	if err != nil {
		return nil, err
	}
	if !currency.Enabled {
		return nil, fmt.Errorf("%w: %s", xerrors.ErrCurrencyDisabled, currency.Code)
	}

	refCode := uc.refs.Next()
	start := time.Now()

	var entry *domain.WalletEntry
	err = uc.runner.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		// Each attempt starts from scratch; a retried attempt must not see
		// state from a rolled-back one.
		entry = nil

		source, dest, err := uc.resolveAccounts(ctx, tx, spec)
		if err != nil {
			return err
		}

		legs, err := uc.computeLegs(ctx, spec, source, dest)
		if err != nil {
			return err
		}

		if !source.CanDebit(legs.debit.Amount) {
			return fmt.Errorf("%w: account %d has %s %s, needs %s",
				xerrors.ErrInsufficientFunds, source.ID,
				source.Balance, source.CurrencyCode, spec.Amount)
		}

		entry = &domain.WalletEntry{
			ReferenceCode: refCode,
			Purpose:       spec.Purpose,
			RequesterType: spec.RequesterType,
			RequesterID:   spec.RequesterID,
			Memo:          spec.Memo,
		}
		if err := uc.entryRepo.CreateEntry(ctx, tx, entry); err != nil {
			return err
		}

		for _, leg := range []*domain.WalletTransaction{legs.debit, legs.credit} {
			leg.EntryID = entry.ID
			leg.Purpose = spec.Purpose
			leg.RequesterType = spec.RequesterType
			leg.RequesterID = spec.RequesterID
			if err := uc.entryRepo.CreateTransaction(ctx, tx, leg); err != nil {
				return err
			}
			if err := uc.accountRepo.ApplyDelta(ctx, tx, leg.AccountID, leg.Amount); err != nil {
				return err
			}
		}

		entry.Transactions = []*domain.WalletTransaction{legs.debit, legs.credit}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info("posted wallet entry",
		zap.Int64("entry_id", entry.ID),
		zap.String("reference", entry.ReferenceCode),
		zap.String("purpose", string(entry.Purpose)),
		zap.String("amount", spec.Amount.String()),
		zap.String("currency", spec.CurrencyCode),
		zap.Duration("took", time.Since(start)),
	)

	if uc.pub != nil {
		uc.pub.EntryPosted(context.WithoutCancel(ctx), entry)
	}

	return entry, nil
}

// resolveAccounts locks both account rows inside tx, creating the
// destination lazily on first use. A transfer can never originate from a
// non-existent account. Locks are taken in deterministic (wallet, name)
// order so two opposing transfers cannot deadlock each other.
func (uc *PostingUsecase) resolveAccounts(
	ctx context.Context,
	tx pgx.Tx,
	spec *domain.TransferSpec,
) (source, dest *domain.WalletAccount, err error) {
	srcWallet, err := uc.resolveWallet(ctx, tx, spec.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("source: %w", err)
	}
	dstWallet, err := uc.resolveWallet(ctx, tx, spec.Destination)
	if err != nil {
		return nil, nil, fmt.Errorf("destination: %w", err)
	}

	if !srcWallet.CanSend() {
		return nil, nil, fmt.Errorf("%w: wallet %d is inbound-only", xerrors.ErrFlowViolation, srcWallet.ID)
	}
	if !dstWallet.CanReceive() {
		return nil, nil, fmt.Errorf("%w: wallet %d is outbound-only", xerrors.ErrFlowViolation, dstWallet.ID)
	}

	type lockTarget struct {
		wallet *domain.Wallet
		name   string
		isDest bool
	}
	targets := []lockTarget{
		{wallet: srcWallet, name: spec.Source.AccountName},
		{wallet: dstWallet, name: spec.Destination.AccountName, isDest: true},
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].wallet.ID != targets[j].wallet.ID {
			return targets[i].wallet.ID < targets[j].wallet.ID
		}
		return targets[i].name < targets[j].name
	})

	for _, t := range targets {
		acc, err := uc.accountRepo.GetForUpdate(ctx, tx, t.wallet.ID, t.name)
		if err != nil {
			if t.isDest && errors.Is(err, xerrors.ErrAccountNotFound) {
				acc, err = uc.createDestinationAccount(ctx, tx, t.wallet, t.name, spec.CurrencyCode)
			}
			if err != nil {
				side := "source"
				if t.isDest {
					side = "destination"
				}
				return nil, nil, fmt.Errorf("%s account %q on wallet %d: %w", side, t.name, t.wallet.ID, err)
			}
		}
		if t.isDest {
			dest = acc
		} else {
			source = acc
		}
	}

	if source.ID == dest.ID {
		return nil, nil, xerrors.ErrSameAccount
	}
	if source.CurrencyCode != spec.CurrencyCode {
		return nil, nil, fmt.Errorf("%w: transfer in %s but source account %d holds %s",
			xerrors.ErrValidation, spec.CurrencyCode, source.ID, source.CurrencyCode)
	}

	return source, dest, nil
}

func (uc *PostingUsecase) resolveWallet(ctx context.Context, tx pgx.Tx, ref *domain.AccountRef) (*domain.Wallet, error) {
	if ref.IsUser() {
		return uc.walletRepo.GetUserWalletTx(ctx, tx, *ref.UserID)
	}
	return uc.walletRepo.GetPlatformWalletTx(ctx, tx, *ref.PlatformName)
}

func (uc *PostingUsecase) createDestinationAccount(
	ctx context.Context,
	tx pgx.Tx,
	wallet *domain.Wallet,
	name, currencyCode string,
) (*domain.WalletAccount, error) {
	acc := &domain.WalletAccount{
		WalletID:     wallet.ID,
		CurrencyCode: currencyCode,
		Name:         name,
		Balance:      decimal.Zero,
		// Platform accounts may run negative (the corporate wallet funds
		// user balances); user accounts never may.
		AllowNegative: wallet.Type == domain.WalletTypePlatform,
	}
	if err := uc.accountRepo.Create(ctx, tx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

type transferLegs struct {
	debit  *domain.WalletTransaction
	credit *domain.WalletTransaction
}

// computeLegs builds the two balanced legs. The base amount is computed
// once from the source side, rounded to the base currency's minor unit, and
// carried onto both legs with opposite signs — so the entry reconciles in
// the base currency exactly, whatever the account currencies. Rounding
// residue from converting into the destination currency lands only on the
// credit leg's account-currency amount; the pre-rounding value is kept in
// amount_raw.
func (uc *PostingUsecase) computeLegs(
	ctx context.Context,
	spec *domain.TransferSpec,
	source, dest *domain.WalletAccount,
) (*transferLegs, error) {
	srcRate, _, err := uc.rates.GetRate(ctx, source.CurrencyCode)
	if err != nil {
		return nil, err
	}
	if !srcRate.IsPositive() {
		return nil, fmt.Errorf("%w: non-positive rate for %s", xerrors.ErrRateUnavailable, source.CurrencyCode)
	}

	baseAmount := spec.Amount.Div(srcRate).Round(domain.BaseDecimals)

	debit := &domain.WalletTransaction{
		AccountID:    source.ID,
		WalletID:     source.WalletID,
		Amount:       spec.Amount.Neg(),
		AmountRaw:    spec.Amount.Neg(),
		BaseAmount:   baseAmount.Neg(),
		CurrencyCode: source.CurrencyCode,
		ExchangeRate: srcRate,
	}

	credit := &domain.WalletTransaction{
		AccountID:    dest.ID,
		WalletID:     dest.WalletID,
		BaseAmount:   baseAmount,
		CurrencyCode: dest.CurrencyCode,
	}

	if dest.CurrencyCode == source.CurrencyCode {
		credit.Amount = spec.Amount
		credit.AmountRaw = spec.Amount
		credit.ExchangeRate = srcRate
		return &transferLegs{debit: debit, credit: credit}, nil
	}

	dstRate, _, err := uc.rates.GetRate(ctx, dest.CurrencyCode)
	if err != nil {
		return nil, err
	}
	if !dstRate.IsPositive() {
		return nil, fmt.Errorf("%w: non-positive rate for %s", xerrors.ErrRateUnavailable, dest.CurrencyCode)
	}

	dstCurrency, err := uc.currencyRepo.GetCurrency(ctx, dest.CurrencyCode)
	if err != nil {
		return nil, err
	}

	raw := baseAmount.Mul(dstRate)
	credit.AmountRaw = raw
	credit.Amount = raw.Round(dstCurrency.Decimals)
	credit.ExchangeRate = dstRate

	return &transferLegs{debit: debit, credit: credit}, nil
}
