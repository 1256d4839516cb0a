package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ledger-service/internal/domain"
	"ledger-service/pkg/xerrors"
)

// poster lets tests drive the builder against a fake engine.
type poster interface {
	Post(ctx context.Context, spec *domain.TransferSpec) (*domain.WalletEntry, error)
}

// TransferBuilder collects a transfer's parameters through a staged fluent
// protocol. It is a single-use accumulator: every call returns the same
// builder, nothing touches storage until Commit, and the first misuse
// (double source, double destination) sticks and fails the commit. The
// collected state is an explicit TransferSpec validated in full before the
// posting engine runs.
type TransferBuilder struct {
	engine    poster
	spec      domain.TransferSpec
	err       error
	committed bool
}

// Transfer starts a new builder for the given positive amount. Direction is
// expressed by source and destination, not by the amount's sign.
func (uc *PostingUsecase) Transfer(amount decimal.Decimal, currencyCode string) *TransferBuilder {
	return newTransferBuilder(uc, amount, currencyCode)
}

func newTransferBuilder(engine poster, amount decimal.Decimal, currencyCode string) *TransferBuilder {
	return &TransferBuilder{
		engine: engine,
		spec: domain.TransferSpec{
			Amount:       amount,
			CurrencyCode: currencyCode,
		},
	}
}

func (b *TransferBuilder) Purpose(p domain.Purpose) *TransferBuilder {
	b.spec.Purpose = p
	return b
}

func (b *TransferBuilder) RequestedBy(t domain.RequesterType, id string) *TransferBuilder {
	b.spec.RequesterType = t
	b.spec.RequesterID = id
	return b
}

func (b *TransferBuilder) Memo(text string) *TransferBuilder {
	if text != "" {
		b.spec.Memo = &text
	}
	return b
}

func (b *TransferBuilder) FromUser(userID, accountName string) *TransferBuilder {
	return b.setSource(&domain.AccountRef{UserID: &userID, AccountName: accountName})
}

// FromPlatform sets a platform wallet as the source. An empty accountName
// defaults to the platform wallet's main account.
func (b *TransferBuilder) FromPlatform(walletName string, accountName ...string) *TransferBuilder {
	return b.setSource(&domain.AccountRef{
		PlatformName: &walletName,
		AccountName:  platformAccountName(accountName),
	})
}

func (b *TransferBuilder) ToUser(userID, accountName string) *TransferBuilder {
	return b.setDestination(&domain.AccountRef{UserID: &userID, AccountName: accountName})
}

func (b *TransferBuilder) ToPlatform(walletName string, accountName ...string) *TransferBuilder {
	return b.setDestination(&domain.AccountRef{
		PlatformName: &walletName,
		AccountName:  platformAccountName(accountName),
	})
}

func (b *TransferBuilder) setSource(ref *domain.AccountRef) *TransferBuilder {
	if b.spec.Source != nil {
		b.fail(fmt.Errorf("%w: source set twice", xerrors.ErrValidation))
		return b
	}
	b.spec.Source = ref
	return b
}

func (b *TransferBuilder) setDestination(ref *domain.AccountRef) *TransferBuilder {
	if b.spec.Destination != nil {
		b.fail(fmt.Errorf("%w: destination set twice", xerrors.ErrValidation))
		return b
	}
	b.spec.Destination = ref
	return b
}

func (b *TransferBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Commit validates the collected spec and invokes the posting engine. It is
// the only builder operation with side effects, and may be called once.
func (b *TransferBuilder) Commit(ctx context.Context) (*domain.WalletEntry, error) {
	if b.committed {
		return nil, fmt.Errorf("%w: builder already committed", xerrors.ErrValidation)
	}
	b.committed = true

	if b.err != nil {
		return nil, b.err
	}
	if err := b.spec.Validate(); err != nil {
		return nil, err
	}

	return b.engine.Post(ctx, &b.spec)
}

func platformAccountName(names []string) string {
	if len(names) > 0 && names[0] != "" {
		return names[0]
	}
	return domain.AccountMain
}
