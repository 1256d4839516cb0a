package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository"
	"ledger-service/pkg/xerrors"
)

// --- in-memory fakes over the repository interfaces ---

type memTx struct {
	pgx.Tx
}

func (t *memTx) Commit(ctx context.Context) error   { return nil }
func (t *memTx) Rollback(ctx context.Context) error { return nil }

type memBeginner struct{}

func (memBeginner) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	return &memTx{}, nil
}

type memWalletRepo struct {
	wallets []*domain.Wallet
}

func (r *memWalletRepo) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	for _, w := range r.wallets {
		if w.ID == id {
			return w, nil
		}
	}
	return nil, xerrors.ErrWalletNotFound
}

func (r *memWalletRepo) GetUserWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	for _, w := range r.wallets {
		if w.Type == domain.WalletTypeUser && w.UserID != nil && *w.UserID == userID {
			return w, nil
		}
	}
	return nil, xerrors.ErrWalletNotFound
}

func (r *memWalletRepo) GetPlatformWallet(ctx context.Context, name string) (*domain.Wallet, error) {
	for _, w := range r.wallets {
		if w.Type == domain.WalletTypePlatform && w.Name != nil && *w.Name == name {
			return w, nil
		}
	}
	return nil, xerrors.ErrWalletNotFound
}

func (r *memWalletRepo) GetUserWalletTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.Wallet, error) {
	return r.GetUserWallet(ctx, userID)
}

func (r *memWalletRepo) GetPlatformWalletTx(ctx context.Context, tx pgx.Tx, name string) (*domain.Wallet, error) {
	return r.GetPlatformWallet(ctx, name)
}

func (r *memWalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	w.ID = int64(len(r.wallets) + 1)
	w.CreatedAt = time.Now()
	r.wallets = append(r.wallets, w)
	return nil
}

type memAccountRepo struct {
	nextID   int64
	accounts []*domain.WalletAccount
}

func (r *memAccountRepo) find(walletID int64, name string) *domain.WalletAccount {
	for _, a := range r.accounts {
		if a.WalletID == walletID && a.Name == name {
			return a
		}
	}
	return nil
}

func (r *memAccountRepo) GetByID(ctx context.Context, id int64) (*domain.WalletAccount, error) {
	for _, a := range r.accounts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, xerrors.ErrAccountNotFound
}

func (r *memAccountRepo) ListByWallet(ctx context.Context, walletID int64) ([]*domain.WalletAccount, error) {
	var out []*domain.WalletAccount
	for _, a := range r.accounts {
		if a.WalletID == walletID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memAccountRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, walletID int64, name string) (*domain.WalletAccount, error) {
	if a := r.find(walletID, name); a != nil {
		cp := *a
		return &cp, nil
	}
	return nil, xerrors.ErrAccountNotFound
}

func (r *memAccountRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.WalletAccount) error {
	r.nextID++
	a.ID = r.nextID
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.accounts = append(r.accounts, a)
	return nil
}

func (r *memAccountRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, accountID int64, delta decimal.Decimal) error {
	for _, a := range r.accounts {
		if a.ID == accountID {
			a.Balance = a.Balance.Add(delta)
			a.UpdatedAt = time.Now()
			return nil
		}
	}
	return xerrors.ErrAccountNotFound
}

func (r *memAccountRepo) balance(walletID int64, name string) decimal.Decimal {
	if a := r.find(walletID, name); a != nil {
		return a.Balance
	}
	return decimal.Zero
}

type memEntryRepo struct {
	entries []*domain.WalletEntry
	legs    []*domain.WalletTransaction

	// createEntryErrs is consumed one error per CreateEntry call; nil
	// entries mean success.
	createEntryErrs []error
	createCalls     int
}

func (r *memEntryRepo) CreateEntry(ctx context.Context, tx pgx.Tx, e *domain.WalletEntry) error {
	r.createCalls++
	if len(r.createEntryErrs) > 0 {
		err := r.createEntryErrs[0]
		r.createEntryErrs = r.createEntryErrs[1:]
		if err != nil {
			return err
		}
	}
	e.ID = int64(len(r.entries) + 1)
	e.CreatedAt = time.Now()
	r.entries = append(r.entries, e)
	return nil
}

func (r *memEntryRepo) CreateTransaction(ctx context.Context, tx pgx.Tx, t *domain.WalletTransaction) error {
	t.ID = int64(len(r.legs) + 1)
	t.CreatedAt = time.Now()
	r.legs = append(r.legs, t)
	return nil
}

func (r *memEntryRepo) GetByID(ctx context.Context, id int64) (*domain.WalletEntry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *memEntryRepo) GetByReference(ctx context.Context, code string) (*domain.WalletEntry, error) {
	for _, e := range r.entries {
		if e.ReferenceCode == code {
			return e, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *memEntryRepo) ListEntries(ctx context.Context, f domain.EntryFilter) ([]*domain.WalletEntry, error) {
	return r.entries, nil
}

func (r *memEntryRepo) ListTransactions(ctx context.Context, f domain.EntryFilter) ([]*domain.WalletTransaction, error) {
	return r.legs, nil
}

type memCurrencyRepo struct {
	currencies map[string]*domain.Currency
	rates      map[string]decimal.Decimal
}

func (r *memCurrencyRepo) GetCurrency(ctx context.Context, code string) (*domain.Currency, error) {
	if c, ok := r.currencies[code]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("currency %s: %w", code, xerrors.ErrNotFound)
}

func (r *memCurrencyRepo) ListCurrencies(ctx context.Context) ([]*domain.Currency, error) {
	var out []*domain.Currency
	for _, c := range r.currencies {
		out = append(out, c)
	}
	return out, nil
}

func (r *memCurrencyRepo) UpsertCurrencies(ctx context.Context, tx pgx.Tx, currencies []*domain.Currency) error {
	for _, c := range currencies {
		r.currencies[c.Code] = c
	}
	return nil
}

func (r *memCurrencyRepo) GetCurrentRate(ctx context.Context, code string) (*domain.CurrencyRate, error) {
	if rate, ok := r.rates[code]; ok {
		return &domain.CurrencyRate{CurrencyCode: code, Rate: rate, UpdatedAt: time.Now()}, nil
	}
	return nil, fmt.Errorf("currency %s: %w", code, xerrors.ErrRateUnavailable)
}

func (r *memCurrencyRepo) UpsertRates(ctx context.Context, tx pgx.Tx, rates []*domain.CurrencyRate) error {
	for _, cr := range rates {
		r.rates[cr.CurrencyCode] = cr.Rate
	}
	return nil
}

type seqRefs struct{ n int }

func (g *seqRefs) Next() string {
	g.n++
	return fmt.Sprintf("TXN-TEST-%04d", g.n)
}

type capturePub struct {
	posted []*domain.WalletEntry
}

func (p *capturePub) EntryPosted(ctx context.Context, e *domain.WalletEntry) {
	p.posted = append(p.posted, e)
}

// --- fixture ---

const (
	corporateWalletID = 1
	topupWalletID     = 2
	prizeWalletID     = 3
	userWalletID      = 4
	userID            = "u-100"
)

type postingFixture struct {
	uc       *PostingUsecase
	accounts *memAccountRepo
	entries  *memEntryRepo
	pub      *capturePub
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func newPostingFixture(t *testing.T) *postingFixture {
	t.Helper()

	corporate := domain.PlatformCorporate
	topup := "topup"
	prize := domain.PlatformPrize
	uid := userID

	wallets := &memWalletRepo{wallets: []*domain.Wallet{
		{ID: corporateWalletID, Type: domain.WalletTypePlatform, Name: &corporate, Flow: domain.WalletFlowAll},
		{ID: topupWalletID, Type: domain.WalletTypePlatform, Name: &topup, Flow: domain.WalletFlowInbound},
		{ID: prizeWalletID, Type: domain.WalletTypePlatform, Name: &prize, Flow: domain.WalletFlowOutbound},
		{ID: userWalletID, Type: domain.WalletTypeUser, UserID: &uid, Flow: domain.WalletFlowAll},
	}}

	accounts := &memAccountRepo{nextID: 100}
	seed := []*domain.WalletAccount{
		{ID: 11, WalletID: corporateWalletID, CurrencyCode: "USD", Name: domain.AccountMain, Balance: d("1000"), AllowNegative: true},
		{ID: 12, WalletID: corporateWalletID, CurrencyCode: "DIA", Name: domain.AccountDiamonds, Balance: d("100000"), AllowNegative: true},
		{ID: 13, WalletID: prizeWalletID, CurrencyCode: "USD", Name: domain.AccountMain, Balance: d("500"), AllowNegative: true},
		{ID: 14, WalletID: userWalletID, CurrencyCode: "USD", Name: domain.AccountWithdrawable, Balance: d("20")},
		{ID: 15, WalletID: userWalletID, CurrencyCode: "DIA", Name: domain.AccountDiamonds, Balance: d("500")},
	}
	accounts.accounts = append(accounts.accounts, seed...)

	currencies := &memCurrencyRepo{
		currencies: map[string]*domain.Currency{
			"USD": {Code: "USD", Name: "US Dollar", Decimals: 2, Enabled: true, UserSelectable: true},
			"EUR": {Code: "EUR", Name: "Euro", Decimals: 2, Enabled: true, UserSelectable: true},
			"DIA": {Code: "DIA", Name: "Diamonds", Decimals: 0, Enabled: true},
			"XXX": {Code: "XXX", Name: "Disabled", Decimals: 2, Enabled: false},
		},
		rates: map[string]decimal.Decimal{
			"USD": d("1"),
			"EUR": d("0.92"),
			"DIA": d("10000"),
		},
	}

	entries := &memEntryRepo{}
	pub := &capturePub{}
	runner := repository.NewTxRunner(memBeginner{}, zap.NewNop()).
		Delay(time.Microsecond, 10*time.Microsecond)

	uc := NewPostingUsecase(
		wallets, accounts, entries, currencies,
		NewRateService(currencies, nil),
		runner, &seqRefs{}, pub, zap.NewNop(),
	)

	return &postingFixture{uc: uc, accounts: accounts, entries: entries, pub: pub}
}

func depositSpec(amount string) *domain.TransferSpec {
	return &domain.TransferSpec{
		Amount:        d(amount),
		CurrencyCode:  "USD",
		Purpose:       domain.PurposeDeposit,
		RequesterType: domain.RequesterSystem,
		RequesterID:   "webhook-1",
		Source:        &domain.AccountRef{PlatformName: strPtr(domain.PlatformCorporate), AccountName: domain.AccountMain},
		Destination:   &domain.AccountRef{UserID: strPtr(userID), AccountName: domain.AccountWithdrawable},
	}
}

// --- tests ---

func TestPost_SameCurrency(t *testing.T) {
	f := newPostingFixture(t)

	entry, err := f.uc.Post(context.Background(), depositSpec("50"))
	if err != nil {
		t.Fatalf("Post() = %v", err)
	}

	if entry.ReferenceCode == "" {
		t.Fatal("entry has no reference code")
	}
	if len(entry.Transactions) != 2 {
		t.Fatalf("entry has %d legs, want 2", len(entry.Transactions))
	}
	if !entry.IsBalanced() {
		t.Fatal("entry does not balance in the base currency")
	}

	debit, credit := entry.Transactions[0], entry.Transactions[1]
	if !debit.Amount.Equal(d("-50")) || !debit.BaseAmount.Equal(d("-50")) {
		t.Fatalf("debit leg = %s (base %s), want -50/-50", debit.Amount, debit.BaseAmount)
	}
	if !credit.Amount.Equal(d("50")) || !credit.BaseAmount.Equal(d("50")) {
		t.Fatalf("credit leg = %s (base %s), want 50/50", credit.Amount, credit.BaseAmount)
	}
	if debit.AccountID != 11 || credit.AccountID != 14 {
		t.Fatalf("legs hit accounts %d/%d, want 11/14", debit.AccountID, credit.AccountID)
	}

	if got := f.accounts.balance(corporateWalletID, domain.AccountMain); !got.Equal(d("950")) {
		t.Fatalf("corporate balance = %s, want 950", got)
	}
	if got := f.accounts.balance(userWalletID, domain.AccountWithdrawable); !got.Equal(d("70")) {
		t.Fatalf("user balance = %s, want 70", got)
	}

	if len(f.pub.posted) != 1 {
		t.Fatalf("published %d events, want 1", len(f.pub.posted))
	}
}

func TestPost_CrossCurrencyConversion(t *testing.T) {
	f := newPostingFixture(t)

	// 100 DIA at 10000 DIA/USD converts through 0.01 USD base.
	spec := &domain.TransferSpec{
		Amount:        d("100"),
		CurrencyCode:  "DIA",
		Purpose:       domain.PurposePurchase,
		RequesterType: domain.RequesterUser,
		RequesterID:   userID,
		Source:        &domain.AccountRef{UserID: strPtr(userID), AccountName: domain.AccountDiamonds},
		Destination:   &domain.AccountRef{UserID: strPtr(userID), AccountName: domain.AccountWithdrawable},
	}

	entry, err := f.uc.Post(context.Background(), spec)
	if err != nil {
		t.Fatalf("Post() = %v", err)
	}

	debit, credit := entry.Transactions[0], entry.Transactions[1]

	if !debit.Amount.Equal(d("-100")) || debit.CurrencyCode != "DIA" {
		t.Fatalf("debit leg = %s %s, want -100 DIA", debit.Amount, debit.CurrencyCode)
	}
	if !debit.BaseAmount.Equal(d("-0.01")) {
		t.Fatalf("debit base amount = %s, want -0.01", debit.BaseAmount)
	}

	if !credit.Amount.Equal(d("0.01")) || credit.CurrencyCode != "USD" {
		t.Fatalf("credit leg = %s %s, want 0.01 USD", credit.Amount, credit.CurrencyCode)
	}
	if !credit.BaseAmount.Equal(d("0.01")) {
		t.Fatalf("credit base amount = %s, want 0.01", credit.BaseAmount)
	}
	if !credit.ExchangeRate.Equal(d("1")) {
		t.Fatalf("credit exchange rate = %s, want 1", credit.ExchangeRate)
	}
	if !entry.IsBalanced() {
		t.Fatal("cross-currency entry does not balance in the base currency")
	}

	if got := f.accounts.balance(userWalletID, domain.AccountDiamonds); !got.Equal(d("400")) {
		t.Fatalf("diamond balance = %s, want 400", got)
	}
	if got := f.accounts.balance(userWalletID, domain.AccountWithdrawable); !got.Equal(d("20.01")) {
		t.Fatalf("withdrawable balance = %s, want 20.01", got)
	}
}

func TestPost_CrossCurrencyRoundingResidual(t *testing.T) {
	f := newPostingFixture(t)

	// 155 DIA is 0.0155 USD raw; the base amount rounds to 0.02 and the
	// credit leg carries the rounded account-currency value, pre-rounding
	// value preserved in AmountRaw.
	spec := &domain.TransferSpec{
		Amount:        d("155"),
		CurrencyCode:  "DIA",
		Purpose:       domain.PurposePurchase,
		RequesterType: domain.RequesterUser,
		RequesterID:   userID,
		Source:        &domain.AccountRef{UserID: strPtr(userID), AccountName: domain.AccountDiamonds},
		Destination:   &domain.AccountRef{UserID: strPtr(userID), AccountName: domain.AccountWithdrawable},
	}

	entry, err := f.uc.Post(context.Background(), spec)
	if err != nil {
		t.Fatalf("Post() = %v", err)
	}

	debit, credit := entry.Transactions[0], entry.Transactions[1]
	if !debit.BaseAmount.Equal(d("-0.02")) || !credit.BaseAmount.Equal(d("0.02")) {
		t.Fatalf("base amounts = %s/%s, want -0.02/0.02", debit.BaseAmount, credit.BaseAmount)
	}
	if !credit.Amount.Equal(d("0.02")) {
		t.Fatalf("credit amount = %s, want 0.02", credit.Amount)
	}
	if !debit.AmountRaw.Equal(d("-155")) {
		t.Fatalf("debit raw amount = %s, want -155", debit.AmountRaw)
	}
	if !entry.IsBalanced() {
		t.Fatal("entry does not balance after rounding")
	}
}

func TestPost_InsufficientFunds(t *testing.T) {
	f := newPostingFixture(t)

	// The user's withdrawable account holds 20 USD.
	spec := &domain.TransferSpec{
		Amount:        d("50"),
		CurrencyCode:  "USD",
		Purpose:       domain.PurposeWithdrawal,
		RequesterType: domain.RequesterUser,
		RequesterID:   userID,
		Source:        &domain.AccountRef{UserID: strPtr(userID), AccountName: domain.AccountWithdrawable},
		Destination:   &domain.AccountRef{PlatformName: strPtr(domain.PlatformCorporate), AccountName: domain.AccountMain},
	}

	_, err := f.uc.Post(context.Background(), spec)
	if !errors.Is(err, xerrors.ErrInsufficientFunds) {
		t.Fatalf("Post() = %v, want ErrInsufficientFunds", err)
	}

	if got := f.accounts.balance(userWalletID, domain.AccountWithdrawable); !got.Equal(d("20")) {
		t.Fatalf("user balance changed to %s on failed post", got)
	}
	if len(f.entries.entries) != 0 || len(f.entries.legs) != 0 {
		t.Fatal("failed post persisted ledger rows")
	}
	if len(f.pub.posted) != 0 {
		t.Fatal("failed post published an event")
	}
}

func TestPost_PlatformAccountMayGoNegative(t *testing.T) {
	f := newPostingFixture(t)

	// Corporate main holds 1000 but allows negative balances.
	entry, err := f.uc.Post(context.Background(), depositSpec("1500"))
	if err != nil {
		t.Fatalf("Post() = %v", err)
	}
	if !entry.IsBalanced() {
		t.Fatal("entry does not balance")
	}
	if got := f.accounts.balance(corporateWalletID, domain.AccountMain); !got.Equal(d("-500")) {
		t.Fatalf("corporate balance = %s, want -500", got)
	}
}

func TestPost_FlowViolations(t *testing.T) {
	f := newPostingFixture(t)

	tests := []struct {
		name string
		src  *domain.AccountRef
		dst  *domain.AccountRef
	}{
		{
			name: "inbound-only wallet as source",
			src:  &domain.AccountRef{PlatformName: strPtr("topup"), AccountName: domain.AccountMain},
			dst:  &domain.AccountRef{UserID: strPtr(userID), AccountName: domain.AccountWithdrawable},
		},
		{
			name: "outbound-only wallet as destination",
			src:  &domain.AccountRef{PlatformName: strPtr(domain.PlatformCorporate), AccountName: domain.AccountMain},
			dst:  &domain.AccountRef{PlatformName: strPtr(domain.PlatformPrize), AccountName: domain.AccountMain},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := depositSpec("10")
			spec.Source = tt.src
			spec.Destination = tt.dst

			_, err := f.uc.Post(context.Background(), spec)
			if !errors.Is(err, xerrors.ErrFlowViolation) {
				t.Fatalf("Post() = %v, want ErrFlowViolation", err)
			}
		})
	}
}

func TestPost_LazyDestinationAccount(t *testing.T) {
	f := newPostingFixture(t)

	// The user has no "bonus" account until something pays into it.
	spec := depositSpec("25")
	spec.Destination.AccountName = "bonus"

	entry, err := f.uc.Post(context.Background(), spec)
	if err != nil {
		t.Fatalf("Post() = %v", err)
	}

	created := f.accounts.find(userWalletID, "bonus")
	if created == nil {
		t.Fatal("destination account was not created")
	}
	if created.CurrencyCode != "USD" {
		t.Fatalf("created account currency = %s, want USD", created.CurrencyCode)
	}
	if created.AllowNegative {
		t.Fatal("user account must not allow negative balances")
	}
	if !created.Balance.Equal(d("25")) {
		t.Fatalf("created account balance = %s, want 25", created.Balance)
	}
	if entry.Transactions[1].AccountID != created.ID {
		t.Fatal("credit leg does not reference the created account")
	}
}

func TestPost_MissingSourceAccount(t *testing.T) {
	f := newPostingFixture(t)

	spec := depositSpec("25")
	spec.Source = &domain.AccountRef{PlatformName: strPtr(domain.PlatformCorporate), AccountName: "no_such"}

	_, err := f.uc.Post(context.Background(), spec)
	if !errors.Is(err, xerrors.ErrAccountNotFound) {
		t.Fatalf("Post() = %v, want ErrAccountNotFound", err)
	}
	if f.accounts.find(corporateWalletID, "no_such") != nil {
		t.Fatal("source account was lazily created")
	}
}

func TestPost_SourceCurrencyMustMatchTransfer(t *testing.T) {
	f := newPostingFixture(t)

	// Transfer denominated in EUR out of a USD account.
	spec := depositSpec("10")
	spec.CurrencyCode = "EUR"

	_, err := f.uc.Post(context.Background(), spec)
	if !xerrors.IsValidation(err) {
		t.Fatalf("Post() = %v, want validation error", err)
	}
}

func TestPost_DisabledCurrency(t *testing.T) {
	f := newPostingFixture(t)

	spec := depositSpec("10")
	spec.CurrencyCode = "XXX"

	_, err := f.uc.Post(context.Background(), spec)
	if !errors.Is(err, xerrors.ErrCurrencyDisabled) {
		t.Fatalf("Post() = %v, want ErrCurrencyDisabled", err)
	}
}

func TestPost_RetriesDeadlockOnce(t *testing.T) {
	f := newPostingFixture(t)
	f.entries.createEntryErrs = []error{
		&pgconn.PgError{Code: "40P01", Message: "deadlock detected"},
	}

	entry, err := f.uc.Post(context.Background(), depositSpec("50"))
	if err != nil {
		t.Fatalf("Post() = %v", err)
	}

	if f.entries.createCalls != 2 {
		t.Fatalf("CreateEntry called %d times, want 2", f.entries.createCalls)
	}
	if len(f.entries.entries) != 1 {
		t.Fatalf("persisted %d entries, want exactly 1", len(f.entries.entries))
	}
	if len(f.entries.legs) != 2 {
		t.Fatalf("persisted %d legs, want exactly 2", len(f.entries.legs))
	}
	if got := f.accounts.balance(userWalletID, domain.AccountWithdrawable); !got.Equal(d("70")) {
		t.Fatalf("user balance = %s, want 70 after exactly one application", got)
	}
	if len(f.pub.posted) != 1 || f.pub.posted[0] != entry {
		t.Fatal("expected exactly one published event for the committed entry")
	}
}

func TestPost_RetriesExhausted(t *testing.T) {
	f := newPostingFixture(t)
	deadlock := &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
	f.entries.createEntryErrs = []error{deadlock, deadlock, deadlock, deadlock, deadlock}

	_, err := f.uc.Post(context.Background(), depositSpec("50"))

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "40P01" {
		t.Fatalf("Post() = %v, want surfaced deadlock error", err)
	}
	if len(f.entries.entries) != 0 {
		t.Fatalf("persisted %d entries after exhausted retries, want 0", len(f.entries.entries))
	}
	if len(f.pub.posted) != 0 {
		t.Fatal("published an event for an uncommitted entry")
	}
}

func TestPost_InvalidSpecRejectedBeforeStorage(t *testing.T) {
	f := newPostingFixture(t)

	spec := depositSpec("50")
	spec.Purpose = "gift" // not a known purpose

	_, err := f.uc.Post(context.Background(), spec)
	if !xerrors.IsValidation(err) {
		t.Fatalf("Post() = %v, want validation error", err)
	}
	if f.entries.createCalls != 0 {
		t.Fatal("invalid spec reached storage")
	}
}
