package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ledger-service/internal/domain"
	"ledger-service/pkg/xerrors"
)

type EntryRepository interface {
	// Writes join the posting transaction; entries are immutable afterwards.
	CreateEntry(ctx context.Context, tx pgx.Tx, e *domain.WalletEntry) error
	CreateTransaction(ctx context.Context, tx pgx.Tx, t *domain.WalletTransaction) error

	GetByID(ctx context.Context, id int64) (*domain.WalletEntry, error)
	GetByReference(ctx context.Context, code string) (*domain.WalletEntry, error)
	ListEntries(ctx context.Context, f domain.EntryFilter) ([]*domain.WalletEntry, error)
	ListTransactions(ctx context.Context, f domain.EntryFilter) ([]*domain.WalletTransaction, error)
}

type entryRepo struct {
	db *pgxpool.Pool
}

func NewEntryRepo(db *pgxpool.Pool) EntryRepository {
	return &entryRepo{db: db}
}

// CreateEntry inserts the entry header inside the posting transaction
func (r *entryRepo) CreateEntry(ctx context.Context, tx pgx.Tx, e *domain.WalletEntry) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO wallet_entries (reference_code, purpose, requester_type, requester_id, memo, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at
	`, e.ReferenceCode, e.Purpose, e.RequesterType, e.RequesterID, e.Memo, time.Now()).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet entry: %w", err)
	}
	return nil
}

// CreateTransaction inserts one leg inside the posting transaction
func (r *entryRepo) CreateTransaction(ctx context.Context, tx pgx.Tx, t *domain.WalletTransaction) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO wallet_transactions
			(entry_id, account_id, wallet_id, amount, amount_raw, base_amount,
			 currency_code, exchange_rate, purpose, requester_type, requester_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at
	`, t.EntryID, t.AccountID, t.WalletID,
		t.Amount.String(), t.AmountRaw.String(), t.BaseAmount.String(),
		t.CurrencyCode, t.ExchangeRate.String(),
		t.Purpose, t.RequesterType, t.RequesterID, time.Now()).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet transaction: %w", err)
	}
	return nil
}

const entryColumns = `id, reference_code, purpose, requester_type, requester_id, memo, created_at`

func scanEntry(row pgx.Row) (*domain.WalletEntry, error) {
	var e domain.WalletEntry
	err := row.Scan(&e.ID, &e.ReferenceCode, &e.Purpose, &e.RequesterType,
		&e.RequesterID, &e.Memo, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *entryRepo) GetByID(ctx context.Context, id int64) (*domain.WalletEntry, error) {
	e, err := scanEntry(r.db.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM wallet_entries
		WHERE id=$1
	`, id))
	if err != nil {
		return nil, err
	}
	return r.attachTransactions(ctx, e)
}

func (r *entryRepo) GetByReference(ctx context.Context, code string) (*domain.WalletEntry, error) {
	e, err := scanEntry(r.db.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM wallet_entries
		WHERE reference_code=$1
	`, code))
	if err != nil {
		return nil, err
	}
	return r.attachTransactions(ctx, e)
}

func (r *entryRepo) attachTransactions(ctx context.Context, e *domain.WalletEntry) (*domain.WalletEntry, error) {
	txns, err := r.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM wallet_transactions
		WHERE entry_id=$1
		ORDER BY id ASC
	`, e.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load legs for entry %d: %w", e.ID, err)
	}
	e.Transactions = txns
	return e, nil
}

// ListEntries returns entry headers matching the filter, newest first.
func (r *entryRepo) ListEntries(ctx context.Context, f domain.EntryFilter) ([]*domain.WalletEntry, error) {
	query := `
		SELECT DISTINCT e.id, e.reference_code, e.purpose, e.requester_type, e.requester_id, e.memo, e.created_at
		FROM wallet_entries e
		JOIN wallet_transactions t ON t.entry_id = e.id
	`
	where, args := buildEntryFilter(f, "e", "t")
	query += where + `
		ORDER BY e.created_at DESC, e.id DESC
	` + limitOffset(f)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.WalletEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const transactionColumns = `id, entry_id, account_id, wallet_id, amount::text, amount_raw::text,
	base_amount::text, currency_code, exchange_rate::text, purpose, requester_type, requester_id, created_at`

func (r *entryRepo) ListTransactions(ctx context.Context, f domain.EntryFilter) ([]*domain.WalletTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions t
	`
	// transaction columns carry the alias-free names above, so filter on t
	where, args := buildEntryFilter(f, "t", "t")
	query += where + `
		ORDER BY t.created_at DESC, t.id DESC
	` + limitOffset(f)

	return r.queryTransactions(ctx, query, args...)
}

func (r *entryRepo) queryTransactions(ctx context.Context, query string, args ...any) ([]*domain.WalletTransaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.WalletTransaction
	for rows.Next() {
		var t domain.WalletTransaction
		var amount, amountRaw, baseAmount, rate string
		if err := rows.Scan(&t.ID, &t.EntryID, &t.AccountID, &t.WalletID,
			&amount, &amountRaw, &baseAmount, &t.CurrencyCode, &rate,
			&t.Purpose, &t.RequesterType, &t.RequesterID, &t.CreatedAt); err != nil {
			return nil, err
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if t.AmountRaw, err = decimal.NewFromString(amountRaw); err != nil {
			return nil, err
		}
		if t.BaseAmount, err = decimal.NewFromString(baseAmount); err != nil {
			return nil, err
		}
		if t.ExchangeRate, err = decimal.NewFromString(rate); err != nil {
			return nil, err
		}
		txns = append(txns, &t)
	}
	return txns, rows.Err()
}

// buildEntryFilter renders the WHERE clause for entry/transaction listings.
// entryAlias qualifies header columns, txAlias the leg columns.
func buildEntryFilter(f domain.EntryFilter, entryAlias, txAlias string) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, cond+"$"+strconv.Itoa(len(args)))
	}

	if f.WalletID != nil {
		add(txAlias+".wallet_id=", *f.WalletID)
	}
	if f.AccountID != nil {
		add(txAlias+".account_id=", *f.AccountID)
	}
	if f.Purpose != nil {
		add(entryAlias+".purpose=", *f.Purpose)
	}
	if f.From != nil {
		add(entryAlias+".created_at>=", *f.From)
	}
	if f.To != nil {
		add(entryAlias+".created_at<", *f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	where := " WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}

func limitOffset(f domain.EntryFilter) string {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	clause := " LIMIT " + strconv.Itoa(limit)
	if f.Offset > 0 {
		clause += " OFFSET " + strconv.Itoa(f.Offset)
	}
	return clause
}
