package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Postgres error codes the runner treats as transient contention.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

const (
	defaultAttempts = 5
	defaultMinDelay = 1 * time.Millisecond
	defaultMaxDelay = 100 * time.Millisecond
)

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TxRunner executes a unit of work inside a database transaction, retrying
// on transient contention errors (deadlock, lock-wait timeout) with a fresh
// transaction per attempt. It knows nothing about ledgers; the posting
// engine uses it as its only way of touching storage.
type TxRunner struct {
	db  TxBeginner
	log *zap.Logger

	attempts int
	minDelay time.Duration
	maxDelay time.Duration
	isoLevel pgx.TxIsoLevel
}

func NewTxRunner(db TxBeginner, log *zap.Logger) *TxRunner {
	return &TxRunner{
		db:       db,
		log:      log,
		attempts: defaultAttempts,
		minDelay: defaultMinDelay,
		maxDelay: defaultMaxDelay,
		isoLevel: pgx.ReadCommitted,
	}
}

// Attempts returns a runner that gives up after n attempts.
func (r *TxRunner) Attempts(n int) *TxRunner {
	c := *r
	if n > 0 {
		c.attempts = n
	}
	return &c
}

// Delay returns a runner sleeping a uniformly random duration in [min, max]
// between attempts.
func (r *TxRunner) Delay(min, max time.Duration) *TxRunner {
	c := *r
	if min > 0 {
		c.minDelay = min
	}
	if max >= c.minDelay {
		c.maxDelay = max
	} else {
		c.maxDelay = c.minDelay
	}
	return &c
}

// Isolation returns a runner opening transactions at the given level.
func (r *TxRunner) Isolation(level pgx.TxIsoLevel) *TxRunner {
	c := *r
	c.isoLevel = level
	return &c
}

// Run executes fn inside a transaction. A failed attempt is rolled back in
// full before the next one starts, so fn must be safe to re-run from
// scratch. The caller's context bounds total wall-clock time across all
// attempts, retry sleeps included; once it expires the last observed error
// is surfaced.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == r.attempts {
			return err
		}

		r.log.Warn("retrying transaction after transient storage error",
			zap.Int("attempt", attempt),
			zap.Int("attempts", r.attempts),
			zap.String("pg_code", pgErrorCode(err)),
			zap.Error(err),
		)

		if !r.sleep(ctx) {
			return lastErr
		}
	}

	return lastErr
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   r.isoLevel,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// sleep waits a random duration in [minDelay, maxDelay]. Returns false if
// the context expired first.
func (r *TxRunner) sleep(ctx context.Context) bool {
	d := r.minDelay
	if span := int64(r.maxDelay - r.minDelay); span > 0 {
		d += time.Duration(rand.Int63n(span + 1))
	}

	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// IsRetryable classifies err as transient storage contention. Anything else
// — business-rule failures included — propagates immediately.
func IsRetryable(err error) bool {
	switch pgErrorCode(err) {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	}
	return false
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
