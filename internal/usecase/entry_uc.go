package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository"
)

// EntryUsecase is the read-only reporting surface over entries and
// transaction legs. Entries are immutable once posted, so reads cache well.
type EntryUsecase struct {
	entryRepo   repository.EntryRepository
	redisClient *redis.Client
}

func NewEntryUsecase(entryRepo repository.EntryRepository, redisClient *redis.Client) *EntryUsecase {
	return &EntryUsecase{
		entryRepo:   entryRepo,
		redisClient: redisClient,
	}
}

// GetByID retrieves an entry with both legs attached, cached 5 minutes.
func (uc *EntryUsecase) GetByID(ctx context.Context, id int64) (*domain.WalletEntry, error) {
	cacheKey := fmt.Sprintf("entry:id:%d", id)

	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var entry domain.WalletEntry
			if jsonErr := json.Unmarshal([]byte(val), &entry); jsonErr == nil {
				return &entry, nil
			}
		}
	}

	entry, err := uc.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(entry); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, 5*time.Minute).Err()
		}
	}

	return entry, nil
}

func (uc *EntryUsecase) GetByReference(ctx context.Context, code string) (*domain.WalletEntry, error) {
	return uc.entryRepo.GetByReference(ctx, code)
}

// ListEntries returns entry headers matching the filter, newest first.
// Recent listings are cached for one minute only — new entries keep
// arriving.
func (uc *EntryUsecase) ListEntries(ctx context.Context, f domain.EntryFilter) ([]*domain.WalletEntry, error) {
	f = clampFilter(f)
	cacheKey := listCacheKey("entries", f)

	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var entries []*domain.WalletEntry
			if jsonErr := json.Unmarshal([]byte(val), &entries); jsonErr == nil {
				return entries, nil
			}
		}
	}

	entries, err := uc.entryRepo.ListEntries(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(entries); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, 1*time.Minute).Err()
		}
	}

	return entries, nil
}

// ListTransactions returns individual legs matching the filter, newest
// first. This is the statement view: one row per balance movement.
func (uc *EntryUsecase) ListTransactions(ctx context.Context, f domain.EntryFilter) ([]*domain.WalletTransaction, error) {
	f = clampFilter(f)
	cacheKey := listCacheKey("transactions", f)

	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var txns []*domain.WalletTransaction
			if jsonErr := json.Unmarshal([]byte(val), &txns); jsonErr == nil {
				return txns, nil
			}
		}
	}

	txns, err := uc.entryRepo.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(txns); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, 1*time.Minute).Err()
		}
	}

	return txns, nil
}

func clampFilter(f domain.EntryFilter) domain.EntryFilter {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Limit > 1000 {
		f.Limit = 1000
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func listCacheKey(kind string, f domain.EntryFilter) string {
	key := kind

	if f.WalletID != nil {
		key += fmt.Sprintf(":wallet_%d", *f.WalletID)
	}
	if f.AccountID != nil {
		key += fmt.Sprintf(":account_%d", *f.AccountID)
	}
	if f.Purpose != nil {
		key += fmt.Sprintf(":purpose_%s", *f.Purpose)
	}
	if f.From != nil {
		key += fmt.Sprintf(":from_%d", f.From.Unix())
	}
	if f.To != nil {
		key += fmt.Sprintf(":to_%d", f.To.Unix())
	}

	key += fmt.Sprintf(":limit_%d:offset_%d", f.Limit, f.Offset)

	return key
}
