package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository"
)

const rateCacheTTL = 1 * time.Minute

// RateProvider supplies the rate current at commit time for a currency:
// units of the currency per one unit of the base currency.
type RateProvider interface {
	GetRate(ctx context.Context, code string) (decimal.Decimal, time.Time, error)
}

// RateService is the storage-backed RateProvider, with a short redis cache
// in front so hot posting paths don't hammer the rates table. A nil redis
// client disables caching.
type RateService struct {
	currencyRepo repository.CurrencyRepository
	redisClient  *redis.Client
}

func NewRateService(currencyRepo repository.CurrencyRepository, redisClient *redis.Client) *RateService {
	return &RateService{
		currencyRepo: currencyRepo,
		redisClient:  redisClient,
	}
}

func (s *RateService) GetRate(ctx context.Context, code string) (decimal.Decimal, time.Time, error) {
	// The base currency converts to itself at par; no rate row needed.
	if code == domain.BaseCurrency {
		return decimal.NewFromInt(1), time.Now(), nil
	}

	cacheKey := fmt.Sprintf("rate:%s", code)

	if s.redisClient != nil {
		if val, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var cached domain.CurrencyRate
			if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
				return cached.Rate, cached.UpdatedAt, nil
			}
		}
	}

	rate, err := s.currencyRepo.GetCurrentRate(ctx, code)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(rate); err == nil {
			_ = s.redisClient.Set(ctx, cacheKey, data, rateCacheTTL).Err()
		}
	}

	return rate.Rate, rate.UpdatedAt, nil
}
