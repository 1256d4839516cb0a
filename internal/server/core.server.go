package server

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ledger-service/internal/config"
	hrest "ledger-service/internal/handler/rest"
	"ledger-service/internal/pub"
	"ledger-service/internal/repository"
	"ledger-service/internal/service"
	"ledger-service/internal/usecase"
	"ledger-service/pkg/utils"
)

// NewLedgerHTTPServer wires the whole service and blocks serving HTTP.
func NewLedgerHTTPServer(cfg config.AppConfig, log *zap.Logger) error {
	// --- DB connection ---
	dbpool, err := config.ConnectDB()
	if err != nil {
		return err
	}
	defer dbpool.Close()

	// --- Redis client ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	defer rdb.Close()

	// --- Repositories ---
	walletRepo := repository.NewWalletRepo(dbpool)
	accountRepo := repository.NewAccountRepo(dbpool)
	entryRepo := repository.NewEntryRepo(dbpool)
	currencyRepo := repository.NewCurrencyRepo(dbpool)
	runner := repository.NewTxRunner(dbpool, log)

	// --- Infrastructure ---
	refs := utils.NewEntryRefGenerator()
	publisher := pub.NewEntryEventPublisher(cfg.KafkaBrokers, log)
	defer publisher.Close()

	// --- Usecases ---
	rates := usecase.NewRateService(currencyRepo, rdb)
	postingUC := usecase.NewPostingUsecase(
		walletRepo, accountRepo, entryRepo, currencyRepo,
		rates, runner, refs, publisher, log,
	)
	entryUC := usecase.NewEntryUsecase(entryRepo, rdb)
	walletUC := usecase.NewWalletUsecase(walletRepo, accountRepo, currencyRepo, runner, log)

	// --- Seed system in a goroutine (non-blocking) ---
	seeder := service.NewSystemSeeder(walletRepo, accountRepo, currencyRepo, runner, cfg.Providers, log)
	go func() {
		if err := seeder.SeedSystem(context.Background()); err != nil {
			log.Warn("system seeding failed", zap.Error(err))
		}
	}()

	// --- HTTP handler ---
	handler := hrest.NewLedgerRestHandler(postingUC, entryUC, walletUC)

	log.Info("ledger HTTP server listening", zap.String("addr", cfg.HTTPAddr))
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Router(),
	}
	return srv.ListenAndServe()
}
