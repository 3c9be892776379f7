package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tokengate/internal/fraud"
	fraudmetrics "tokengate/internal/fraud/metrics"
	"tokengate/internal/fraud/providers/contentmod"
	"tokengate/internal/fraud/providers/openai"
	"tokengate/internal/fraud/providers/perspective"
	"tokengate/internal/fraud/providers/vision"
	"tokengate/internal/gate"
	gatemetrics "tokengate/internal/gate/metrics"
	"tokengate/internal/ledger"
	ledgerports "tokengate/internal/ledger/ports"
	ledgermem "tokengate/internal/ledger/store/memory"
	ledgerpg "tokengate/internal/ledger/store/postgres"
	"tokengate/internal/platform/config"
	"tokengate/internal/platform/httpserver"
	"tokengate/internal/platform/logger"
	platformpg "tokengate/internal/platform/postgres"
	platformredis "tokengate/internal/platform/redis"
	"tokengate/internal/ratelimit"
	rlports "tokengate/internal/ratelimit/ports"
	rlmem "tokengate/internal/ratelimit/store/memory"
	rlredis "tokengate/internal/ratelimit/store/redis"
	httptransport "tokengate/internal/transport/http"
	"tokengate/internal/verification"
	"tokengate/internal/verification/providers/civic"
	"tokengate/internal/verification/providers/etherscan"
	"tokengate/internal/verification/providers/worldcoin"
)

// main wires stores, providers, and services, then runs the HTTP server.
// Business logic lives in the internal service packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		fatal(log, "invalid configuration", err)
	}

	ctx := context.Background()
	checks := map[string]httptransport.HealthChecker{}

	var (
		creations ledgerports.CreationStore
		fraudLogs ledgerports.FraudLogStore
		wallets   ledgerports.WalletStore
	)
	if cfg.PostgresDSN != "" {
		db, err := platformpg.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			fatal(log, "failed to connect to postgres", err)
		}
		defer db.Close()

		store := ledgerpg.New(db)
		if err := store.EnsureSchema(ctx); err != nil {
			fatal(log, "failed to apply ledger schema", err)
		}
		creations, fraudLogs, wallets = store, store, store
		checks["postgres"] = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		}
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory ledger stores")
		store := ledgermem.New()
		creations, fraudLogs, wallets = store, store, store
	}

	var windows rlports.WindowStore
	rdb, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		fatal(log, "failed to connect to redis", err)
	}
	if rdb != nil {
		defer rdb.Close()
		windows = rlredis.New(rdb.Client, cfg.Limits.CreationWindow)
		checks["redis"] = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return rdb.Health(pingCtx)
		}
	} else {
		log.Warn("REDIS_URL not set, using in-memory creation window store")
		windows = rlmem.New()
	}

	fm := fraudmetrics.New()
	openaiClient := openai.New(cfg.Providers.OpenAIAPIKey, nil)

	logo := fraud.NewLogoEvaluator(
		openaiClient,
		vision.New(cfg.Providers.VisionAPIKey),
		contentmod.New(cfg.Providers.ContentModAPIKey, cfg.Providers.ContentModBaseURL),
		cfg.Providers.CallTimeout,
		log,
		fm,
	)
	name := fraud.NewNameEvaluator(
		openaiClient,
		perspective.New(cfg.Providers.PerspectiveAPIKey),
		cfg.Providers.CallTimeout,
		log,
		fm,
	)

	fraudSvc, err := fraud.New(logo, name, fraud.NewSymbolEvaluator(),
		fraud.Thresholds{
			HighRisk:   cfg.Fraud.HighRiskThreshold,
			Similarity: cfg.Fraud.SimilarityThreshold,
			Spam:       cfg.Fraud.SpamDetectionScore,
		},
		fraud.WithLogger(log),
		fraud.WithMetrics(fm),
	)
	if err != nil {
		fatal(log, "failed to build fraud service", err)
	}

	verifSvc, err := verification.New(
		worldcoin.New(cfg.Providers.WorldcoinAPIKey),
		civic.New(cfg.Providers.CivicAPIKey),
		etherscan.New(cfg.Providers.EtherscanAPIKey),
		cfg.Providers.CallTimeout,
		verification.WithLogger(log),
	)
	if err != nil {
		fatal(log, "failed to build verification service", err)
	}

	ledgerSvc, err := ledger.New(creations, fraudLogs, wallets,
		cfg.Limits.MaxTokensPerWallet,
		cfg.Fraud.VerifiedThreshold,
		cfg.Fraud.SuspiciousThreshold,
		ledger.WithLogger(log),
	)
	if err != nil {
		fatal(log, "failed to build ledger service", err)
	}

	limiter, err := ratelimit.New(windows, cfg.Limits.WeeklyCreationLimit, cfg.Limits.CreationWindow,
		ratelimit.WithLogger(log),
	)
	if err != nil {
		fatal(log, "failed to build rate limiter", err)
	}

	gateSvc, err := gate.New(verifSvc, limiter, fraudSvc, ledgerSvc,
		gate.WithLogger(log),
		gate.WithMetrics(gatemetrics.New()),
	)
	if err != nil {
		fatal(log, "failed to build creation gate", err)
	}

	handler := httptransport.NewHandler(gateSvc, verifSvc, ledgerSvc, log)
	router := httptransport.NewRouter(handler, log, checks)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting tokengate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fatal(log, "graceful shutdown failed", err)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
