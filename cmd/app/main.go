package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dating-swipe-subscription/internal/config"
	"dating-swipe-subscription/internal/domain/ports/adapter"
	payAdapters "dating-swipe-subscription/internal/infra/adapters/payment"
	pg "dating-swipe-subscription/internal/infra/db/postgres"
	"dating-swipe-subscription/internal/infra/logging"
	"dating-swipe-subscription/internal/infra/metrics"
	red "dating-swipe-subscription/internal/infra/redis"
	"dating-swipe-subscription/internal/infra/sched"
	"dating-swipe-subscription/internal/infra/web"
	"dating-swipe-subscription/internal/infra/worker"
	"dating-swipe-subscription/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	txm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	notifier := red.NewRecordNotifier(redisClient, logger)

	// ---- Repositories ----
	recordRepo := pg.NewRecordRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient, cfg.Redis.TTL)
	txRepo := pg.NewTransactionRepo(pool)
	settingsRepo := pg.NewSettingsRepo(pool)

	// ---- Payment providers ----
	providers := map[string]adapter.PaymentProvider{}
	noop := payAdapters.NewNoopProvider()
	providers[noop.Name()] = noop
	if c := cfg.Payment.Instamojo; c.APIKey != "" {
		p, err := payAdapters.NewInstamojoProvider(c.APIKey, c.AuthToken, c.CallbackURL, c.Sandbox)
		if err != nil {
			logger.Fatal().Err(err).Msg("instamojo provider init failed")
		}
		providers[p.Name()] = p
	}
	if c := cfg.Payment.CCAvenue; c.MerchantID != "" {
		p, err := payAdapters.NewCCAvenueProvider(c.MerchantID, c.AccessCode, c.WorkingKey, c.CallbackURL, c.Sandbox)
		if err != nil {
			logger.Fatal().Err(err).Msg("ccavenue provider init failed")
		}
		providers[p.Name()] = p
	}
	if c := cfg.Payment.GooglePlay; c.PackageName != "" {
		p, err := payAdapters.NewGooglePlayProvider(c.PackageName, c.ProductIDs)
		if err != nil {
			logger.Fatal().Err(err).Msg("google play provider init failed")
		}
		providers[p.Name()] = p
	}

	// ---- Use cases ----
	settingsUC := usecase.NewSettingsUseCase(settingsRepo, cfg.Quota.SettingsTTL, logger)
	quotaUC := usecase.NewQuotaUseCase(recordRepo, settingsUC, txm, logger)
	quotaUC.OnDowngrade = metrics.IncSubscriptionDowngraded
	planUC := usecase.NewPlanUseCase(planRepo)
	paymentUC := usecase.NewPaymentUseCase(recordRepo, planRepo, txRepo, settingsUC, providers, txm, logger)
	statsUC := usecase.NewStatsUseCase(recordRepo, txRepo)

	// ---- Worker pool ----
	taskPool := worker.NewPool(cfg.Quota.Workers, logger)
	taskPool.Start(ctx)
	defer taskPool.Stop()

	subUC := usecase.NewSubscriptionUseCase(quotaUC, paymentUC, planUC, settingsUC, recordRepo, txm, taskPool, logger)
	subUC.AddObserver(notifier.Notify)

	// ---- Web ----
	userAuth := web.NewAuthManager(cfg.API.JWTSecret, !cfg.Runtime.Dev, "", 24*time.Hour)
	adminAuth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", 30*time.Minute)
	srv := web.NewServer(subUC, planUC, paymentUC, settingsUC, statsUC,
		userAuth, adminAuth, rateLimiter, notifier, cfg.API.RateLimit, cfg.API.RateWindow,
		cfg.Payment.WebhookSecret, cfg.Admin.Password, logger)

	apiServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.API.Port), Handler: srv.Router()}
	go func() {
		logger.Info().Str("addr", apiServer.Addr).Msg("api listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api server error")
		}
	}()

	adminServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: srv.AdminRouter()}
	go func() {
		logger.Info().Str("addr", adminServer.Addr).Msg("admin listening")
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Background workers ----
	reconciler := sched.NewPaymentReconciler(cfg.Scheduler.ReconcileInterval, cfg.Scheduler.PendingTimeout, txRepo, paymentUC, logger)
	go func() { _ = reconciler.Run(ctx) }()
	sampler := sched.NewStatsSampler(cfg.Scheduler.StatsInterval, statsUC, logger)
	go func() { _ = sampler.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = apiServer.Shutdown(shutdownCtx)
	_ = adminServer.Shutdown(shutdownCtx)
}
