// File: cmd/app/main.go
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

	"github.com/ImmigreatAI/Course-site-sub000/internal/config"
	pg "github.com/ImmigreatAI/Course-site-sub000/internal/infra/db/postgres"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/learnworlds"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/logging"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/metrics"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/payment"
	red "github.com/ImmigreatAI/Course-site-sub000/internal/infra/redis"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/sched"
	"github.com/ImmigreatAI/Course-site-sub000/internal/infra/web"
	"github.com/ImmigreatAI/Course-site-sub000/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no sampling)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	// ---- Repositories ----
	catalogRepo := pg.NewPostgresCatalogRepo(pool)
	cachedCatalog := red.NewCachedCatalogRepo(catalogRepo, redisClient, cfg.Redis.TTL)
	userRepo := pg.NewPostgresUserRepo(pool)
	purchaseRepo := pg.NewPostgresPurchaseRepo(pool)
	enrollmentRepo := pg.NewPostgresEnrollmentRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- External adapters ----
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey)
	verifier := payment.NewWebhookVerifier(cfg.Stripe.WebhookSecret, cfg.Stripe.Tolerance)
	lwClient := learnworlds.NewClient(&cfg.LearnWorlds)
	platform := learnworlds.NewRateLimitedPlatform(lwClient, cfg.LearnWorlds.RatePerSec, cfg.LearnWorlds.Burst)

	// ---- Use cases ----
	catalogUC := usecase.NewCatalogUseCase(cachedCatalog, cachedCatalog, cfg.Catalog.TTL, cfg.Catalog.MaxFailures, logger)
	userUC := usecase.NewUserUseCase(userRepo, txManager, logger)
	ownershipUC := usecase.NewOwnershipUseCase(userRepo, enrollmentRepo, logger)
	enrollmentUC := usecase.NewEnrollmentUseCase(userUC, purchaseRepo, enrollmentRepo, platform, logger)
	checkoutUC := usecase.NewCheckoutUseCase(catalogUC, ownershipUC, enrollmentUC, gateway, cfg.Stripe.Currency, cfg.Stripe.SessionExpiry, logger)

	// ---- HTTP server ----
	srv := web.NewServer(
		checkoutUC,
		catalogUC,
		enrollmentUC,
		web.NewAuthManager(cfg.Auth.JWTSecret),
		verifier,
		cfg.Catalog.RefreshSecret,
		cfg.Server.OriginURL,
		logger,
	)
	handler := web.Chain(srv.Router(),
		web.TraceID(),
		web.RequestLog(logger),
		web.Recover(logger),
		web.Timeout(cfg.Server.Timeout),
	)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Expiry worker ----
	worker := sched.NewExpiryWorker(cfg.Sched.ExpiryInterval, enrollmentUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
