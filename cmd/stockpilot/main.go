package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockpilot/stockpilot/internal/app"
	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/demand"
	"github.com/stockpilot/stockpilot/internal/lowstock"
	"github.com/stockpilot/stockpilot/internal/mailer"
	"github.com/stockpilot/stockpilot/internal/observability"
	"github.com/stockpilot/stockpilot/internal/platform/cache"
	"github.com/stockpilot/stockpilot/internal/sibling"
	"github.com/stockpilot/stockpilot/internal/store"
	"github.com/stockpilot/stockpilot/internal/waitlist"
	"github.com/stockpilot/stockpilot/internal/webhook"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	st := store.New(redisClient)
	cat := catalog.NewClient(cfg.CatalogEndpoint, cfg.CatalogToken, cfg.FieldNamespace, cfg.CatalogTimeout)
	sender := mailer.New(mailer.Config{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	})

	resolver := sibling.NewResolver(cat, logger, metrics, cfg.SearchLimit)
	notifier := waitlist.NewNotifier(st, sender, cfg.StorefrontURL, logger, metrics)
	reconciler := lowstock.NewReconciler(cat, st, sender, lowstock.Config{
		Recipients: cfg.AlertRecipients,
		Cooldown:   cfg.ReportCooldown,
		PageSize:   cfg.ScanPageSize,
	}, logger, metrics)
	ledger := demand.NewLedger(cat, cfg.FieldNamespace, logger, metrics)

	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		Secret:     cfg.WebhookSecret,
		Catalog:    cat,
		Siblings:   resolver,
		Waitlist:   notifier,
		Reconciler: reconciler,
		Ledger:     ledger,
		Logger:     logger,
		Metrics:    metrics,
	})
	waitlistHandler := waitlist.NewHandler(st, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		WebhookHandler:  webhookHandler,
		WaitlistHandler: waitlistHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
