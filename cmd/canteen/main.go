package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"canteen/internal/analytics"
	"canteen/internal/backend"
	"canteen/internal/cli"
	apphttp "canteen/internal/http"
	"canteen/internal/ledger"
	"canteen/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	categorizer, err := cli.LoadCategorizer(cfg.CategoryRulesFile)
	if err != nil {
		logger.Error("Failed to load category rules", "error", err, "path", cfg.CategoryRulesFile)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(log.Wrap(logger, log.ComponentBackend)).
		CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	opts := []ledger.Option{
		ledger.WithAggregator(analytics.NewAggregator(categorizer)),
		ledger.WithReporter(cli.NewReporter(cfg)),
		ledger.WithLogger(log.Wrap(logger, log.ComponentLedger)),
	}
	if res.Publisher != nil {
		opts = append(opts, ledger.WithPublisher(res.Publisher))
	}
	svc := ledger.NewService(res.Store,
		ledger.Defaults{Fund: cfg.DefaultFundAmount(), Friends: cfg.Friends},
		opts...)

	srvOpts := []apphttp.Option{apphttp.WithLogger(log.Wrap(logger, log.ComponentHTTP))}
	if res.Ready != nil {
		srvOpts = append(srvOpts, apphttp.WithReadiness(res.Ready))
	}
	srv := apphttp.NewServer(":"+cfg.Port, svc, srvOpts...)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting canteen server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", res.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
