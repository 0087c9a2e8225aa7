package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"canteen/internal/amqp"
	"canteen/internal/analytics"
	"canteen/internal/cli"
	"canteen/internal/log"
	"canteen/internal/storage"
	"canteen/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting canteen-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	categorizer, err := cli.LoadCategorizer(cfg.CategoryRulesFile)
	if err != nil {
		logger.Error("Failed to load category rules", "error", err, "path", cfg.CategoryRulesFile)
		os.Exit(1)
	}

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker cannot read the server's ledger", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sink, err := cli.NewSummarySink(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize summary sink", "error", err)
		os.Exit(1)
	}

	summaries := worker.NewSummaryWorker(repo, sink, repo,
		worker.WithAggregator(analytics.NewAggregator(categorizer)),
		worker.WithLogger(log.Wrap(logger, log.ComponentWorker)))

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		g.Go(func() error {
			return client.ConsumeLedgerEvents(gctx, summaries.HandleLedgerEvent)
		})
	} else {
		logger.Info("AMQP disabled - relying on periodic summaries only")
	}

	g.Go(func() error {
		return summaries.Run(gctx, cfg.SummaryInterval)
	})

	logger.Info("Worker running", "interval", cfg.SummaryInterval.String())
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
