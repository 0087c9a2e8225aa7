// Package cli holds the startup steps shared by cmd/canteen,
// cmd/canteen-worker and cmd/canteen-report.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"canteen/internal/analytics"
	"canteen/internal/config"
	"canteen/internal/log"
	"canteen/internal/sheets"
	gsheet "canteen/internal/sheets/google"
	sheetsmem "canteen/internal/sheets/memory"
)

// SetupLogger installs a text slog handler on stdout as the default logger.
// LOG_LEVEL accepts debug, info, warn or error.
func SetupLogger() *slog.Logger {
	return setupLogger(os.Stdout, os.Getenv("LOG_LEVEL"))
}

func setupLogger(w io.Writer, level string) *slog.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = parseLevel(level)
	cfg.Output = w
	logger := log.New(cfg)
	slog.SetDefault(logger.Logger)
	return logger.Logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadEnvFile loads .env files for local development. A missing file is
// not an error.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadAndValidateConfig loads configuration and exits the process when it
// is invalid.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// LoadCategorizer builds the categorizer from the rules file, or the
// built-in table when path is empty.
func LoadCategorizer(path string) (*analytics.Categorizer, error) {
	if path == "" {
		return analytics.DefaultCategorizer(), nil
	}
	rules, err := analytics.LoadRules(path)
	if err != nil {
		return nil, err
	}
	return analytics.NewCategorizer(rules), nil
}

// NewReporter returns a reporter using the configured currency symbol.
func NewReporter(cfg *config.Config) analytics.Reporter {
	cur := cfg.CurrencySymbol
	if cur == "" {
		cur = analytics.DefaultCurrency
	}
	return analytics.Reporter{Currency: cur}
}

// NewSummarySink returns the Google Sheets writer when a spreadsheet is
// configured and an in-memory writer otherwise.
func NewSummarySink(ctx context.Context, logger *slog.Logger, cfg *config.Config) (sheets.SummaryWriter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled - summaries kept in memory")
		return sheetsmem.New(), nil
	}
	client, err := gsheet.NewFromEnv(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSummarySheet)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSummarySheet)
	return client, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. After
// the signal, cleanup runs with a context bounded by timeout, and done is
// closed once it returns.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup has
// finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
