package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canteen/internal/analytics"
	"canteen/internal/config"
	"canteen/internal/log"
	sheetsmem "canteen/internal/sheets/memory"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestSetupLoggerHonoursLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := setupLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Same(t, logger, slog.Default())
}

func TestSetupLoggerFeedsComponentLoggers(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	setupLogger(&buf, "debug")
	log.Wrap(nil, log.ComponentHTTP).Debug("request served")

	assert.Contains(t, buf.String(), "request served")
	assert.Contains(t, buf.String(), "component=http")
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CANTEEN_TEST_ENV_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CANTEEN_TEST_ENV_VALUE") })

	LoadEnvFile(path)
	assert.Equal(t, "from-file", os.Getenv("CANTEEN_TEST_ENV_VALUE"))

	// Missing files are ignored.
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadCategorizer(t *testing.T) {
	c, err := LoadCategorizer("")
	require.NoError(t, err)
	assert.Equal(t, analytics.Food, c.Guess("Pizza night"))

	path := filepath.Join(t.TempDir(), "rules.toml")
	doc := "[[category]]\nname = \"bills\"\nkeywords = [\"pizza\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c, err = LoadCategorizer(path)
	require.NoError(t, err)
	assert.Equal(t, analytics.Bills, c.Guess("Pizza night"))

	_, err = LoadCategorizer(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestNewReporter(t *testing.T) {
	assert.Equal(t, "€", NewReporter(&config.Config{CurrencySymbol: "€"}).Currency)
	assert.Equal(t, analytics.DefaultCurrency, NewReporter(&config.Config{}).Currency)
}

func TestNewSummarySinkWithoutSpreadsheet(t *testing.T) {
	sink, err := NewSummarySink(context.Background(), slog.Default(), &config.Config{})
	require.NoError(t, err)
	assert.IsType(t, &sheetsmem.Store{}, sink)
}
