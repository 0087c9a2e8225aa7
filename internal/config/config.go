package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"canteen/internal/core"
)

// Backend names accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port string

	// Ledger storage
	DataBackend  string
	DataFile     string
	SQLiteDBPath string

	// AMQP, optional: empty URL disables change notifications
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets summary sink, optional
	GoogleSpreadsheetID string
	GoogleSummarySheet  string

	// Ledger defaults
	DefaultFund string
	Friends     []string

	// Reporting
	CategoryRulesFile string
	CurrencySymbol    string

	// Worker
	SummaryInterval time.Duration
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "4000"),

		DataBackend:  getEnv("DATA_BACKEND", BackendMemory),
		DataFile:     getEnv("DATA_FILE", "./data/ledger.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/canteen.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "canteen"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSummarySheet:  getEnv("GOOGLE_SUMMARY_SHEET", "Summaries"),

		DefaultFund: getEnv("DEFAULT_FUND", "5000"),
		Friends:     getEnvList("FRIENDS"),

		CategoryRulesFile: getEnv("CATEGORY_RULES_FILE", ""),
		CurrencySymbol:    getEnv("CURRENCY_SYMBOL", "₹"),

		SummaryInterval: getEnvDuration("SUMMARY_INTERVAL", 15*time.Minute),
	}
}

// DefaultFundAmount parses DefaultFund. Call Validate first.
func (c *Config) DefaultFundAmount() core.Money {
	cents, err := core.ParseDecimalToCents(c.DefaultFund)
	if err != nil {
		return core.Money{}
	}
	return core.Money{Cents: cents}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendFile, BackendSQLite}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendFile:
		if c.DataFile == "" {
			errors = append(errors, "data file path cannot be empty when using file backend")
		} else if msg := ensureDir(c.DataFile); msg != "" {
			errors = append(errors, msg)
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(c.SQLiteDBPath); msg != "" {
			errors = append(errors, msg)
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleSummarySheet == "" {
		errors = append(errors, "Google summary sheet name is required when GOOGLE_SPREADSHEET_ID is set")
	}

	if cents, err := core.ParseDecimalToCents(c.DefaultFund); err != nil || cents <= 0 {
		errors = append(errors, fmt.Sprintf("invalid default fund '%s': must be a positive amount", c.DefaultFund))
	}

	if c.CategoryRulesFile != "" {
		if _, err := os.Stat(c.CategoryRulesFile); err != nil {
			errors = append(errors, fmt.Sprintf("category rules file not readable: %s", c.CategoryRulesFile))
		}
	}

	if c.SummaryInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid summary interval %v: must be at least 1 second", c.SummaryInterval))
	} else if c.SummaryInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid summary interval %v: must be at most 24 hours", c.SummaryInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker rejects backends the worker cannot read. The worker only
// reads SQLite.
func (c *Config) ValidateWorker() error {
	if c.DataBackend != BackendSQLite {
		return fmt.Errorf("worker requires DATA_BACKEND=%s, got '%s'", BackendSQLite, c.DataBackend)
	}
	return nil
}

// ensureDir creates the parent directory of path, returning a problem
// description on failure.
func ensureDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Sprintf("cannot create directory '%s': %v", dir, err)
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blank names.
func getEnvList(key string) []string {
	out := []string{}
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
