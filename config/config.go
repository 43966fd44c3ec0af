package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"investSandbox/internal/adapters/logger" // Import the logger package for LogLevel
	"investSandbox/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// HTTP server
	Host string
	Port int

	// Playback
	TickInterval     time.Duration         // Clock period; the design default is 100ms
	PlaybackInterval domain.CandleInterval // Interval of the snapshot series the clock replays

	// Data sources
	DBPath         string // SQLite candle snapshot database
	InstrumentsDir string // Directory with stocks/bonds/etfs/currencies JSON files

	// Ledger seed: currency code -> starting cash amount
	SeedBalances map[string]float64

	// Behavior toggles
	StrictValidation bool // Reject non-positive order quantities; off by default for compatibility

	// Historical fetch tool (Binance). Keys are optional for public kline data.
	BinanceAPIKey    string
	BinanceSecretKey string
	UseTestnet       bool

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	cfg.Host = getEnv("HOST", "0.0.0.0")
	cfg.Port = getEnvAsInt("PORT", 8080)
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, "PORT must be between 1 and 65535")
	}

	tickMs := getEnvAsInt("TICK_INTERVAL_MS", 100)
	if tickMs <= 0 {
		errs = append(errs, "TICK_INTERVAL_MS must be positive")
	}
	cfg.TickInterval = time.Duration(tickMs) * time.Millisecond

	cfg.PlaybackInterval = domain.CandleInterval(getEnv("PLAYBACK_INTERVAL", string(domain.IntervalHour)))

	cfg.DBPath = getEnv("DB_PATH", "./data/candles.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	cfg.InstrumentsDir = getEnv("INSTRUMENTS_DIR", "./data/instruments")
	if cfg.InstrumentsDir == "" {
		errs = append(errs, "INSTRUMENTS_DIR must be set")
	}

	// Base currency balances the ledger always starts with.
	cfg.SeedBalances = map[string]float64{
		"RUB": getEnvAsFloat("SEED_BALANCE_RUB", 100000),
		"USD": getEnvAsFloat("SEED_BALANCE_USD", 10000),
		"EUR": getEnvAsFloat("SEED_BALANCE_EUR", 10000),
	}

	cfg.StrictValidation = getEnvAsBool("STRICT_VALIDATION", false)

	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.UseTestnet = getEnvAsBool("IS_TESTNET", false)

	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
