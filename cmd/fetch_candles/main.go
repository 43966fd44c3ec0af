package main

import (
	"context"
	"flag"
	"log"
	"time"

	"investSandbox/config"
	"investSandbox/internal/adapters/binanceclient"
	"investSandbox/internal/adapters/logger"
	"investSandbox/internal/adapters/sqlite"
	"investSandbox/internal/domain"
)

// Downloads a historical candle series into the snapshot database the
// simulator replays. One instrument per run; re-running over an overlapping
// range is idempotent.
func main() {
	var (
		figi     = flag.String("figi", "", "figi to store the series under (required)")
		symbol   = flag.String("symbol", "", "exchange symbol to fetch, e.g. ETHUSDT (required)")
		interval = flag.String("interval", string(domain.IntervalHour), "candle interval (1min, 5min, 15min, 30min, hour, day)")
		fromStr  = flag.String("from", "", "range start, RFC3339 or YYYY-MM-DD (required)")
		toStr    = flag.String("to", "", "range end, defaults to now")
	)
	flag.Parse()
	if *figi == "" || *symbol == "" || *fromStr == "" {
		flag.Usage()
		log.Fatal("figi, symbol and from are required")
	}

	from, err := parseTime(*fromStr)
	if err != nil {
		log.Fatalf("invalid from: %v", err)
	}
	to := time.Now()
	if *toStr != "" {
		if to, err = parseTime(*toStr); err != nil {
			log.Fatalf("invalid to: %v", err)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	ctx := context.Background()

	client, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.BinanceAPIKey,
		SecretKey:  cfg.BinanceSecretKey,
		UseTestnet: cfg.UseTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to open candle snapshot database: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing candle snapshot database")
		}
	}()

	candles, err := client.GetCandlesRange(ctx, *figi, *symbol, domain.CandleInterval(*interval), from, to)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching candles")
		log.Fatalf("Error fetching candles: %v", err)
	}
	if err := repo.SaveSeries(ctx, candles); err != nil {
		appLogger.Error(ctx, err, "Error saving candle series")
		log.Fatalf("Error saving candle series: %v", err)
	}
	appLogger.Info(ctx, "candle series stored", map[string]interface{}{
		"figi": *figi, "interval": *interval, "count": len(candles),
	})
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
