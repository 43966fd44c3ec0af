package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"investSandbox/internal/domain"
	"investSandbox/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

// Client is the historical data collaborator: a thin go-binance wrapper that
// downloads candle series for the snapshot database. The simulator core never
// talks to it at runtime.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a new Binance client adapter. Keys may be empty: kline history
// is a public endpoint.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client: %w", ports.ErrConfigurationError)
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = "https://testnet.binance.vision"
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{"baseURL": client.BaseURL})

	return &Client{spotClient: client, logger: cfg.Logger}, nil
}

// intervalMap translates catalog candle intervals to Binance kline intervals.
var intervalMap = map[domain.CandleInterval]string{
	domain.Interval1Min:  "1m",
	domain.Interval5Min:  "5m",
	domain.Interval15Min: "15m",
	domain.Interval30Min: "30m",
	domain.IntervalHour:  "1h",
	domain.IntervalDay:   "1d",
}

// GetCandlesRange fetches all candles for a symbol/interval between start and
// end time, tagged with the given figi. The fetch is an explicit paginated
// loop bounded by min(end, now), so long ranges terminate deterministically.
func (c *Client) GetCandlesRange(ctx context.Context, figi, symbol string, interval domain.CandleInterval, start, end time.Time) ([]domain.Candle, error) {
	op := "GetCandlesRange"
	binanceInterval, ok := intervalMap[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported candle interval %q: %w", interval, ports.ErrInvalidRequest)
	}
	if now := time.Now(); end.After(now) {
		end = now
	}

	var all []domain.Candle
	const maxLimit = 1000
	from := start

	for from.Before(end) {
		klines, err := c.spotClient.NewKlinesService().
			Symbol(symbol).
			Interval(binanceInterval).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxLimit).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			break
		}
		for _, bk := range klines {
			candle, err := translateKline(bk, figi, interval)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("failed to translate kline: %w", err), op)
			}
			all = append(all, candle)
		}
		last := klines[len(klines)-1]
		from = time.UnixMilli(last.CloseTime)
		if len(klines) < maxLimit {
			break
		}
	}

	c.logger.Info(ctx, "fetched candle range", map[string]interface{}{
		"figi": figi, "symbol": symbol, "interval": string(interval), "count": len(all),
	})
	return all, nil
}

// Ping checks connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.spotClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, err, "Ping")
	}
	return nil
}

// translateKline converts a Binance kline (string-typed prices) into a domain
// candle stamped with the instrument's figi.
func translateKline(bk *binance.Kline, figi string, interval domain.CandleInterval) (domain.Candle, error) {
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("invalid open price %q: %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("invalid high price %q: %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("invalid low price %q: %w", bk.Low, err)
	}
	closePrice, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("invalid close price %q: %w", bk.Close, err)
	}
	volume, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("invalid volume %q: %w", bk.Volume, err)
	}
	return domain.Candle{
		FIGI:     figi,
		Interval: interval,
		Time:     time.UnixMilli(bk.OpenTime).UTC(),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closePrice,
		Volume:   volume,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1121: // Invalid symbol
			mappedErr = ports.ErrNotFound
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Error(ctx, mappedErr, "Binance API error", fields)
		return fmt.Errorf("%s failed (code %d): %w", operation, apiErr.Code, mappedErr)
	}

	c.logger.Error(ctx, err, "Binance request failed", fields)
	return fmt.Errorf("%s failed: %w", operation, ports.ErrConnectionFailed)
}
