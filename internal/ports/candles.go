package ports

import (
	"context"

	"investSandbox/internal/domain"
)

// CandleRepository stores and retrieves the precomputed candle snapshots that
// the playback clock replays. Snapshots are written once by the fetch tool and
// only read by the server.
type CandleRepository interface {
	// SaveSeries upserts a candle series. Candles are keyed by
	// (figi, interval, time), so re-fetching a range is idempotent.
	SaveSeries(ctx context.Context, candles []domain.Candle) error
	// Series returns the candles for one instrument and interval, ordered by
	// time ascending.
	Series(ctx context.Context, figi string, interval domain.CandleInterval) ([]domain.Candle, error)
	// LoadAll returns every stored series for the given interval, keyed by
	// figi, each ordered by time ascending.
	LoadAll(ctx context.Context, interval domain.CandleInterval) (map[string][]domain.Candle, error)
}
