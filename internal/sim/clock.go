package sim

import "investSandbox/internal/domain"

// PlaybackClock simulates the passage of market time by revealing one
// historical candle per instrument per tick. Cursors are per-instrument and
// only ever move forward; when a series is exhausted playback stalls on its
// last candle (no looping, no error).
type PlaybackClock struct {
	series map[string][]domain.Candle
	cursor map[string]int
}

// NewPlaybackClock creates a clock over preloaded candle series keyed by figi.
// Each series must be ordered by time ascending.
func NewPlaybackClock(series map[string][]domain.Candle) *PlaybackClock {
	return &PlaybackClock{
		series: series,
		cursor: make(map[string]int, len(series)),
	}
}

// Advance reveals the next candle of every non-exhausted series into the
// board. Exhausted series leave their last revealed candle in place.
func (c *PlaybackClock) Advance(board *QuoteBoard) {
	for figi, candles := range c.series {
		cur := c.cursor[figi]
		if cur >= len(candles) {
			continue
		}
		board.Put(candles[cur])
		c.cursor[figi] = cur + 1
	}
}

// Cursor returns the playback position for an instrument.
func (c *PlaybackClock) Cursor(figi string) int {
	return c.cursor[figi]
}

// Exhausted reports whether the series for an instrument has been fully
// revealed.
func (c *PlaybackClock) Exhausted(figi string) bool {
	return c.cursor[figi] >= len(c.series[figi])
}

// Series returns the full preloaded series for an instrument, independent of
// playback progress. Used by the candle range query.
func (c *PlaybackClock) Series(figi string) []domain.Candle {
	return c.series[figi]
}
