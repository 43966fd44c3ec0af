package sim

import "investSandbox/internal/domain"

// QuoteBoard is the current-price view: figi -> the most recently revealed
// candle. The playback clock is its only writer. The board itself is not
// synchronized; the Engine serializes every access behind its mutex.
type QuoteBoard struct {
	last map[string]domain.Candle
}

// NewQuoteBoard creates an empty current-price view.
func NewQuoteBoard() *QuoteBoard {
	return &QuoteBoard{last: make(map[string]domain.Candle)}
}

// Put reveals a candle as the current price for its instrument.
func (b *QuoteBoard) Put(c domain.Candle) {
	b.last[c.FIGI] = c
}

// Last returns the most recently revealed candle for an instrument.
func (b *QuoteBoard) Last(figi string) (domain.Candle, bool) {
	c, ok := b.last[figi]
	return c, ok
}

// Snapshot copies the full view. The copy is safe to read after the engine
// lock is released.
func (b *QuoteBoard) Snapshot() map[string]domain.Candle {
	out := make(map[string]domain.Candle, len(b.last))
	for figi, c := range b.last {
		out[figi] = c
	}
	return out
}
