package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"investSandbox/internal/domain"
	"investSandbox/internal/ports"
)

// Engine is the serializing actor for the simulator state. Go runs callers in
// parallel, so the clock advance, order execution and every ledger or price
// read are funneled through one mutex: an order reads the price view and
// writes the ledger as a single unit that can never observe a clock tick
// mid-computation.
type Engine struct {
	mu     sync.Mutex
	clock  *PlaybackClock
	board  *QuoteBoard
	ledger *Ledger
	exec   *Executor
	logger ports.Logger
}

// EngineConfig holds the constructor-injected state of an Engine. One engine
// per simulated account.
type EngineConfig struct {
	Series           map[string][]domain.Candle // figi -> ordered candle series
	SeedBalances     map[string]float64
	Catalog          ports.InstrumentCatalog
	StrictValidation bool
	Logger           ports.Logger
}

// NewEngine validates dependencies and assembles the core components.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Catalog == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Engine: %w", ports.ErrConfigurationError)
	}
	return &Engine{
		clock:  NewPlaybackClock(cfg.Series),
		board:  NewQuoteBoard(),
		ledger: NewLedger(cfg.SeedBalances),
		exec:   NewExecutor(cfg.Catalog, cfg.StrictValidation),
		logger: cfg.Logger,
	}, nil
}

// Run drives the playback clock on a fixed period until the context is
// canceled. onTick receives the updated price view snapshot after every
// advance; the dispatcher hangs off it. Ticks fire on schedule with no
// backpressure — a slow consumer only delays its own fan-out, never the clock.
func (e *Engine) Run(ctx context.Context, tick time.Duration, onTick func(view map[string]domain.Candle)) {
	e.logger.Info(ctx, "playback clock started", map[string]interface{}{"tick": tick.String()})
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info(ctx, "playback clock stopped")
			return
		case <-ticker.C:
			view := e.Advance()
			if onTick != nil {
				onTick(view)
			}
		}
	}
}

// Advance reveals the next candle per instrument and returns the updated
// view snapshot for the broadcast pass.
func (e *Engine) Advance() map[string]domain.Candle {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock.Advance(e.board)
	return e.board.Snapshot()
}

// PlaceMarketOrder executes a market order against the current price view.
func (e *Engine) PlaceMarketOrder(ctx context.Context, req domain.MarketOrderRequest) (*domain.PlacedOrder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	order, err := e.exec.Execute(e.board, e.ledger, req)
	if err != nil {
		return nil, err
	}
	e.logger.Info(ctx, "market order filled", map[string]interface{}{
		"orderId":   order.OrderID,
		"figi":      req.FIGI,
		"operation": string(req.Operation),
		"lots":      req.Lots,
	})
	return order, nil
}

// Positions lists the current holdings with the expected yield computed
// lazily against the price view.
func (e *Engine) Positions() []domain.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	positions := e.ledger.Positions()
	for i := range positions {
		if candle, ok := e.board.Last(positions[i].FIGI); ok {
			positions[i].ExpectedYield = domain.ExpectedYield(positions[i], &candle)
		}
	}
	return positions
}

// Balances lists the current cash amounts per currency.
func (e *Engine) Balances() []domain.CurrencyBalance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Balances()
}

// Operations returns the append-only operation log.
func (e *Engine) Operations() []domain.Operation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Operations()
}

// Quote returns the most recently revealed candle for an instrument.
func (e *Engine) Quote(figi string) (domain.Candle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board.Last(figi)
}

// CandlesRange returns the preloaded candles for an instrument within the
// half-open-then-closed range from < t <= to. The exact boundary matters:
// a candle at from is excluded, a candle at to is included.
func (e *Engine) CandlesRange(figi string, from, to time.Time) []domain.Candle {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []domain.Candle
	for _, c := range e.clock.Series(figi) {
		if c.Time.After(from) && !c.Time.After(to) {
			out = append(out, c)
		}
	}
	return out
}

// SetCurrencyBalance overwrites the cash amount for one currency (sandbox
// seeding endpoint).
func (e *Engine) SetCurrencyBalance(currency string, amount float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger.SetBalance(currency, amount)
}

// SeedPosition installs a position from a raw balance (sandbox seeding
// endpoint): lots are the whole lots that fit, without an average price.
func (e *Engine) SeedPosition(inst *domain.Instrument, balance float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	lots := int(balance / float64(inst.Lot))
	e.ledger.SetPosition(domain.Position{
		FIGI:           inst.FIGI,
		Ticker:         inst.Ticker,
		ISIN:           inst.ISIN,
		InstrumentType: inst.Type,
		Name:           inst.Name,
		Lots:           lots,
		Balance:        float64(lots * inst.Lot),
	})
}

// Reset clears positions, balances and the operation log back to the seed
// state (sandbox clear endpoint).
func (e *Engine) Reset(seed map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger = NewLedger(seed)
}
