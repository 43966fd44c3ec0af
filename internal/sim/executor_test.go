package sim

import (
	"context"
	"testing"
	"time"

	"investSandbox/internal/domain"
	"investSandbox/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

// stubCatalog implements ports.InstrumentCatalog over a fixed instrument list.
type stubCatalog struct {
	instruments []domain.Instrument
}

func (c *stubCatalog) FindOne(q ports.InstrumentQuery) (*domain.Instrument, bool) {
	for i := range c.instruments {
		if q.FIGI != "" && c.instruments[i].FIGI != q.FIGI {
			continue
		}
		if q.Ticker != "" && c.instruments[i].Ticker != q.Ticker {
			continue
		}
		if q.Type != "" && c.instruments[i].Type != q.Type {
			continue
		}
		inst := c.instruments[i]
		return &inst, true
	}
	return nil, false
}

func (c *stubCatalog) Filter(q ports.InstrumentQuery) []domain.Instrument {
	var out []domain.Instrument
	for i := range c.instruments {
		if q.Ticker == "" || c.instruments[i].Ticker == q.Ticker {
			out = append(out, c.instruments[i])
		}
	}
	return out
}

func (c *stubCatalog) ListByType(t domain.InstrumentType) []domain.Instrument {
	var out []domain.Instrument
	for i := range c.instruments {
		if c.instruments[i].Type == t {
			out = append(out, c.instruments[i])
		}
	}
	return out
}

var testInstrument = domain.Instrument{
	FIGI:     "BBG000000000",
	Ticker:   "SIMA",
	ISIN:     "US0000000001",
	Name:     "Sim Alpha Holdings",
	Type:     domain.TypeStock,
	Currency: "USD",
	Lot:      1,
}

func testCatalog() *stubCatalog {
	return &stubCatalog{instruments: []domain.Instrument{testInstrument}}
}

func priceBoard(figi string, price float64, at time.Time) *QuoteBoard {
	board := NewQuoteBoard()
	board.Put(domain.Candle{FIGI: figi, Close: price, Time: at})
	return board
}

func TestExecutor_BuyOpensPosition(t *testing.T) {
	exec := NewExecutor(testCatalog(), false)
	ledger := NewLedger(map[string]float64{"USD": 10000})
	at := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	board := priceBoard("BBG000000000", 100.0, at)

	order, err := exec.Execute(board, ledger, domain.MarketOrderRequest{
		FIGI: "BBG000000000", Lots: 10, Operation: domain.Buy,
	})
	require.NoError(t, err)
	assert.Equal(t, "1", order.OrderID)
	assert.Equal(t, domain.OrderStatusFill, order.Status)
	assert.Equal(t, 10, order.RequestedLots)
	assert.Equal(t, 10, order.ExecutedLots)

	pos, ok := ledger.Position("BBG000000000")
	require.True(t, ok)
	assert.Equal(t, 10, pos.Lots)
	require.NotNil(t, pos.AveragePositionPrice)
	assert.Equal(t, 100.0, pos.AveragePositionPrice.Value)
	assert.Equal(t, "USD", pos.AveragePositionPrice.Currency)

	assert.Equal(t, 9000.0, ledger.Balance("USD"))

	ops := ledger.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, "1", ops[0].ID)
	assert.Equal(t, domain.OperationDone, ops[0].Status)
	assert.Equal(t, domain.Buy, ops[0].OperationType)
	assert.Equal(t, -1000.0, ops[0].Payment)
	assert.Equal(t, at, ops[0].Date)
}

// The average position price is recomputed from the traded quantity on both
// sides, then the position disappears entirely once lots reach zero, and the
// cash trail nets out the round trip.
func TestExecutor_RoundTrip(t *testing.T) {
	exec := NewExecutor(testCatalog(), false)
	ledger := NewLedger(map[string]float64{"USD": 0})
	at := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	figi := "BBG000000000"

	_, err := exec.Execute(priceBoard(figi, 100, at), ledger, domain.MarketOrderRequest{
		FIGI: figi, Lots: 10, Operation: domain.Buy,
	})
	require.NoError(t, err)

	_, err = exec.Execute(priceBoard(figi, 120, at), ledger, domain.MarketOrderRequest{
		FIGI: figi, Lots: 4, Operation: domain.Sell,
	})
	require.NoError(t, err)

	pos, ok := ledger.Position(figi)
	require.True(t, ok)
	assert.Equal(t, 6, pos.Lots)
	require.NotNil(t, pos.AveragePositionPrice)
	// (100*10 + 120*4) / 14
	assert.InDelta(t, 105.714285, pos.AveragePositionPrice.Value, 1e-6)

	_, err = exec.Execute(priceBoard(figi, 130, at), ledger, domain.MarketOrderRequest{
		FIGI: figi, Lots: 6, Operation: domain.Sell,
	})
	require.NoError(t, err)

	_, ok = ledger.Position(figi)
	assert.False(t, ok, "closed position must be removed, not zeroed")
	// -1000 + 480 + 780
	assert.InDelta(t, 260.0, ledger.Balance("USD"), 1e-9)
	assert.Len(t, ledger.Operations(), 3)
}

func TestExecutor_AverageOnRepeatedBuys(t *testing.T) {
	exec := NewExecutor(testCatalog(), false)
	ledger := NewLedger(nil)
	at := time.Now().UTC()
	figi := "BBG000000000"

	_, err := exec.Execute(priceBoard(figi, 100, at), ledger, domain.MarketOrderRequest{
		FIGI: figi, Lots: 2, Operation: domain.Buy,
	})
	require.NoError(t, err)
	_, err = exec.Execute(priceBoard(figi, 200, at), ledger, domain.MarketOrderRequest{
		FIGI: figi, Lots: 2, Operation: domain.Buy,
	})
	require.NoError(t, err)

	pos, ok := ledger.Position(figi)
	require.True(t, ok)
	assert.Equal(t, 4, pos.Lots)
	assert.InDelta(t, 150.0, pos.AveragePositionPrice.Value, 1e-9)
}

func TestExecutor_SellWithoutPosition(t *testing.T) {
	exec := NewExecutor(testCatalog(), false)
	ledger := NewLedger(map[string]float64{"USD": 0})
	at := time.Now().UTC()
	figi := "BBG000000000"

	order, err := exec.Execute(priceBoard(figi, 50, at), ledger, domain.MarketOrderRequest{
		FIGI: figi, Lots: 3, Operation: domain.Sell,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFill, order.Status)

	// No short positions: the proceeds land but nothing is held.
	_, ok := ledger.Position(figi)
	assert.False(t, ok)
	assert.Equal(t, 150.0, ledger.Balance("USD"))
}

func TestExecutor_BalancesMayGoNegative(t *testing.T) {
	exec := NewExecutor(testCatalog(), false)
	ledger := NewLedger(map[string]float64{"USD": 100})
	at := time.Now().UTC()

	_, err := exec.Execute(priceBoard("BBG000000000", 100, at), ledger, domain.MarketOrderRequest{
		FIGI: "BBG000000000", Lots: 5, Operation: domain.Buy,
	})
	require.NoError(t, err)
	assert.Equal(t, -400.0, ledger.Balance("USD"))
}

func TestExecutor_Errors(t *testing.T) {
	at := time.Now().UTC()
	tests := []struct {
		name    string
		strict  bool
		board   *QuoteBoard
		req     domain.MarketOrderRequest
		wantErr error
	}{
		{
			name:    "unknown figi",
			board:   priceBoard("BBG000000000", 100, at),
			req:     domain.MarketOrderRequest{FIGI: "BBG0000XXXXX", Lots: 1, Operation: domain.Buy},
			wantErr: ports.ErrNotFound,
		},
		{
			name:    "no candle revealed yet",
			board:   NewQuoteBoard(),
			req:     domain.MarketOrderRequest{FIGI: "BBG000000000", Lots: 1, Operation: domain.Buy},
			wantErr: ports.ErrPriceUnavailable,
		},
		{
			name:    "strict rejects zero lots",
			strict:  true,
			board:   priceBoard("BBG000000000", 100, at),
			req:     domain.MarketOrderRequest{FIGI: "BBG000000000", Lots: 0, Operation: domain.Buy},
			wantErr: ports.ErrInvalidRequest,
		},
		{
			name:    "strict rejects negative lots",
			strict:  true,
			board:   priceBoard("BBG000000000", 100, at),
			req:     domain.MarketOrderRequest{FIGI: "BBG000000000", Lots: -2, Operation: domain.Sell},
			wantErr: ports.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := NewExecutor(testCatalog(), tt.strict)
			ledger := NewLedger(nil)
			order, err := exec.Execute(tt.board, ledger, tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, order)
			assert.Empty(t, ledger.Operations(), "failed orders must not touch the ledger")
		})
	}
}

func TestExecutor_OrderIDsAreSequential(t *testing.T) {
	exec := NewExecutor(testCatalog(), false)
	ledger := NewLedger(nil)
	board := priceBoard("BBG000000000", 100, time.Now().UTC())

	for i, want := range []string{"1", "2", "3"} {
		order, err := exec.Execute(board, ledger, domain.MarketOrderRequest{
			FIGI: "BBG000000000", Lots: i + 1, Operation: domain.Buy,
		})
		require.NoError(t, err)
		assert.Equal(t, want, order.OrderID)
	}
}
