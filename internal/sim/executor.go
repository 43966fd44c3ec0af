package sim

import (
	"fmt"
	"strconv"

	"investSandbox/internal/domain"
	"investSandbox/internal/ports"
)

// Executor turns a market order request into a ledger mutation. It is called
// by the Engine with the engine lock held, so the price read and the ledger
// write form one atomic unit with respect to clock ticks.
type Executor struct {
	catalog     ports.InstrumentCatalog
	strict      bool
	lastOrderID int64
}

// NewExecutor creates an order executor. With strict enabled, non-positive
// quantities are rejected; by default they are accepted without validation
// for compatibility with clients that rely on it.
func NewExecutor(catalog ports.InstrumentCatalog, strict bool) *Executor {
	return &Executor{catalog: catalog, strict: strict}
}

// Execute fills a market order at the instrument's current close price and
// applies the resulting payment, position update and operation record. There
// are no partial fills: requested and executed lots are always equal.
func (e *Executor) Execute(board *QuoteBoard, ledger *Ledger, req domain.MarketOrderRequest) (*domain.PlacedOrder, error) {
	if e.strict && req.Lots <= 0 {
		return nil, fmt.Errorf("lots must be positive, got %d: %w", req.Lots, ports.ErrInvalidRequest)
	}

	inst, ok := e.catalog.FindOne(ports.InstrumentQuery{FIGI: req.FIGI})
	if !ok {
		return nil, fmt.Errorf("instrument not found by figi=%s: %w", req.FIGI, ports.ErrNotFound)
	}

	candle, ok := board.Last(req.FIGI)
	if !ok {
		// No candle revealed yet, so the order cannot be priced.
		return nil, fmt.Errorf("figi=%s: %w", req.FIGI, ports.ErrPriceUnavailable)
	}
	price := candle.Close

	payment := price * float64(req.Lots)
	if req.Operation != domain.Sell {
		payment = -payment
	}

	prev, hasPrev := ledger.Position(req.FIGI)
	prevLots := 0
	if hasPrev {
		prevLots = prev.Lots
	}
	delta := req.Lots
	if req.Operation == domain.Sell {
		delta = -req.Lots
	}
	newLots := prevLots + delta

	if newLots > 0 {
		// The average is recomputed from the just-traded quantity and price on
		// both sides; selling does not reduce the cost basis in this model.
		avg := price
		if hasPrev && prev.AveragePositionPrice != nil {
			avg = (prev.AveragePositionPrice.Value*float64(prevLots) + price*float64(req.Lots)) /
				float64(prevLots+req.Lots)
		}
		ledger.SetPosition(domain.Position{
			FIGI:           inst.FIGI,
			Ticker:         inst.Ticker,
			ISIN:           inst.ISIN,
			InstrumentType: inst.Type,
			Name:           inst.Name,
			Lots:           newLots,
			Balance:        float64(newLots * inst.Lot),
			AveragePositionPrice: &domain.MoneyAmount{
				Currency: inst.Currency,
				Value:    avg,
			},
		})
	} else {
		ledger.RemovePosition(req.FIGI)
	}

	ledger.AddPayment(inst.Currency, payment)

	ledger.AppendOperation(domain.Operation{
		Status:         domain.OperationDone,
		OperationType:  req.Operation,
		Date:           candle.Time,
		IsMarginCall:   false,
		InstrumentType: inst.Type,
		FIGI:           inst.FIGI,
		Quantity:       req.Lots,
		Price:          price,
		Payment:        payment,
		Currency:       inst.Currency,
	})

	e.lastOrderID++
	return &domain.PlacedOrder{
		OrderID:       strconv.FormatInt(e.lastOrderID, 10),
		Operation:     req.Operation,
		Status:        domain.OrderStatusFill,
		RequestedLots: req.Lots,
		ExecutedLots:  req.Lots,
	}, nil
}
