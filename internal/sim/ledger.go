package sim

import (
	"sort"
	"strconv"

	"investSandbox/internal/domain"
)

// Ledger holds the positions, currency balances and operation log of the
// single simulated account. It lives for the process lifetime only. The
// ledger is not synchronized; the Engine serializes every access.
type Ledger struct {
	positions  map[string]domain.Position // keyed by figi
	balances   map[string]float64         // currency code -> cash
	operations []domain.Operation
}

// NewLedger creates a ledger seeded with the configured base currency
// balances.
func NewLedger(seed map[string]float64) *Ledger {
	balances := make(map[string]float64, len(seed))
	for currency, amount := range seed {
		balances[currency] = amount
	}
	return &Ledger{
		positions: make(map[string]domain.Position),
		balances:  balances,
	}
}

// Position returns the current position for an instrument, if any.
func (l *Ledger) Position(figi string) (domain.Position, bool) {
	p, ok := l.positions[figi]
	return p, ok
}

// SetPosition stores a position. The caller guarantees Lots > 0.
func (l *Ledger) SetPosition(p domain.Position) {
	l.positions[p.FIGI] = p
}

// RemovePosition deletes a position outright. Positions never linger at zero
// or negative lots.
func (l *Ledger) RemovePosition(figi string) {
	delete(l.positions, figi)
}

// Positions returns all positions ordered by figi for deterministic output.
func (l *Ledger) Positions() []domain.Position {
	out := make([]domain.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FIGI < out[j].FIGI })
	return out
}

// AddPayment applies a signed cash movement to one currency. There is no
// sufficiency check; balances may go negative.
func (l *Ledger) AddPayment(currency string, payment float64) {
	l.balances[currency] += payment
}

// SetBalance overwrites the cash amount for one currency.
func (l *Ledger) SetBalance(currency string, amount float64) {
	l.balances[currency] = amount
}

// Balance returns the cash amount held in one currency.
func (l *Ledger) Balance(currency string) float64 {
	return l.balances[currency]
}

// Balances returns all currency balances ordered by currency code.
func (l *Ledger) Balances() []domain.CurrencyBalance {
	out := make([]domain.CurrencyBalance, 0, len(l.balances))
	for currency, amount := range l.balances {
		out = append(out, domain.CurrencyBalance{Currency: currency, Balance: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// AppendOperation assigns the next sequential id to the record and appends it
// to the log. Records are never mutated afterwards.
func (l *Ledger) AppendOperation(op domain.Operation) domain.Operation {
	op.ID = strconv.Itoa(len(l.operations) + 1)
	l.operations = append(l.operations, op)
	return op
}

// Operations returns a copy of the append-only operation log.
func (l *Ledger) Operations() []domain.Operation {
	out := make([]domain.Operation, len(l.operations))
	copy(out, l.operations)
	return out
}
