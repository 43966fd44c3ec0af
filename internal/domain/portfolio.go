package domain

// MoneyAmount is a value tagged with its currency code.
type MoneyAmount struct {
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
}

// Position is the holding of a single instrument in the ledger.
// Invariant: a position with Lots <= 0 never exists — order execution removes
// it instead of keeping it at zero. Instrument fields are snapshotted at trade
// time for fast reads.
type Position struct {
	FIGI                 string         `json:"figi"`
	Ticker               string         `json:"ticker"`
	ISIN                 string         `json:"isin,omitempty"`
	InstrumentType       InstrumentType `json:"instrumentType"`
	Name                 string         `json:"name"`
	Lots                 int            `json:"lots"`
	Balance              float64        `json:"balance"` // Lots converted to raw quantity via lot size
	AveragePositionPrice *MoneyAmount   `json:"averagePositionPrice,omitempty"`
	ExpectedYield        *MoneyAmount   `json:"expectedYield,omitempty"` // Derived on read, never stored
}

// CurrencyBalance is the cash amount held in one currency. Balances are not
// margin-checked and may go negative.
type CurrencyBalance struct {
	Currency string  `json:"currency"`
	Balance  float64 `json:"balance"`
}

// ExpectedYield computes the unrealized result of a position against the most
// recently revealed candle for its instrument. Returns nil when the position
// has no recorded average price or no candle has been revealed yet.
func ExpectedYield(pos Position, last *Candle) *MoneyAmount {
	if last == nil || pos.AveragePositionPrice == nil {
		return nil
	}
	return &MoneyAmount{
		Currency: pos.AveragePositionPrice.Currency,
		Value:    (last.Close - pos.AveragePositionPrice.Value) * float64(pos.Lots),
	}
}
