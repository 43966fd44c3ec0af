package domain

// InstrumentType classifies an instrument in the catalog.
type InstrumentType string

const (
	TypeStock    InstrumentType = "Stock"
	TypeBond     InstrumentType = "Bond"
	TypeEtf      InstrumentType = "Etf"
	TypeCurrency InstrumentType = "Currency"
)

// Instrument is a single tradable record from the catalog.
// Instruments are read-only: they are loaded once at startup and never mutated.
type Instrument struct {
	FIGI              string         `json:"figi"`   // Primary key across the whole system
	Ticker            string         `json:"ticker"`
	ISIN              string         `json:"isin,omitempty"`
	Name              string         `json:"name"`
	Type              InstrumentType `json:"type"`
	Currency          string         `json:"currency"` // Settlement currency code (e.g. "RUB", "USD")
	Lot               int            `json:"lot"`      // Shares per tradable unit
	MinPriceIncrement float64        `json:"minPriceIncrement,omitempty"`
}
