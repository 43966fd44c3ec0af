package ports

import "investSandbox/internal/domain"

// InstrumentQuery is an exact-match filter over instrument fields.
// Zero-valued fields are ignored.
type InstrumentQuery struct {
	FIGI   string
	Ticker string
	ISIN   string
	Type   domain.InstrumentType
}

// InstrumentCatalog is the read-only instrument lookup. Records are loaded
// once at startup; all methods are safe for concurrent use.
type InstrumentCatalog interface {
	// FindOne returns the first instrument matching the query, searching
	// asset classes in a fixed order (stocks, bonds, etfs, currencies).
	FindOne(q InstrumentQuery) (*domain.Instrument, bool)
	// Filter returns all matches from the first asset class that has any.
	Filter(q InstrumentQuery) []domain.Instrument
	// ListByType returns the full catalog slice for one asset class.
	ListByType(t domain.InstrumentType) []domain.Instrument
}
