package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"investSandbox/internal/domain"
	"investSandbox/internal/ports"
)

// The four asset-class files the catalog is loaded from, in lookup order.
var classFiles = []struct {
	file string
	typ  domain.InstrumentType
}{
	{"stocks.json", domain.TypeStock},
	{"bonds.json", domain.TypeBond},
	{"etfs.json", domain.TypeEtf},
	{"currencies.json", domain.TypeCurrency},
}

// Catalog implements ports.InstrumentCatalog over static JSON files. Records
// are loaded once and never mutated, so reads need no locking.
type Catalog struct {
	classes [][]domain.Instrument // Indexed in classFiles order
	logger  ports.Logger
}

// Config holds configuration for the file-backed catalog.
type Config struct {
	Dir    string // Directory containing the asset-class JSON files
	Logger ports.Logger
}

// New loads the catalog from disk. A missing class file is treated as an
// empty class; an unreadable or malformed one is an error.
func New(cfg Config) (*Catalog, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for catalog: %w", ports.ErrConfigurationError)
	}

	classes := make([][]domain.Instrument, len(classFiles))
	total := 0
	for i, cls := range classFiles {
		path := filepath.Join(cfg.Dir, cls.file)
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
		}
		var instruments []domain.Instrument
		if err := sonic.Unmarshal(raw, &instruments); err != nil {
			return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
		}
		for j := range instruments {
			instruments[j].Type = cls.typ
		}
		classes[i] = instruments
		total += len(instruments)
	}

	cfg.Logger.Info(context.Background(), "instrument catalog loaded", map[string]interface{}{
		"dir": cfg.Dir, "instruments": total,
	})
	return &Catalog{classes: classes, logger: cfg.Logger}, nil
}

// NewFromInstruments builds a catalog from in-memory records, bucketed by
// instrument type. Intended for tests and embedded setups.
func NewFromInstruments(instruments []domain.Instrument) *Catalog {
	classes := make([][]domain.Instrument, len(classFiles))
	for _, inst := range instruments {
		for i, cls := range classFiles {
			if inst.Type == cls.typ {
				classes[i] = append(classes[i], inst)
				break
			}
		}
	}
	return &Catalog{classes: classes}
}

func matches(q ports.InstrumentQuery, inst domain.Instrument) bool {
	if q.FIGI != "" && q.FIGI != inst.FIGI {
		return false
	}
	if q.Ticker != "" && q.Ticker != inst.Ticker {
		return false
	}
	if q.ISIN != "" && q.ISIN != inst.ISIN {
		return false
	}
	if q.Type != "" && q.Type != inst.Type {
		return false
	}
	return true
}

// FindOne returns the first match, searching stocks, bonds, etfs and
// currencies in that order.
func (c *Catalog) FindOne(q ports.InstrumentQuery) (*domain.Instrument, bool) {
	for _, class := range c.classes {
		for i := range class {
			if matches(q, class[i]) {
				inst := class[i]
				return &inst, true
			}
		}
	}
	return nil, false
}

// Filter returns all matches from the first asset class that has any.
func (c *Catalog) Filter(q ports.InstrumentQuery) []domain.Instrument {
	for _, class := range c.classes {
		var found []domain.Instrument
		for i := range class {
			if matches(q, class[i]) {
				found = append(found, class[i])
			}
		}
		if len(found) > 0 {
			return found
		}
	}
	return nil
}

// ListByType returns the full class slice for one instrument type.
func (c *Catalog) ListByType(t domain.InstrumentType) []domain.Instrument {
	for i, cls := range classFiles {
		if cls.typ == t {
			return c.classes[i]
		}
	}
	return nil
}
