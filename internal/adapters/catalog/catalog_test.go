package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"investSandbox/internal/domain"
	"investSandbox/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func writeCatalogFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestNew_LoadsAndStampsTypes(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "stocks.json",
		`[{"figi":"BBG000000000","ticker":"SIMA","currency":"USD","lot":1}]`)
	writeCatalogFile(t, dir, "currencies.json",
		`[{"figi":"BBG0013HGFT4","ticker":"USD000UTSTOM","currency":"RUB","lot":1000}]`)

	c, err := New(Config{Dir: dir, Logger: &mockLogger{}})
	require.NoError(t, err)

	inst, ok := c.FindOne(ports.InstrumentQuery{FIGI: "BBG000000000"})
	require.True(t, ok)
	assert.Equal(t, domain.TypeStock, inst.Type)

	inst, ok = c.FindOne(ports.InstrumentQuery{FIGI: "BBG0013HGFT4"})
	require.True(t, ok)
	assert.Equal(t, domain.TypeCurrency, inst.Type)
	assert.Equal(t, 1000, inst.Lot)
}

func TestNew_MissingFilesAreEmptyClasses(t *testing.T) {
	c, err := New(Config{Dir: t.TempDir(), Logger: &mockLogger{}})
	require.NoError(t, err)
	assert.Empty(t, c.ListByType(domain.TypeStock))
	_, ok := c.FindOne(ports.InstrumentQuery{FIGI: "ANY"})
	assert.False(t, ok)
}

func TestNew_MalformedFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "stocks.json", `{not json`)

	c, err := New(Config{Dir: dir, Logger: &mockLogger{}})
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestNew_RequiresLogger(t *testing.T) {
	c, err := New(Config{Dir: t.TempDir()})
	assert.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
	assert.Nil(t, c)
}

func testInstruments() []domain.Instrument {
	return []domain.Instrument{
		{FIGI: "BBG000000000", Ticker: "SIMA", Type: domain.TypeStock, Currency: "USD", Lot: 1},
		{FIGI: "BBG000000001", Ticker: "SIMB", Type: domain.TypeStock, Currency: "USD", Lot: 1},
		{FIGI: "BBG000000100", Ticker: "SIMA", Type: domain.TypeBond, Currency: "RUB", Lot: 1},
		{FIGI: "BBG0013HGFT4", Ticker: "USD000UTSTOM", Type: domain.TypeCurrency, Currency: "RUB", Lot: 1000},
	}
}

func TestFindOne(t *testing.T) {
	c := NewFromInstruments(testInstruments())

	tests := []struct {
		name     string
		query    ports.InstrumentQuery
		wantFigi string
		found    bool
	}{
		{name: "by figi", query: ports.InstrumentQuery{FIGI: "BBG000000001"}, wantFigi: "BBG000000001", found: true},
		{name: "by ticker prefers stocks over bonds", query: ports.InstrumentQuery{Ticker: "SIMA"}, wantFigi: "BBG000000000", found: true},
		{name: "ticker narrowed by type", query: ports.InstrumentQuery{Ticker: "SIMA", Type: domain.TypeBond}, wantFigi: "BBG000000100", found: true},
		{name: "unknown figi", query: ports.InstrumentQuery{FIGI: "BBG0000XXXXX"}, found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, ok := c.FindOne(tt.query)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				require.NotNil(t, inst)
				assert.Equal(t, tt.wantFigi, inst.FIGI)
			}
		})
	}
}

func TestFilter_FirstClassWithMatchesWins(t *testing.T) {
	c := NewFromInstruments(testInstruments())

	// SIMA exists as both a stock and a bond; only the stock class is
	// returned.
	got := c.Filter(ports.InstrumentQuery{Ticker: "SIMA"})
	require.Len(t, got, 1)
	assert.Equal(t, domain.TypeStock, got[0].Type)

	assert.Nil(t, c.Filter(ports.InstrumentQuery{Ticker: "NOPE"}))
}

func TestListByType(t *testing.T) {
	c := NewFromInstruments(testInstruments())

	assert.Len(t, c.ListByType(domain.TypeStock), 2)
	assert.Len(t, c.ListByType(domain.TypeBond), 1)
	assert.Len(t, c.ListByType(domain.TypeEtf), 0)
	assert.Len(t, c.ListByType(domain.TypeCurrency), 1)
}
