package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"investSandbox/internal/domain"
	"investSandbox/internal/ports"
)

// The single simulated account every sandbox endpoint reports.
var sandboxAccount = map[string]string{
	"brokerAccountType": "Tinkoff",
	"brokerAccountId":   "1",
}

func decodeBody(r *http.Request, v interface{}) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", ports.ErrInvalidRequest)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse request body: %w", ports.ErrInvalidRequest)
	}
	return nil
}

// --- Sandbox account management ---

func (s *Server) handleRegister(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, sandboxAccount)
}

func (s *Server) handleSandboxNoop(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, struct{}{})
}

func (s *Server) handleSandboxClear(w http.ResponseWriter, _ *http.Request) {
	s.engine.Reset(s.seedBalances)
	s.ok(w, struct{}{})
}

// Figis of the currency instruments used when seeding a currency balance.
var currencyFigis = map[string]string{
	"USD": "BBG0013HGFT4",
	"EUR": "BBG0013HJJ31",
}

func (s *Server) handleSetCurrencyBalance(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Currency string   `json:"currency"`
		Balance  *float64 `json:"balance"`
	}{}
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if req.Currency == "" {
		req.Currency = "RUB"
	}
	balance := 100000.0
	if req.Balance != nil {
		balance = *req.Balance
	}

	s.engine.SetCurrencyBalance(req.Currency, balance)

	// Seeding USD/EUR also installs the matching currency position.
	if figi, ok := currencyFigis[req.Currency]; ok {
		if inst, found := s.catalog.FindOne(ports.InstrumentQuery{FIGI: figi, Type: domain.TypeCurrency}); found {
			s.engine.SeedPosition(inst, balance)
		}
	}
	s.ok(w, struct{}{})
}

func (s *Server) handleSetPositionBalance(w http.ResponseWriter, r *http.Request) {
	req := struct {
		FIGI    string   `json:"figi"`
		Balance *float64 `json:"balance"`
	}{}
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	balance := 1.0
	if req.Balance != nil {
		balance = *req.Balance
	}

	inst, found := s.catalog.FindOne(ports.InstrumentQuery{FIGI: req.FIGI})
	if !found {
		s.failCode(w, http.StatusNotFound, codeNotFound,
			fmt.Sprintf("instrument not found by figi=%s", req.FIGI))
		return
	}
	s.engine.SeedPosition(inst, balance)
	s.ok(w, struct{}{})
}

// --- Orders ---

func (s *Server) handleListOrders(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, []struct{}{})
}

func (s *Server) handleMarketOrder(w http.ResponseWriter, r *http.Request) {
	figi := r.URL.Query().Get("figi")
	req := struct {
		Lots      int              `json:"lots"`
		Operation domain.OrderSide `json:"operation"`
	}{}
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	order, err := s.engine.PlaceMarketOrder(r.Context(), domain.MarketOrderRequest{
		FIGI:      figi,
		Lots:      req.Lots,
		Operation: req.Operation,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.ok(w, order)
}

// --- Portfolio ---

func (s *Server) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, map[string]interface{}{"positions": s.engine.Positions()})
}

func (s *Server) handleCurrencies(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, map[string]interface{}{"currencies": s.engine.Balances()})
}

func (s *Server) handleOperations(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, map[string]interface{}{"operations": s.engine.Operations()})
}

// --- Market data ---

func (s *Server) listInstruments(w http.ResponseWriter, t domain.InstrumentType) {
	instruments := s.catalog.ListByType(t)
	if instruments == nil {
		instruments = []domain.Instrument{}
	}
	s.ok(w, map[string]interface{}{
		"instruments": instruments,
		"total":       len(instruments),
	})
}

func (s *Server) handleStocks(w http.ResponseWriter, _ *http.Request) {
	s.listInstruments(w, domain.TypeStock)
}

func (s *Server) handleBonds(w http.ResponseWriter, _ *http.Request) {
	s.listInstruments(w, domain.TypeBond)
}

func (s *Server) handleEtfs(w http.ResponseWriter, _ *http.Request) {
	s.listInstruments(w, domain.TypeEtf)
}

func (s *Server) handleCurrencyInstruments(w http.ResponseWriter, _ *http.Request) {
	s.listInstruments(w, domain.TypeCurrency)
}

// handleCandles serves the historical range query. The boundary is exclusive
// at from and inclusive at to: from < t <= to.
func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	figi := q.Get("figi")
	interval := q.Get("interval")

	from, err := time.Parse(time.RFC3339, q.Get("from"))
	if err != nil {
		s.failCode(w, http.StatusBadRequest, codeInvalidRequest,
			fmt.Sprintf("invalid from timestamp: %v", err))
		return
	}
	to, err := time.Parse(time.RFC3339, q.Get("to"))
	if err != nil {
		s.failCode(w, http.StatusBadRequest, codeInvalidRequest,
			fmt.Sprintf("invalid to timestamp: %v", err))
		return
	}

	candles := s.engine.CandlesRange(figi, from, to)
	if candles == nil {
		candles = []domain.Candle{}
	}
	s.ok(w, map[string]interface{}{
		"figi":     figi,
		"interval": interval,
		"candles":  candles,
	})
}

func (s *Server) handleSearchByFigi(w http.ResponseWriter, r *http.Request) {
	figi := r.URL.Query().Get("figi")
	inst, found := s.catalog.FindOne(ports.InstrumentQuery{FIGI: figi})
	if !found {
		s.failCode(w, http.StatusNotFound, codeNotFound,
			fmt.Sprintf("instrument not found by figi=%s", figi))
		return
	}
	s.ok(w, inst)
}

func (s *Server) handleSearchByTicker(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	instruments := s.catalog.Filter(ports.InstrumentQuery{Ticker: ticker})
	if len(instruments) == 0 {
		s.failCode(w, http.StatusNotFound, codeNotFound,
			fmt.Sprintf("instrument not found by ticker=%s", ticker))
		return
	}
	s.ok(w, map[string]interface{}{
		"instruments": instruments,
		"total":       len(instruments),
	})
}

// --- User ---

func (s *Server) handleAccounts(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, map[string]interface{}{
		"accounts": []map[string]string{sandboxAccount},
	})
}
