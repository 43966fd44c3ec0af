package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"investSandbox/internal/ports"
	"investSandbox/internal/sim"
)

// Server exposes the simulator over REST and WebSocket.
type Server struct {
	logger       ports.Logger
	catalog      ports.InstrumentCatalog
	engine       *sim.Engine
	registry     *sim.SubscriptionRegistry
	hub          *Hub
	seedBalances map[string]float64

	trackID  atomic.Int64
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// Config holds the server dependencies and listen address.
type Config struct {
	Host         string
	Port         int
	SeedBalances map[string]float64
	Logger       ports.Logger
	Catalog      ports.InstrumentCatalog
	Engine       *sim.Engine
	Registry     *sim.SubscriptionRegistry
	Hub          *Hub
}

// New validates dependencies and builds the server with its route table.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil || cfg.Catalog == nil || cfg.Engine == nil || cfg.Registry == nil || cfg.Hub == nil {
		return nil, fmt.Errorf("missing required dependencies for Server: %w", ports.ErrConfigurationError)
	}

	s := &Server{
		logger:       cfg.Logger,
		catalog:      cfg.Catalog,
		engine:       cfg.Engine,
		registry:     cfg.Registry,
		hub:          cfg.Hub,
		seedBalances: cfg.SeedBalances,
		upgrader: websocket.Upgrader{
			// The sandbox trusts every client; there is no auth anywhere.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.httpSrv = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Sandbox account management
	mux.HandleFunc("POST /sandbox/register", s.handleRegister)
	mux.HandleFunc("POST /sandbox/currencies/balance", s.handleSetCurrencyBalance)
	mux.HandleFunc("POST /sandbox/positions/balance", s.handleSetPositionBalance)
	mux.HandleFunc("POST /sandbox/remove", s.handleSandboxNoop)
	mux.HandleFunc("POST /sandbox/clear", s.handleSandboxClear)

	// Orders
	mux.HandleFunc("GET /orders", s.handleListOrders)
	mux.HandleFunc("POST /orders/market-order", s.handleMarketOrder)
	mux.HandleFunc("POST /orders/limit-order", s.notImplemented)
	mux.HandleFunc("POST /orders/cancel", s.notImplemented)

	// Portfolio
	mux.HandleFunc("GET /portfolio", s.handlePortfolio)
	mux.HandleFunc("GET /portfolio/currencies", s.handleCurrencies)
	mux.HandleFunc("GET /operations", s.handleOperations)

	// Market data
	mux.HandleFunc("GET /market/stocks", s.handleStocks)
	mux.HandleFunc("GET /market/bonds", s.handleBonds)
	mux.HandleFunc("GET /market/etfs", s.handleEtfs)
	mux.HandleFunc("GET /market/currencies", s.handleCurrencyInstruments)
	mux.HandleFunc("GET /market/orderbook", s.notImplemented)
	mux.HandleFunc("GET /market/candles", s.handleCandles)
	mux.HandleFunc("GET /market/search/by-figi", s.handleSearchByFigi)
	mux.HandleFunc("GET /market/search/by-ticker", s.handleSearchByTicker)

	// User
	mux.HandleFunc("GET /user/accounts", s.handleAccounts)

	// Streaming. The second path matches the upstream streaming endpoint so
	// unmodified clients can connect.
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /openapi/md/v1/md-openapi/ws", s.handleWS)

	return mux
}

// Handler exposes the route table; used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": s.httpSrv.Addr})
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	s.logger.Info(context.Background(), "HTTP server stopped")
	return nil
}
