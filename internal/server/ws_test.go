package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investSandbox/internal/adapters/catalog"
	"investSandbox/internal/domain"
	"investSandbox/internal/sim"
)

func dialTestServer(t *testing.T) (*websocket.Conn, *sim.SubscriptionRegistry, *sim.Dispatcher, *Hub) {
	t.Helper()
	logger := &mockLogger{}
	cat := catalog.NewFromInstruments(testInstruments())
	engine, err := sim.NewEngine(sim.EngineConfig{
		SeedBalances: seedBalances,
		Catalog:      cat,
		Logger:       logger,
	})
	require.NoError(t, err)

	registry := sim.NewSubscriptionRegistry()
	hub := NewHub(logger)
	srv, err := New(Config{
		Host:         "127.0.0.1",
		SeedBalances: seedBalances,
		Logger:       logger,
		Catalog:      cat,
		Engine:       engine,
		Registry:     registry,
		Hub:          hub,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn, registry, sim.NewDispatcher(registry, hub, logger), hub
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestWebSocketSubscribeAndReceive(t *testing.T) {
	conn, registry, dispatcher, hub := dialTestServer(t)

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"candle:subscribe","figi":"BBG000000000","interval":"hour"}`)))
	waitFor(t, func() bool { return len(registry.Snapshot()) == 1 })

	candle := domain.Candle{
		FIGI:     "BBG000000000",
		Interval: domain.IntervalHour,
		Time:     time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC),
		Close:    123.45,
	}
	dispatcher.Broadcast(context.Background(), map[string]domain.Candle{candle.FIGI: candle})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev sim.StreamEvent
	require.NoError(t, sonic.Unmarshal(raw, &ev))
	assert.Equal(t, sim.EventCandle, ev.Event)
	assert.Equal(t, "BBG000000000", ev.Payload.FIGI)
	assert.Equal(t, 123.45, ev.Payload.Close)
}

func TestWebSocketUnsubscribeStopsDelivery(t *testing.T) {
	conn, registry, dispatcher, hub := dialTestServer(t)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"candle:subscribe","figi":"BBG000000000","interval":"hour"}`)))
	waitFor(t, func() bool { return len(registry.Snapshot()) == 1 })

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"candle:unsubscribe","figi":"BBG000000000","interval":"hour"}`)))
	waitFor(t, func() bool { return len(registry.Snapshot()) == 0 })

	candle := domain.Candle{FIGI: "BBG000000000", Close: 1, Time: time.Now().UTC()}
	dispatcher.Broadcast(context.Background(), map[string]domain.Candle{candle.FIGI: candle})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "no event expected after unsubscribe")
}

func TestWebSocketDisconnectDropsSubscriptions(t *testing.T) {
	conn, registry, _, hub := dialTestServer(t)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"candle:subscribe","figi":"BBG000000000","interval":"hour"}`)))
	waitFor(t, func() bool { return len(registry.Snapshot()) == 1 })

	conn.Close()

	waitFor(t, func() bool { return hub.ClientCount() == 0 && len(registry.Snapshot()) == 0 })
}

func TestWebSocketIgnoresMalformedFrames(t *testing.T) {
	conn, registry, _, hub := dialTestServer(t)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"candle:subscribe","figi":"BBG000000000","interval":"hour"}`)))

	// The connection survives the garbage and the good frame lands.
	waitFor(t, func() bool { return len(registry.Snapshot()) == 1 })
	assert.Equal(t, 1, hub.ClientCount())
}
