package sim

import (
	"context"
	"time"

	"investSandbox/internal/domain"
	"investSandbox/internal/ports"
)

// Stream protocol events.
const (
	EventCandle      = "candle"
	EventSubscribe   = "candle:subscribe"
	EventUnsubscribe = "candle:unsubscribe"
)

// StreamEvent is one message pushed to a subscribed connection.
type StreamEvent struct {
	Event   string        `json:"event"`
	Time    time.Time     `json:"time"`
	Payload domain.Candle `json:"payload"`
}

// Sink delivers an event to a single connection. Send must not block; it
// reports whether the event was accepted. A failed send to one connection
// never affects delivery to others.
type Sink interface {
	Send(id ConnID, ev StreamEvent) bool
}

// Dispatcher fans the current-price view out to subscribed connections once
// per tick, after the clock has advanced. There is no de-duplication: while
// the clock is stalled at end-of-data, the same candle is resent every tick.
type Dispatcher struct {
	registry *SubscriptionRegistry
	sink     Sink
	logger   ports.Logger
}

// NewDispatcher creates a dispatcher over a registry and a delivery sink.
func NewDispatcher(registry *SubscriptionRegistry, sink Sink, logger ports.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, sink: sink, logger: logger}
}

// Broadcast pushes the view to every matching subscription. Delivery is
// best-effort; rejected sends are counted and logged, not retried.
func (d *Dispatcher) Broadcast(ctx context.Context, view map[string]domain.Candle) {
	dropped := 0
	for id, subs := range d.registry.Snapshot() {
		for _, sub := range subs {
			candle, ok := view[sub.FIGI]
			if !ok {
				continue
			}
			ev := StreamEvent{Event: EventCandle, Time: candle.Time, Payload: candle}
			if !d.sink.Send(id, ev) {
				dropped++
			}
		}
	}
	if dropped > 0 {
		d.logger.Debug(ctx, "dropped candle pushes", map[string]interface{}{"count": dropped})
	}
}
