package domain

// OrderSide is the direction of a market order.
type OrderSide string

const (
	Buy  OrderSide = "Buy"
	Sell OrderSide = "Sell"
)

// OrderStatus for this simulator is always a terminal fill: execution is
// synchronous and there are no partial fills.
const OrderStatusFill = "Fill"

// MarketOrderRequest is the ephemeral client request to trade at the current
// simulated price. It is never stored.
type MarketOrderRequest struct {
	FIGI      string    `json:"figi"`
	Lots      int       `json:"lots"`
	Operation OrderSide `json:"operation"`
}

// PlacedOrder is the execution report returned to the client. The order id
// sequence is independent from the operation id sequence.
type PlacedOrder struct {
	OrderID       string    `json:"orderId"`
	Operation     OrderSide `json:"operation"`
	Status        string    `json:"status"`
	RequestedLots int       `json:"requestedLots"`
	ExecutedLots  int       `json:"executedLots"`
}
