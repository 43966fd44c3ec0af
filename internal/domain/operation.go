package domain

import "time"

// OperationStatus is the lifecycle state of an operation record. Execution is
// synchronous, so every recorded operation is already terminal.
type OperationStatus string

const OperationDone OperationStatus = "Done"

// Operation is one append-only ledger log entry. Records are never mutated
// after creation; ids are sequential and strictly increasing.
type Operation struct {
	ID             string          `json:"id"`
	Status         OperationStatus `json:"status"`
	OperationType  OrderSide       `json:"operationType"`
	Date           time.Time       `json:"date"` // Time of the candle the order executed against
	IsMarginCall   bool            `json:"isMarginCall"`
	InstrumentType InstrumentType  `json:"instrumentType"`
	FIGI           string          `json:"figi"`
	Quantity       int             `json:"quantity"`
	Price          float64         `json:"price"`
	Payment        float64         `json:"payment"` // Signed: positive on sell, negative on buy
	Currency       string          `json:"currency"`
}
