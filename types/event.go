package types

import "time"

// StockEvent is published to the message broker after every quantity
// change or product creation.
type StockEvent struct {
	ID             string    `json:"id"`
	ProductID      int       `json:"product_id"`
	Code           *string   `json:"code,omitempty"`
	ProductName    string    `json:"product_name"`
	Action         LogAction `json:"action"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	OccurredAt     time.Time `json:"occurred_at"`
}
