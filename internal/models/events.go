package models

import "time"

// OrderEvent is the integration event published to Kafka on order lifecycle
// changes. Consumers must not treat it as authoritative entitlement state;
// the ledger is.
type OrderEvent struct {
	Type        string    `json:"type"` // e.g. "order.created", "order.paid"
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	AssetIDs    []string  `json:"asset_ids,omitempty"`
	TotalAmount float64   `json:"total_amount"`
	Timestamp   time.Time `json:"timestamp"`
}
