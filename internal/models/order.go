package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusPaid    OrderStatus = "PAID"
)

// Order is the entitlement record for one purchase attempt. TotalAmount is a
// snapshot of the asset price at checkout time, not a live reference.
// Status only ever moves PENDING -> PAID, and only via the webhook path.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              string      `bun:"id,pk" json:"id"`
	UserID          string      `bun:"user_id,notnull" json:"user_id"`
	TotalAmount     float64     `bun:"total_amount,notnull" json:"total_amount"`
	Status          OrderStatus `bun:"status,notnull" json:"status"`
	StripeSessionID string      `bun:"stripe_session_id,nullzero" json:"stripe_session_id,omitempty"`
	CreatedAt       time.Time   `bun:"created_at,notnull" json:"created_at"`
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID      string `bun:"id,pk" json:"id"`
	OrderID string `bun:"order_id,notnull" json:"order_id"`
	AssetID string `bun:"asset_id,notnull" json:"asset_id"`
}

type OrderItemWithAsset struct {
	OrderItem
	Asset *Asset `json:"asset,omitempty"`
}

type OrderWithItems struct {
	Order
	Items []OrderItemWithAsset `json:"items"`
}

type CheckoutRequest struct {
	AssetID string `json:"asset_id"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}
