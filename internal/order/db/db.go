package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/Foullane-Mohamed/ProSets/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// CreateOrder → insert a new order and its items in one transaction.
func (d *DB) CreateOrder(order models.Order, items []models.OrderItem) error {
	ctx := context.Background()
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&order).Exec(ctx); err != nil {
			return err
		}
		if len(items) > 0 {
			if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetOrderByID → fetch one order by its ID
func (d *DB) GetOrderByID(id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderForUser → fetch one order scoped to its owning buyer, with items.
func (d *DB) GetOrderForUser(id, userID string) (*models.OrderWithItems, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	withItems, err := d.attachItems([]models.Order{order})
	if err != nil {
		return nil, err
	}
	return &withItems[0], nil
}

// GetOrdersByUser → all of a buyer's orders with items and assets, newest
// first.
func (d *DB) GetOrdersByUser(userID string) ([]models.OrderWithItems, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return []models.OrderWithItems{}, nil
	}

	return d.attachItems(orders)
}

// SetStripeSession → link the external checkout session onto the order.
// Best-effort metadata: the webhook path never reads this column.
func (d *DB) SetStripeSession(orderID, sessionID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("stripe_session_id = ?", sessionID).
		Where("id = ?", orderID).
		Exec(context.Background())
	return err
}

// MarkOrderPaid → set status PAID. The write is unconditional on the current
// status, which makes provider retries idempotent; a missing order is
// reported so integration bugs surface instead of being acked away.
func (d *DB) MarkOrderPaid(orderID string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", models.OrderStatusPaid).
		Where("id = ?", orderID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return models.ErrOrderNotFound
	}
	return nil
}

// HasPaidOrderForAsset → true when the user holds at least one PAID order
// containing the asset. Existence query, not a cached flag.
func (d *DB) HasPaidOrderForAsset(userID, assetID string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Order)(nil)).
		Join("JOIN order_items AS oi ON oi.order_id = \"order\".id").
		Where("\"order\".user_id = ?", userID).
		Where("\"order\".status = ?", models.OrderStatusPaid).
		Where("oi.asset_id = ?", assetID).
		Exists(context.Background())
}

// GetItemsByOrder → fetch all items linked to an order
func (d *DB) GetItemsByOrder(orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := d.Bun.NewSelect().
		Model(&items).
		Where("order_id = ?", orderID).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return items, nil
}

// attachItems loads items and their assets for a batch of orders and groups
// them per order.
func (d *DB) attachItems(orders []models.Order) ([]models.OrderWithItems, error) {
	orderIDs := make([]string, len(orders))
	for i, order := range orders {
		orderIDs[i] = order.ID
	}

	var items []models.OrderItem
	err := d.Bun.NewSelect().
		Model(&items).
		Where("order_id IN (?)", bun.In(orderIDs)).
		Order("order_id").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}

	assetIDs := make([]string, 0, len(items))
	for _, item := range items {
		assetIDs = append(assetIDs, item.AssetID)
	}

	assetsByID := make(map[string]*models.Asset, len(assetIDs))
	if len(assetIDs) > 0 {
		var assets []models.Asset
		err = d.Bun.NewSelect().
			Model(&assets).
			Where("id IN (?)", bun.In(assetIDs)).
			Scan(context.Background())
		if err != nil {
			return nil, err
		}
		for i := range assets {
			assetsByID[assets[i].ID] = &assets[i]
		}
	}

	itemsByOrder := make(map[string][]models.OrderItemWithAsset)
	for _, item := range items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], models.OrderItemWithAsset{
			OrderItem: item,
			Asset:     assetsByID[item.AssetID],
		})
	}

	result := make([]models.OrderWithItems, len(orders))
	for i, order := range orders {
		result[i] = models.OrderWithItems{
			Order: order,
			Items: itemsByOrder[order.ID],
		}
		if result[i].Items == nil {
			result[i].Items = []models.OrderItemWithAsset{}
		}
	}
	return result, nil
}
