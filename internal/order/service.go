package order

import (
	"fmt"

	"github.com/Foullane-Mohamed/ProSets/internal/logger"
	"github.com/Foullane-Mohamed/ProSets/internal/models"
)

type DBLayer interface {
	CreateOrder(order models.Order, items []models.OrderItem) error
	GetOrderByID(id string) (*models.Order, error)
	GetOrderForUser(id, userID string) (*models.OrderWithItems, error)
	GetOrdersByUser(userID string) ([]models.OrderWithItems, error)
	SetStripeSession(orderID, sessionID string) error
	MarkOrderPaid(orderID string) error
	HasPaidOrderForAsset(userID, assetID string) (bool, error)
	GetItemsByOrder(orderID string) ([]models.OrderItem, error)
}

// AssetDirectory is the read-side of the asset listing the pipeline prices
// checkouts against.
type AssetDirectory interface {
	GetAssetByID(id string) (*models.Asset, error)
}

type KafkaPublisher interface {
	PublishOrderCreated(order models.Order, assetIDs []string) error
	PublishOrderPaid(order models.Order, assetIDs []string) error
}

// OrderService owns the entitlement ledger: checkout creation, payment
// confirmation and entitlement queries all go through it.
type OrderService struct {
	DB     DBLayer
	Assets AssetDirectory
	Kafka  KafkaPublisher
	logger *logger.Logger

	// CreateSession points at the Stripe API by default; tests swap it out.
	CreateSession SessionCreator
}

func NewOrderService(db DBLayer, assets AssetDirectory, kafka KafkaPublisher, log *logger.Logger) *OrderService {
	return &OrderService{
		DB:            db,
		Assets:        assets,
		Kafka:         kafka,
		logger:        log,
		CreateSession: stripeCheckoutSession,
	}
}

// ---------------- ORDERS ----------------

func (s *OrderService) GetOrder(id, userID string) (*models.OrderWithItems, error) {
	return s.DB.GetOrderForUser(id, userID)
}

func (s *OrderService) ListUserOrders(userID string) ([]models.OrderWithItems, error) {
	return s.DB.GetOrdersByUser(userID)
}

// HasPurchased reports whether the user holds a PAID order containing the
// asset. Used by the download gate.
func (s *OrderService) HasPurchased(userID, assetID string) (bool, error) {
	return s.DB.HasPaidOrderForAsset(userID, assetID)
}

// MarkOrderPaid applies the PENDING -> PAID transition. Re-applying it to an
// already PAID order is a no-op in effect, so webhook retries are safe. A
// missing order is an error: acking it silently would mask integration bugs
// between metadata encoding and decoding.
func (s *OrderService) MarkOrderPaid(orderID string) error {
	if err := s.DB.MarkOrderPaid(orderID); err != nil {
		return fmt.Errorf("failed to mark order %s paid: %w", orderID, err)
	}
	s.logger.LogOrder("PAID", orderID, "Order marked as paid")

	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		s.logger.Error("ORDER", fmt.Sprintf("Failed to load order %s for paid event: %v", orderID, err))
		return nil
	}

	assetIDs, err := s.orderAssetIDs(orderID)
	if err != nil {
		s.logger.Error("ORDER", fmt.Sprintf("Failed to load items of order %s for paid event: %v", orderID, err))
	}

	if err := s.Kafka.PublishOrderPaid(*order, assetIDs); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish order.paid for %s: %v", orderID, err))
	}

	return nil
}

func (s *OrderService) orderAssetIDs(orderID string) ([]string, error) {
	items, err := s.DB.GetItemsByOrder(orderID)
	if err != nil {
		return nil, err
	}
	assetIDs := make([]string, len(items))
	for i, item := range items {
		assetIDs[i] = item.AssetID
	}
	return assetIDs, nil
}
