package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/Foullane-Mohamed/ProSets/internal/models"
)

// InitStripe initializes the Stripe API with the secret key
func InitStripe() {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
}

// SessionCreator creates a hosted checkout session with the provider.
type SessionCreator func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

func stripeCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

// amountInCents converts a decimal price to Stripe minor units, rounding half
// away from zero so a price is never silently truncated down.
func amountInCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateCheckoutSession prices a checkout against the asset's current
// listing, records a PENDING order with one item, and returns the provider's
// hosted checkout URL. The price is snapshotted here; later asset edits do
// not affect this order. The PENDING order is written before the provider is
// called, so a session never exists without a local record; a provider
// failure leaves the PENDING row behind rather than rolling it back.
func (s *OrderService) CreateCheckoutSession(assetID, userID string) (*models.CheckoutResponse, error) {
	asset, err := s.Assets.GetAssetByID(assetID)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		TotalAmount: asset.Price,
		Status:      models.OrderStatusPending,
		CreatedAt:   time.Now(),
	}
	item := models.OrderItem{
		ID:      uuid.NewString(),
		OrderID: order.ID,
		AssetID: asset.ID,
	}

	if err := s.DB.CreateOrder(order, []models.OrderItem{item}); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.logger.LogOrder("CREATED", order.ID, fmt.Sprintf("Pending order for asset %s by user %s", assetID, userID))

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}

	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(asset.Title),
	}
	if asset.Description != "" {
		productData.Description = stripe.String(asset.Description)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String("usd"),
					ProductData: productData,
					UnitAmount:  stripe.Int64(amountInCents(asset.Price)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(frontendURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(frontendURL + "/cancel"),
	}
	params.AddMetadata("userId", userID)
	params.AddMetadata("assetId", assetID)
	params.AddMetadata("orderId", order.ID)

	sess, err := s.CreateSession(params)
	if err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to create checkout session for order %s: %v", order.ID, err))
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	// Link the session id onto the order. The webhook correlates by the
	// orderId metadata, so a failure here is logged, not fatal.
	if err := s.DB.SetStripeSession(order.ID, sess.ID); err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to link session %s to order %s: %v", sess.ID, order.ID, err))
	}

	if err := s.Kafka.PublishOrderCreated(order, []string{asset.ID}); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish order.created for %s: %v", order.ID, err))
	}

	s.logger.Info("PAYMENT", fmt.Sprintf("Created checkout session %s for order %s (USD %.2f)", sess.ID, order.ID, asset.Price))
	return &models.CheckoutResponse{URL: sess.URL}, nil
}

// WebhookError represents an error that occurred during webhook processing
type WebhookError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int    // HTTP status code
	PublicError   string // Safe to expose to clients
	InternalError string // Detailed error for logs only
	OriginalErr   error  // Underlying error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}

// HandleStripeWebhook processes inbound Stripe notifications. Signature
// failure and a missing webhook secret are the only rejections that matter;
// event kinds this service does not act on are acknowledged so Stripe does
// not retry them forever.
func (s *OrderService) HandleStripeWebhook(r *http.Request) error {
	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if webhookSecret == "" {
		s.logger.Error("WEBHOOK", "Stripe webhook secret is not configured")
		return &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "Stripe webhook secret is not configured",
		}
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to read webhook payload: %v", err))
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook payload",
			InternalError: fmt.Sprintf("Failed to read webhook payload: %v", err),
			OriginalErr:   err,
		}
	}

	opts := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), webhookSecret, opts)
	if err != nil {
		s.logger.Error("WEBHOOK", fmt.Sprintf("Webhook signature verification failed: %v", err))
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Webhook signature verification failed",
			InternalError: fmt.Sprintf("Webhook signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}

	s.logger.Info("WEBHOOK", fmt.Sprintf("Processing Stripe webhook event: %s", event.Type))

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to unmarshal checkout session: %v", err))
			return &WebhookError{
				Category:      "processing",
				StatusCode:    http.StatusBadRequest,
				PublicError:   "Invalid event data",
				InternalError: fmt.Sprintf("Failed to unmarshal checkout session: %v", err),
				OriginalErr:   err,
			}
		}

		orderID, exists := sess.Metadata["orderId"]
		if !exists || orderID == "" {
			s.logger.Error("WEBHOOK", "Checkout session has no orderId in metadata")
			return &WebhookError{
				Category:      "processing",
				StatusCode:    http.StatusBadRequest,
				PublicError:   "Invalid checkout session data",
				InternalError: "Checkout session has no orderId in metadata",
			}
		}

		if err := s.MarkOrderPaid(orderID); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, models.ErrOrderNotFound) {
				// Fail loud: a completed session pointing at an order we do
				// not have means the metadata round-trip is broken.
				s.logger.Error("WEBHOOK", fmt.Sprintf("Completed session %s references unknown order %s", sess.ID, orderID))
			}
			return &WebhookError{
				Category:      "processing",
				StatusCode:    status,
				PublicError:   "Failed to process payment confirmation",
				InternalError: fmt.Sprintf("Failed to mark order %s paid: %v", orderID, err),
				OriginalErr:   err,
			}
		}

		s.logger.Info("WEBHOOK", fmt.Sprintf("Successfully processed payment for order %s", orderID))

	default:
		// Acknowledge without side effects; Stripe must see a 2xx for every
		// event kind or it retries and eventually disables the endpoint.
		s.logger.Info("WEBHOOK", fmt.Sprintf("Unhandled event type: %s", event.Type))
	}

	return nil
}
