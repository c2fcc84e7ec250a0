package order_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Foullane-Mohamed/ProSets/internal/auth"
	"github.com/Foullane-Mohamed/ProSets/internal/models"
	"github.com/Foullane-Mohamed/ProSets/internal/order"
)

// CreateCheckout starts a hosted checkout for one asset and returns the
// redirect URL.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateCheckout: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.AssetID == "" {
		http.Error(w, "asset_id is required", http.StatusBadRequest)
		return
	}

	resp, err := h.OrderService.CreateCheckoutSession(req.AssetID, userID)
	if err != nil {
		if errors.Is(err, models.ErrAssetNotFound) {
			http.Error(w, "Asset not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CreateCheckout: %v", err))
		http.Error(w, "Failed to create checkout session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateCheckout: failed to encode response: %v", err))
	}
}

// StripeWebhook handles webhook events from Stripe
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "StripeWebhook: received webhook event")

	err := h.OrderService.HandleStripeWebhook(r)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: failed to process webhook: %v", err))

		var webhookErr *order.WebhookError
		if errors.As(err, &webhookErr) {
			h.Logger.Info("API", fmt.Sprintf("StripeWebhook: webhook error category=%s, status=%d",
				webhookErr.Category, webhookErr.StatusCode))
			http.Error(w, webhookErr.PublicError, webhookErr.StatusCode)
			return
		}

		http.Error(w, "Webhook processing error", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
}
