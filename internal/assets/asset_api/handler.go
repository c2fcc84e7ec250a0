package asset_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Foullane-Mohamed/ProSets/internal/assets/service"
	"github.com/Foullane-Mohamed/ProSets/internal/auth"
	"github.com/Foullane-Mohamed/ProSets/internal/logger"
	"github.com/Foullane-Mohamed/ProSets/internal/models"
)

type Handler struct {
	AssetService *service.AssetService
	Logger       *logger.Logger
}

func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateAsset: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Title == "" || req.FileKey == "" {
		http.Error(w, "title and file_key are required", http.StatusBadRequest)
		return
	}
	if req.Price < 0 {
		http.Error(w, "price must be non-negative", http.StatusBadRequest)
		return
	}

	asset, err := h.AssetService.CreateAsset(req, userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateAsset: %v", err))
		http.Error(w, "Could not create asset", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(asset)
}

// ListAssets is public: only PUBLISHED listings are returned.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.AssetService.ListPublished()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListAssets: %v", err))
		http.Error(w, "Could not list assets", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(assets)
}

func (h *Handler) ListMyAssets(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	assets, err := h.AssetService.ListBySeller(userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMyAssets: %v", err))
		http.Error(w, "Could not list assets", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(assets)
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetId")

	asset, err := h.AssetService.GetAsset(assetID)
	if err != nil {
		if errors.Is(err, models.ErrAssetNotFound) {
			http.Error(w, "Asset not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("GetAsset: %v", err))
		http.Error(w, "Could not fetch asset", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(asset)
}

func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetId")
	userID := auth.UserID(r.Context())

	var req models.UpdateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	asset, err := h.AssetService.UpdateAsset(assetID, req, userID)
	if err != nil {
		h.writeAssetError(w, "UpdateAsset", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(asset)
}

func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetId")
	userID := auth.UserID(r.Context())

	if err := h.AssetService.DeleteAsset(assetID, userID); err != nil {
		h.writeAssetError(w, "DeleteAsset", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DownloadAsset gates access to the asset's file. The 403 body never includes
// the storage key.
func (h *Handler) DownloadAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetId")
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	url, err := h.AssetService.DownloadURL(r.Context(), assetID, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotEntitled) {
			http.Error(w, "You must purchase this asset to download it", http.StatusForbidden)
			return
		}
		h.writeAssetError(w, "DownloadAsset", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(models.DownloadResponse{URL: url})
}

func (h *Handler) writeAssetError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, models.ErrAssetNotFound):
		http.Error(w, "Asset not found", http.StatusNotFound)
	case errors.Is(err, models.ErrNotOwner):
		http.Error(w, "You can only modify your own assets", http.StatusForbidden)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
