package storage_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Foullane-Mohamed/ProSets/internal/logger"
	"github.com/Foullane-Mohamed/ProSets/internal/models"
	"github.com/Foullane-Mohamed/ProSets/internal/utils"
)

type UploadSigner interface {
	UploadURL(ctx context.Context, key, contentType string) (string, error)
}

type Handler struct {
	Storage UploadSigner
	Logger  *logger.Logger
}

// GetUploadURL issues a presigned upload URL for the asset-creation flow.
func (h *Handler) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	var req models.UploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetUploadURL: failed to decode request: %v", err))
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	if req.Key == "" || req.ContentType == "" {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", "key and content_type are required"))
		return
	}

	url, err := h.Storage.UploadURL(r.Context(), req.Key, req.ContentType)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetUploadURL: failed to presign: %v", err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to issue upload URL", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Upload URL issued", models.UploadURLResponse{URL: url}))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
