package asset_api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/Foullane-Mohamed/ProSets/internal/assets/asset_api"
	"github.com/Foullane-Mohamed/ProSets/internal/assets/service"
	"github.com/Foullane-Mohamed/ProSets/internal/auth"
	"github.com/Foullane-Mohamed/ProSets/internal/logger"
	"github.com/Foullane-Mohamed/ProSets/internal/models"
)

// stubAssetDB is an in-memory service.DBLayer.
type stubAssetDB struct {
	assets map[string]*models.Asset
}

func newStubAssetDB(assets ...*models.Asset) *stubAssetDB {
	db := &stubAssetDB{assets: make(map[string]*models.Asset)}
	for _, a := range assets {
		db.assets[a.ID] = a
	}
	return db
}

func (s *stubAssetDB) CreateAsset(asset models.Asset) error {
	s.assets[asset.ID] = &asset
	return nil
}

func (s *stubAssetDB) GetAssetByID(id string) (*models.Asset, error) {
	if a, ok := s.assets[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, models.ErrAssetNotFound
}

func (s *stubAssetDB) ListPublished() ([]models.Asset, error) {
	result := []models.Asset{}
	for _, a := range s.assets {
		if a.Status == models.AssetStatusPublished {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (s *stubAssetDB) ListBySeller(sellerID string) ([]models.Asset, error) {
	result := []models.Asset{}
	for _, a := range s.assets {
		if a.SellerID == sellerID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (s *stubAssetDB) UpdateAsset(asset models.Asset) error {
	if _, ok := s.assets[asset.ID]; !ok {
		return models.ErrAssetNotFound
	}
	s.assets[asset.ID] = &asset
	return nil
}

func (s *stubAssetDB) DeleteAsset(id string) error {
	if _, ok := s.assets[id]; !ok {
		return models.ErrAssetNotFound
	}
	delete(s.assets, id)
	return nil
}

type stubEntitlements struct {
	paid map[string]bool // userID + "/" + assetID
}

func (s *stubEntitlements) HasPurchased(userID, assetID string) (bool, error) {
	return s.paid[userID+"/"+assetID], nil
}

type stubSigner struct{}

func (stubSigner) DownloadURL(ctx context.Context, key string) (string, error) {
	return "https://bucket.s3.amazonaws.com/" + key + "?sig=test", nil
}

type noCache struct{}

func (noCache) GetPublished(ctx context.Context) ([]models.Asset, bool) { return nil, false }
func (noCache) SetPublished(ctx context.Context, assets []models.Asset) {}
func (noCache) Invalidate(ctx context.Context)                          {}

func newTestHandler(db *stubAssetDB, orders *stubEntitlements) *asset_api.Handler {
	svc := service.NewAssetService(db, orders, stubSigner{}, noCache{}, logger.NewLogger())
	return &asset_api.Handler{AssetService: svc, Logger: logger.NewLogger()}
}

func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// ---------------- Download gate ----------------

func TestDownloadAssetUnauthorized(t *testing.T) {
	h := newTestHandler(newStubAssetDB(), &stubEntitlements{})

	req := httptest.NewRequest("GET", "/api/assets/asset-1/download", nil)
	req = withChiParam(req, "assetId", "asset-1")
	rec := httptest.NewRecorder()

	h.DownloadAsset(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDownloadAssetForbiddenWithoutPurchase(t *testing.T) {
	asset := &models.Asset{ID: "asset-1", FileKey: "files/secret.zip", SellerID: "seller-1", Status: models.AssetStatusPublished}
	h := newTestHandler(newStubAssetDB(asset), &stubEntitlements{paid: map[string]bool{}})

	req := httptest.NewRequest("GET", "/api/assets/asset-1/download", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "stranger"))
	req = withChiParam(req, "assetId", "asset-1")
	rec := httptest.NewRecorder()

	h.DownloadAsset(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	// The refusal must not leak the storage key.
	assert.NotContains(t, rec.Body.String(), "secret.zip")
}

func TestDownloadAssetByBuyer(t *testing.T) {
	asset := &models.Asset{ID: "asset-1", FileKey: "files/kit.zip", SellerID: "seller-1", Status: models.AssetStatusPublished}
	orders := &stubEntitlements{paid: map[string]bool{"buyer-1/asset-1": true}}
	h := newTestHandler(newStubAssetDB(asset), orders)

	req := httptest.NewRequest("GET", "/api/assets/asset-1/download", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "buyer-1"))
	req = withChiParam(req, "assetId", "asset-1")
	rec := httptest.NewRecorder()

	h.DownloadAsset(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.DownloadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	assert.Contains(t, resp.URL, "files/kit.zip")
}

func TestDownloadAssetBySeller(t *testing.T) {
	asset := &models.Asset{ID: "asset-1", FileKey: "files/kit.zip", SellerID: "seller-1", Status: models.AssetStatusDraft}
	h := newTestHandler(newStubAssetDB(asset), &stubEntitlements{})

	req := httptest.NewRequest("GET", "/api/assets/asset-1/download", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "seller-1"))
	req = withChiParam(req, "assetId", "asset-1")
	rec := httptest.NewRecorder()

	h.DownloadAsset(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDownloadAssetNotFound(t *testing.T) {
	h := newTestHandler(newStubAssetDB(), &stubEntitlements{})

	req := httptest.NewRequest("GET", "/api/assets/missing/download", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "buyer-1"))
	req = withChiParam(req, "assetId", "missing")
	rec := httptest.NewRecorder()

	h.DownloadAsset(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---------------- Listings ----------------

func TestCreateAssetValidation(t *testing.T) {
	h := newTestHandler(newStubAssetDB(), &stubEntitlements{})

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing title", `{"file_key":"files/kit.zip","price":5}`, http.StatusBadRequest},
		{"missing file key", `{"title":"UI Kit","price":5}`, http.StatusBadRequest},
		{"negative price", `{"title":"UI Kit","file_key":"files/kit.zip","price":-1}`, http.StatusBadRequest},
		{"valid", `{"title":"UI Kit","file_key":"files/kit.zip","price":5}`, http.StatusCreated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/assets", strings.NewReader(tc.body))
			req = req.WithContext(auth.WithUserID(req.Context(), "seller-1"))
			rec := httptest.NewRecorder()

			h.CreateAsset(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCreateAssetNeverEchoesFileKey(t *testing.T) {
	h := newTestHandler(newStubAssetDB(), &stubEntitlements{})

	req := httptest.NewRequest("POST", "/api/assets", strings.NewReader(`{"title":"UI Kit","file_key":"files/hidden.zip","price":5}`))
	req = req.WithContext(auth.WithUserID(req.Context(), "seller-1"))
	rec := httptest.NewRecorder()

	h.CreateAsset(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hidden.zip")
}

func TestListAssetsOnlyPublished(t *testing.T) {
	db := newStubAssetDB(
		&models.Asset{ID: "asset-1", Title: "Published", Status: models.AssetStatusPublished, SellerID: "seller-1"},
		&models.Asset{ID: "asset-2", Title: "Draft", Status: models.AssetStatusDraft, SellerID: "seller-1"},
	)
	h := newTestHandler(db, &stubEntitlements{})

	req := httptest.NewRequest("GET", "/api/assets", nil)
	rec := httptest.NewRecorder()

	h.ListAssets(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var assets []models.Asset
	if err := json.Unmarshal(rec.Body.Bytes(), &assets); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	assert.Len(t, assets, 1)
	assert.Equal(t, "Published", assets[0].Title)
}

func TestUpdateAssetForbiddenForNonOwner(t *testing.T) {
	asset := &models.Asset{ID: "asset-1", Title: "UI Kit", SellerID: "seller-1"}
	h := newTestHandler(newStubAssetDB(asset), &stubEntitlements{})

	req := httptest.NewRequest("PATCH", "/api/assets/asset-1", strings.NewReader(`{"title":"Hijacked"}`))
	req = req.WithContext(auth.WithUserID(req.Context(), "stranger"))
	req = withChiParam(req, "assetId", "asset-1")
	rec := httptest.NewRecorder()

	h.UpdateAsset(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteAssetByOwner(t *testing.T) {
	asset := &models.Asset{ID: "asset-1", SellerID: "seller-1"}
	db := newStubAssetDB(asset)
	h := newTestHandler(db, &stubEntitlements{})

	req := httptest.NewRequest("DELETE", "/api/assets/asset-1", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "seller-1"))
	req = withChiParam(req, "assetId", "asset-1")
	rec := httptest.NewRecorder()

	h.DeleteAsset(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, db.assets)
}
