package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Foullane-Mohamed/ProSets/internal/logger"
	"github.com/Foullane-Mohamed/ProSets/internal/models"
)

type DBLayer interface {
	CreateAsset(asset models.Asset) error
	GetAssetByID(id string) (*models.Asset, error)
	ListPublished() ([]models.Asset, error)
	ListBySeller(sellerID string) ([]models.Asset, error)
	UpdateAsset(asset models.Asset) error
	DeleteAsset(id string) error
}

// Entitlements answers whether a user holds a PAID order containing an asset.
// Queried fresh on every download request, never cached.
type Entitlements interface {
	HasPurchased(userID, assetID string) (bool, error)
}

type URLSigner interface {
	DownloadURL(ctx context.Context, key string) (string, error)
}

type ListingCache interface {
	GetPublished(ctx context.Context) ([]models.Asset, bool)
	SetPublished(ctx context.Context, assets []models.Asset)
	Invalidate(ctx context.Context)
}

type AssetService struct {
	DB      DBLayer
	Orders  Entitlements
	Storage URLSigner
	Cache   ListingCache
	logger  *logger.Logger
}

func NewAssetService(db DBLayer, orders Entitlements, storage URLSigner, cache ListingCache, log *logger.Logger) *AssetService {
	return &AssetService{
		DB:      db,
		Orders:  orders,
		Storage: storage,
		Cache:   cache,
		logger:  log,
	}
}

func (s *AssetService) CreateAsset(req models.CreateAssetRequest, sellerID string) (*models.Asset, error) {
	status := req.Status
	if status == "" {
		status = models.AssetStatusDraft
	}

	asset := models.Asset{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		FileKey:     req.FileKey,
		PreviewKey:  req.PreviewKey,
		Status:      status,
		SellerID:    sellerID,
		CreatedAt:   time.Now(),
	}

	if err := s.DB.CreateAsset(asset); err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}

	s.Cache.Invalidate(context.Background())
	s.logger.Info("ASSET", fmt.Sprintf("Created asset %s for seller %s", asset.ID, sellerID))
	return &asset, nil
}

// ListPublished serves the public listing, through the Redis cache when warm.
func (s *AssetService) ListPublished() ([]models.Asset, error) {
	ctx := context.Background()
	if assets, ok := s.Cache.GetPublished(ctx); ok {
		return assets, nil
	}

	assets, err := s.DB.ListPublished()
	if err != nil {
		return nil, err
	}

	s.Cache.SetPublished(ctx, assets)
	return assets, nil
}

func (s *AssetService) GetAsset(id string) (*models.Asset, error) {
	return s.DB.GetAssetByID(id)
}

func (s *AssetService) ListBySeller(sellerID string) ([]models.Asset, error) {
	return s.DB.ListBySeller(sellerID)
}

func (s *AssetService) UpdateAsset(id string, req models.UpdateAssetRequest, userID string) (*models.Asset, error) {
	asset, err := s.DB.GetAssetByID(id)
	if err != nil {
		return nil, err
	}

	if asset.SellerID != userID {
		return nil, models.ErrNotOwner
	}

	if req.Title != nil {
		asset.Title = *req.Title
	}
	if req.Description != nil {
		asset.Description = *req.Description
	}
	if req.Price != nil {
		asset.Price = *req.Price
	}
	if req.Status != nil {
		asset.Status = *req.Status
	}
	asset.UpdatedAt = time.Now()

	if err := s.DB.UpdateAsset(*asset); err != nil {
		return nil, fmt.Errorf("failed to update asset: %w", err)
	}

	s.Cache.Invalidate(context.Background())
	return asset, nil
}

func (s *AssetService) DeleteAsset(id string, userID string) error {
	asset, err := s.DB.GetAssetByID(id)
	if err != nil {
		return err
	}

	if asset.SellerID != userID {
		return models.ErrNotOwner
	}

	if err := s.DB.DeleteAsset(id); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	s.Cache.Invalidate(context.Background())
	s.logger.Info("ASSET", fmt.Sprintf("Deleted asset %s by seller %s", id, userID))
	return nil
}

// DownloadURL is the download gate. A caller may retrieve the asset's file
// when they are the selling user or hold a PAID order containing the asset.
// The entitlement is re-checked against the ledger on every call.
func (s *AssetService) DownloadURL(ctx context.Context, assetID, userID string) (string, error) {
	asset, err := s.DB.GetAssetByID(assetID)
	if err != nil {
		return "", err
	}

	if asset.SellerID != userID {
		purchased, err := s.Orders.HasPurchased(userID, assetID)
		if err != nil {
			return "", fmt.Errorf("failed to check entitlement: %w", err)
		}
		if !purchased {
			s.logger.Warn("ASSET", fmt.Sprintf("Download of asset %s refused for user %s", assetID, userID))
			return "", models.ErrNotEntitled
		}
	}

	url, err := s.Storage.DownloadURL(ctx, asset.FileKey)
	if err != nil {
		return "", err
	}

	s.logger.Info("ASSET", fmt.Sprintf("Issued download URL for asset %s to user %s", assetID, userID))
	return url, nil
}
