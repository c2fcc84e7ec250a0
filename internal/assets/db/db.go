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

// GetAssetByID → fetch one asset by its ID
func (d *DB) GetAssetByID(id string) (*models.Asset, error) {
	var asset models.Asset
	err := d.Bun.NewSelect().
		Model(&asset).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// CreateAsset → insert new asset
func (d *DB) CreateAsset(asset models.Asset) error {
	_, err := d.Bun.NewInsert().Model(&asset).Exec(context.Background())
	return err
}

// ListPublished → all PUBLISHED assets, newest first
func (d *DB) ListPublished() ([]models.Asset, error) {
	var assets []models.Asset
	err := d.Bun.NewSelect().
		Model(&assets).
		Where("status = ?", models.AssetStatusPublished).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// ListBySeller → all assets owned by a seller, any status, newest first
func (d *DB) ListBySeller(sellerID string) ([]models.Asset, error) {
	var assets []models.Asset
	err := d.Bun.NewSelect().
		Model(&assets).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// UpdateAsset → update mutable listing fields
func (d *DB) UpdateAsset(asset models.Asset) error {
	res, err := d.Bun.NewUpdate().
		Model(&asset).
		Column("title", "description", "price", "status", "updated_at").
		Where("id = ?", asset.ID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return models.ErrAssetNotFound
	}
	return nil
}

// DeleteAsset → remove an asset by ID
func (d *DB) DeleteAsset(id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Asset)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return models.ErrAssetNotFound
	}
	return nil
}

// GetAssetsByIDs → fetch a batch of assets keyed by ID
func (d *DB) GetAssetsByIDs(ids []string) (map[string]*models.Asset, error) {
	result := make(map[string]*models.Asset, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var assets []models.Asset
	err := d.Bun.NewSelect().
		Model(&assets).
		Where("id IN (?)", bun.In(ids)).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}

	for i := range assets {
		result[assets[i].ID] = &assets[i]
	}
	return result, nil
}
