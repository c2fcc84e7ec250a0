package models

import (
	"time"

	"github.com/uptrace/bun"
)

type AssetStatus string

const (
	AssetStatusDraft     AssetStatus = "DRAFT"
	AssetStatusPublished AssetStatus = "PUBLISHED"
)

// Asset is a seller's digital listing. FileKey and PreviewKey are opaque
// object-storage keys; FileKey must never appear in API responses for
// callers that are not entitled to download.
type Asset struct {
	bun.BaseModel `bun:"table:assets"`

	ID          string      `bun:"id,pk" json:"id"`
	Title       string      `bun:"title,notnull" json:"title"`
	Description string      `bun:"description" json:"description"`
	Price       float64     `bun:"price,notnull" json:"price"`
	FileKey     string      `bun:"file_key,notnull" json:"-"`
	PreviewKey  string      `bun:"preview_key" json:"preview_key"`
	Status      AssetStatus `bun:"status,notnull" json:"status"`
	SellerID    string      `bun:"seller_id,notnull" json:"seller_id"`
	CreatedAt   time.Time   `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time   `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

type CreateAssetRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	FileKey     string      `json:"file_key"`
	PreviewKey  string      `json:"preview_key"`
	Status      AssetStatus `json:"status,omitempty"`
}

// UpdateAssetRequest carries partial updates; nil fields are left untouched.
type UpdateAssetRequest struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Price       *float64     `json:"price,omitempty"`
	Status      *AssetStatus `json:"status,omitempty"`
}

type DownloadResponse struct {
	URL string `json:"url"`
}

type UploadURLRequest struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
}

type UploadURLResponse struct {
	URL string `json:"url"`
}
