package models

import "errors"

// Sentinel errors shared across layers. Handlers map these onto HTTP codes:
// not-found -> 404, not-owner / not-entitled -> 403.
var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrOrderNotFound = errors.New("order not found")
	ErrNotOwner      = errors.New("caller does not own this asset")
	ErrNotEntitled   = errors.New("asset has not been purchased by this user")
)
