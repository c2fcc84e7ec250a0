package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Foullane-Mohamed/ProSets/internal/models"
)

const (
	// publishedListingKey holds the JSON-encoded public asset listing.
	publishedListingKey = "assets:published"
	// DefaultTTL keeps the listing fresh enough that a newly published asset
	// appears within seconds. Entitlement decisions are never cached here.
	DefaultTTL = 30 * time.Second
)

// ListingCache caches the public published-asset listing in Redis. A miss or
// a Redis failure just falls through to the database.
type ListingCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewListingCache(client *redis.Client) *ListingCache {
	return &ListingCache{Client: client, TTL: DefaultTTL}
}

func (c *ListingCache) GetPublished(ctx context.Context) ([]models.Asset, bool) {
	if c == nil || c.Client == nil {
		return nil, false
	}

	raw, err := c.Client.Get(ctx, publishedListingKey).Result()
	if err != nil {
		return nil, false
	}

	var assets []models.Asset
	if err := json.Unmarshal([]byte(raw), &assets); err != nil {
		return nil, false
	}
	return assets, true
}

func (c *ListingCache) SetPublished(ctx context.Context, assets []models.Asset) {
	if c == nil || c.Client == nil {
		return
	}

	raw, err := json.Marshal(assets)
	if err != nil {
		return
	}
	_ = c.Client.Set(ctx, publishedListingKey, raw, c.TTL).Err()
}

// Invalidate drops the cached listing after any asset mutation.
func (c *ListingCache) Invalidate(ctx context.Context) {
	if c == nil || c.Client == nil {
		return
	}
	_ = c.Client.Del(ctx, publishedListingKey).Err()
}
