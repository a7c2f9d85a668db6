package offers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/haventrip/haventrip-backend/pkg/db/models"
	"github.com/haventrip/haventrip-backend/pkg/logger"
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

type promoLoader interface {
	ListActivePromosForHost(ctx context.Context, hostID uuid.UUID) ([]models.Offer, error)
}

// PromoCache is a read-through cache over the active-promo query. Invalidation
// is explicit, triggered when a host changes listing pricing or offers; stale
// entries otherwise expire on TTL.
type PromoCache struct {
	store  cacheStore
	loader promoLoader
	ttl    time.Duration
	logg   *logger.Logger
}

// NewPromoCache builds the promo read-through cache. A nil store degrades to
// direct loads.
func NewPromoCache(store cacheStore, loader promoLoader, ttl time.Duration, logg *logger.Logger) *PromoCache {
	return &PromoCache{store: store, loader: loader, ttl: ttl, logg: logg}
}

// ActivePromos returns the host's active promos, serving from cache when warm.
// Cache failures fall back to the database and are logged, never surfaced.
func (c *PromoCache) ActivePromos(ctx context.Context, hostID uuid.UUID) ([]models.Offer, error) {
	if c.store == nil {
		return c.loader.ListActivePromosForHost(ctx, hostID)
	}

	key := c.store.CacheKey("promos", hostID.String())
	if raw, err := c.store.Get(ctx, key); err == nil && raw != "" {
		var cached []models.Offer
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
		c.warn(ctx, "promo cache entry corrupt, reloading")
	}

	promos, err := c.loader.ListActivePromosForHost(ctx, hostID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(promos); err == nil {
		if err := c.store.Set(ctx, key, string(encoded), c.ttl); err != nil {
			c.warn(ctx, "promo cache write failed")
		}
	}
	return promos, nil
}

// Invalidate drops the cached promo list for a host.
func (c *PromoCache) Invalidate(ctx context.Context, hostID uuid.UUID) error {
	if c.store == nil {
		return nil
	}
	return c.store.Del(ctx, c.store.CacheKey("promos", hostID.String()))
}

func (c *PromoCache) warn(ctx context.Context, msg string) {
	if c.logg != nil {
		c.logg.Warn(ctx, msg)
	}
}
