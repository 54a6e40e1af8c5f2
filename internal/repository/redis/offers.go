package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clearcomms/linecheck/internal/domain"
	apperrors "github.com/clearcomms/linecheck/pkg/errors"
)

const keyPrefix = "offers:"

// OfferCache implements repository.OfferCache using Redis. Provider searches
// take tens of seconds end to end, so re-running a review against the same
// site within the TTL reuses the normalized offers instead of searching again.
type OfferCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOfferCache creates a new Redis-backed offer cache.
func NewOfferCache(client *redis.Client, ttl time.Duration) *OfferCache {
	return &OfferCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves cached offers for the given search key.
func (c *OfferCache) Get(ctx context.Context, key string) ([]domain.ServiceOffer, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("offers", key)
		}
		return nil, fmt.Errorf("redis get offers: %w", err)
	}

	var offers []domain.ServiceOffer
	if err := json.Unmarshal(data, &offers); err != nil {
		return nil, fmt.Errorf("unmarshal offers: %w", err)
	}

	return offers, nil
}

// Set stores offers for the given search key with the configured TTL.
func (c *OfferCache) Set(ctx context.Context, key string, offers []domain.ServiceOffer) error {
	data, err := json.Marshal(offers)
	if err != nil {
		return fmt.Errorf("marshal offers: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set offers: %w", err)
	}

	return nil
}
