package handler

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const defaultDeliveryTTL = 10 * time.Minute

// DeliveryCache remembers accepted webhook delivery ids for a while so
// redeliveries of the same event are not processed twice.
type DeliveryCache struct {
	cache *gocache.Cache
}

// NewDeliveryCache creates a cache that forgets ids after ttl.
func NewDeliveryCache(ttl time.Duration) *DeliveryCache {
	if ttl <= 0 {
		ttl = defaultDeliveryTTL
	}
	return &DeliveryCache{cache: gocache.New(ttl, 2*ttl)}
}

// Remember records id and reports whether it was new. Deliveries without an
// id cannot be de-duplicated and are always new.
func (c *DeliveryCache) Remember(id string) bool {
	if id == "" {
		return true
	}
	return c.cache.Add(id, struct{}{}, gocache.DefaultExpiration) == nil
}

// Forget drops id so the sender can retry it.
func (c *DeliveryCache) Forget(id string) {
	if id != "" {
		c.cache.Delete(id)
	}
}
