package catalog

import (
	"sync"
	"time"

	"github.com/noah-isme/backend-crm/internal/crm"
)

// Cache holds a short-lived snapshot of the upstream product list so
// repeated lookups do not hammer the CRM backend. Totals are never cached,
// only catalog data.
type Cache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	products  []crm.Product
	fetchedAt time.Time

	// Now is injectable for tests.
	Now func() time.Time
}

// NewCache constructs a cache with the given TTL. A non-positive TTL
// disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, Now: time.Now}
}

// Get returns the cached snapshot when it is still fresh.
func (c *Cache) Get() ([]crm.Product, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.products == nil || c.Now().Sub(c.fetchedAt) > c.ttl {
		return nil, false
	}
	out := make([]crm.Product, len(c.products))
	copy(out, c.products)
	return out, true
}

// Set stores a fresh snapshot.
func (c *Cache) Set(products []crm.Product) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = make([]crm.Product, len(products))
	copy(c.products, products)
	c.fetchedAt = c.Now()
}
