package rates

import (
	"sync"
	"time"

	"japoke-backend/internal/models"
)

// Cache holds the latest rates for a fixed TTL. The zero value is not usable.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	value   map[models.RateType]LatestRate
	expires time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now}
}

func (c *Cache) Get() (map[models.RateType]LatestRate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.value == nil || !c.now().Before(c.expires) {
		return nil, false
	}
	return c.value, true
}

func (c *Cache) Set(v map[models.RateType]LatestRate) {
	c.mu.Lock()
	c.value = v
	c.expires = c.now().Add(c.ttl)
	c.mu.Unlock()
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.value = nil
	c.expires = time.Time{}
	c.mu.Unlock()
}
