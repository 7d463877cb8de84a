package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// InMemory простой кеш в памяти процесса с временем жизни записей.
// ttl <= 0 означает запись без срока.
type InMemory[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	now   func() time.Time
}

func NewInMemory[V any]() *InMemory[V] {
	return &InMemory[V]{
		items: make(map[string]entry[V]),
		now:   time.Now,
	}
}

func (c *InMemory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	e := entry[V]{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = e
	c.mu.Unlock()
	return nil
}

func (c *InMemory[V]) Get(_ context.Context, key string) (V, bool, error) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || e.expired(c.now()) {
		var zero V
		return zero, false, nil
	}
	return e.value, true, nil
}

func (c *InMemory[V]) Has(ctx context.Context, key string) bool {
	_, ok, _ := c.Get(ctx, key)
	return ok
}

func (c *InMemory[V]) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *InMemory[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Run периодически удаляет просроченные записи, пока не отменён контекст
func (c *InMemory[V]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *InMemory[V]) evictExpired() {
	now := c.now()
	c.mu.Lock()
	for key, e := range c.items {
		if e.expired(now) {
			delete(c.items, key)
		}
	}
	c.mu.Unlock()
}
