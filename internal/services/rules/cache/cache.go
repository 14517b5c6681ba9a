// Package cache memoises per-tenant values that are expensive to rebuild
package cache

import (
	"context"
	"sync"
)

// Tenant is a process-wide tenant keyed cache without expiry
// Entries live until Invalidate, a load racing an Invalidate is never stored
type Tenant[V any] struct {
	mu      sync.Mutex
	entries map[string]V
	gen     map[string]uint64
}

// NewTenant returns an empty cache
func NewTenant[V any]() *Tenant[V] {
	return &Tenant[V]{entries: map[string]V{}, gen: map[string]uint64{}}
}

// GetOrLoad returns the cached value for tenantID or calls load and stores its result
// Errors are returned as is and nothing is cached
func (c *Tenant[V]) GetOrLoad(ctx context.Context, tenantID string, load func(context.Context) (V, error)) (V, error) {
	c.mu.Lock()
	if v, ok := c.entries[tenantID]; ok {
		c.mu.Unlock()
		return v, nil
	}
	gen := c.gen[tenantID]
	c.mu.Unlock()

	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	if c.gen[tenantID] == gen {
		c.entries[tenantID] = v
	}
	c.mu.Unlock()
	return v, nil
}

// Invalidate drops the tenant entry and fences off loads already in flight
func (c *Tenant[V]) Invalidate(tenantID string) {
	c.mu.Lock()
	delete(c.entries, tenantID)
	c.gen[tenantID]++
	c.mu.Unlock()
}

// Len reports how many tenants are cached
func (c *Tenant[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Disabled always loads
type Disabled[V any] struct{}

// GetOrLoad calls load
func (Disabled[V]) GetOrLoad(ctx context.Context, _ string, load func(context.Context) (V, error)) (V, error) {
	return load(ctx)
}

// Invalidate is a no-op
func (Disabled[V]) Invalidate(string) {}
