// Package query caches read results per collection. Entries expire after a
// TTL and are dropped whenever the events bus reports the collection stale.
// Concurrent identical reads share one request.
package query

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"trackswift/internal/events"
)

// Cache holds read results keyed by collection and parameters.
type Cache struct {
	lru   *expirable.LRU[string, interface{}]
	group singleflight.Group
	log   zerolog.Logger

	mu          sync.Mutex
	generations map[events.Key]uint64
}

// New builds a cache holding up to size entries for ttl each.
func New(size int, ttl time.Duration, log zerolog.Logger) *Cache {
	if size <= 0 {
		size = 256
	}
	return &Cache{
		lru:         expirable.NewLRU[string, interface{}](size, nil, ttl),
		log:         log,
		generations: map[events.Key]uint64{},
	}
}

// Attach subscribes the cache to bus and returns the unsubscribe function.
func (c *Cache) Attach(bus *events.Bus) func() {
	return bus.Subscribe(func(inv events.Invalidation) {
		c.Invalidate(inv.Keys...)
	})
}

func cacheKey(coll events.Key, params string) string {
	return string(coll) + "|" + params
}

func (c *Cache) generation(coll events.Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[coll]
}

// Invalidate drops every entry of the named collections. Fetches already
// in flight for them will not be stored.
func (c *Cache) Invalidate(keys ...events.Key) {
	c.mu.Lock()
	for _, k := range keys {
		c.generations[k]++
	}
	c.mu.Unlock()

	for _, key := range c.lru.Keys() {
		for _, k := range keys {
			if strings.HasPrefix(key, string(k)+"|") {
				c.lru.Remove(key)
				break
			}
		}
	}
	c.log.Debug().Interface("keys", keys).Msg("cache invalidated")
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Fetch returns the cached value for (coll, params) or calls fn once for
// all concurrent callers and caches its result.
func Fetch[T any](ctx context.Context, c *Cache, coll events.Key, params string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	key := cacheKey(coll, params)
	if v, ok := c.lru.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	// A flight belongs to one generation; callers arriving after an
	// Invalidate start their own request. The shared request outlives any
	// single caller's cancellation.
	gen := c.generation(coll)
	flight := fmt.Sprintf("%s#%d", key, gen)
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (interface{}, error) {
		v, err := fn(shared)
		if err != nil {
			return nil, err
		}
		if c.generation(coll) == gen {
			c.lru.Add(key, v)
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		typed, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("cache entry %s has type %T", key, res.Val)
		}
		return typed, nil
	}
}
