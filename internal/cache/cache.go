package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NordCoder/Linkbio/internal/obs"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	value     any
	fetchedAt time.Time
	stale     bool
}

// Cache holds server state keyed by query key. Concurrent fetches of the
// same key share one call; results that land after a Clear are dropped, and
// results that land after the key was invalidated are kept only as stale.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	epoch   uint64
	gens    map[string]uint64
	group   singleflight.Group
	now     func() time.Time
}

type Option func(*Cache)

func WithNowFunc(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(opts ...Option) *Cache {
	c := &Cache{entries: make(map[string]*entry), gens: make(map[string]uint64), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the cached value for key unless it is older than staleTime or
// invalidated. A zero staleTime keeps entries until they are invalidated.
// The shared fetch outlives any single caller's cancellation; each caller
// still returns early when its own ctx ends.
func Get[T any](ctx context.Context, c *Cache, key string, staleTime time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.fresh(key, staleTime); ok {
		if t, ok := v.(T); ok {
			obs.CacheRequests.WithLabelValues("hit").Inc()
			return t, nil
		}
	}

	c.mu.RLock()
	epoch, gen := c.epoch, c.gens[key]
	c.mu.RUnlock()

	fctx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey(epoch, gen, key), func() (any, error) {
		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.store(key, v, epoch, gen)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			obs.CacheRequests.WithLabelValues("shared").Inc()
		} else {
			obs.CacheRequests.WithLabelValues("miss").Inc()
		}
		if res.Err != nil {
			return zero, res.Err
		}
		t, _ := res.Val.(T)
		return t, nil
	}
}

func Peek[T any](c *Cache, key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	t, ok := e.value.(T)
	return t, ok
}

// Update replaces a cached value of type T with fn(old). It reports false,
// storing nothing, when no such value is cached.
func Update[T any](c *Cache, key string, fn func(old T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[key]
	if !found {
		return false
	}
	old, ok := e.value.(T)
	if !ok {
		return false
	}
	c.entries[key] = &entry{value: fn(old), fetchedAt: c.now(), stale: e.stale}
	c.gens[key]++
	return true
}

func (c *Cache) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{value: v, fetchedAt: c.now()}
	c.gens[key]++
}

// Invalidate marks key stale so the next Get refetches it. A fetch already
// in flight for key is not joined by later Gets.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.stale = true
	}
	c.gens[key]++
}

func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if strings.HasPrefix(k, prefix) {
			e.stale = true
			c.gens[k]++
		}
	}
	// Keys with only a fetch in flight.
	for k := range c.gens {
		if _, cached := c.entries[k]; !cached && strings.HasPrefix(k, prefix) {
			c.gens[k]++
		}
	}
}

func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.gens[key]++
}

// Clear drops every entry, including results of fetches still in flight.
// Gets issued after Clear never join a fetch started before it.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.gens = make(map[string]uint64)
	c.epoch++
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func flightKey(epoch, gen uint64, key string) string {
	return strconv.FormatUint(epoch, 10) + "." + strconv.FormatUint(gen, 10) + "|" + key
}

func (c *Cache) fresh(key string, staleTime time.Duration) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	if staleTime > 0 && c.now().Sub(e.fetchedAt) >= staleTime {
		return nil, false
	}
	return e.value, true
}

// store writes a fetch result. When key changed while the fetch ran, an
// existing entry wins and a missing one is filled in as stale.
func (c *Cache) store(key string, v any, epoch, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	if c.gens[key] != gen {
		if _, ok := c.entries[key]; !ok {
			c.entries[key] = &entry{value: v, fetchedAt: c.now(), stale: true}
		}
		return
	}
	c.entries[key] = &entry{value: v, fetchedAt: c.now()}
}
