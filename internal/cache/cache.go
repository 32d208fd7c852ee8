// Package cache holds the listing page cache. Entries are whole pages keyed by
// the caller's page number and size; any catalog mutation drops every entry.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"product-compare/internal/model"

	"github.com/rs/zerolog"
)

// Key identifies a cached listing page as requested by the caller.
type Key struct {
	Page int
	Size int
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Invalidations uint64 `json:"invalidations"`
	Entries       int    `json:"entries"`
}

// PageCache is a concurrency-safe map of listing pages.
//
// Every Invalidate bumps a generation counter. Get returns the generation it
// observed and Put only stores when no invalidation happened in between, so a
// slow reader can never re-insert a page computed before a mutation.
type PageCache struct {
	mu         sync.RWMutex
	entries    map[Key]*model.PagedProducts
	generation uint64

	hits          atomic.Uint64
	misses        atomic.Uint64
	invalidations atomic.Uint64

	logger zerolog.Logger
}

// NewPageCache creates an empty page cache.
func NewPageCache(logger zerolog.Logger) *PageCache {
	return &PageCache{
		entries: make(map[Key]*model.PagedProducts),
		logger:  logger.With().Str("component", "page-cache").Logger(),
	}
}

// Get returns the cached page for key and the current generation.
func (c *PageCache) Get(key Key) (*model.PagedProducts, uint64, bool) {
	c.mu.RLock()
	page, ok := c.entries[key]
	gen := c.generation
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return page, gen, ok
}

// Put stores page under key if the cache is still at generation gen.
// It reports whether the page was stored.
func (c *PageCache) Put(key Key, gen uint64, page *model.PagedProducts) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug().
			Int("page", key.Page).
			Int("size", key.Size).
			Msg("discarding page computed before invalidation")
		return false
	}
	c.entries[key] = page
	return true
}

// Invalidate drops every entry. It is the single eviction path used by both
// mutations and the periodic sweep.
func (c *PageCache) Invalidate() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[Key]*model.PagedProducts)
	c.generation++
	c.mu.Unlock()

	c.invalidations.Add(1)
	c.logger.Debug().Int("dropped", n).Msg("page cache invalidated")
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the current counters.
func (c *PageCache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Invalidations: c.invalidations.Load(),
		Entries:       c.Len(),
	}
}

// StartSweeper drops the whole cache every interval until ctx is cancelled.
// A non-positive interval disables the sweep.
func (c *PageCache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		c.logger.Info().Msg("page cache sweep disabled")
		return
	}

	c.logger.Info().Dur("interval", interval).Msg("page cache sweep started")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info().Msg("page cache sweep stopped")
				return
			case <-ticker.C:
				c.Invalidate()
			}
		}
	}()
}
