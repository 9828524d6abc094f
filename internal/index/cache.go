package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"sdkdocs/internal/logging"
)

// Loader builds the index of one SDK.
type Loader func(ctx context.Context, sdkID string) (*Index, error)

// Cache holds the current Index of every SDK. Readers always observe a
// complete Index; rebuilds replace the whole pointer.
type Cache struct {
	load   Loader
	logger *slog.Logger

	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	build sync.Mutex
	gen   atomic.Uint64
	cur   atomic.Pointer[Index]
}

// NewCache creates a cache that builds indexes with load.
func NewCache(load Loader, logger *slog.Logger) *Cache {
	return &Cache{
		load:   load,
		logger: logging.OrDefault(logger),
		slots:  make(map[string]*slot),
	}
}

func (c *Cache) slot(sdkID string) *slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[sdkID]
	if !ok {
		s = &slot{}
		c.slots[sdkID] = s
	}
	return s
}

// Get returns the index of sdkID, building it on first use. Concurrent
// callers share one build. Failed builds are not cached.
func (c *Cache) Get(ctx context.Context, sdkID string) (*Index, error) {
	s := c.slot(sdkID)
	if ix := s.cur.Load(); ix != nil {
		return ix, nil
	}

	s.build.Lock()
	defer s.build.Unlock()
	if ix := s.cur.Load(); ix != nil {
		return ix, nil
	}

	gen := s.gen.Load()
	ix, err := c.load(ctx, sdkID)
	if err != nil {
		return nil, err
	}
	// An Invalidate during the build means the result may already be stale.
	if s.gen.Load() == gen {
		s.cur.Store(ix)
	}
	return ix, nil
}

// Peek returns the current index without building one.
func (c *Cache) Peek(sdkID string) *Index {
	return c.slot(sdkID).cur.Load()
}

// Invalidate drops the current index of sdkID; the next Get rebuilds.
func (c *Cache) Invalidate(sdkID string) {
	s := c.slot(sdkID)
	s.gen.Add(1)
	s.cur.Store(nil)
	c.logger.Debug("index invalidated", "sdk", sdkID)
}

// Refresh builds a fresh index and swaps it in. On failure the previous
// index stays in place.
func (c *Cache) Refresh(ctx context.Context, sdkID string) (*Index, error) {
	s := c.slot(sdkID)
	s.build.Lock()
	defer s.build.Unlock()

	ix, err := c.load(ctx, sdkID)
	if err != nil {
		return nil, err
	}
	s.gen.Add(1)
	s.cur.Store(ix)
	return ix, nil
}

// Warm builds the indexes of sdkIDs. SDKs that have not been fetched are
// skipped; other failures are joined into the returned error.
func (c *Cache) Warm(ctx context.Context, sdkIDs []string) error {
	var errs []error
	for _, id := range sdkIDs {
		if _, err := c.Get(ctx, id); err != nil {
			if errors.Is(err, ErrStorageMissing) {
				c.logger.Warn("skipping sdk without storage", "sdk", id)
				continue
			}
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
