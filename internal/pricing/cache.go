package pricing

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Source loads the full catalogue from its backing store.
type Source interface {
	ListMaterials(ctx context.Context) ([]Material, error)
	ListLaborRates(ctx context.Context) ([]LaborRate, error)
}

// Catalogue is an immutable snapshot of the reference data.
type Catalogue struct {
	Materials  []Material
	LaborRates []LaborRate
	LoadedAt   time.Time
}

// Cache serves the catalogue from memory for ttl. Concurrent misses share a
// single load, and a load fetches materials and labor rates in parallel.
// A zero ttl disables retention but still deduplicates concurrent loads.
type Cache struct {
	src    Source
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	group   singleflight.Group
	mu      sync.RWMutex
	current *Catalogue
}

// NewCache wraps src with a time-bounded snapshot cache.
func NewCache(src Source, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		src:    src,
		ttl:    ttl,
		logger: logger.With("system", "pricing-cache"),
		now:    time.Now,
	}
}

// Catalogue returns the cached snapshot, loading it when absent or stale.
func (c *Cache) Catalogue(ctx context.Context) (*Catalogue, error) {
	if cat := c.fresh(); cat != nil {
		return cat, nil
	}

	v, err, shared := c.group.Do("catalogue", func() (any, error) {
		return c.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.DebugContext(ctx, "catalogue load shared")
	}
	return v.(*Catalogue), nil
}

func (c *Cache) ListMaterials(ctx context.Context) ([]Material, error) {
	cat, err := c.Catalogue(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(cat.Materials), nil
}

func (c *Cache) ListLaborRates(ctx context.Context) ([]LaborRate, error) {
	cat, err := c.Catalogue(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(cat.LaborRates), nil
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

func (c *Cache) fresh() *Catalogue {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil || c.ttl <= 0 {
		return nil
	}
	if c.now().Sub(c.current.LoadedAt) >= c.ttl {
		return nil
	}
	return c.current
}

func (c *Cache) load(ctx context.Context) (*Catalogue, error) {
	var (
		materials []Material
		labor     []LaborRate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		materials, err = c.src.ListMaterials(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		labor, err = c.src.ListLaborRates(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		c.logger.WarnContext(ctx, "catalogue load failed", "error", err)
		return nil, err
	}

	cat := &Catalogue{
		Materials:  materials,
		LaborRates: labor,
		LoadedAt:   c.now(),
	}

	c.mu.Lock()
	c.current = cat
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "catalogue loaded",
		"materials", len(materials),
		"labor_rates", len(labor),
	)
	return cat, nil
}
