package loader

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// SeriesCache memoizes ReadSeriesTable results keyed by path and read
// parameters, evicting least-recently-used entries past maxEntries. Cached
// slices are shared between callers and must not be modified; the providers
// never mutate a series they are given.
type SeriesCache struct {
	cache *lru.Cache[string, []float32]
	log   *zap.Logger
}

// NewSeriesCache creates a cache holding at most maxEntries loaded series.
// log may be nil to disable logging.
func NewSeriesCache(maxEntries int, log *zap.Logger) (*SeriesCache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cache, err := lru.New[string, []float32](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create series cache: %w", err)
	}
	return &SeriesCache{cache: cache, log: log}, nil
}

// Get returns the series for path, reading it with ReadSeriesTable on the
// first request and from the cache afterwards.
func (c *SeriesCache) Get(path string, skipRows, fromCol int) ([]float32, error) {
	key := fmt.Sprintf("%s|%d|%d", path, skipRows, fromCol)
	if series, ok := c.cache.Get(key); ok {
		c.log.Debug("series cache hit", zap.String("path", path), zap.Int("len", len(series)))
		return series, nil
	}
	series, err := ReadSeriesTable(path, skipRows, fromCol)
	if err != nil {
		return nil, err
	}
	evicted := c.cache.Add(key, series)
	c.log.Debug("series cache miss",
		zap.String("path", path),
		zap.Int("len", len(series)),
		zap.Bool("evicted", evicted))
	return series, nil
}

// Len returns the number of series currently cached.
func (c *SeriesCache) Len() int { return c.cache.Len() }

// Purge drops every cached series.
func (c *SeriesCache) Purge() { c.cache.Purge() }
