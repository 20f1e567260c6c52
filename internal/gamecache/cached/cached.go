// Package cached provides a caching wrapper for gamecache.Store implementations.
package cached

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/leonfresh/chessleaks/internal/gamecache"
	"github.com/leonfresh/chessleaks/internal/stats"
)

// Compile-time check that Store implements gamecache.Store.
var _ gamecache.Store = (*Store)(nil)

// Store wraps another Store with an in-memory LRU cache.
type Store struct {
	underlying gamecache.Store
	cache      *lru.Cache[string, []byte]
	collector  stats.Collector

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int // Current number of entries
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// New creates a new cached store wrapping the given store.
// Capacity is the maximum number of archives held in memory.
// If collector is nil, no metrics are recorded.
func New(underlying gamecache.Store, capacity int, collector stats.Collector) (*Store, error) {
	c, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, err
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Store{
		underlying: underlying,
		cache:      c,
		collector:  collector,
	}, nil
}

// ReadArchive reads an archive, checking the cache first.
func (s *Store) ReadArchive(ctx context.Context, key string) ([]byte, error) {
	if data, ok := s.cache.Get(key); ok {
		s.hits.Add(1)
		s.collector.IncCounter(stats.MetricArchiveCacheHits, 1)
		return data, nil
	}

	s.misses.Add(1)
	s.collector.IncCounter(stats.MetricArchiveCacheMisses, 1)

	data, err := s.underlying.ReadArchive(ctx, key)
	if err != nil {
		return nil, err
	}

	s.cache.Add(key, data)
	s.collector.SetGauge(stats.MetricArchiveCacheSize, int64(s.cache.Len()))
	return data, nil
}

// WriteArchive writes through to the underlying store and refreshes the cache.
func (s *Store) WriteArchive(ctx context.Context, key string, data []byte) error {
	if err := s.underlying.WriteArchive(ctx, key, data); err != nil {
		return err
	}
	s.cache.Add(key, data)
	s.collector.SetGauge(stats.MetricArchiveCacheSize, int64(s.cache.Len()))
	return nil
}

// Close closes the underlying store.
func (s *Store) Close() error {
	return s.underlying.Close()
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Size:   s.cache.Len(),
	}
}
