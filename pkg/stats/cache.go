// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package stats

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jonaengs/jsonflex/pkg/util/cache"
	"github.com/jonaengs/jsonflex/pkg/util/syncutil"
	"github.com/prometheus/client_golang/prometheus"
)

// CacheKey identifies one column's histogram.
type CacheKey struct {
	Table  string
	Column string
}

// LoadFunc fetches the encoded histogram for a key, typically from the
// statistics catalog.
type LoadFunc func(ctx context.Context, key CacheKey) ([]byte, error)

// CacheConfig configures a HistogramCache.
type CacheConfig struct {
	// Capacity bounds the number of cached histograms. Zero means
	// DefaultCacheCapacity.
	Capacity int

	// Load fetches encoded histograms on a miss. Required.
	Load LoadFunc

	// Metrics, when set, counts hits, misses and evictions.
	Metrics *CacheMetrics
}

// HistogramCache resolves histograms by key for concurrent planning
// threads. Loads are single-flight: requests for the same missing key
// share one in-flight load. Cached histograms are immutable, so lookups
// hold the mutex only for the map access and estimation runs lock-free.
type HistogramCache struct {
	load    LoadFunc
	metrics *CacheMetrics

	mu struct {
		syncutil.Mutex
		cache *cache.TypedUnorderedCache[CacheKey, *cacheEntry]
	}
}

// cacheEntry is the single-flight slot for one key. done closes when the
// load settles; afterwards exactly one of h and err is set.
type cacheEntry struct {
	done chan struct{}
	h    *Histogram
	err  error
}

// NewHistogramCache returns an empty cache backed by cfg.Load.
func NewHistogramCache(cfg CacheConfig) (*HistogramCache, error) {
	if cfg.Load == nil {
		return nil, errors.Newf("histogram cache requires a load function")
	}
	capacity := cfg.Capacity
	if capacity == 0 {
		capacity = DefaultCacheCapacity
	}
	if capacity < 0 {
		return nil, errors.Newf("histogram cache capacity %d out of range", cfg.Capacity)
	}
	hc := &HistogramCache{load: cfg.Load, metrics: cfg.Metrics}
	hc.mu.cache = cache.NewTypedUnorderedCache[CacheKey, *cacheEntry](
		cache.TypedConfig[CacheKey, *cacheEntry]{
			Policy: cache.CacheLRU,
			ShouldEvict: func(size int, _ CacheKey, _ *cacheEntry) bool {
				return size > capacity
			},
			OnEvicted: func(_ CacheKey, _ *cacheEntry) {
				cfg.Metrics.eviction()
			},
		})
	return hc, nil
}

// GetHistogram returns the histogram for key, loading and decoding it on
// a miss. Waiters on a shared in-flight load observe ctx cancellation
// independently; the load itself runs under the first requester's
// context. Failed loads are not cached.
func (hc *HistogramCache) GetHistogram(ctx context.Context, key CacheKey) (*Histogram, error) {
	hc.mu.Lock()
	if e, ok := hc.mu.cache.Get(key); ok {
		hc.mu.Unlock()
		hc.metrics.hit()
		select {
		case <-e.done:
			return e.h, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := &cacheEntry{done: make(chan struct{})}
	hc.mu.cache.Add(key, e)
	hc.mu.Unlock()
	hc.metrics.miss()

	data, err := hc.load(ctx, key)
	var h *Histogram
	if err == nil {
		h, err = DecodeHistogram(data)
	}
	e.h, e.err = h, err
	close(e.done)
	if err != nil {
		// Drop the failed slot so later requests retry the load.
		hc.mu.Lock()
		if cur, ok := hc.mu.cache.Get(key); ok && cur == e {
			hc.mu.cache.Del(key)
		}
		hc.mu.Unlock()
		return nil, err
	}
	return h, nil
}

// Invalidate drops the cached histogram for key, if any. An in-flight
// load for the key still completes for its waiters but is no longer
// cached.
func (hc *HistogramCache) Invalidate(key CacheKey) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.mu.cache.Del(key)
}

// Refresh drops any cached histogram for key and synchronously loads a
// fresh one.
func (hc *HistogramCache) Refresh(ctx context.Context, key CacheKey) (*Histogram, error) {
	hc.Invalidate(key)
	return hc.GetHistogram(ctx, key)
}

// Len returns the number of cached entries, in-flight loads included.
func (hc *HistogramCache) Len() int {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	return hc.mu.cache.Len()
}

// CacheMetrics counts HistogramCache traffic. All fields are registered
// by NewCacheMetrics; a nil *CacheMetrics disables collection.
type CacheMetrics struct {
	Hits      prometheus.Counter
	Misses    prometheus.Counter
	Evictions prometheus.Counter
}

// NewCacheMetrics creates the cache counters and registers them with reg
// when it is non-nil.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jsonflex",
			Subsystem: "histogram_cache",
			Name:      "hits_total",
			Help:      "Lookups answered from the cache, shared in-flight loads included",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jsonflex",
			Subsystem: "histogram_cache",
			Name:      "misses_total",
			Help:      "Lookups that initiated a histogram load",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jsonflex",
			Subsystem: "histogram_cache",
			Name:      "evictions_total",
			Help:      "Histograms evicted by the capacity bound",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Evictions)
	}
	return m
}

func (m *CacheMetrics) hit() {
	if m != nil {
		m.Hits.Inc()
	}
}

func (m *CacheMetrics) miss() {
	if m != nil {
		m.Misses.Inc()
	}
}

func (m *CacheMetrics) eviction() {
	if m != nil {
		m.Evictions.Inc()
	}
}
