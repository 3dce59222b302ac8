// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.
//
// This code is based on: https://github.com/golang/groupcache/

// Package cache implements a generic key-value cache with configurable
// eviction policies.
package cache

import "container/list"

// EvictionPolicy is the cache eviction policy enum.
type EvictionPolicy int

// Constants for the eviction policies.
const (
	// CacheLRU indicates a least-recently-used eviction policy.
	CacheLRU EvictionPolicy = iota
	// CacheFIFO indicates a first-in-first-out eviction policy.
	CacheFIFO
)

// TypedConfig configures the behavior of a TypedUnorderedCache.
type TypedConfig[K comparable, V any] struct {
	// Policy determines which entry is considered for eviction when the
	// cache grows.
	Policy EvictionPolicy

	// ShouldEvict is consulted after every addition with the current cache
	// size and the eviction candidate; entries are evicted for as long as
	// it returns true. A nil func means no eviction.
	ShouldEvict func(size int, key K, value V) bool

	// OnEvicted is called for each entry removed by the eviction policy.
	// It is not called for explicit Del or Clear.
	OnEvicted func(key K, value V)
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// TypedUnorderedCache is a cache of key-value pairs with no ordering
// guarantees beyond the eviction policy. It is not thread safe.
type TypedUnorderedCache[K comparable, V any] struct {
	cfg TypedConfig[K, V]
	ll  *list.List
	m   map[K]*list.Element
}

// NewTypedUnorderedCache creates a new cache with the supplied
// configuration.
func NewTypedUnorderedCache[K comparable, V any](cfg TypedConfig[K, V]) *TypedUnorderedCache[K, V] {
	return &TypedUnorderedCache[K, V]{
		cfg: cfg,
		ll:  list.New(),
		m:   make(map[K]*list.Element),
	}
}

// Add inserts or updates the value stored under key, then applies the
// eviction policy.
func (c *TypedUnorderedCache[K, V]) Add(key K, value V) {
	if el, ok := c.m[key]; ok {
		el.Value.(*entry[K, V]).value = value
		if c.cfg.Policy == CacheLRU {
			c.ll.MoveToFront(el)
		}
	} else {
		c.m[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value})
	}
	c.evict()
}

// Get returns the value stored under key and whether it was present. Under
// the LRU policy a hit refreshes the entry's recency.
func (c *TypedUnorderedCache[K, V]) Get(key K) (V, bool) {
	if el, ok := c.m[key]; ok {
		if c.cfg.Policy == CacheLRU {
			c.ll.MoveToFront(el)
		}
		return el.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Del removes the entry stored under key, if any.
func (c *TypedUnorderedCache[K, V]) Del(key K) {
	if el, ok := c.m[key]; ok {
		c.remove(el)
	}
}

// Clear removes all entries.
func (c *TypedUnorderedCache[K, V]) Clear() {
	c.ll.Init()
	clear(c.m)
}

// Len returns the number of cached entries.
func (c *TypedUnorderedCache[K, V]) Len() int {
	return c.ll.Len()
}

func (c *TypedUnorderedCache[K, V]) remove(el *list.Element) {
	c.ll.Remove(el)
	delete(c.m, el.Value.(*entry[K, V]).key)
}

func (c *TypedUnorderedCache[K, V]) evict() {
	if c.cfg.ShouldEvict == nil {
		return
	}
	for c.ll.Len() > 0 {
		el := c.ll.Back()
		e := el.Value.(*entry[K, V])
		if !c.cfg.ShouldEvict(c.ll.Len(), e.key, e.value) {
			return
		}
		c.remove(el)
		if c.cfg.OnEvicted != nil {
			c.cfg.OnEvicted(e.key, e.value)
		}
	}
}
