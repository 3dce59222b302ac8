// Copyright 2026 The JSONFlex Authors.
//
// Use of this software is governed by the MIT License
// included in the /LICENSE file.

package cache

import "testing"

type testKey string

var getTests = []struct {
	name       string
	keyToAdd   testKey
	keyToGet   testKey
	expectedOk bool
}{
	{"hit", "myKey", "myKey", true},
	{"miss", "myKey", "nonsense", false},
}

func noEviction(size int, key testKey, value int) bool {
	return false
}

func evictTwoOrMore(size int, key testKey, value int) bool {
	return size > 1
}

func evictThreeOrMore(size int, key testKey, value int) bool {
	return size > 2
}

func TestCacheGet(t *testing.T) {
	for _, tt := range getTests {
		mc := NewTypedUnorderedCache[testKey, int](TypedConfig[testKey, int]{Policy: CacheLRU, ShouldEvict: noEviction})
		mc.Add(tt.keyToAdd, 1234)
		val, ok := mc.Get(tt.keyToGet)
		if ok != tt.expectedOk {
			t.Fatalf("%s: cache hit = %v; want %v", tt.name, ok, !ok)
		} else if ok && val != 1234 {
			t.Fatalf("%s expected get to return 1234 but got %v", tt.name, val)
		}
	}
}

func TestCacheClear(t *testing.T) {
	mc := NewTypedUnorderedCache[testKey, int](TypedConfig[testKey, int]{Policy: CacheLRU, ShouldEvict: noEviction})
	mc.Add(testKey("a"), 1)
	mc.Add(testKey("b"), 2)
	mc.Clear()
	if _, ok := mc.Get(testKey("a")); ok {
		t.Error("expected cache cleared")
	}
	if _, ok := mc.Get(testKey("b")); ok {
		t.Error("expected cache cleared")
	}
	mc.Add(testKey("a"), 1)
	if _, ok := mc.Get(testKey("a")); !ok {
		t.Error("expected reinsert to succeed")
	}
}

func TestCacheDel(t *testing.T) {
	mc := NewTypedUnorderedCache[testKey, int](TypedConfig[testKey, int]{Policy: CacheLRU, ShouldEvict: noEviction})
	mc.Add(testKey("myKey"), 1234)
	if val, ok := mc.Get(testKey("myKey")); !ok {
		t.Fatal("TestDel returned no match")
	} else if val != 1234 {
		t.Fatalf("TestDel failed. Expected %d, got %v", 1234, val)
	}

	mc.Del(testKey("myKey"))
	if _, ok := mc.Get(testKey("myKey")); ok {
		t.Fatal("TestRemove returned a removed entry")
	}
}

func TestCacheEviction(t *testing.T) {
	var evicted []testKey
	mc := NewTypedUnorderedCache[testKey, int](TypedConfig[testKey, int]{
		Policy:      CacheLRU,
		ShouldEvict: evictTwoOrMore,
		OnEvicted:   func(key testKey, value int) { evicted = append(evicted, key) },
	})
	// Insert two keys into cache which only holds 1.
	mc.Add(testKey("a"), 1234)
	val, ok := mc.Get(testKey("a"))
	if !ok || val != 1234 {
		t.Fatal("expected get to succeed with value 1234")
	}
	mc.Add(testKey("b"), 4321)
	val, ok = mc.Get(testKey("b"))
	if !ok || val != 4321 {
		t.Fatal("expected get to succeed with value 4321")
	}
	// Verify eviction of first key.
	if _, ok = mc.Get(testKey("a")); ok {
		t.Fatal("unexpected success getting evicted key")
	}
	if len(evicted) != 1 || evicted[0] != testKey("a") {
		t.Fatalf("expected eviction callback for a, got %v", evicted)
	}
}

func TestCacheLRU(t *testing.T) {
	mc := NewTypedUnorderedCache[testKey, int](TypedConfig[testKey, int]{Policy: CacheLRU, ShouldEvict: evictThreeOrMore})
	// Insert two keys into cache.
	mc.Add(testKey("a"), 1)
	mc.Add(testKey("b"), 2)
	// Get "a" now to make it more recently used.
	if _, ok := mc.Get(testKey("a")); !ok {
		t.Fatal("failed to get key a")
	}
	// Add another entry to cause an eviction; should evict key "b".
	mc.Add(testKey("c"), 3)
	// Verify eviction of least recently used key "b".
	if _, ok := mc.Get(testKey("b")); ok {
		t.Fatal("unexpected success getting evicted key")
	}
}

func TestCacheFIFO(t *testing.T) {
	mc := NewTypedUnorderedCache[testKey, int](TypedConfig[testKey, int]{
		Policy:      CacheFIFO,
		ShouldEvict: evictThreeOrMore,
	})
	// Insert two keys into cache.
	mc.Add(testKey("a"), 1)
	mc.Add(testKey("b"), 2)
	// Get "a" now to make it more recently used.
	if _, ok := mc.Get(testKey("a")); !ok {
		t.Fatal("failed to get key a")
	}
	// Add another entry to evict; should evict key "a" still, as that was first in.
	mc.Add(testKey("c"), 3)
	// Verify eviction of first key "a".
	if _, ok := mc.Get(testKey("a")); ok {
		t.Fatal("unexpected success getting evicted key")
	}
}

func BenchmarkCache(b *testing.B) {
	mc := NewTypedUnorderedCache[testKey, int](TypedConfig[testKey, int]{Policy: CacheLRU, ShouldEvict: noEviction})
	testKeys := []testKey{
		testKey("a"),
		testKey("b"),
		testKey("c"),
		testKey("d"),
		testKey("e"),
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < len(testKeys); j++ {
			mc.Add(testKeys[j], j)
		}
		mc.Clear()
	}
}
