package memory

import (
	"testing"
	"time"
)

func TestCachePutGet(t *testing.T) {
	c := NewCache[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on empty cache returned a value")
	}

	c.Put("a", "one")
	got, ok := c.Get("a")
	if !ok || got != "one" {
		t.Errorf("Get(a) = %q, %v; want one, true", got, ok)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache[int](10, 10*time.Millisecond)

	c.Put("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("Get() returned an expired entry")
	}
}

func TestCacheEviction(t *testing.T) {
	c := NewCache[int](2, time.Minute)

	c.Put("first", 1)
	time.Sleep(time.Millisecond)
	c.Put("second", 2)
	time.Sleep(time.Millisecond)
	c.Put("third", 3)

	if _, ok := c.Get("first"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("second"); !ok {
		t.Error("second entry should survive eviction")
	}
	if _, ok := c.Get("third"); !ok {
		t.Error("newest entry should survive eviction")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCacheUpdateDoesNotEvict(t *testing.T) {
	c := NewCache[int](2, time.Minute)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 3) // overwrite, cache stays at two entries

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if got, _ := c.Get("a"); got != 3 {
		t.Errorf("Get(a) = %d, want 3", got)
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("overwrite evicted an unrelated entry")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache[int](10, time.Minute)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Invalidate()

	if c.Len() != 0 {
		t.Errorf("Len() after Invalidate = %d, want 0", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get() returned a value after Invalidate")
	}
}
