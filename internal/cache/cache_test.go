// file: internal/cache/cache_test.go
// version: 1.2.0
// guid: ebbc594f-95ed-4f13-93d6-a8159416bb9c

package cache

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New[string](time.Minute)
	c.Set("k", "v")
	v, ok := c.Get("k")
	if !ok || v != "v" {
		t.Fatalf("expected v, got %q ok=%v", v, ok)
	}
}

func TestExpiry(t *testing.T) {
	c := New[int](time.Millisecond)
	c.Set("k", 42)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("k")
	if ok {
		t.Fatal("expected expired entry")
	}
}

func TestInvalidateAll(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.InvalidateAll()
	_, ok := c.Get("a")
	if ok {
		t.Fatal("expected all invalidated")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := New[string](0)
	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set("k", "v")
	c.now = func() time.Time { return base.Add(24 * 365 * time.Hour) }
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("expected entry without TTL to survive, got %q ok=%v", v, ok)
	}
}

func TestSweep(t *testing.T) {
	c := New[int](time.Minute)
	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set("old", 1)
	c.now = func() time.Time { return base.Add(45 * time.Second) }
	c.Set("fresh", 2)
	c.now = func() time.Time { return base.Add(90 * time.Second) }

	if removed := c.Sweep(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("expected the fresh entry to remain")
	}
}
