package cache

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1, time.Minute)

	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("expected hit with 1, got %d (ok=%v)", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1, time.Minute)
	c.Set("a", 2, time.Minute)

	v, _ := c.Get("a")
	if v != 2 {
		t.Fatalf("expected overwrite to win, got %d", v)
	}
}

func TestCacheExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewWithClock[string, float64](func() time.Time { return now })

	c.Set("price", 42.5, 30*time.Second)

	now = now.Add(29 * time.Second)
	if v, ok := c.Get("price"); !ok || v != 42.5 {
		t.Fatalf("expected hit before expiry, got %v (ok=%v)", v, ok)
	}

	// A lookup exactly at the expiry instant is already a miss.
	now = now.Add(time.Second)
	if _, ok := c.Get("price"); ok {
		t.Fatal("expected miss at expiry")
	}

	// The entry was evicted, not just hidden.
	c.Set("price", 50, time.Hour)
	if v, _ := c.Get("price"); v != 50 {
		t.Fatalf("expected fresh value after re-set, got %v", v)
	}
}

func TestCacheClear(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1, time.Minute)
	c.Clear()
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after Clear")
	}
}
