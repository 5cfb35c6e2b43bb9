package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := NewLRUCache[int](2, time.Hour, WithEvictHandler(func(k string, _ int) {
		evicted = append(evicted, k)
	}))
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("unexpected evictions %v", evicted)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	clock := newClock()
	var evicted []string
	c := NewLRUCache[int](10, time.Minute,
		WithClock[int](clock.Now),
		WithEvictHandler(func(k string, _ int) { evicted = append(evicted, k) }))
	c.Set("a", 1)
	c.Set("b", 2)

	clock.Advance(2 * time.Minute)
	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("expected 2 expired, got %d", n)
	}
	if c.Size() != 0 || len(evicted) != 2 {
		t.Fatalf("expected empty cache and 2 evictions, got size=%d evicted=%v", c.Size(), evicted)
	}
}

func TestLRUCacheSlidingTTL(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[int](10, time.Minute, WithClock[int](clock.Now), WithSlidingTTL[int]())
	c.Set("a", 1)
	for i := 0; i < 5; i++ {
		clock.Advance(40 * time.Second)
		if _, ok := c.Get("a"); !ok {
			t.Fatalf("access %d: entry expired despite use", i)
		}
	}
	clock.Advance(61 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("idle entry should expire")
	}
}

func TestLRUCacheEvictHandlerMayReenter(t *testing.T) {
	var c *LRUCache[int]
	c = NewLRUCache[int](1, time.Hour, WithEvictHandler(func(string, int) {
		_ = c.Size()
	}))
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("b")
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUCachePurge(t *testing.T) {
	closed := 0
	c := NewLRUCache[int](10, time.Hour, WithEvictHandler(func(string, int) { closed++ }))
	c.Set("a", 1)
	c.Set("b", 2)
	if n := c.Purge(); n != 2 || closed != 2 || c.Size() != 0 {
		t.Fatalf("purge removed %d, closed %d, size %d", n, closed, c.Size())
	}
}

func TestManagerRunStopsOnCancel(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[int](10, time.Millisecond, WithClock[int](clock.Now))
	c.Set("a", 1)
	clock.Advance(time.Second)

	m := NewManager()
	m.Register(c)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("expected sweep to remove 1, got %d", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("manager did not stop")
	}
}
