package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache bounds its entries by count and by age. Evicted values are handed
// to the evict handler after the lock is released, so a handler may call
// back into the cache.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	sliding bool
	onEvict func(key string, value T)
	now     func() time.Time
	index   map[string]*list.Element
	order   *list.List // front is most recently used
}

type lruEntry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

type Option[T any] func(*LRUCache[T])

// WithSlidingTTL makes every successful Get push the expiry forward by the TTL.
func WithSlidingTTL[T any]() Option[T] {
	return func(c *LRUCache[T]) { c.sliding = true }
}

// WithEvictHandler registers fn for values leaving the cache by capacity,
// expiry, Delete or Purge. Replacing a key with Set does not count.
func WithEvictHandler[T any](fn func(key string, value T)) Option[T] {
	return func(c *LRUCache[T]) { c.onEvict = fn }
}

func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *LRUCache[T]) { c.now = now }
}

// NewLRUCache holds at most maxSize values (unbounded when 0), each for ttl.
func NewLRUCache[T any](maxSize int, ttl time.Duration, opts ...Option[T]) *LRUCache[T] {
	c := &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		index:   make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live value for key and marks it recently used. An
// expired value is evicted on the spot.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.Lock()
	elem, exists := c.index[key]
	if !exists {
		c.mu.Unlock()
		return zero, false
	}

	item := elem.Value.(*lruEntry[T])
	now := c.now()
	if now.After(item.expiresAt) {
		c.unlinkLocked(elem)
		c.mu.Unlock()
		c.notify([]*lruEntry[T]{item})
		return zero, false
	}

	if c.sliding {
		item.expiresAt = now.Add(c.ttl)
	}
	c.order.MoveToFront(elem)
	c.mu.Unlock()
	return item.value, true
}

// Set stores data under key with a fresh TTL, evicting the least recently
// used values beyond maxSize.
func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	item := &lruEntry[T]{
		key:       key,
		value:     data,
		expiresAt: c.now().Add(c.ttl),
	}

	if elem, exists := c.index[key]; exists {
		elem.Value = item
		c.order.MoveToFront(elem)
		c.mu.Unlock()
		return
	}

	elem := c.order.PushFront(item)
	c.index[key] = elem

	var out []*lruEntry[T]
	for c.maxSize > 0 && c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		out = append(out, oldest.Value.(*lruEntry[T]))
		c.unlinkLocked(oldest)
	}
	c.mu.Unlock()
	c.notify(out)
}

// Delete evicts key if present.
func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	elem, exists := c.index[key]
	if !exists {
		c.mu.Unlock()
		return
	}
	item := elem.Value.(*lruEntry[T])
	c.unlinkLocked(elem)
	c.mu.Unlock()
	c.notify([]*lruEntry[T]{item})
}

func (c *LRUCache[T]) unlinkLocked(elem *list.Element) {
	item := elem.Value.(*lruEntry[T])
	delete(c.index, item.key)
	c.order.Remove(elem)
}

func (c *LRUCache[T]) notify(gone []*lruEntry[T]) {
	if c.onEvict == nil {
		return
	}
	for _, it := range gone {
		c.onEvict(it.key, it.value)
	}
}

// CleanExpired evicts every expired value and returns how many went.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	now := c.now()
	var out []*lruEntry[T]
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		item := elem.Value.(*lruEntry[T])
		if now.After(item.expiresAt) {
			out = append(out, item)
			c.unlinkLocked(elem)
		}
		elem = next
	}
	c.mu.Unlock()
	c.notify(out)
	return len(out)
}

// Purge empties the cache, evicting every value.
func (c *LRUCache[T]) Purge() int {
	c.mu.Lock()
	out := make([]*lruEntry[T], 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		out = append(out, elem.Value.(*lruEntry[T]))
	}
	c.index = make(map[string]*list.Element)
	c.order.Init()
	c.mu.Unlock()
	c.notify(out)
	return len(out)
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}
