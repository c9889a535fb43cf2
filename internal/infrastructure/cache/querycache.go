// Package cache provides the keyed, tag-invalidated query cache that sits
// between the board and the ticket API.
//
// Every cached read is stored under a key and labelled with tags. A
// mutation invalidates tags; every entry carrying one of them is marked
// stale and the next read of that key goes back to the network. Nothing is
// refetched eagerly.
package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Tag labels cached entries for invalidation.
type Tag string

type entry struct {
	value     any
	version   uint64
	tags      map[Tag]struct{}
	stale     bool
	fetchedAt time.Time
}

type pendingFetch struct {
	tags  []Tag
	count int
}

// QueryCache is safe for concurrent use.
type QueryCache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	versions map[string]uint64
	pending  map[string]*pendingFetch
	group    singleflight.Group
	now      func() time.Time
}

func NewQueryCache() *QueryCache {
	return &QueryCache{
		entries:  make(map[string]*entry),
		versions: make(map[string]uint64),
		pending:  make(map[string]*pendingFetch),
		now:      time.Now,
	}
}

// Query describes one cacheable read.
type Query[T any] struct {
	// Key identifies the cached result.
	Key string
	// Tags are known before the fetch runs.
	Tags []Tag
	// TagsOf derives extra tags from the fetched value. Optional.
	TagsOf func(T) []Tag
	// Fetch performs the network read.
	Fetch func(ctx context.Context) (T, error)
}

// Get returns the cached value for q.Key when it is fresh, otherwise runs
// q.Fetch and caches the result. Concurrent misses on the same key share
// one fetch.
func Get[T any](ctx context.Context, c *QueryCache, q Query[T]) (T, error) {
	if v, ok := c.fresh(q.Key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	return load(ctx, c, q, q.Key)
}

// Refresh ignores any cached value and fetches q again. It does not join a
// plain Get already in flight, so its result is never older than the call.
func Refresh[T any](ctx context.Context, c *QueryCache, q Query[T]) (T, error) {
	return load(ctx, c, q, refreshFlight(q.Key))
}

func refreshFlight(key string) string {
	return "refresh:" + key
}

func load[T any](ctx context.Context, c *QueryCache, q Query[T], flightKey string) (T, error) {
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		version := c.begin(q.Key, q.Tags)
		value, err := q.Fetch(ctx)
		c.end(q.Key)
		if err != nil {
			return nil, err
		}

		tags := append([]Tag(nil), q.Tags...)
		if q.TagsOf != nil {
			tags = append(tags, q.TagsOf(value)...)
		}
		c.store(q.Key, version, value, tags)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: unexpected value type %T for key %s", v, q.Key)
	}
	return typed, nil
}

func (c *QueryCache) begin(key string, tags []Tag) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[key]
	if !ok {
		p = &pendingFetch{}
		c.pending[key] = p
	}
	p.tags = append(p.tags, tags...)
	p.count++
	return c.versions[key]
}

func (c *QueryCache) end(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.pending[key]; ok {
		p.count--
		if p.count <= 0 {
			delete(c.pending, key)
		}
	}
}

func (c *QueryCache) store(key string, version uint64, value any, tags []Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A fetch that was overtaken by a newer one must not replace its result.
	if cur, ok := c.entries[key]; ok && cur.version > version {
		return
	}

	set := make(map[Tag]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	c.entries[key] = &entry{
		value:     value,
		version:   version,
		tags:      set,
		stale:     c.versions[key] != version,
		fetchedAt: c.now(),
	}
}

func (c *QueryCache) fresh(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	return e.value, true
}

// Peek returns the cached value regardless of staleness, and whether it
// is still fresh.
func (c *QueryCache) Peek(key string) (value any, fresh bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found {
		return nil, false, false
	}
	return e.value, !e.stale, true
}

// Invalidate marks every entry carrying one of tags as stale, including
// reads still in flight, and returns the affected keys in sorted order.
// A read issued after Invalidate never joins a fetch that started before it.
func (c *QueryCache) Invalidate(tags ...Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	want := make(map[Tag]struct{}, len(tags))
	for _, t := range tags {
		want[t] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	affected := make(map[string]struct{})
	for key, e := range c.entries {
		for t := range e.tags {
			if _, hit := want[t]; hit {
				e.stale = true
				affected[key] = struct{}{}
				break
			}
		}
	}
	for key, p := range c.pending {
		for _, t := range p.tags {
			if _, hit := want[t]; hit {
				affected[key] = struct{}{}
				break
			}
		}
	}

	keys := make([]string, 0, len(affected))
	for key := range affected {
		c.bump(key)
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clear drops every entry.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		c.bump(key)
	}
	for key := range c.pending {
		if _, ok := c.entries[key]; !ok {
			c.bump(key)
		}
	}
	c.entries = make(map[string]*entry)
}

// bump moves key to a new version and detaches the fetches in flight for
// it. Callers hold c.mu.
func (c *QueryCache) bump(key string) {
	c.versions[key]++
	if _, ok := c.pending[key]; ok {
		c.group.Forget(key)
		c.group.Forget(refreshFlight(key))
	}
}

// Len returns the number of cached entries, stale ones included.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
