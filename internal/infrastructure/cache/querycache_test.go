package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingQuery(key string, calls *atomic.Int32, tags ...Tag) Query[[]string] {
	return Query[[]string]{
		Key:  key,
		Tags: tags,
		Fetch: func(ctx context.Context) ([]string, error) {
			n := calls.Add(1)
			return []string{key, string(rune('0' + n))}, nil
		},
	}
}

func TestGet_CachesUntilInvalidated(t *testing.T) {
	c := NewQueryCache()
	var calls atomic.Int32
	q := countingQuery("tickets", &calls, "ticket:LIST")

	first, err := Get(context.Background(), c, q)
	require.NoError(t, err)
	second, err := Get(context.Background(), c, q)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)

	keys := c.Invalidate("ticket:LIST")
	assert.Equal(t, []string{"tickets"}, keys)

	_, fresh, ok := c.Peek("tickets")
	assert.True(t, ok)
	assert.False(t, fresh)

	third, err := Get(context.Background(), c, q)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.NotEqual(t, first, third)
}

func TestInvalidate_OnlyMatchingTags(t *testing.T) {
	c := NewQueryCache()
	var listCalls, commentCalls atomic.Int32
	list := countingQuery("tickets", &listCalls, "ticket:LIST")
	comments := countingQuery("ticket/1/comments", &commentCalls, "comments:1")

	_, _ = Get(context.Background(), c, list)
	_, _ = Get(context.Background(), c, comments)

	keys := c.Invalidate("comments:1")
	assert.Equal(t, []string{"ticket/1/comments"}, keys)

	_, listFresh, _ := c.Peek("tickets")
	_, commentsFresh, _ := c.Peek("ticket/1/comments")
	assert.True(t, listFresh)
	assert.False(t, commentsFresh)
}

func TestGet_DerivedTags(t *testing.T) {
	c := NewQueryCache()
	q := Query[[]string]{
		Key:  "tickets",
		Tags: []Tag{"ticket:LIST"},
		TagsOf: func(ids []string) []Tag {
			tags := make([]Tag, len(ids))
			for i, id := range ids {
				tags[i] = Tag("ticket:" + id)
			}
			return tags
		},
		Fetch: func(ctx context.Context) ([]string, error) {
			return []string{"1", "2"}, nil
		},
	}

	_, err := Get(context.Background(), c, q)
	require.NoError(t, err)

	assert.Equal(t, []string{"tickets"}, c.Invalidate("ticket:2"))
	assert.Empty(t, c.Invalidate("ticket:3"))
}

func TestGet_ErrorIsNotCached(t *testing.T) {
	c := NewQueryCache()
	boom := errors.New("boom")
	fail := true
	q := Query[string]{
		Key: "ticket/1",
		Fetch: func(ctx context.Context) (string, error) {
			if fail {
				return "", boom
			}
			return "ok", nil
		},
	}

	_, err := Get(context.Background(), c, q)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	fail = false
	v, err := Get(context.Background(), c, q)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestGet_InvalidatedWhileInFlightIsStoredStale(t *testing.T) {
	c := NewQueryCache()
	started := make(chan struct{})
	release := make(chan struct{})
	q := Query[string]{
		Key:  "tickets",
		Tags: []Tag{"ticket:LIST"},
		Fetch: func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "before-mutation", nil
		},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Get(context.Background(), c, q)
	}()

	<-started
	assert.Equal(t, []string{"tickets"}, c.Invalidate("ticket:LIST"))
	close(release)
	<-done

	v, fresh, ok := c.Peek("tickets")
	require.True(t, ok)
	assert.Equal(t, "before-mutation", v)
	assert.False(t, fresh)
}

func TestGet_AfterInvalidateDoesNotJoinEarlierFetch(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(c *QueryCache)
	}{
		{name: "invalidate", invalidate: func(c *QueryCache) { c.Invalidate("ticket:LIST") }},
		{name: "clear", invalidate: func(c *QueryCache) { c.Clear() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewQueryCache()
			var calls atomic.Int32
			started := make(chan struct{})
			release := make(chan struct{})
			q := Query[string]{
				Key:  "tickets",
				Tags: []Tag{"ticket:LIST"},
				Fetch: func(ctx context.Context) (string, error) {
					if calls.Add(1) == 1 {
						close(started)
						<-release
						return "before-mutation", nil
					}
					return "after-mutation", nil
				},
			}

			done := make(chan string)
			go func() {
				v, _ := Get(context.Background(), c, q)
				done <- v
			}()

			<-started
			tt.invalidate(c)

			v, err := Get(context.Background(), c, q)
			require.NoError(t, err)
			assert.Equal(t, "after-mutation", v)
			assert.Equal(t, int32(2), calls.Load())

			close(release)
			assert.Equal(t, "before-mutation", <-done)

			cached, fresh, ok := c.Peek("tickets")
			require.True(t, ok)
			assert.Equal(t, "after-mutation", cached)
			assert.True(t, fresh)
		})
	}
}

func TestGet_ConcurrentMissesShareFetch(t *testing.T) {
	c := NewQueryCache()
	var calls atomic.Int32
	gate := make(chan struct{})
	q := Query[int]{
		Key: "tickets",
		Fetch: func(ctx context.Context) (int, error) {
			calls.Add(1)
			<-gate
			return 4, nil
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Get(context.Background(), c, q)
			assert.NoError(t, err)
			assert.Equal(t, 4, v)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestRefresh_BypassesFreshEntry(t *testing.T) {
	c := NewQueryCache()
	var calls atomic.Int32
	q := countingQuery("tickets", &calls, "ticket:LIST")

	_, err := Get(context.Background(), c, q)
	require.NoError(t, err)
	refreshed, err := Refresh(context.Background(), c, q)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	cached, err := Get(context.Background(), c, q)
	require.NoError(t, err)
	assert.Equal(t, refreshed, cached)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClear(t *testing.T) {
	c := NewQueryCache()
	var calls atomic.Int32
	_, _ = Get(context.Background(), c, countingQuery("a", &calls))
	_, _ = Get(context.Background(), c, countingQuery("b", &calls))
	require.Equal(t, 2, c.Len())

	c.Clear()

	assert.Equal(t, 0, c.Len())
}
