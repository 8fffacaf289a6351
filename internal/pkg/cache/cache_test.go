package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestCache_SetGet(t *testing.T) {
	c := New[string](time.Minute)

	c.Set("k", "v")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_NegativeTTLIsAbsent(t *testing.T) {
	c := New[int](time.Minute)

	c.SetWithTTL("k", 1, -time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry should be removed on read")
}

func TestCache_ExpiresAfterDefaultTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string](300*time.Second, WithClock(clock.Now))

	c.Set("k", "v")

	clock.Advance(299 * time.Second)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	c := New[string](time.Minute)

	c.Set("k", "v")
	c.Invalidate("k")
	c.Invalidate("never-set")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_Purge(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[int](time.Minute, WithClock(clock.Now))

	c.SetWithTTL("short", 1, time.Second)
	c.SetWithTTL("long", 2, time.Hour)
	clock.Advance(time.Minute)

	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("long")
	assert.True(t, ok)
}

func TestNew_DefaultTTLFallback(t *testing.T) {
	c := New[int](0)
	assert.Equal(t, DefaultTTL, c.defaultTTL)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := strconv.Itoa(i % 4)
			for j := 0; j < 200; j++ {
				c.Set(key, j)
				c.Get(key)
				if j%10 == 0 {
					c.Invalidate(key)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 4)
}

func TestCache_SetIfGeneration(t *testing.T) {
	c := New[string](time.Minute)

	gen := c.Generation("k")
	assert.True(t, c.SetIfGeneration("k", "fresh", gen))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "fresh", got)
}

func TestCache_SetIfGenerationAfterInvalidate(t *testing.T) {
	c := New[string](time.Minute)

	gen := c.Generation("k")
	c.Invalidate("k")
	assert.NotEqual(t, gen, c.Generation("k"))

	assert.False(t, c.SetIfGeneration("k", "stale", gen))
	_, ok := c.Get("k")
	assert.False(t, ok, "value loaded before invalidation must not be stored")
	assert.Equal(t, 0, c.Len())

	assert.True(t, c.SetIfGeneration("k", "fresh", c.Generation("k")))
}

func TestCache_GenerationIsPerKey(t *testing.T) {
	c := New[int](time.Minute)

	genB := c.Generation("b")
	c.Invalidate("a")
	assert.True(t, c.SetIfGeneration("b", 1, genB))
}
