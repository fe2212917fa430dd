package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestIncrWithExpiry_WindowIsFixed(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)}

	mem := NewMemoryCache()
	mem.now = clock.now

	lite, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { lite.Close() })
	lite.now = clock.now

	for name, c := range map[string]Cache{"memory": mem, "sqlite": lite} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := RateLimitKey(name)

			// A steady client sending every 50s must not keep one window open.
			var last int64
			for i := 0; i < 31; i++ {
				n, err := c.IncrWithExpiry(ctx, key, time.Minute)
				require.NoError(t, err)
				last = n
				clock.advance(50 * time.Second)
			}
			assert.LessOrEqual(t, last, int64(2))
		})
	}
}

func TestIncrWithExpiry_ResetsAfterWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)}
	mem := NewMemoryCache()
	mem.now = clock.now
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := mem.IncrWithExpiry(ctx, "rl", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
		clock.advance(10 * time.Second)
	}

	clock.advance(30 * time.Second)
	n, err := mem.IncrWithExpiry(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "window opened at the first increment has closed")
}
