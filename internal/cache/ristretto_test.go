package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestL1Cache_SetGet(t *testing.T) {
	c, err := NewL1Cache(1<<16, time.Minute, "intent:", nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "top five portfolios", []byte(`{"query_type":"top_performers"}`))
	c.Wait()

	got, ok := c.Get(ctx, "top five portfolios")
	require.True(t, ok)
	assert.Equal(t, `{"query_type":"top_performers"}`, string(got))

	_, ok = c.Get(ctx, "unknown")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.L1Hits)
	assert.Equal(t, int64(1), stats.L1Misses)
}

func TestL1Cache_Delete(t *testing.T) {
	c, err := NewL1Cache(0, 0, "", nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "k", []byte("v"))
	c.Wait()
	require.NoError(t, c.Delete(ctx, "k"))

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func BenchmarkL1CacheGet(b *testing.B) {
	c, err := NewL1Cache(1<<20, 5*time.Minute, "", nil, zaptest.NewLogger(b))
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		key := string(rune(i%26+'a')) + string(rune((i/26)%26+'a'))
		c.Set(ctx, key, []byte("test-data"))
	}
	c.Wait()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := string(rune(i%26+'a')) + string(rune((i/26)%26+'a'))
			c.Get(ctx, key)
			i++
		}
	})
}
