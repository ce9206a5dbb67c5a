package chunkcache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryGetMiss(t *testing.T) {
	cache := NewMemory()

	summary, ok, err := cache.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, summary)
}

func TestMemoryPutThenGet(t *testing.T) {
	cache := NewMemory()

	require.NoError(t, cache.Put(context.Background(), "key", "a summary"))

	summary, ok, err := cache.Get(context.Background(), "key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a summary", summary)
	require.Equal(t, 1, cache.Len())
}

func TestMemoryOverwrite(t *testing.T) {
	cache := NewMemory()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "key", "first"))
	require.NoError(t, cache.Put(ctx, "key", "second"))

	summary, ok, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "second", summary)
	require.Equal(t, 1, cache.Len())
}

func TestMemoryConcurrentAccess(t *testing.T) {
	cache := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n)
			_ = cache.Put(ctx, key, "summary")
			_, _, _ = cache.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 16, cache.Len())
}
