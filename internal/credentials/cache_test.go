package credentials

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanshin0214/kakaotalk-mcp/internal/types"
)

func TestCacheCommitFirstWins(t *testing.T) {
	cache := NewCache()

	_, ok := cache.Get()
	assert.False(t, ok, "a new cache should be empty")

	first := types.Credentials{UserID: 7}
	second := types.Credentials{UserID: 9}

	assert.True(t, cache.Commit(first), "first commit should be stored")
	assert.False(t, cache.Commit(second), "second commit should be discarded")

	got, ok := cache.Get()
	require.True(t, ok)
	assert.Equal(t, 7, got.UserID, "the first committed value should win")
}

func TestCacheInvalidate(t *testing.T) {
	cache := NewCache()
	cache.Commit(types.Credentials{UserID: 3})

	cache.Invalidate()

	_, ok := cache.Get()
	assert.False(t, ok, "invalidate should empty the cache")
	assert.True(t, cache.Commit(types.Credentials{UserID: 5}), "commit should work again after invalidate")
}

func TestCacheConcurrentCommits(t *testing.T) {
	cache := NewCache()

	var wg sync.WaitGroup
	var mu sync.Mutex
	stored := 0

	for i := 1; i <= 32; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if cache.Commit(types.Credentials{UserID: id}) {
				mu.Lock()
				stored++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, stored, "exactly one concurrent commit should be stored")
	_, ok := cache.Get()
	assert.True(t, ok)
}
