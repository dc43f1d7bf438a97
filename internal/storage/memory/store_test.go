package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-notification-badge/internal/storage/memory"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing value loads as zero", func(t *testing.T) {
		count, err := memory.NewStore().Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("Concurrent saves keep one of the written values", func(t *testing.T) {
		store := memory.NewStore()
		var wg sync.WaitGroup
		for i := 1; i <= 20; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_ = store.Save(ctx, n)
			}(i)
		}
		wg.Wait()

		count, err := store.Load(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, 1)
		assert.LessOrEqual(t, count, 20)
	})
}
