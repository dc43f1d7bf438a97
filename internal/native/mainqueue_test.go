package native_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-notification-badge/internal/native"
)

func TestMainQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("Runs tasks in submission order", func(t *testing.T) {
		q := native.NewMainQueue(newTestLogger())
		defer q.Close()

		var order []int
		for i := 0; i < 5; i++ {
			n := i
			require.NoError(t, q.Async(func() { order = append(order, n) }))
		}
		require.NoError(t, q.Do(ctx, func() {}))

		assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	})

	t.Run("Survives a panicking task", func(t *testing.T) {
		q := native.NewMainQueue(newTestLogger())
		defer q.Close()

		require.NoError(t, q.Async(func() { panic("boom") }))
		ran := false
		require.NoError(t, q.Do(ctx, func() { ran = true }))

		assert.True(t, ran)
	})

	t.Run("Do honours the context", func(t *testing.T) {
		q := native.NewMainQueue(newTestLogger())
		defer q.Close()
		release := make(chan struct{})
		require.NoError(t, q.Async(func() { <-release }))
		defer close(release)

		timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		err := q.Do(timeout, func() {})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Rejects work after Close", func(t *testing.T) {
		q := native.NewMainQueue(newTestLogger())
		q.Close()

		assert.ErrorIs(t, q.Async(func() {}), native.ErrQueueClosed)
	})
}
