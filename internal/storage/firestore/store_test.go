//go:build integration

package firestore_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-test/emulators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fs "github.com/tinywideclouds/go-notification-badge/internal/storage/firestore"
)

func setupSuite(t *testing.T) (context.Context, *firestore.Client) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	projectID := "test-badge-store"
	conn := emulators.SetupFirestoreEmulator(t, ctx, emulators.GetDefaultFirestoreConfig(projectID))
	client, err := firestore.NewClient(ctx, projectID, conn.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return ctx, client
}

func TestBadgeStore_Integration(t *testing.T) {
	ctx, client := setupSuite(t)

	t.Run("Missing document loads as zero", func(t *testing.T) {
		store := fs.NewFirestoreStore(client, "badge-empty")

		count, err := store.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("Last write wins", func(t *testing.T) {
		store := fs.NewFirestoreStore(client, "")

		require.NoError(t, store.Save(ctx, 5))
		require.NoError(t, store.Save(ctx, 2))

		count, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		snap, err := client.Collection("notification_badge").Doc("badge_count").Get(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, snap.Data()["count"])
	})
}
