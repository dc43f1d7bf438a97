//go:build integration

package badgeservice_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/google/uuid"
	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/illmade-knight/go-test/emulators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/tinywideclouds/go-notification-badge/badgeservice"
	"github.com/tinywideclouds/go-notification-badge/badgeservice/config"
	"github.com/tinywideclouds/go-notification-badge/internal/bridge"
	"github.com/tinywideclouds/go-notification-badge/internal/coordinator"
	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/internal/launcher/launchertest"
	"github.com/tinywideclouds/go-notification-badge/internal/provider"
	"github.com/tinywideclouds/go-notification-badge/internal/storage/memory"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

func createPubsubResources(t *testing.T, ctx context.Context, client *pubsub.Client, projectID, topicID, subID string) {
	t.Helper()
	topicName := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	_, err := client.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: topicName})
	require.NoError(t, err)

	_, err = client.SubscriptionAdminClient.CreateSubscription(ctx, &pubsubpb.Subscription{
		Name:  fmt.Sprintf("projects/%s/subscriptions/%s", projectID, subID),
		Topic: topicName,
	})
	require.NoError(t, err)
}

func TestBadgeService_Pipeline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	logger := newTestLogger()
	projectID := "test-project-badge"

	// 1. Pub/Sub emulator
	pubsubConn := emulators.SetupPubsubEmulator(t, ctx, emulators.GetDefaultPubsubConfig(projectID))
	psClient, err := pubsub.NewClient(ctx, projectID, pubsubConn.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = psClient.Close() })

	// 2. Main topic with a dead-letter policy, plus a DLQ we can read from
	runID := uuid.NewString()
	mainTopicID := "badge-main-" + runID
	dlqTopicID := "badge-dlq-" + runID
	mainSubID := mainTopicID + "-sub"
	dlqSubID := dlqTopicID + "-sub"

	createPubsubResources(t, ctx, psClient, projectID, dlqTopicID, dlqSubID)

	mainTopicName := fmt.Sprintf("projects/%s/topics/%s", projectID, mainTopicID)
	_, err = psClient.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: mainTopicName})
	require.NoError(t, err)
	_, err = psClient.SubscriptionAdminClient.CreateSubscription(ctx, &pubsubpb.Subscription{
		Name:  fmt.Sprintf("projects/%s/subscriptions/%s", projectID, mainSubID),
		Topic: mainTopicName,
		DeadLetterPolicy: &pubsubpb.DeadLetterPolicy{
			DeadLetterTopic:     fmt.Sprintf("projects/%s/topics/%s", projectID, dlqTopicID),
			MaxDeliveryAttempts: 5,
		},
		RetryPolicy: &pubsubpb.RetryPolicy{
			MinimumBackoff: &durationpb.Duration{Seconds: 1},
		},
	})
	require.NoError(t, err)

	// 3. Broadcast backend over a recording host
	rec := launchertest.NewRecorder("com.example.app.MainActivity")
	identity := launcher.NewStaticIdentity(badge.IdentityParams{
		Manufacturer: "HTC",
		SDKInt:       25,
		PackageName:  "com.example.app",
	})
	store := memory.NewStore()
	c := coordinator.New(provider.Registry(rec.Host(), logger), identity, store, logger)

	consumer, err := messagepipeline.NewGooglePubsubConsumer(
		messagepipeline.NewGooglePubsubConsumerDefaults(mainSubID), psClient, logger,
	)
	require.NoError(t, err)

	cfg := &config.Config{
		ProjectID:          projectID,
		ListenAddr:         ":0",
		SubscriptionID:     mainSubID,
		NumPipelineWorkers: 2,
	}
	svc, err := badgeservice.New(cfg, consumer, bridge.NewCoordinatorBackend(c), nil, fakeAuth, logger)
	require.NoError(t, err)

	serviceCtx, serviceCancel := context.WithCancel(ctx)
	defer serviceCancel()
	go func() {
		if err := svc.Start(serviceCtx); err != nil && !errors.Is(err, context.Canceled) {
			t.Logf("service.Start() returned an error: %v", err)
		}
	}()
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	publisher := psClient.Publisher(mainTopicID)
	publish := func(payload []byte) {
		_, err := publisher.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
		require.NoError(t, err)
	}

	t.Run("setBadgeCount command reaches the launcher", func(t *testing.T) {
		publish([]byte(`{"method":"setBadgeCount","arguments":{"count":9}}`))

		require.Eventually(t, func() bool {
			count, err := store.Load(ctx)
			return err == nil && count == 9
		}, 15*time.Second, 100*time.Millisecond)
		assert.Contains(t, rec.Actions(), "com.htc.launcher.action.UPDATE_SHORTCUT")
	})

	t.Run("Poison pill is dead-lettered", func(t *testing.T) {
		poisonPayload := []byte(`{"this is not valid json"`)
		publish(poisonPayload)

		dlqSub := psClient.Subscriber(dlqSubID)
		var wg sync.WaitGroup
		wg.Add(1)
		var receivedMsg *pubsub.Message

		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, 20*time.Second)
			defer cancel()
			err := dlqSub.Receive(cctx, func(ctx context.Context, msg *pubsub.Message) {
				msg.Ack()
				receivedMsg = msg
				cancel()
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("DLQ Receive returned an unexpected error: %v", err)
			}
		}()

		wg.Wait()
		require.NotNil(t, receivedMsg, "Did not receive message on the DLQ subscription")
		assert.Equal(t, poisonPayload, receivedMsg.Data)

		count, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 9, count)
	})
}
