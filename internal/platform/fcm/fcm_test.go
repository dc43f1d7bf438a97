package fcm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/internal/platform/fcm"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func (m *MockClient) SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*messaging.BatchResponse), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_DispatchBadge(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy Path - All Success", func(t *testing.T) {
		mockClient := new(MockClient)
		dispatcher := fcm.NewDispatcher(mockClient, []string{"token-1", "token-2"}, newTestLogger())
		mockClient.On("SendEachForMulticast", ctx, mock.MatchedBy(func(m *messaging.MulticastMessage) bool {
			return m.Data[fcm.DataKeyBadgeCount] == "3" && *m.APNS.Payload.Aps.Badge == 3 && len(m.Tokens) == 2
		})).Return(&messaging.BatchResponse{
			SuccessCount: 2,
			Responses:    []*messaging.SendResponse{{Success: true}, {Success: true}},
		}, nil).Once()

		receipt, err := dispatcher.DispatchBadge(ctx, 3)

		require.NoError(t, err)
		assert.Contains(t, receipt, "success:2")
		mockClient.AssertExpectations(t)
	})

	t.Run("Transport Failure", func(t *testing.T) {
		mockClient := new(MockClient)
		dispatcher := fcm.NewDispatcher(mockClient, []string{"token-1"}, newTestLogger())
		mockClient.On("SendEachForMulticast", ctx, mock.Anything).Return(nil, errors.New("network down"))

		_, err := dispatcher.DispatchBadge(ctx, 1)

		assert.ErrorContains(t, err, "transport failed")
	})

	t.Run("Nothing delivered", func(t *testing.T) {
		mockClient := new(MockClient)
		dispatcher := fcm.NewDispatcher(mockClient, []string{"token-1"}, newTestLogger())
		mockClient.On("SendEachForMulticast", ctx, mock.Anything).Return(&messaging.BatchResponse{
			FailureCount: 1,
			Responses:    []*messaging.SendResponse{{Success: false, Error: errors.New("unavailable")}},
		}, nil)

		_, err := dispatcher.DispatchBadge(ctx, 1)

		assert.ErrorContains(t, err, "not delivered")
	})

	t.Run("No tokens", func(t *testing.T) {
		receipt, err := fcm.NewDispatcher(new(MockClient), nil, newTestLogger()).DispatchBadge(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, "skipped: no tokens", receipt)
	})
}

func TestRelay(t *testing.T) {
	ctx := context.Background()
	cfg := fcm.RelayConfig{
		DeviceToken:        "device-1",
		LauncherActivities: map[string]string{"com.example.app": "com.example.app.MainActivity"},
	}

	t.Run("Broadcast is sent as a data message", func(t *testing.T) {
		mockClient := new(MockClient)
		relay := fcm.NewRelay(mockClient, cfg, newTestLogger())
		var sent *messaging.Message
		mockClient.On("Send", ctx, mock.Anything).Run(func(args mock.Arguments) {
			sent = args.Get(1).(*messaging.Message)
		}).Return("msg-1", nil).Once()

		err := relay.SendBroadcast(ctx, launcher.NewIntent("android.intent.action.BADGE_COUNT_UPDATE").Put("badge_count", 2))

		require.NoError(t, err)
		assert.Equal(t, "device-1", sent.Token)
		assert.Equal(t, fcm.OpBroadcast, sent.Data["op"])
		assert.Equal(t, "android.intent.action.BADGE_COUNT_UPDATE", sent.Data["action"])
		var extras map[string]any
		require.NoError(t, json.Unmarshal([]byte(sent.Data["payload"]), &extras))
		assert.EqualValues(t, 2, extras["badge_count"])
	})

	t.Run("Insert returns the message id as the row", func(t *testing.T) {
		mockClient := new(MockClient)
		relay := fcm.NewRelay(mockClient, cfg, newTestLogger())
		mockClient.On("Send", ctx, mock.MatchedBy(func(m *messaging.Message) bool {
			return m.Data["op"] == fcm.OpInsert && m.Data["uri"] == "content://x/apps"
		})).Return("msg-2", nil).Once()

		row, err := relay.Insert(ctx, "content://x/apps", launcher.ContentValues{"badgecount": 1})

		require.NoError(t, err)
		assert.Equal(t, "msg-2", row)
	})

	t.Run("Send failure surfaces", func(t *testing.T) {
		mockClient := new(MockClient)
		relay := fcm.NewRelay(mockClient, cfg, newTestLogger())
		mockClient.On("Send", ctx, mock.Anything).Return("", errors.New("quota")).Once()

		err := relay.Cancel(ctx, 1000)

		assert.ErrorContains(t, err, "fcm relay cancel failed")
	})

	t.Run("Launcher activity comes from configuration", func(t *testing.T) {
		relay := fcm.NewRelay(new(MockClient), cfg, newTestLogger())

		class, err := relay.LaunchActivity(ctx, "com.example.app")
		require.NoError(t, err)
		assert.Equal(t, "com.example.app.MainActivity", class)

		_, err = relay.LaunchActivity(ctx, "com.other")
		assert.Error(t, err)
	})

	t.Run("Host validates", func(t *testing.T) {
		assert.NoError(t, fcm.NewRelay(new(MockClient), cfg, newTestLogger()).Host().Validate())
	})
}
