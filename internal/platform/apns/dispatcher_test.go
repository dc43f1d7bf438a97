package apns_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/sideshow/apns2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-notification-badge/internal/platform/apns"
)

type MockAPNSClient struct {
	mock.Mock
}

func (m *MockAPNSClient) Push(n *apns2.Notification) (*apns2.Response, error) {
	args := m.Called(n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apns2.Response), args.Error(1)
}

func badgeOf(t *testing.T, n *apns2.Notification) any {
	raw, err := json.Marshal(n.Payload)
	require.NoError(t, err)
	var body struct {
		Aps map[string]any `json:"aps"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body.Aps["badge"]
}

func TestDispatchBadge(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("Happy Path - Background badge push", func(t *testing.T) {
		mockClient := new(MockAPNSClient)
		dispatcher := apns.NewDispatcherWithClient(mockClient, "com.test.app", []string{"token-1"}, logger)

		var sent *apns2.Notification
		mockClient.On("Push", mock.MatchedBy(func(n *apns2.Notification) bool {
			return n.DeviceToken == "token-1" && n.Topic == "com.test.app" && n.PushType == apns2.PushTypeBackground
		})).Run(func(args mock.Arguments) {
			sent = args.Get(0).(*apns2.Notification)
		}).Return(&apns2.Response{StatusCode: http.StatusOK}, nil).Once()

		receipt, err := dispatcher.DispatchBadge(ctx, 4)

		require.NoError(t, err)
		assert.Contains(t, receipt, "success:1")
		assert.EqualValues(t, 4, badgeOf(t, sent))
		mockClient.AssertExpectations(t)
	})

	t.Run("Zero badge is sent explicitly", func(t *testing.T) {
		mockClient := new(MockAPNSClient)
		dispatcher := apns.NewDispatcherWithClient(mockClient, "com.test.app", []string{"token-1"}, logger)
		var sent *apns2.Notification
		mockClient.On("Push", mock.Anything).Run(func(args mock.Arguments) {
			sent = args.Get(0).(*apns2.Notification)
		}).Return(&apns2.Response{StatusCode: http.StatusOK}, nil).Once()

		_, err := dispatcher.DispatchBadge(ctx, 0)

		require.NoError(t, err)
		assert.EqualValues(t, 0, badgeOf(t, sent))
	})

	t.Run("Dead tokens are dropped", func(t *testing.T) {
		mockClient := new(MockAPNSClient)
		dispatcher := apns.NewDispatcherWithClient(mockClient, "com.test.app", []string{"dead", "alive"}, logger)
		mockClient.On("Push", mock.MatchedBy(func(n *apns2.Notification) bool { return n.DeviceToken == "dead" })).
			Return(&apns2.Response{StatusCode: http.StatusGone, Reason: apns2.ReasonUnregistered}, nil).Once()
		mockClient.On("Push", mock.MatchedBy(func(n *apns2.Notification) bool { return n.DeviceToken == "alive" })).
			Return(&apns2.Response{StatusCode: http.StatusOK}, nil).Twice()

		receipt, err := dispatcher.DispatchBadge(ctx, 1)
		require.NoError(t, err)
		assert.Contains(t, receipt, "invalid:1")

		_, err = dispatcher.DispatchBadge(ctx, 2)
		require.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Failure - Nothing delivered", func(t *testing.T) {
		mockClient := new(MockAPNSClient)
		dispatcher := apns.NewDispatcherWithClient(mockClient, "com.test.app", []string{"token-1"}, logger)
		mockClient.On("Push", mock.Anything).Return(nil, errors.New("network down")).Once()

		_, err := dispatcher.DispatchBadge(ctx, 3)

		assert.ErrorContains(t, err, "apns badge not delivered")
	})

	t.Run("No tokens is a no-op", func(t *testing.T) {
		dispatcher := apns.NewDispatcherWithClient(new(MockAPNSClient), "com.test.app", nil, logger)

		receipt, err := dispatcher.DispatchBadge(ctx, 3)

		require.NoError(t, err)
		assert.Equal(t, "skipped: no tokens", receipt)
	})
}
