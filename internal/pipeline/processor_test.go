package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tinywideclouds/go-notification-badge/internal/bridge"
	"github.com/tinywideclouds/go-notification-badge/internal/pipeline"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) SetBadgeCount(ctx context.Context, count int) (bool, error) {
	args := m.Called(ctx, count)
	return args.Bool(0), args.Error(1)
}

func (m *mockBackend) GetBadgeCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockBackend) IsSupported(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *mockBackend) DeviceManufacturer(ctx context.Context) string {
	return m.Called(ctx).String(0)
}

func TestProcessor(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	original := messagepipeline.Message{MessageData: messagepipeline.MessageData{ID: "msg-1"}}

	t.Run("Happy Path - Dispatches setBadgeCount", func(t *testing.T) {
		backend := new(mockBackend)
		backend.On("SetBadgeCount", ctx, 6).Return(true, nil).Once()
		process := pipeline.NewProcessor(bridge.New(backend, logger), logger)

		err := process(ctx, original, &bridge.MethodCall{Method: "setBadgeCount", Arguments: map[string]any{"count": 6}})

		assert.NoError(t, err)
		backend.AssertExpectations(t)
	})

	t.Run("Invalid argument is acknowledged", func(t *testing.T) {
		backend := new(mockBackend)
		process := pipeline.NewProcessor(bridge.New(backend, logger), logger)

		err := process(ctx, original, &bridge.MethodCall{Method: "setBadgeCount", Arguments: map[string]any{"count": -1}})

		assert.NoError(t, err)
		backend.AssertNotCalled(t, "SetBadgeCount", mock.Anything, mock.Anything)
	})

	t.Run("Unknown method is acknowledged", func(t *testing.T) {
		process := pipeline.NewProcessor(bridge.New(new(mockBackend), logger), logger)

		assert.NoError(t, process(ctx, original, &bridge.MethodCall{Method: "launchRockets"}))
	})

	t.Run("Internal failure is retried", func(t *testing.T) {
		backend := new(mockBackend)
		backend.On("GetBadgeCount", ctx).Return(0, errors.New("redis down")).Once()
		process := pipeline.NewProcessor(bridge.New(backend, logger), logger)

		err := process(ctx, original, &bridge.MethodCall{Method: "getBadgeCount"})

		assert.Error(t, err)
	})
}
