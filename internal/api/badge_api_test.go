package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-notification-badge/internal/api"
	"github.com/tinywideclouds/go-notification-badge/internal/bridge"
)

// --- Mocks ---
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) SetBadgeCount(ctx context.Context, count int) (bool, error) {
	args := m.Called(ctx, count)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) GetBadgeCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockBackend) IsSupported(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockBackend) DeviceManufacturer(ctx context.Context) string {
	return m.Called(ctx).String(0)
}

type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) OnForeground() { m.Called() }
func (m *MockLifecycle) OnBackground() { m.Called() }

// --- Setup ---
func setupAPI(t *testing.T, lifecycle api.Lifecycle) (*http.ServeMux, *MockBackend) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := new(MockBackend)
	badgeAPI := api.NewBadgeAPI(bridge.New(backend, logger), lifecycle, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/badge/{method}", badgeAPI.Call)
	mux.HandleFunc("POST /api/v1/lifecycle/foreground", badgeAPI.Foreground)
	mux.HandleFunc("POST /api/v1/lifecycle/background", badgeAPI.Background)
	return mux, backend
}

func withUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

func call(mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := withUser(httptest.NewRequest(http.MethodPost, path, reader), "urn:test:user:123")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

// --- Tests ---

func TestBadgeAPI_Call(t *testing.T) {
	t.Run("Success - setBadgeCount", func(t *testing.T) {
		mux, backend := setupAPI(t, nil)
		backend.On("SetBadgeCount", mock.Anything, 4).Return(true, nil).Once()

		w := call(mux, "/api/v1/badge/setBadgeCount", map[string]any{"arguments": map[string]any{"count": 4}})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"result": true}`, w.Body.String())
		backend.AssertExpectations(t)
	})

	t.Run("Success - whole-number float literal", func(t *testing.T) {
		mux, backend := setupAPI(t, nil)
		backend.On("SetBadgeCount", mock.Anything, 5).Return(true, nil).Once()

		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/badge/setBadgeCount",
			strings.NewReader(`{"arguments":{"count":5.0}}`)), "urn:test:user:123")
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"result": true}`, w.Body.String())
		backend.AssertExpectations(t)
	})

	t.Run("Success - getBadgeCount without a body", func(t *testing.T) {
		mux, backend := setupAPI(t, nil)
		backend.On("GetBadgeCount", mock.Anything).Return(2, nil).Once()

		w := call(mux, "/api/v1/badge/getBadgeCount", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"result": 2}`, w.Body.String())
	})

	t.Run("Invalid argument maps to 400", func(t *testing.T) {
		mux, backend := setupAPI(t, nil)

		w := call(mux, "/api/v1/badge/setBadgeCount", map[string]any{"arguments": map[string]any{"count": -3}})

		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp api.CallErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, bridge.CodeInvalidArgument, resp.Error.Code)
		backend.AssertNotCalled(t, "SetBadgeCount", mock.Anything, mock.Anything)
	})

	t.Run("Unknown method maps to 501", func(t *testing.T) {
		mux, _ := setupAPI(t, nil)

		w := call(mux, "/api/v1/badge/resetEverything", nil)

		assert.Equal(t, http.StatusNotImplemented, w.Code)
	})

	t.Run("Unauthorized", func(t *testing.T) {
		mux, _ := setupAPI(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/badge/isSupported", http.NoBody)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		mux, _ := setupAPI(t, nil)
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/badge/setBadgeCount", bytes.NewReader([]byte("{bad"))), "urn:test:user:123")
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBadgeAPI_Lifecycle(t *testing.T) {
	t.Run("Success - hooks are forwarded", func(t *testing.T) {
		lifecycle := new(MockLifecycle)
		lifecycle.On("OnForeground").Once()
		lifecycle.On("OnBackground").Once()
		mux, _ := setupAPI(t, lifecycle)

		assert.Equal(t, http.StatusAccepted, call(mux, "/api/v1/lifecycle/foreground", nil).Code)
		assert.Equal(t, http.StatusAccepted, call(mux, "/api/v1/lifecycle/background", nil).Code)
		lifecycle.AssertExpectations(t)
	})

	t.Run("Not available without hooks", func(t *testing.T) {
		mux, _ := setupAPI(t, nil)

		assert.Equal(t, http.StatusNotImplemented, call(mux, "/api/v1/lifecycle/foreground", nil).Code)
	})
}
