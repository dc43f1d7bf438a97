package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	"github.com/tinywideclouds/go-notification-badge/internal/bridge"
)

// Lifecycle receives app foreground/background transitions.
type Lifecycle interface {
	OnForeground()
	OnBackground()
}

type BadgeAPI struct {
	Bridge    *bridge.Bridge
	Lifecycle Lifecycle
	Logger    *slog.Logger
}

// NewBadgeAPI wires the HTTP surface of the bridge. lifecycle may be nil on
// platforms without lifecycle hooks.
func NewBadgeAPI(b *bridge.Bridge, lifecycle Lifecycle, logger *slog.Logger) *BadgeAPI {
	return &BadgeAPI{
		Bridge:    b,
		Lifecycle: lifecycle,
		Logger:    logger.With("component", "BadgeAPI"),
	}
}

type CallRequest struct {
	Arguments map[string]any `json:"arguments,omitempty"`
}

type CallResponse struct {
	Result any `json:"result"`
}

type CallErrorResponse struct {
	Error bridge.CallError `json:"error"`
}

// Call handles POST /api/v1/badge/{method}.
func (api *BadgeAPI) Call(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CallRequest
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	method := r.PathValue("method")
	value, err := api.Bridge.Handle(ctx, bridge.MethodCall{Method: method, Arguments: req.Arguments})
	if err != nil {
		api.writeCallError(w, method, userID, err)
		return
	}

	writeJSON(w, http.StatusOK, CallResponse{Result: value})
}

// Foreground handles POST /api/v1/lifecycle/foreground.
func (api *BadgeAPI) Foreground(w http.ResponseWriter, r *http.Request) {
	api.lifecycle(w, r, "foreground", func(l Lifecycle) { l.OnForeground() })
}

// Background handles POST /api/v1/lifecycle/background.
func (api *BadgeAPI) Background(w http.ResponseWriter, r *http.Request) {
	api.lifecycle(w, r, "background", func(l Lifecycle) { l.OnBackground() })
}

func (api *BadgeAPI) lifecycle(w http.ResponseWriter, r *http.Request, event string, fn func(Lifecycle)) {
	if _, ok := middleware.GetUserHandleFromContext(r.Context()); !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if api.Lifecycle == nil {
		response.WriteJSONError(w, http.StatusNotImplemented, "lifecycle hooks not available on this platform")
		return
	}
	fn(api.Lifecycle)
	api.Logger.Debug("Lifecycle event received", "event", event)
	w.WriteHeader(http.StatusAccepted)
}

func (api *BadgeAPI) writeCallError(w http.ResponseWriter, method, userID string, err error) {
	if errors.Is(err, bridge.ErrNotImplemented) {
		response.WriteJSONError(w, http.StatusNotImplemented, "method not implemented")
		return
	}

	var callErr *bridge.CallError
	if !errors.As(err, &callErr) {
		callErr = &bridge.CallError{Code: bridge.CodeInternal, Message: err.Error()}
	}
	status := http.StatusInternalServerError
	if callErr.Code == bridge.CodeInvalidArgument {
		status = http.StatusBadRequest
	} else {
		api.Logger.Error("Badge call failed", "method", method, "user", userID, "err", err)
	}
	writeJSON(w, status, CallErrorResponse{Error: *callErr})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
