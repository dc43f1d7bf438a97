// Package bridge dispatches named method calls from the host runtime to a
// badge backend and maps outcomes to result values or coded errors.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

// ChannelName is the method channel the host runtime calls on.
const ChannelName = badge.Namespace

const (
	MethodSetBadgeCount         = "setBadgeCount"
	MethodGetBadgeCount         = "getBadgeCount"
	MethodIsSupported           = "isSupported"
	MethodGetDeviceManufacturer = "getDeviceManufacturer"
	MethodGetSupportedProviders = "getSupportedProviders"
)

const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeInternal        = "INTERNAL"
)

// ErrNotImplemented is returned for methods the channel does not know.
var ErrNotImplemented = errors.New("method not implemented")

// MethodCall is one invocation on the channel.
type MethodCall struct {
	Method    string         `json:"method"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// CallError is a coded failure returned to the caller.
type CallError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Backend is the per-platform badge implementation the bridge calls into.
type Backend interface {
	SetBadgeCount(ctx context.Context, count int) (bool, error)
	GetBadgeCount(ctx context.Context) (int, error)
	IsSupported(ctx context.Context) bool
	DeviceManufacturer(ctx context.Context) string
}

// ProviderLister is implemented by backends that can name their detected providers.
type ProviderLister interface {
	SupportedProviders(ctx context.Context) []string
}

// Bridge routes method calls to a Backend.
type Bridge struct {
	backend Backend
	logger  *slog.Logger
}

func New(backend Backend, logger *slog.Logger) *Bridge {
	return &Bridge{
		backend: backend,
		logger:  logger.With("component", "BadgeBridge", "channel", ChannelName),
	}
}

// Handle executes call. Errors are either *CallError or ErrNotImplemented.
func (b *Bridge) Handle(ctx context.Context, call MethodCall) (any, error) {
	log := b.logger.With("call_id", uuid.NewString(), "method", call.Method)
	log.Debug("Method call received")

	switch call.Method {
	case MethodSetBadgeCount:
		count, err := countArgument(call.Arguments)
		if err != nil {
			log.Warn("setBadgeCount rejected", "err", err)
			return nil, err
		}
		ok, err := b.backend.SetBadgeCount(ctx, count)
		if err != nil {
			return nil, toCallError(err)
		}
		log.Debug("setBadgeCount finished", "count", count, "success", ok)
		return ok, nil

	case MethodGetBadgeCount:
		count, err := b.backend.GetBadgeCount(ctx)
		if err != nil {
			return nil, toCallError(err)
		}
		return count, nil

	case MethodIsSupported:
		return b.backend.IsSupported(ctx), nil

	case MethodGetDeviceManufacturer:
		return b.backend.DeviceManufacturer(ctx), nil

	case MethodGetSupportedProviders:
		lister, ok := b.backend.(ProviderLister)
		if !ok {
			break
		}
		return lister.SupportedProviders(ctx), nil
	}

	log.Info("Unimplemented method called")
	return nil, ErrNotImplemented
}

// countArgument extracts a non-negative integral "count".
func countArgument(args map[string]any) (int, error) {
	raw, ok := args["count"]
	if !ok || raw == nil {
		return 0, &CallError{Code: CodeInvalidArgument, Message: "Invalid count argument"}
	}

	var count int
	switch v := raw.(type) {
	case int:
		count = v
	case int32:
		count = int(v)
	case int64:
		count = int(v)
	case float64:
		n, ok := integral(v)
		if !ok {
			return 0, &CallError{Code: CodeInvalidArgument, Message: "Invalid count argument"}
		}
		count = n
	case json.Number:
		if n, err := v.Int64(); err == nil {
			count = int(n)
			break
		}
		f, err := v.Float64()
		if err != nil {
			return 0, &CallError{Code: CodeInvalidArgument, Message: "Invalid count argument"}
		}
		n, ok := integral(f)
		if !ok {
			return 0, &CallError{Code: CodeInvalidArgument, Message: "Invalid count argument"}
		}
		count = n
	default:
		return 0, &CallError{Code: CodeInvalidArgument, Message: "Invalid count argument"}
	}

	if err := badge.ValidateCount(count); err != nil {
		return 0, &CallError{Code: CodeInvalidArgument, Message: "Badge count cannot be negative"}
	}
	return count, nil
}

// integral accepts whole numbers such as 5.0 and rejects fractions and
// values outside the int32 range.
func integral(f float64) (int, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func toCallError(err error) *CallError {
	if errors.Is(err, badge.ErrInvalidCount) {
		return &CallError{Code: CodeInvalidArgument, Message: "Badge count cannot be negative"}
	}
	return &CallError{Code: CodeInternal, Message: err.Error()}
}
