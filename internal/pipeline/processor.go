package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-notification-badge/internal/bridge"
)

// NewProcessor runs each decoded call through the bridge. Caller mistakes
// (bad arguments, unknown methods) are acknowledged and logged; only internal
// failures are returned so the message is redelivered.
func NewProcessor(b *bridge.Bridge, logger *slog.Logger) messagepipeline.StreamProcessor[bridge.MethodCall] {
	return func(ctx context.Context, original messagepipeline.Message, call *bridge.MethodCall) error {
		procLogger := logger.With(
			"method", call.Method,
			"pubsub_msg_id", original.ID,
		)

		value, err := b.Handle(ctx, *call)
		if err == nil {
			procLogger.Info("Badge command processed", "result", value)
			return nil
		}

		if errors.Is(err, bridge.ErrNotImplemented) {
			procLogger.Warn("Dropping badge command for unknown method")
			return nil
		}

		var callErr *bridge.CallError
		if errors.As(err, &callErr) && callErr.Code == bridge.CodeInvalidArgument {
			procLogger.Warn("Dropping invalid badge command", "reason", callErr.Message)
			return nil
		}

		procLogger.Error("Badge command failed", "err", err)
		return err
	}
}
