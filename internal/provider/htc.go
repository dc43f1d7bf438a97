package provider

import (
	"context"
	"log/slog"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

const (
	htcShortcutAction     = "com.htc.launcher.action.UPDATE_SHORTCUT"
	htcNotificationAction = "com.htc.launcher.action.SET_NOTIFICATION"
)

// HTC targets Sense launchers.
type HTC struct {
	base
}

func NewHTC(host launcher.Host, logger *slog.Logger) *HTC {
	return &HTC{base: newBase(host, logger, "htc")}
}

func (p *HTC) Name() string { return "htc" }

func (p *HTC) Detect(id badge.DeviceIdentity) bool {
	return id.ManufacturerContains("htc")
}

func (p *HTC) Apply(ctx context.Context, id badge.DeviceIdentity, count int) bool {
	return p.tryInOrder(ctx, id, count,
		mechanism{name: "update-shortcut", run: func(ctx context.Context, c component, count int) error {
			return p.broadcast(ctx, launcher.NewIntent(htcShortcutAction).
				Put("packagename", c.pkg).
				Put("count", count).
				Put("extra_component_name", c.class))
		}},
		mechanism{name: "set-notification", run: func(ctx context.Context, c component, count int) error {
			return p.broadcast(ctx, launcher.NewIntent(htcNotificationAction).
				Put("com.htc.launcher.extra.COMPONENT", c.flat()).
				Put("com.htc.launcher.extra.COUNT", count))
		}},
	)
}
