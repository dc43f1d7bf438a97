package provider

import (
	"context"
	"log/slog"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

const (
	unreadChangedAction = "com.android.launcher.action.UNREAD_CHANGED"
	unreadCountExtra    = "com.android.launcher.extra.UNREAD_COUNT"
	unreadComponent     = "com.android.launcher.extra.COMPONENT_NAME"
)

// OnePlus targets the OnePlus launcher, falling back to the OxygenOS unread broadcast.
type OnePlus struct {
	base
}

func NewOnePlus(host launcher.Host, logger *slog.Logger) *OnePlus {
	return &OnePlus{base: newBase(host, logger, "oneplus")}
}

func (p *OnePlus) Name() string { return "oneplus" }

func (p *OnePlus) Detect(id badge.DeviceIdentity) bool {
	return id.ManufacturerContains("oneplus")
}

func (p *OnePlus) Apply(ctx context.Context, id badge.DeviceIdentity, count int) bool {
	return p.tryInOrder(ctx, id, count,
		mechanism{name: "oneplus-broadcast", run: func(ctx context.Context, c component, count int) error {
			return p.broadcast(ctx, onePlusIntent(c, count))
		}},
		mechanism{name: "oxygenos-unread", run: func(ctx context.Context, c component, count int) error {
			return p.broadcast(ctx, launcher.NewIntent(unreadChangedAction).
				Put(unreadCountExtra, count).
				Put(unreadComponent, c.flat()))
		}},
	)
}
