package provider

import (
	"context"
	"log/slog"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

const (
	oppoAction    = "com.oppo.launcher.action.UPDATE_COUNT"
	onePlusAction = "com.oneplus.launcher.action.UPDATE_BADGE"
)

// Oppo covers the ColorOS family. OnePlus devices match here and in OnePlus;
// both run.
type Oppo struct {
	base
}

func NewOppo(host launcher.Host, logger *slog.Logger) *Oppo {
	return &Oppo{base: newBase(host, logger, "oppo")}
}

func (p *Oppo) Name() string { return "oppo" }

func (p *Oppo) Detect(id badge.DeviceIdentity) bool {
	return id.ManufacturerContains("oppo", "oneplus", "realme")
}

func (p *Oppo) Apply(ctx context.Context, id badge.DeviceIdentity, count int) bool {
	return p.tryInOrder(ctx, id, count,
		mechanism{name: "oppo-broadcast", run: func(ctx context.Context, c component, count int) error {
			return p.broadcast(ctx, launcher.NewIntent(oppoAction).
				Put("packageName", c.pkg).
				Put("count", count).
				Put("upgradeNumber", count).
				Put("className", c.class))
		}},
		mechanism{name: "oneplus-broadcast", run: func(ctx context.Context, c component, count int) error {
			return p.broadcast(ctx, onePlusIntent(c, count))
		}},
	)
}

func onePlusIntent(c component, count int) launcher.Intent {
	return launcher.NewIntent(onePlusAction).
		Put("packageName", c.pkg).
		Put("className", c.class).
		Put("count", count)
}
