package provider

import (
	"context"
	"log/slog"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

const lgAction = "android.intent.action.BADGE_COUNT_UPDATE"

// LG has a single broadcast contract and no fallback.
type LG struct {
	base
}

func NewLG(host launcher.Host, logger *slog.Logger) *LG {
	return &LG{base: newBase(host, logger, "lg")}
}

func (p *LG) Name() string { return "lg" }

func (p *LG) Detect(id badge.DeviceIdentity) bool {
	return id.ManufacturerContains("lg", "lge")
}

func (p *LG) Apply(ctx context.Context, id badge.DeviceIdentity, count int) bool {
	return p.tryInOrder(ctx, id, count,
		mechanism{name: "broadcast", run: func(ctx context.Context, c component, count int) error {
			return p.broadcast(ctx, launcher.NewIntent(lgAction).
				Put("badge_count", count).
				Put("badge_count_package_name", c.pkg).
				Put("badge_count_class_name", c.class))
		}},
	)
}
