package provider

import (
	"context"
	"log/slog"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

const (
	vivoAction    = "com.vivo.launcher.action.UPDATE_COUNT"
	vivoAltAction = "com.vivo.launcher.UPDATE_COUNT"
)

// Vivo covers FuntouchOS / OriginOS launchers on vivo and iQOO devices.
type Vivo struct {
	base
}

func NewVivo(host launcher.Host, logger *slog.Logger) *Vivo {
	return &Vivo{base: newBase(host, logger, "vivo")}
}

func (p *Vivo) Name() string { return "vivo" }

func (p *Vivo) Detect(id badge.DeviceIdentity) bool {
	return id.ManufacturerContains("vivo", "iqoo")
}

func (p *Vivo) Apply(ctx context.Context, id badge.DeviceIdentity, count int) bool {
	return p.tryInOrder(ctx, id, count,
		mechanism{name: "broadcast", run: p.send(vivoAction)},
		mechanism{name: "broadcast-alt", run: p.send(vivoAltAction)},
	)
}

func (p *Vivo) send(action string) func(context.Context, component, int) error {
	return func(ctx context.Context, c component, count int) error {
		return p.broadcast(ctx, launcher.NewIntent(action).
			Put("packageName", c.pkg).
			Put("count", count).
			Put("className", c.class))
	}
}
