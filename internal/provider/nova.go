package provider

import (
	"context"
	"log/slog"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

const (
	novaLauncherPackage = "com.teslacoilsw.launcher"
	teslaUnreadPackage  = "com.teslacoilsw.notifier"
	teslaUnreadAction   = "com.teslacoilsw.notifier.SET_COUNT"
)

// NovaLauncher talks to TeslaUnread, whichever OEM the device comes from.
type NovaLauncher struct {
	base
}

func NewNovaLauncher(host launcher.Host, logger *slog.Logger) *NovaLauncher {
	return &NovaLauncher{base: newBase(host, logger, "nova-launcher")}
}

func (p *NovaLauncher) Name() string { return "nova-launcher" }

func (p *NovaLauncher) Detect(id badge.DeviceIdentity) bool {
	return id.HasPackage(novaLauncherPackage) || id.HasPackage(teslaUnreadPackage)
}

func (p *NovaLauncher) Apply(ctx context.Context, id badge.DeviceIdentity, count int) bool {
	return p.tryInOrder(ctx, id, count,
		mechanism{name: "teslaunread", run: func(ctx context.Context, c component, count int) error {
			return p.broadcast(ctx, launcher.NewIntent(teslaUnreadAction).
				Put("count", count).
				Put("tag", c.flat()))
		}},
	)
}
