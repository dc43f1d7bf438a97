package provider

import (
	"log/slog"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

// Registry returns every known provider in dispatch order. Vendor-specific
// mechanisms come first; the generic channel provider is last.
func Registry(host launcher.Host, logger *slog.Logger) []badge.Provider {
	return []badge.Provider{
		NewSamsung(host, logger),
		NewXiaomi(host, logger),
		NewHuawei(host, logger),
		NewOppo(host, logger),
		NewVivo(host, logger),
		NewOnePlus(host, logger),
		NewSony(host, logger),
		NewHTC(host, logger),
		NewLG(host, logger),
		NewNovaLauncher(host, logger),
		NewNotificationChannel(host, logger),
	}
}
