package provider

import (
	"context"
	"log/slog"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

const (
	samsungAuthority  = "com.sec.android.provider.badge"
	samsungContentURI = "content://com.sec.android.provider.badge/apps"
	samsungNotifyURI  = "content://com.sec.android.provider.badge/apps?notify=true"
)

// Samsung writes the badge row into the TouchWiz / One UI badge provider.
type Samsung struct {
	base
}

func NewSamsung(host launcher.Host, logger *slog.Logger) *Samsung {
	return &Samsung{base: newBase(host, logger, "samsung")}
}

func (p *Samsung) Name() string { return "samsung" }

// Detect requires both the vendor and its badge provider being registered.
func (p *Samsung) Detect(id badge.DeviceIdentity) bool {
	return id.ManufacturerContains("samsung") && id.HasContentProvider(samsungAuthority)
}

func (p *Samsung) Apply(ctx context.Context, id badge.DeviceIdentity, count int) bool {
	return p.tryInOrder(ctx, id, count,
		mechanism{name: "badge-provider", run: p.insertAt(samsungContentURI)},
		mechanism{name: "badge-provider-notify", run: p.insertAt(samsungNotifyURI)},
	)
}

func (p *Samsung) insertAt(uri string) func(context.Context, component, int) error {
	return func(ctx context.Context, c component, count int) error {
		return p.insert(ctx, uri, launcher.ContentValues{
			"package":    c.pkg,
			"class":      c.class,
			"badgecount": count,
		})
	}
}
