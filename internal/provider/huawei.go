package provider

import (
	"context"
	"log/slog"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

const (
	huaweiContentURI = "content://com.huawei.android.launcher.settings/badge/"
	huaweiAction     = "com.huawei.android.launcher.action.CHANGE_APPLICATION_NOTIFICATION_NUM"
)

// Huawei covers EMUI launchers on Huawei and Honor devices.
type Huawei struct {
	base
}

func NewHuawei(host launcher.Host, logger *slog.Logger) *Huawei {
	return &Huawei{base: newBase(host, logger, "huawei")}
}

func (p *Huawei) Name() string { return "huawei" }

func (p *Huawei) Detect(id badge.DeviceIdentity) bool {
	return id.ManufacturerContains("huawei", "honor")
}

func (p *Huawei) Apply(ctx context.Context, id badge.DeviceIdentity, count int) bool {
	return p.tryInOrder(ctx, id, count,
		mechanism{name: "launcher-settings", run: func(ctx context.Context, c component, count int) error {
			return p.insert(ctx, huaweiContentURI, launcher.ContentValues{
				"package":     c.pkg,
				"class":       c.class,
				"badgenumber": count,
			})
		}},
		mechanism{name: "broadcast", run: func(ctx context.Context, c component, count int) error {
			return p.broadcast(ctx, launcher.NewIntent(huaweiAction).
				Put("package", c.pkg).
				Put("class", c.class).
				Put("badgenumber", count))
		}},
	)
}
