package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

const (
	miuiVersionProperty  = "ro.miui.ui.version.name"
	xiaomiChannelID      = "badge_notification_channel"
	xiaomiNotificationID = 1001
)

// Xiaomi drives the MIUI badge through an ongoing placeholder notification.
type Xiaomi struct {
	base
	slot placeholder
}

func NewXiaomi(host launcher.Host, logger *slog.Logger) *Xiaomi {
	return &Xiaomi{
		base: newBase(host, logger, "xiaomi"),
		slot: placeholder{
			id: xiaomiNotificationID,
			channel: launcher.Channel{
				ID:          xiaomiChannelID,
				Name:        "Badge Notifications",
				Description: "Notifications for app badge count",
				Importance:  launcher.ImportanceLow,
				ShowBadge:   true,
			},
			notification: func(count int) launcher.Notification {
				return launcher.Notification{
					ChannelID:     xiaomiChannelID,
					SmallIcon:     "ic_notification_overlay",
					Title:         "Badge Count",
					Text:          fmt.Sprintf("You have %d notifications", count),
					Number:        count,
					Priority:      launcher.PriorityMin,
					BadgeIconType: launcher.BadgeIconSmall,
					Ongoing:       true,
				}
			},
		},
	}
}

func (p *Xiaomi) Name() string { return "xiaomi" }

func (p *Xiaomi) Detect(id badge.DeviceIdentity) bool {
	if id.ManufacturerContains("xiaomi", "redmi", "poco") {
		return true
	}
	_, miui := id.SystemProperty(miuiVersionProperty)
	return miui
}

func (p *Xiaomi) Apply(ctx context.Context, id badge.DeviceIdentity, count int) bool {
	return p.tryInOrder(ctx, id, count,
		mechanism{name: "placeholder-notification", run: func(ctx context.Context, _ component, count int) error {
			return p.placeholder(ctx, p.slot, id.AtLeastSDK(launcher.SDKOreo), count)
		}},
	)
}
