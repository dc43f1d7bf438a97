package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

const (
	badgeChannelID      = "notification_badge_channel"
	badgeNotificationID = 1000
)

// NotificationChannel is the generic Android O+ path: launchers that honour
// channel badges render the placeholder's Number.
type NotificationChannel struct {
	base
	slot placeholder
}

func NewNotificationChannel(host launcher.Host, logger *slog.Logger) *NotificationChannel {
	return &NotificationChannel{
		base: newBase(host, logger, "notification-channel"),
		slot: placeholder{
			id: badgeNotificationID,
			channel: launcher.Channel{
				ID:          badgeChannelID,
				Name:        "App Badge Notifications",
				Description: "Notifications for showing app badge count",
				Importance:  launcher.ImportanceLow,
				ShowBadge:   true,
			},
			notification: func(count int) launcher.Notification {
				return launcher.Notification{
					ChannelID: badgeChannelID,
					SmallIcon: "ic_dialog_info",
					Title:     "Badge Count",
					Text:      fmt.Sprintf("You have %d notifications", count),
					Number:    count,
					Priority:  launcher.PriorityLow,
					Silent:    true,
				}
			},
		},
	}
}

func (p *NotificationChannel) Name() string { return "notification-channel" }

func (p *NotificationChannel) Detect(id badge.DeviceIdentity) bool {
	return id.AtLeastSDK(launcher.SDKOreo)
}

func (p *NotificationChannel) Apply(ctx context.Context, id badge.DeviceIdentity, count int) bool {
	return p.tryInOrder(ctx, id, count,
		mechanism{name: "channel-notification", run: func(ctx context.Context, _ component, count int) error {
			return p.placeholder(ctx, p.slot, true, count)
		}},
	)
}
