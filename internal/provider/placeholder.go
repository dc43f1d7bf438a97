package provider

import (
	"context"
	"fmt"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
)

// placeholder posts a low-key notification whose Number carries the badge and
// cancels it when the count drops to zero.
type placeholder struct {
	id           int
	channel      launcher.Channel
	notification func(count int) launcher.Notification
}

func (b base) placeholder(ctx context.Context, p placeholder, createChannel bool, count int) error {
	if createChannel {
		if err := b.host.Notifications.CreateChannel(ctx, p.channel); err != nil {
			return fmt.Errorf("failed to create channel %q: %w", p.channel.ID, err)
		}
	}
	if count == 0 {
		return b.host.Notifications.Cancel(ctx, p.id)
	}
	return b.host.Notifications.Notify(ctx, p.id, p.notification(count))
}
