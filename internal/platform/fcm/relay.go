package fcm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"firebase.google.com/go/v4/messaging"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
)

// Relay operations, sent in the "op" data field.
const (
	OpBroadcast     = "broadcast"
	OpInsert        = "content_insert"
	OpCreateChannel = "create_channel"
	OpNotify        = "notify"
	OpCancel        = "cancel"
)

// RelayConfig addresses the device whose receiver executes relayed calls.
type RelayConfig struct {
	DeviceToken string
	// LauncherActivities maps a package to its launcher activity class; the
	// relay cannot query the device's package manager.
	LauncherActivities map[string]string
}

// Relay implements every launcher.Host handle by forwarding the call as a
// high-priority FCM data message. Delivery to FCM counts as success.
type Relay struct {
	client     MessagingClient
	token      string
	activities map[string]string
	logger     *slog.Logger
}

func NewRelay(client MessagingClient, cfg RelayConfig, logger *slog.Logger) *Relay {
	activities := make(map[string]string, len(cfg.LauncherActivities))
	for k, v := range cfg.LauncherActivities {
		activities[k] = v
	}
	return &Relay{
		client:     client,
		token:      cfg.DeviceToken,
		activities: activities,
		logger:     logger.With("component", "FCMRelay"),
	}
}

// Host exposes the relay as a launcher.Host.
func (r *Relay) Host() launcher.Host {
	return launcher.Host{Broadcasts: r, Content: r, Notifications: r, Packages: r}
}

func (r *Relay) SendBroadcast(ctx context.Context, intent launcher.Intent) error {
	_, err := r.send(ctx, OpBroadcast, map[string]string{"action": intent.Action}, intent.Extras)
	return err
}

// Insert returns the FCM message ID as the row reference.
func (r *Relay) Insert(ctx context.Context, uri string, values launcher.ContentValues) (string, error) {
	return r.send(ctx, OpInsert, map[string]string{"uri": uri}, values)
}

func (r *Relay) CreateChannel(ctx context.Context, channel launcher.Channel) error {
	_, err := r.send(ctx, OpCreateChannel, nil, channel)
	return err
}

func (r *Relay) Notify(ctx context.Context, id int, n launcher.Notification) error {
	_, err := r.send(ctx, OpNotify, map[string]string{"id": strconv.Itoa(id)}, n)
	return err
}

func (r *Relay) Cancel(ctx context.Context, id int) error {
	_, err := r.send(ctx, OpCancel, map[string]string{"id": strconv.Itoa(id)}, nil)
	return err
}

func (r *Relay) LaunchActivity(_ context.Context, pkg string) (string, error) {
	class, ok := r.activities[pkg]
	if !ok {
		return "", fmt.Errorf("no launcher activity configured for %s", pkg)
	}
	return class, nil
}

func (r *Relay) send(ctx context.Context, op string, fields map[string]string, body any) (string, error) {
	data := map[string]string{"op": op}
	for k, v := range fields {
		data[k] = v
	}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("failed to encode %s payload: %w", op, err)
		}
		data["payload"] = string(raw)
	}

	id, err := r.client.Send(ctx, &messaging.Message{
		Token:   r.token,
		Data:    data,
		Android: &messaging.AndroidConfig{Priority: "high"},
	})
	if err != nil {
		return "", fmt.Errorf("fcm relay %s failed: %w", op, err)
	}
	r.logger.Debug("Relayed launcher call", "op", op, "message_id", id)
	return id, nil
}
