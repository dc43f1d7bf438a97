// Package apns pushes badge-only background notifications through the Apple
// Push Notification Service.
package apns

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNSClient defines the subset of the apns2.Client methods we use.
type APNSClient interface {
	Push(n *apns2.Notification) (*apns2.Response, error)
}

// Config holds the credentials required to sign APNs tokens and the devices to badge.
type Config struct {
	KeyID    string
	TeamID   string
	BundleID string
	// P8KeyContent is the raw content of the .p8 file.
	P8KeyContent string
	Development  bool
	DeviceTokens []string
}

type Dispatcher struct {
	client APNSClient
	topic  string
	logger *slog.Logger

	mu     sync.Mutex
	tokens []string
}

// NewDispatcher parses the P8 key immediately so bad credentials fail at startup.
func NewDispatcher(cfg Config, logger *slog.Logger) (*Dispatcher, error) {
	authKey, err := token.AuthKeyFromBytes([]byte(cfg.P8KeyContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse APNs P8 key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Development {
		client = client.Development()
	} else {
		client = client.Production()
	}

	return NewDispatcherWithClient(client, cfg.BundleID, cfg.DeviceTokens, logger), nil
}

// NewDispatcherWithClient builds a dispatcher over an existing client.
func NewDispatcherWithClient(client APNSClient, topic string, tokens []string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client: client,
		topic:  topic,
		tokens: append([]string(nil), tokens...),
		logger: logger.With("component", "APNSDispatcher"),
	}
}

func (d *Dispatcher) Name() string { return "apns" }

// DispatchBadge sets the app icon badge on every registered device with a
// silent background push. Tokens APNs reports as dead are dropped. An error is
// returned only when no device accepted the badge.
func (d *Dispatcher) DispatchBadge(ctx context.Context, count int) (string, error) {
	tokens := d.liveTokens()
	if len(tokens) == 0 {
		return "skipped: no tokens", nil
	}

	aps := payload.NewPayload().ContentAvailable()
	if count == 0 {
		aps = aps.ZeroBadge()
	} else {
		aps = aps.Badge(count)
	}

	var invalidTokens []string
	successCount, failureCount := 0, 0

	for _, deviceToken := range tokens {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		res, err := d.client.Push(&apns2.Notification{
			DeviceToken: deviceToken,
			Topic:       d.topic,
			Payload:     aps,
			PushType:    apns2.PushTypeBackground,
			Priority:    apns2.PriorityLow,
		})
		if err != nil {
			d.logger.Error("APNs transport failed", "token", deviceToken, "err", err)
			failureCount++
			continue
		}

		if res.Sent() {
			successCount++
			continue
		}
		failureCount++
		switch res.Reason {
		case apns2.ReasonBadDeviceToken, apns2.ReasonUnregistered, apns2.ReasonDeviceTokenNotForTopic:
			invalidTokens = append(invalidTokens, deviceToken)
		default:
			d.logger.Warn("APNs rejected badge", "reason", res.Reason, "status", res.StatusCode)
		}
	}

	d.drop(invalidTokens)
	receipt := fmt.Sprintf("success:%d invalid:%d total_fail:%d", successCount, len(invalidTokens), failureCount)
	if successCount == 0 {
		return receipt, fmt.Errorf("apns badge not delivered (%s)", receipt)
	}
	return receipt, nil
}

func (d *Dispatcher) liveTokens() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.tokens...)
}

func (d *Dispatcher) drop(dead []string) {
	if len(dead) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	gone := make(map[string]struct{}, len(dead))
	for _, t := range dead {
		gone[t] = struct{}{}
	}
	kept := d.tokens[:0]
	for _, t := range d.tokens {
		if _, ok := gone[t]; !ok {
			kept = append(kept, t)
		}
	}
	d.tokens = kept
	d.logger.Info("Dropped dead APNs tokens", "count", len(dead))
}
