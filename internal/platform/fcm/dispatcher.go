package fcm

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"firebase.google.com/go/v4/messaging"
)

// DataKeyBadgeCount carries the count in the data payload for clients that
// apply it themselves.
const DataKeyBadgeCount = "badge_count"

// Dispatcher multicasts a badge count to registered FCM tokens. The count is
// set natively on Apple devices and via notification_count on Android.
type Dispatcher struct {
	client MessagingClient
	logger *slog.Logger

	mu     sync.Mutex
	tokens []string
}

func NewDispatcher(client MessagingClient, tokens []string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client: client,
		tokens: append([]string(nil), tokens...),
		logger: logger.With("component", "FCMDispatcher"),
	}
}

func (d *Dispatcher) Name() string { return "fcm" }

// DispatchBadge returns an error for transport failures and for batches where
// no token accepted the message.
func (d *Dispatcher) DispatchBadge(ctx context.Context, count int) (string, error) {
	tokens := d.liveTokens()
	if len(tokens) == 0 {
		return "skipped: no tokens", nil
	}

	badge := count
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   map[string]string{DataKeyBadgeCount: strconv.Itoa(count)},
		Android: &messaging.AndroidConfig{
			Priority: "normal",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-push-type": "background", "apns-priority": "5"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Badge: &badge, ContentAvailable: true},
			},
		},
	}

	br, err := d.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		if messaging.IsInvalidArgument(err) {
			d.logger.Error("FCM rejected badge batch as InvalidArgument", "err", err)
			return "skipped: invalid_argument", err
		}
		return "", fmt.Errorf("fcm transport failed: %w", err)
	}

	var invalidTokens []string
	for idx, resp := range br.Responses {
		if resp.Success {
			continue
		}
		if messaging.IsInvalidArgument(resp.Error) || messaging.IsRegistrationTokenNotRegistered(resp.Error) {
			invalidTokens = append(invalidTokens, tokens[idx])
		}
	}
	d.drop(invalidTokens)

	receipt := fmt.Sprintf("success:%d invalid:%d", br.SuccessCount, len(invalidTokens))
	if br.SuccessCount == 0 {
		return receipt, fmt.Errorf("fcm badge not delivered (%s)", receipt)
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
	kept := d.tokens[:0]
	for _, t := range d.tokens {
		dropped := false
		for _, x := range dead {
			if x == t {
				dropped = true
				break
			}
		}
		if !dropped {
			kept = append(kept, t)
		}
	}
	d.tokens = kept
	d.logger.Info("Dropped dead FCM tokens", "count", len(dead))
}
