// Package web sets the app badge on installed web apps through Web Push. The
// service worker applies the payload with navigator.setAppBadge.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
)

// Config holds VAPID credentials and the subscriptions to badge.
type Config struct {
	PublicKey       string
	PrivateKey      string
	SubscriberEmail string
	Subscriptions   []webpush.Subscription
	HTTPClient      *http.Client
}

type badgePayload struct {
	Badge int `json:"badge"`
}

type Dispatcher struct {
	options webpush.Options
	logger  *slog.Logger

	mu   sync.Mutex
	subs []webpush.Subscription
}

func NewDispatcher(cfg Config, logger *slog.Logger) *Dispatcher {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Dispatcher{
		options: webpush.Options{
			Subscriber:      cfg.SubscriberEmail,
			VAPIDPublicKey:  cfg.PublicKey,
			VAPIDPrivateKey: cfg.PrivateKey,
			TTL:             60,
			Topic:           "badge",
			Urgency:         webpush.UrgencyLow,
			HTTPClient:      client,
		},
		subs:   append([]webpush.Subscription(nil), cfg.Subscriptions...),
		logger: logger.With("component", "WebPushDispatcher"),
	}
}

func (d *Dispatcher) Name() string { return "web" }

// DispatchBadge pushes {"badge": count} to every subscription. Expired
// subscriptions are dropped.
func (d *Dispatcher) DispatchBadge(ctx context.Context, count int) (string, error) {
	subs := d.liveSubscriptions()
	if len(subs) == 0 {
		return "skipped: no subscriptions", nil
	}

	payloadBytes, err := json.Marshal(badgePayload{Badge: count})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	var invalid []string
	successCount, failureCount := 0, 0
	for i := range subs {
		status, err := d.push(ctx, payloadBytes, &subs[i])
		if err != nil {
			d.logger.Error("WebPush transport error", "endpoint", subs[i].Endpoint, "err", err)
			failureCount++
			continue
		}
		switch status {
		case http.StatusCreated, http.StatusOK:
			successCount++
		case http.StatusGone, http.StatusNotFound:
			invalid = append(invalid, subs[i].Endpoint)
			failureCount++
		default:
			d.logger.Warn("WebPush rejected", "status", status, "endpoint", subs[i].Endpoint)
			failureCount++
		}
	}

	d.drop(invalid)
	receipt := fmt.Sprintf("success:%d invalid:%d total_fail:%d", successCount, len(invalid), failureCount)
	if successCount == 0 {
		return receipt, fmt.Errorf("web badge not delivered (%s)", receipt)
	}
	return receipt, nil
}

func (d *Dispatcher) push(ctx context.Context, payload []byte, sub *webpush.Subscription) (int, error) {
	options := d.options
	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &options)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (d *Dispatcher) liveSubscriptions() []webpush.Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]webpush.Subscription(nil), d.subs...)
}

func (d *Dispatcher) drop(endpoints []string) {
	if len(endpoints) == 0 {
		return
	}
	gone := make(map[string]struct{}, len(endpoints))
	for _, e := range endpoints {
		gone[e] = struct{}{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.subs[:0]
	for _, s := range d.subs {
		if _, ok := gone[s.Endpoint]; !ok {
			kept = append(kept, s)
		}
	}
	d.subs = kept
	d.logger.Info("Dropped expired web subscriptions", "count", len(endpoints))
}
