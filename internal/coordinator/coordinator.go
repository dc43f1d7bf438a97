// Package coordinator fans a badge request out to every provider that detects
// the current device and folds their outcomes into one result.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

// Coordinator owns the provider registry and the persisted badge state.
// It is built once per process and is safe for concurrent use.
type Coordinator struct {
	providers []badge.Provider
	identity  badge.IdentitySource
	store     badge.Store
	logger    *slog.Logger
}

// New creates a coordinator over a fixed, ordered provider list.
func New(providers []badge.Provider, identity badge.IdentitySource, store badge.Store, logger *slog.Logger) *Coordinator {
	registry := make([]badge.Provider, len(providers))
	copy(registry, providers)
	return &Coordinator{
		providers: registry,
		identity:  identity,
		store:     store,
		logger:    logger.With("component", "BadgeCoordinator"),
	}
}

// SetBadgeCount persists count and applies it through every detected provider.
// The returned error is only ever badge.ErrInvalidCount; provider failures are
// reported through AggregateResult.Success.
func (c *Coordinator) SetBadgeCount(ctx context.Context, count int) (badge.AggregateResult, error) {
	if err := badge.ValidateCount(count); err != nil {
		return badge.AggregateResult{}, err
	}

	// The store reflects the last request, so it is written before dispatch.
	if err := c.store.Save(ctx, count); err != nil {
		c.logger.Error("Failed to persist badge count", "count", count, "err", err)
	}

	identity := c.identity.Identity(ctx)
	detected := c.detect(identity)

	result := badge.AggregateResult{Detected: names(detected)}
	for _, p := range detected {
		if c.apply(ctx, p, identity, count) {
			result.Succeeded = append(result.Succeeded, p.Name())
			result.Success = true
			continue
		}
		result.Failed = append(result.Failed, p.Name())
		c.logger.Warn("Badge provider failed", "provider", p.Name(), "count", count)
	}

	c.logger.Info("Badge count dispatched",
		"count", count,
		"success", result.Success,
		"detected", len(result.Detected),
		"succeeded", len(result.Succeeded))
	return result, nil
}

// GetBadgeCount returns the last requested count. It never consults the OS.
func (c *Coordinator) GetBadgeCount(ctx context.Context) (int, error) {
	count, err := c.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load badge count: %w", err)
	}
	return count, nil
}

// IsSupported reports whether any provider detects the current device.
func (c *Coordinator) IsSupported(ctx context.Context) bool {
	return len(c.detect(c.identity.Identity(ctx))) > 0
}

// SupportedProviders lists the detected providers in dispatch order.
func (c *Coordinator) SupportedProviders(ctx context.Context) []string {
	return names(c.detect(c.identity.Identity(ctx)))
}

// DeviceManufacturer returns the manufacturer from a fresh identity snapshot.
func (c *Coordinator) DeviceManufacturer(ctx context.Context) string {
	return c.identity.Identity(ctx).Manufacturer
}

func (c *Coordinator) detect(identity badge.DeviceIdentity) []badge.Provider {
	var detected []badge.Provider
	for _, p := range c.providers {
		if c.safeDetect(p, identity) {
			detected = append(detected, p)
		}
	}
	return detected
}

func (c *Coordinator) safeDetect(p badge.Provider, identity badge.DeviceIdentity) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("Provider detection panicked", "provider", p.Name(), "panic", fmt.Sprint(r))
			ok = false
		}
	}()
	return p.Detect(identity)
}

func (c *Coordinator) apply(ctx context.Context, p badge.Provider, identity badge.DeviceIdentity, count int) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("Badge provider panicked", "provider", p.Name(), "panic", fmt.Sprint(r))
			ok = false
		}
	}()
	return p.Apply(ctx, identity, count)
}

func names(providers []badge.Provider) []string {
	out := make([]string, 0, len(providers))
	for _, p := range providers {
		out = append(out, p.Name())
	}
	return out
}
