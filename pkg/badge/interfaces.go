// Package badge contains the public interfaces and domain models shared by the
// badge coordinator, the native-API facade and the bridge layer.
package badge

import (
	"context"
	"errors"
	"fmt"
)

const (
	// Namespace and Key address the single persisted badge count.
	Namespace = "notification_badge"
	Key       = "badge_count"
)

// ErrInvalidCount is returned when a requested badge count is negative.
var ErrInvalidCount = errors.New("badge count cannot be negative")

// ValidateCount rejects counts that can never be rendered as a badge.
func ValidateCount(count int) error {
	if count < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	return nil
}

// Provider is one vendor- or OS-feature-specific strategy for setting a badge.
type Provider interface {
	// Name identifies the provider in logs and diagnostics.
	Name() string

	// Detect reports whether this provider's mechanism might work on the device.
	// It must be pure and must not panic.
	Detect(identity DeviceIdentity) bool

	// Apply sets (count > 0) or clears (count == 0) the badge. Internal faults
	// are reported as false, never as an error or panic.
	Apply(ctx context.Context, identity DeviceIdentity, count int) bool
}

// IdentitySource yields a fresh DeviceIdentity snapshot for a detection pass.
type IdentitySource interface {
	Identity(ctx context.Context) DeviceIdentity
}

// Store persists the last requested badge count.
// Implementations must serialize concurrent writes (last write wins).
type Store interface {
	// Save stores count, replacing any previous value.
	Save(ctx context.Context, count int) error

	// Load returns the stored count, or 0 when nothing has been stored yet.
	Load(ctx context.Context) (int, error)
}

// AggregateResult is the outcome of a single dispatch across all detected providers.
type AggregateResult struct {
	Success   bool
	Detected  []string
	Succeeded []string
	Failed    []string
}
