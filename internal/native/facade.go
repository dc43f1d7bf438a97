// Package native implements the badge façade for platforms that expose a single
// OS badge API, with a modern asynchronous call on newer OS versions and a
// synchronous application property on older ones.
package native

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

const (
	// ModernAPIVersion is the first OS major version with the async badge API.
	ModernAPIVersion = 16

	// Manufacturer is reported for every device on this platform.
	Manufacturer = "Apple"

	DefaultCallbackTimeout = 5 * time.Second
)

// NotificationCenter is the modern, callback-based badge API.
type NotificationCenter interface {
	SetBadgeCount(count int, completion func(err error))
	GetBadgeCount(completion func(count int, err error))
}

// Application is the legacy synchronous badge property.
type Application interface {
	IconBadgeNumber() int
	SetIconBadgeNumber(count int)
}

// VersionSource reports the running OS major version.
type VersionSource interface {
	MajorVersion() int
}

// StaticVersion is a fixed OS major version.
type StaticVersion int

func (v StaticVersion) MajorVersion() int { return int(v) }

// Config holds the façade's tunables.
type Config struct {
	CallbackTimeout time.Duration
}

// Facade sets and reads the badge through the OS API, persisting every
// accepted request and re-syncing on lifecycle transitions.
type Facade struct {
	center  NotificationCenter
	app     Application
	version VersionSource
	queue   *MainQueue
	store   badge.Store
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	current int
}

// New creates the façade. The queue is owned by the caller.
func New(
	cfg Config,
	center NotificationCenter,
	app Application,
	version VersionSource,
	queue *MainQueue,
	store badge.Store,
	logger *slog.Logger,
) *Facade {
	timeout := cfg.CallbackTimeout
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}
	return &Facade{
		center:  center,
		app:     app,
		version: version,
		queue:   queue,
		store:   store,
		timeout: timeout,
		logger:  logger.With("component", "NativeBadgeFacade"),
	}
}

func (f *Facade) modern() bool {
	return f.version.MajorVersion() >= ModernAPIVersion
}

// SetBadgeCount persists count and applies it to the OS. A false result with a
// nil error means the OS call failed or did not answer in time.
func (f *Facade) SetBadgeCount(ctx context.Context, count int) (bool, error) {
	if err := badge.ValidateCount(count); err != nil {
		f.logger.Warn("Rejected badge count", "count", count)
		return false, err
	}

	if err := f.store.Save(ctx, count); err != nil {
		f.logger.Error("Failed to persist badge count", "count", count, "err", err)
	}
	f.setCurrent(count)

	if !f.modern() {
		err := f.queue.Do(ctx, func() { f.app.SetIconBadgeNumber(count) })
		if err != nil {
			return false, fmt.Errorf("legacy badge update not run: %w", err)
		}
		f.logger.Debug("Badge count set via legacy API", "count", count)
		return true, nil
	}

	completed := make(chan error, 1)
	if err := f.queue.Async(func() {
		f.center.SetBadgeCount(count, func(err error) {
			select {
			case completed <- err:
			default:
			}
		})
	}); err != nil {
		return false, fmt.Errorf("badge update not scheduled: %w", err)
	}

	timer := time.NewTimer(f.timeout)
	defer timer.Stop()
	select {
	case err := <-completed:
		if err != nil {
			f.logger.Warn("Notification center rejected badge count", "count", count, "err", err)
			return false, nil
		}
		f.logger.Debug("Badge count set via notification center", "count", count)
		return true, nil
	case <-timer.C:
		f.logger.Warn("Timed out waiting for badge callback", "count", count, "timeout", f.timeout)
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// GetBadgeCount returns the last requested count from the store. The OS value
// can lag behind it when an update was not delivered.
func (f *Facade) GetBadgeCount(ctx context.Context) (int, error) {
	count, err := f.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load badge count: %w", err)
	}
	return count, nil
}

// OnForeground re-reads the OS badge into the cached current value.
func (f *Facade) OnForeground() {
	err := f.queue.Async(func() {
		if !f.modern() {
			f.setCurrent(f.app.IconBadgeNumber())
			return
		}
		f.center.GetBadgeCount(func(count int, err error) {
			if err != nil {
				f.logger.Warn("Failed to read badge count on foreground", "err", err)
				return
			}
			f.setCurrent(count)
		})
	})
	if err != nil {
		f.logger.Warn("Foreground sync not scheduled", "err", err)
	}
}

// OnBackground reasserts a non-zero cached count so the OS keeps showing it.
func (f *Facade) OnBackground() {
	count := f.CurrentBadgeCount()
	if count <= 0 {
		return
	}
	err := f.queue.Async(func() {
		if !f.modern() {
			f.app.SetIconBadgeNumber(count)
			return
		}
		f.center.SetBadgeCount(count, func(err error) {
			if err != nil {
				f.logger.Warn("Failed to preserve badge count in background", "count", count, "err", err)
			}
		})
	})
	if err != nil {
		f.logger.Warn("Background reassert not scheduled", "err", err)
	}
}

// CurrentBadgeCount returns the in-memory value last set or synced.
func (f *Facade) CurrentBadgeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// IsSupported is always true: the platform badge API is universal.
func (f *Facade) IsSupported(_ context.Context) bool { return true }

func (f *Facade) DeviceManufacturer(_ context.Context) string { return Manufacturer }

func (f *Facade) setCurrent(count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = count
}
