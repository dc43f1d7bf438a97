// Package provider implements the vendor badge strategies and the fixed,
// ordered registry the coordinator iterates.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

var errRejected = errors.New("content provider returned no row")

// component is the package/launcher-activity pair most vendor contracts need.
type component struct {
	pkg   string
	class string
}

// flat renders the "package/class" form some launchers expect.
func (c component) flat() string {
	return c.pkg + "/" + c.class
}

// mechanism is one way of delivering a badge for a vendor.
type mechanism struct {
	name string
	run  func(ctx context.Context, target component, count int) error
}

// base carries the OS handles and the fallback policy shared by every provider.
type base struct {
	host   launcher.Host
	logger *slog.Logger
}

func newBase(host launcher.Host, logger *slog.Logger, name string) base {
	return base{host: host, logger: logger.With("provider", name)}
}

// resolve looks up the launcher activity; an unresolvable class degrades to "".
func (b base) resolve(ctx context.Context, identity badge.DeviceIdentity) component {
	target := component{pkg: identity.PackageName}
	class, err := b.host.Packages.LaunchActivity(ctx, identity.PackageName)
	if err != nil {
		b.logger.Debug("Launcher activity lookup failed", "package", identity.PackageName, "err", err)
		return target
	}
	target.class = class
	return target
}

// tryInOrder runs mechanisms until one succeeds. Errors and panics from a
// mechanism move on to the next one; nothing escapes.
func (b base) tryInOrder(ctx context.Context, identity badge.DeviceIdentity, count int, mechanisms ...mechanism) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("Provider panicked", "panic", fmt.Sprint(r))
			ok = false
		}
	}()

	target := b.resolve(ctx, identity)
	for _, m := range mechanisms {
		if err := guard(func() error { return m.run(ctx, target, count) }); err != nil {
			b.logger.Debug("Badge mechanism failed", "mechanism", m.name, "err", err)
			continue
		}
		b.logger.Debug("Badge mechanism succeeded", "mechanism", m.name, "count", count)
		return true
	}
	return false
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (b base) broadcast(ctx context.Context, intent launcher.Intent) error {
	return b.host.Broadcasts.SendBroadcast(ctx, intent)
}

func (b base) insert(ctx context.Context, uri string, values launcher.ContentValues) error {
	row, err := b.host.Content.Insert(ctx, uri, values)
	if err != nil {
		return err
	}
	if row == "" {
		return errRejected
	}
	return nil
}
