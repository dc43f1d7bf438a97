// Package remote presents push dispatchers as the native notification-center
// API, so the native façade can badge devices it does not run on.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var errNoDispatchers = errors.New("no badge dispatchers configured")

// Dispatcher pushes a badge count to a set of devices.
type Dispatcher interface {
	Name() string
	DispatchBadge(ctx context.Context, count int) (string, error)
}

// Center fans each badge update out to every dispatcher. An update succeeds
// when at least one dispatcher delivers it. Reads return the last delivered
// count.
type Center struct {
	dispatchers []Dispatcher
	timeout     time.Duration
	logger      *slog.Logger

	mu   sync.Mutex
	last int
}

func NewCenter(dispatchers []Dispatcher, timeout time.Duration, logger *slog.Logger) *Center {
	return &Center{
		dispatchers: dispatchers,
		timeout:     timeout,
		logger:      logger.With("component", "RemoteBadgeCenter"),
	}
}

// Seed sets the count reads return before the first delivery, typically the
// persisted value loaded at startup.
func (c *Center) Seed(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = count
}

// SetBadgeCount delivers asynchronously and reports through completion.
func (c *Center) SetBadgeCount(count int, completion func(err error)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		completion(c.deliver(ctx, count))
	}()
}

func (c *Center) GetBadgeCount(completion func(count int, err error)) {
	count := c.IconBadgeNumber()
	go completion(count, nil)
}

func (c *Center) IconBadgeNumber() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// SetIconBadgeNumber is the synchronous form. Failures are only logged.
func (c *Center) SetIconBadgeNumber(count int) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.deliver(ctx, count); err != nil {
		c.logger.Warn("Badge update not delivered", "count", count, "err", err)
	}
}

func (c *Center) deliver(ctx context.Context, count int) error {
	if len(c.dispatchers) == 0 {
		return errNoDispatchers
	}

	var errs []error
	delivered := false
	for _, d := range c.dispatchers {
		receipt, err := d.DispatchBadge(ctx, count)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Name(), err))
			continue
		}
		delivered = true
		c.logger.Debug("Badge dispatched", "dispatcher", d.Name(), "receipt", receipt)
	}

	if !delivered {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		c.logger.Warn("Badge dispatcher failed", "err", err)
	}

	c.mu.Lock()
	c.last = count
	c.mu.Unlock()
	return nil
}
