package provider

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

// Sony broadcasts to the Xperia home launcher under the legacy Sony Ericsson
// namespace first, then the Sony Mobile one.
type Sony struct {
	base
}

func NewSony(host launcher.Host, logger *slog.Logger) *Sony {
	return &Sony{base: newBase(host, logger, "sony")}
}

func (p *Sony) Name() string { return "sony" }

func (p *Sony) Detect(id badge.DeviceIdentity) bool {
	return id.ManufacturerContains("sony")
}

func (p *Sony) Apply(ctx context.Context, id badge.DeviceIdentity, count int) bool {
	return p.tryInOrder(ctx, id, count,
		mechanism{name: "sonyericsson", run: p.send("com.sonyericsson.home")},
		mechanism{name: "sonymobile", run: p.send("com.sonymobile.home")},
	)
}

// send builds "<ns>.action.UPDATE_BADGE" with extras under "<ns>.intent.extra.badge.".
func (p *Sony) send(ns string) func(context.Context, component, int) error {
	return func(ctx context.Context, c component, count int) error {
		extra := ns + ".intent.extra.badge."
		return p.broadcast(ctx, launcher.NewIntent(ns+".action.UPDATE_BADGE").
			Put(extra+"PACKAGE_NAME", c.pkg).
			Put(extra+"ACTIVITY_NAME", c.class).
			Put(extra+"MESSAGE", strconv.Itoa(count)).
			Put(extra+"SHOW_MESSAGE", count > 0))
	}
}
