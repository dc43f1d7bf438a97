// Package launcher models the Platform-A OS surface that badge providers talk to:
// broadcasts, content-provider inserts, notifications and the package manager.
// Implementations are injected, so providers never reach for process globals.
package launcher

import (
	"context"
	"fmt"
)

// SDK levels referenced by providers.
const (
	SDKOreo = 26
)

// Intent is a broadcast action plus its extras.
type Intent struct {
	Action string         `json:"action"`
	Extras map[string]any `json:"extras,omitempty"`
}

// NewIntent returns an intent with an initialised extras map.
func NewIntent(action string) Intent {
	return Intent{Action: action, Extras: make(map[string]any)}
}

// Put sets an extra and returns the intent for chaining.
func (i Intent) Put(key string, value any) Intent {
	i.Extras[key] = value
	return i
}

// ContentValues is a single row written through a ContentResolver.
type ContentValues map[string]any

// Importance of a notification channel.
type Importance int

const (
	ImportanceMin Importance = 1
	ImportanceLow Importance = 2
)

// Priority of a posted notification.
type Priority int

const (
	PriorityMin Priority = -2
	PriorityLow Priority = -1
)

// BadgeIconType controls how a launcher renders the notification badge.
type BadgeIconType int

const (
	BadgeIconNone  BadgeIconType = 0
	BadgeIconSmall BadgeIconType = 1
)

// Channel describes a notification channel.
type Channel struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Importance  Importance `json:"importance"`
	ShowBadge   bool       `json:"show_badge"`
	Lights      bool       `json:"lights"`
	Vibration   bool       `json:"vibration"`
	Sound       bool       `json:"sound"`
}

// Notification is a placeholder notification whose Number carries the badge.
type Notification struct {
	ChannelID     string        `json:"channel_id"`
	SmallIcon     string        `json:"small_icon"`
	Title         string        `json:"title"`
	Text          string        `json:"text"`
	Number        int           `json:"number"`
	Priority      Priority      `json:"priority"`
	BadgeIconType BadgeIconType `json:"badge_icon_type"`
	Ongoing       bool          `json:"ongoing"`
	Silent        bool          `json:"silent"`
}

// BroadcastSender delivers an intent to every registered receiver.
type BroadcastSender interface {
	SendBroadcast(ctx context.Context, intent Intent) error
}

// ContentResolver writes rows to content providers. Insert returns the URI of
// the new row; an empty URI means the provider rejected the row.
type ContentResolver interface {
	Insert(ctx context.Context, uri string, values ContentValues) (string, error)
}

// NotificationManager posts and cancels notifications.
type NotificationManager interface {
	CreateChannel(ctx context.Context, channel Channel) error
	Notify(ctx context.Context, id int, n Notification) error
	Cancel(ctx context.Context, id int) error
}

// PackageManager resolves the launcher activity of a package.
type PackageManager interface {
	LaunchActivity(ctx context.Context, pkg string) (string, error)
}

// Host bundles the OS handles providers close over.
type Host struct {
	Broadcasts    BroadcastSender
	Content       ContentResolver
	Notifications NotificationManager
	Packages      PackageManager
}

// Validate reports the first missing handle.
func (h Host) Validate() error {
	switch {
	case h.Broadcasts == nil:
		return fmt.Errorf("launcher host: broadcast sender is required")
	case h.Content == nil:
		return fmt.Errorf("launcher host: content resolver is required")
	case h.Notifications == nil:
		return fmt.Errorf("launcher host: notification manager is required")
	case h.Packages == nil:
		return fmt.Errorf("launcher host: package manager is required")
	}
	return nil
}
