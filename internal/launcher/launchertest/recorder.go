// Package launchertest provides a recording launcher.Host for tests.
package launchertest

import (
	"context"
	"errors"
	"sync"

	"github.com/tinywideclouds/go-notification-badge/internal/launcher"
)

// ErrRefused is returned for actions and URIs configured to fail.
var ErrRefused = errors.New("refused by test host")

// Recorder captures every OS call. Actions in FailActions, URIs in
// RejectURIs and channels in FailChannels fail; everything else succeeds.
type Recorder struct {
	mu sync.Mutex

	Activity     string
	FailActions  map[string]bool
	RejectURIs   map[string]bool
	FailChannels bool

	Intents   []launcher.Intent
	Inserts   []string
	Channels  []launcher.Channel
	Posted    map[int]launcher.Notification
	Cancelled []int
}

func NewRecorder(activity string) *Recorder {
	return &Recorder{
		Activity:    activity,
		FailActions: make(map[string]bool),
		RejectURIs:  make(map[string]bool),
		Posted:      make(map[int]launcher.Notification),
	}
}

// Host exposes the recorder through every launcher.Host handle.
func (r *Recorder) Host() launcher.Host {
	return launcher.Host{Broadcasts: r, Content: r, Notifications: r, Packages: r}
}

func (r *Recorder) SendBroadcast(_ context.Context, intent launcher.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Intents = append(r.Intents, intent)
	if r.FailActions[intent.Action] {
		return ErrRefused
	}
	return nil
}

func (r *Recorder) Insert(_ context.Context, uri string, _ launcher.ContentValues) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Inserts = append(r.Inserts, uri)
	if r.RejectURIs[uri] {
		return "", nil
	}
	return uri + "/1", nil
}

func (r *Recorder) CreateChannel(_ context.Context, channel launcher.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailChannels {
		return ErrRefused
	}
	r.Channels = append(r.Channels, channel)
	return nil
}

func (r *Recorder) Notify(_ context.Context, id int, n launcher.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Posted[id] = n
	return nil
}

func (r *Recorder) Cancel(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Posted, id)
	r.Cancelled = append(r.Cancelled, id)
	return nil
}

func (r *Recorder) LaunchActivity(_ context.Context, _ string) (string, error) {
	return r.Activity, nil
}

// Actions returns the broadcast actions in send order.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Intents))
	for _, i := range r.Intents {
		out = append(out, i.Action)
	}
	return out
}
