package launcher

import (
	"context"
	"sync"

	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

// StaticIdentity serves a configured device snapshot. Update swaps it
// atomically so package installs between calls are picked up by the next pass.
type StaticIdentity struct {
	mu     sync.RWMutex
	params badge.IdentityParams
}

func NewStaticIdentity(params badge.IdentityParams) *StaticIdentity {
	return &StaticIdentity{params: params}
}

// Identity implements badge.IdentitySource.
func (s *StaticIdentity) Identity(_ context.Context) badge.DeviceIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return badge.NewDeviceIdentity(s.params)
}

// Update replaces the snapshot served by subsequent Identity calls.
func (s *StaticIdentity) Update(params badge.IdentityParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = params
}
