package bridge

import (
	"context"

	"github.com/tinywideclouds/go-notification-badge/internal/coordinator"
)

// CoordinatorBackend exposes a provider coordinator as a Backend.
type CoordinatorBackend struct {
	*coordinator.Coordinator
}

func NewCoordinatorBackend(c *coordinator.Coordinator) CoordinatorBackend {
	return CoordinatorBackend{Coordinator: c}
}

// SetBadgeCount reduces the aggregate outcome to its success flag.
func (b CoordinatorBackend) SetBadgeCount(ctx context.Context, count int) (bool, error) {
	result, err := b.Coordinator.SetBadgeCount(ctx, count)
	if err != nil {
		return false, err
	}
	return result.Success, nil
}
