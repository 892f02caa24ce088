package providers

import (
	"context"

	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// assessment events.
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.AssessmentEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.AssessmentEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelAssessments is the channel for all assessment events
	EventChannelAssessments = "assessment:updates"

	// EventChannelUserPrefix is the prefix for user-specific channels
	EventChannelUserPrefix = "assessment:user:"
)

// GetUserChannel returns the channel name for a specific user
func GetUserChannel(userID string) string {
	return EventChannelUserPrefix + userID
}
