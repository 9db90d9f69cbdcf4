package providers

import (
	"context"

	"github.com/lunchwheel/venue-roulette/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to selection
// session events
type EventBus interface {
	// Publish publishes an event to all subscribers of a channel
	Publish(ctx context.Context, channel string, event *entities.SelectionEvent) error

	// Subscribe subscribes to events on a channel; the returned channel is
	// closed when ctx is cancelled
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SelectionEvent, error)

	// Unsubscribe tears down a channel subscription
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelSessionPrefix is the prefix for session-specific channels
const EventChannelSessionPrefix = "session:"

// GetSessionChannel returns the channel name for a roulette session
func GetSessionChannel(sessionID string) string {
	return EventChannelSessionPrefix + sessionID
}
