package ports

import (
	"context"
	"time"

	"github.com/samirrijal/wanderlust/internal/core/domain"
)

// ResponseGenerator maps the latest user message and the current itinerary
// to an assistant reply and the next itinerary. current may be nil and must
// not be mutated.
type ResponseGenerator interface {
	Generate(ctx context.Context, text string, current *domain.Itinerary) (*domain.Generation, error)
}

// ReplyPicker selects one reply from a pool of acknowledgement strings.
type ReplyPicker interface {
	Pick(pool []string) string
}

// Delayer waits before a generation runs, standing in for model latency.
type Delayer interface {
	Wait(ctx context.Context, d time.Duration) error
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// IdentityVerifier validates a bearer credential and returns the user it belongs to.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// EventPublisher publishes roadmap events to a message broker.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, sessionID string, event *domain.SessionEvent) error
	PublishTripUpdated(ctx context.Context, tripID string, roadmap *domain.Itinerary) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
