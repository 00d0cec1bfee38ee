package ports

import (
	"context"

	"github.com/samirrijal/wanderlust/internal/core/domain"
)

// TripRepository persists trips and their roadmaps.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Trip, error)
	UpdateRoadmap(ctx context.Context, tripID string, roadmap *domain.Itinerary) error
}

// MessageRepository persists transcript entries of saved trips.
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.Message) error
	Delete(ctx context.Context, id int64) error
	ListByTrip(ctx context.Context, tripID string) ([]domain.Message, error)
}

// ExchangeRecorder stores a user message, its assistant reply and the
// resulting roadmap so that either all of them are kept or none.
type ExchangeRecorder interface {
	Record(ctx context.Context, ex *domain.Exchange) error
}
