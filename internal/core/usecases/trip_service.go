package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samirrijal/wanderlust/internal/core/domain"
	"github.com/samirrijal/wanderlust/internal/core/ports"
	"github.com/samirrijal/wanderlust/internal/pkg/metrics"
)

// TripService handles saved trips and their transcripts.
type TripService struct {
	trips    ports.TripRepository
	messages ports.MessageRepository
	cache    ports.CacheService
}

// NewTripService creates a new TripService. cache may be nil.
func NewTripService(trips ports.TripRepository, messages ports.MessageRepository, cache ports.CacheService) *TripService {
	return &TripService{trips: trips, messages: messages, cache: cache}
}

func tripKey(id string) string {
	return "trips:id:" + id
}

// List returns the trips owned by userID, newest first.
func (s *TripService) List(ctx context.Context, userID string) ([]domain.Trip, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.trips.ListByUser(ctx, userID)
}

// Get returns a trip owned by userID.
func (s *TripService) Get(ctx context.Context, userID, id string) (*domain.Trip, error) {
	trip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return trip, nil
}

func (s *TripService) load(ctx context.Context, id string) (*domain.Trip, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, tripKey(id)); err == nil {
			var trip domain.Trip
			if err := json.Unmarshal(data, &trip); err == nil {
				metrics.CacheHits.WithLabelValues("trip").Inc()
				return &trip, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("trip").Inc()
	}

	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(trip); err == nil {
			_ = s.cache.Set(ctx, tripKey(id), data, 300)
		}
	}
	return trip, nil
}

// Create saves a new trip. The title falls back to the roadmap title and the
// date span is taken from the roadmap's dated days.
func (s *TripService) Create(ctx context.Context, userID, title, description string, roadmap *domain.Itinerary) (*domain.Trip, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := roadmap.Validate(); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" && roadmap != nil {
		title = roadmap.Title
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if description == "" && roadmap != nil {
		description = roadmap.Description
	}

	start, end := domain.SpanFromRoadmap(roadmap)
	trip := &domain.Trip{
		UserID:      userID,
		Title:       title,
		Description: description,
		StartDate:   start,
		EndDate:     end,
		Roadmap:     roadmap,
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}
	return trip, nil
}

// Messages returns the persisted transcript of a trip owned by userID.
func (s *TripService) Messages(ctx context.Context, userID, tripID string) ([]domain.Message, error) {
	if _, err := s.Get(ctx, userID, tripID); err != nil {
		return nil, err
	}
	return s.messages.ListByTrip(ctx, tripID)
}

// Forget drops the cached copy of a trip after it changed.
func (s *TripService) Forget(ctx context.Context, id string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, tripKey(id))
	}
}
