package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/wanderlust/internal/core/domain"
	"github.com/samirrijal/wanderlust/internal/core/ports"
)

// ExchangeActivities holds the activity implementations for the exchange workflow.
type ExchangeActivities struct {
	Messages ports.MessageRepository
	Trips    ports.TripRepository
}

// SaveMessage inserts msg and returns it with its assigned ID and timestamp.
func (a *ExchangeActivities) SaveMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if err := a.Messages.Insert(ctx, &msg); err != nil {
		return domain.Message{}, fmt.Errorf("save %s message: %w", msg.Role, err)
	}
	return msg, nil
}

// SaveRoadmap stores the updated roadmap on the trip.
func (a *ExchangeActivities) SaveRoadmap(ctx context.Context, tripID string, roadmap *domain.Itinerary) error {
	if err := a.Trips.UpdateRoadmap(ctx, tripID, roadmap); err != nil {
		return fmt.Errorf("save roadmap of trip %s: %w", tripID, err)
	}
	return nil
}

// DeleteMessage removes a message (saga compensation / rollback).
func (a *ExchangeActivities) DeleteMessage(ctx context.Context, id int64) error {
	if err := a.Messages.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete message %d: %w", id, err)
	}
	slog.Info("message deleted (saga compensation)", "message_id", id)
	return nil
}
