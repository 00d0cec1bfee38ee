package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/wanderlust/internal/core/domain"
	"github.com/samirrijal/wanderlust/internal/core/ports"
	"github.com/samirrijal/wanderlust/internal/pkg/metrics"
)

// AgentRequest is the body accepted by the remote travel agent.
type AgentRequest struct {
	Message     string            `json:"message"`
	TripID      string            `json:"tripId,omitempty"`
	TripContext *domain.Itinerary `json:"tripContext,omitempty"`
}

// AgentResponse is the reply of the remote travel agent.
type AgentResponse struct {
	Message        string            `json:"message"`
	UpdatedRoadmap *domain.Itinerary `json:"updatedRoadmap"`
}

// AgentService is the stateless request/response form of the roadmap
// protocol: one message in, one reply and roadmap out, optionally recorded
// against a saved trip.
type AgentService struct {
	generator ports.ResponseGenerator
	trips     *TripService
	recorder  ports.ExchangeRecorder
	publisher ports.EventPublisher
	clock     ports.Clock
	logger    *slog.Logger
}

// NewAgentService creates a new AgentService. recorder and publisher may be nil;
// without a recorder, tripId is ignored.
func NewAgentService(
	generator ports.ResponseGenerator,
	trips *TripService,
	recorder ports.ExchangeRecorder,
	publisher ports.EventPublisher,
) *AgentService {
	return &AgentService{
		generator: generator,
		trips:     trips,
		recorder:  recorder,
		publisher: publisher,
		clock:     SystemClock{},
		logger:    slog.Default().With("component", "agent"),
	}
}

// Respond generates a reply for req on behalf of userID.
func (s *AgentService) Respond(ctx context.Context, userID string, req AgentRequest) (*AgentResponse, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	if err := req.TripContext.Validate(); err != nil {
		return nil, fmt.Errorf("tripContext: %w", err)
	}

	ctx, span := tracer.Start(ctx, "agent.respond")
	defer span.End()

	record := req.TripID != "" && s.recorder != nil
	current := req.TripContext
	if record {
		trip, err := s.trips.Get(ctx, userID, req.TripID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			current = trip.Roadmap
		}
		span.SetAttributes(attribute.String("trip.id", req.TripID))
	}

	start := time.Now()
	gen, err := s.generator.Generate(ctx, req.Message, current)
	if err == nil && (gen == nil || gen.Itinerary == nil) {
		err = errors.New("empty response")
	}
	if err == nil {
		err = gen.Itinerary.Validate()
	}
	if err == nil && !gen.Itinerary.Extends(current) {
		err = errors.New("response dropped or reordered existing days")
	}
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("unknown", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("generate: %w", err)
	}
	metrics.GenerationsTotal.WithLabelValues(string(gen.Mode), "ok").Inc()
	metrics.GenerationDuration.WithLabelValues("agent").Observe(time.Since(start).Seconds())

	if record {
		if err := s.recordExchange(ctx, userID, req, gen); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	return &AgentResponse{Message: gen.Reply, UpdatedRoadmap: gen.Itinerary}, nil
}

func (s *AgentService) recordExchange(ctx context.Context, userID string, req AgentRequest, gen *domain.Generation) error {
	now := s.clock.Now()
	ex := &domain.Exchange{
		TripID: req.TripID,
		UserID: userID,
		User: domain.Message{
			TripID:    req.TripID,
			Content:   req.Message,
			Role:      domain.RoleUser,
			CreatedAt: now,
		},
		Assistant: domain.Message{
			TripID:    req.TripID,
			Content:   gen.Reply,
			Role:      domain.RoleAssistant,
			CreatedAt: now,
		},
		Roadmap: gen.Itinerary,
	}

	if err := s.recorder.Record(ctx, ex); err != nil {
		metrics.ExchangesRecorded.WithLabelValues("error").Inc()
		s.logger.Error("record exchange", "trip_id", req.TripID, "error", err)
		return fmt.Errorf("record exchange: %w", err)
	}
	metrics.ExchangesRecorded.WithLabelValues("ok").Inc()
	s.trips.Forget(ctx, req.TripID)

	if s.publisher != nil {
		if err := s.publisher.PublishTripUpdated(ctx, req.TripID, gen.Itinerary); err != nil {
			s.logger.Warn("publish trip update", "trip_id", req.TripID, "error", err)
		}
	}
	return nil
}
