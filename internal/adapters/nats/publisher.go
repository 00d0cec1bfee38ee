package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/wanderlust/internal/core/domain"
)

// Subjects used on the roadmap event bus.
const (
	SessionSubjectPrefix = "roadmap.session."
	TripSubjectPrefix    = "roadmap.trip."
)

// SessionSubject returns the subject for events of one session, or all
// sessions when id is ">".
func SessionSubject(id, eventType string) string {
	if eventType == "" {
		return SessionSubjectPrefix + id + ".>"
	}
	return SessionSubjectPrefix + id + "." + eventType
}

// TripUpdate is the payload published when a stored trip roadmap changes.
type TripUpdate struct {
	TripID  string            `json:"trip_id"`
	Roadmap *domain.Itinerary `json:"roadmap"`
	Time    time.Time         `json:"time"`
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	streams := []nats.StreamConfig{
		{
			Name:      "ROADMAP_SESSIONS",
			Subjects:  []string{SessionSubjectPrefix + ">"},
			Retention: nats.LimitsPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.MemoryStorage,
		},
		{
			Name:      "ROADMAP_TRIPS",
			Subjects:  []string{TripSubjectPrefix + ">"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishSessionEvent(ctx context.Context, sessionID string, event *domain.SessionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SessionSubject(sessionID, event.Type), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishTripUpdated(ctx context.Context, tripID string, roadmap *domain.Itinerary) error {
	data, err := json.Marshal(TripUpdate{TripID: tripID, Roadmap: roadmap, Time: time.Now().UTC()})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(TripSubjectPrefix+tripID+".updated", data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
