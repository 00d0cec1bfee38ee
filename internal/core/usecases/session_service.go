package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/wanderlust/internal/core/domain"
	"github.com/samirrijal/wanderlust/internal/core/ports"
	"github.com/samirrijal/wanderlust/internal/pkg/metrics"
)

// SessionConfig tunes the sessions created by a SessionService.
type SessionConfig struct {
	ReplyDelay  time.Duration
	Timeout     time.Duration
	SnapshotTTL time.Duration
	MaxSessions int
	Delayer     ports.Delayer
	Clock       ports.Clock
}

// SessionService keeps many isolated roadmap sessions keyed by ID and
// mirrors their changes to the event bus and the snapshot cache.
type SessionService struct {
	generator ports.ResponseGenerator
	publisher ports.EventPublisher
	cache     ports.CacheService
	cfg       SessionConfig
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionService creates a SessionService. publisher and cache may be nil.
func NewSessionService(generator ports.ResponseGenerator, publisher ports.EventPublisher, cache ports.CacheService, cfg SessionConfig) *SessionService {
	if cfg.Delayer == nil {
		cfg.Delayer = TimerDelay{}
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = time.Hour
	}
	return &SessionService{
		generator: generator,
		publisher: publisher,
		cache:     cache,
		cfg:       cfg,
		logger:    slog.Default().With("component", "sessions"),
		sessions:  make(map[string]*Session),
	}
}

func snapshotKey(id string) string {
	return "roadmap:session:" + id
}

// Create starts a new session and submits initialPrompt when it is not blank.
func (s *SessionService) Create(ctx context.Context, initialPrompt string) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return "", domain.ErrTooManySessions
	}
	sess := s.newSession(id)
	s.sessions[id] = sess
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	out, err := sess.Start(ctx, initialPrompt)
	if err != nil {
		return "", err
	}
	if out != nil {
		go s.observe(id, sess, out)
	} else {
		s.storeSnapshot(ctx, id, sess)
	}

	s.logger.Info("session created", "session_id", id, "with_prompt", out != nil)
	return id, nil
}

func (s *SessionService) newSession(id string) *Session {
	logger := s.logger.With("session_id", id)
	return NewSession(s.generator,
		WithDelay(s.cfg.Delayer, s.cfg.ReplyDelay),
		WithClock(s.cfg.Clock),
		WithTimeout(s.cfg.Timeout),
		WithLogger(logger),
		WithHooks(Hooks{
			OnGenerationStart: func() {
				s.publish(id, &domain.SessionEvent{
					SessionID: id,
					Type:      "generating",
					State:     domain.StateGenerating,
					Time:      s.cfg.Clock.Now(),
				})
			},
		}),
	)
}

// Submit forwards text to the session. It returns domain.ErrInvalidInput,
// domain.ErrSessionBusy or domain.ErrSessionNotFound without side effects.
func (s *SessionService) Submit(ctx context.Context, id, text string) error {
	id = strings.Clone(id)
	sess, err := s.get(id)
	if err != nil {
		return err
	}
	out, err := sess.Submit(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrSessionBusy) {
			metrics.BusyRejections.Inc()
		}
		return err
	}
	go s.observe(id, sess, out)
	return nil
}

// observe waits for the outcome of one generation and mirrors it.
func (s *SessionService) observe(id string, sess *Session, out <-chan Outcome) {
	outcome := <-out

	result := "ok"
	mode := string(outcome.Mode)
	if outcome.Err != nil {
		result = "error"
		if errors.Is(outcome.Err, domain.ErrGenerationTimeout) {
			result = "timeout"
		}
		mode = "unknown"
	}
	metrics.GenerationsTotal.WithLabelValues(mode, result).Inc()
	metrics.GenerationDuration.WithLabelValues("session").Observe(outcome.Duration.Seconds())

	ev := &domain.SessionEvent{
		SessionID: id,
		Type:      "updated",
		State:     domain.StateIdle,
		Message:   &outcome.Reply,
		Itinerary: outcome.Itinerary,
		Time:      s.cfg.Clock.Now(),
	}
	if outcome.Err != nil {
		ev.Error = outcome.Err.Error()
	}
	s.publish(id, ev)

	if _, err := s.get(id); err != nil {
		return // closed while generating
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.storeSnapshot(ctx, id, sess)
}

func (s *SessionService) publish(id string, ev *domain.SessionEvent) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.publisher.PublishSessionEvent(ctx, id, ev); err != nil {
		s.logger.Warn("publish session event", "session_id", id, "type", ev.Type, "error", err)
	}
}

func (s *SessionService) storeSnapshot(ctx context.Context, id string, sess *Session) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(snapshotOf(id, sess, s.cfg.Clock.Now()))
	if err != nil {
		s.logger.Warn("marshal session snapshot", "session_id", id, "error", err)
		return
	}
	if err := s.cache.Set(ctx, snapshotKey(id), data, int(s.cfg.SnapshotTTL.Seconds())); err != nil {
		s.logger.Warn("cache session snapshot", "session_id", id, "error", err)
	}
}

func snapshotOf(id string, sess *Session, now time.Time) *domain.SessionSnapshot {
	return &domain.SessionSnapshot{
		ID:         id,
		State:      sess.State(),
		Transcript: sess.CurrentTranscript(),
		Itinerary:  sess.CurrentItinerary(),
		UpdatedAt:  now,
	}
}

func (s *SessionService) get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return sess, nil
}

// Snapshot returns the live state of a session, falling back to the last
// cached snapshot for sessions this process no longer holds.
func (s *SessionService) Snapshot(ctx context.Context, id string) (*domain.SessionSnapshot, error) {
	if sess, err := s.get(id); err == nil {
		return snapshotOf(id, sess, s.cfg.Clock.Now()), nil
	}
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, snapshotKey(id)); err == nil {
			var snap domain.SessionSnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				metrics.CacheHits.WithLabelValues("session_snapshot").Inc()
				return &snap, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("session_snapshot").Inc()
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
}

// Transcript returns the ordered transcript of a live session.
func (s *SessionService) Transcript(id string) ([]domain.Message, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return sess.CurrentTranscript(), nil
}

// Itinerary returns the current itinerary of a live session; nil when none exists yet.
func (s *SessionService) Itinerary(id string) (*domain.Itinerary, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return sess.CurrentItinerary(), nil
}

// Wait blocks until the session is idle.
func (s *SessionService) Wait(ctx context.Context, id string) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}
	return sess.Wait(ctx)
}

// Close forgets a session. A generation still in flight finishes in the background.
func (s *SessionService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	if s.cache != nil {
		_ = s.cache.Delete(ctx, snapshotKey(id))
	}
	return nil
}

// Count returns the number of live sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
