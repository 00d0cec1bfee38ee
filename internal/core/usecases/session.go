package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/wanderlust/internal/core/domain"
	"github.com/samirrijal/wanderlust/internal/core/ports"
)

var tracer = otel.Tracer("github.com/samirrijal/wanderlust/internal/core/usecases")

const apologyReply = "Sorry, I couldn't update your itinerary just now. Please try sending that again."

// Hooks are notified about generation state changes. Both run synchronously
// on the goroutine that caused the transition, without the session lock held.
type Hooks struct {
	// OnGenerationStart fires when a message is accepted and the session
	// switches to generating.
	OnGenerationStart func()
	// OnGenerationComplete fires after the reply and itinerary are stored
	// and the session is idle again.
	OnGenerationComplete func()
}

// Outcome is delivered once per accepted message, after the session is idle again.
type Outcome struct {
	Reply     domain.Message
	Itinerary *domain.Itinerary
	Mode      domain.GenerationMode
	Category  string
	Duration  time.Duration
	// Err is set when generation failed or timed out; Reply then holds the
	// apology that was appended to the transcript.
	Err error
}

// Session owns the transcript and the current itinerary of one planning
// conversation. At most one generation is in flight; a message that arrives
// meanwhile is rejected with domain.ErrSessionBusy.
type Session struct {
	generator ports.ResponseGenerator
	delayer   ports.Delayer
	delay     time.Duration
	clock     ports.Clock
	timeout   time.Duration
	hooks     Hooks
	logger    *slog.Logger

	mu         sync.Mutex
	state      domain.SessionState
	transcript []domain.Message
	itinerary  *domain.Itinerary
	idle       chan struct{} // closed while idle
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDelay makes every generation wait d on the given Delayer first.
func WithDelay(delayer ports.Delayer, d time.Duration) SessionOption {
	return func(s *Session) {
		s.delayer = delayer
		s.delay = d
	}
}

// WithClock sets the clock used to stamp messages.
func WithClock(c ports.Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithTimeout bounds each generation. Zero disables the bound.
func WithTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.timeout = d }
}

// WithHooks registers generation notifications.
func WithHooks(h Hooks) SessionOption {
	return func(s *Session) { s.hooks = h }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates an idle session with an empty transcript and no itinerary.
func NewSession(generator ports.ResponseGenerator, opts ...SessionOption) *Session {
	idle := make(chan struct{})
	close(idle)
	s := &Session{
		generator: generator,
		delayer:   NoDelay{},
		clock:     SystemClock{},
		logger:    slog.Default(),
		state:     domain.StateIdle,
		idle:      idle,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start submits initialPrompt when it is not blank. A blank prompt leaves the
// session untouched and returns a nil channel.
func (s *Session) Start(ctx context.Context, initialPrompt string) (<-chan Outcome, error) {
	if strings.TrimSpace(initialPrompt) == "" {
		return nil, nil
	}
	return s.Submit(ctx, initialPrompt)
}

// Submit appends text as a user message and starts generating a reply in the
// background. The returned channel receives exactly one Outcome.
// Generation is detached from ctx cancellation; only the session timeout applies.
func (s *Session) Submit(ctx context.Context, text string) (<-chan Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrInvalidInput
	}

	s.mu.Lock()
	if s.state == domain.StateGenerating {
		s.mu.Unlock()
		return nil, domain.ErrSessionBusy
	}
	msg := s.appendLocked(domain.RoleUser, text)
	s.state = domain.StateGenerating
	s.idle = make(chan struct{})
	current := s.itinerary.Clone()
	s.mu.Unlock()

	s.logger.Debug("generation started", "message_id", msg.ID)
	if s.hooks.OnGenerationStart != nil {
		s.hooks.OnGenerationStart()
	}

	out := make(chan Outcome, 1)
	go s.generate(context.WithoutCancel(ctx), text, current, out)
	return out, nil
}

func (s *Session) generate(ctx context.Context, text string, current *domain.Itinerary, out chan<- Outcome) {
	ctx, span := tracer.Start(ctx, "session.generate")
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	gen, err := s.run(ctx, text, current)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.String("generation.mode", string(gen.Mode)),
			attribute.String("generation.category", gen.Category),
			attribute.Int("itinerary.days", len(gen.Itinerary.Days)),
		)
	}

	outcome := s.complete(gen, err)
	outcome.Duration = time.Since(start)

	if s.hooks.OnGenerationComplete != nil {
		s.hooks.OnGenerationComplete()
	}
	out <- outcome
}

func (s *Session) run(ctx context.Context, text string, current *domain.Itinerary) (*domain.Generation, error) {
	if err := s.delayer.Wait(ctx, s.delay); err != nil {
		return nil, deadlineErr(err)
	}

	type result struct {
		gen *domain.Generation
		err error
	}
	done := make(chan result, 1)
	go func() {
		gen, err := s.generator.Generate(ctx, text, current)
		done <- result{gen, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		return nil, deadlineErr(ctx.Err())
	}
	if r.err != nil {
		return nil, fmt.Errorf("generate: %w", deadlineErr(r.err))
	}
	if r.gen == nil || r.gen.Itinerary == nil {
		return nil, errors.New("generate: empty response")
	}
	if err := r.gen.Itinerary.Validate(); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if !r.gen.Itinerary.Extends(current) {
		return nil, errors.New("generate: response dropped or reordered existing days")
	}
	return r.gen, nil
}

func deadlineErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrGenerationTimeout
	}
	return err
}

// complete stores the reply and switches back to idle.
func (s *Session) complete(gen *domain.Generation, genErr error) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	var outcome Outcome
	if genErr != nil {
		s.logger.Warn("generation failed", "error", genErr)
		outcome.Reply = s.appendLocked(domain.RoleAssistant, apologyReply)
		outcome.Err = genErr
	} else {
		outcome.Reply = s.appendLocked(domain.RoleAssistant, gen.Reply)
		outcome.Mode = gen.Mode
		outcome.Category = gen.Category
		s.itinerary = gen.Itinerary.Clone()
	}
	outcome.Itinerary = s.itinerary.Clone()

	s.state = domain.StateIdle
	close(s.idle)
	return outcome
}

// appendLocked adds a transcript entry. IDs and timestamps never go backwards.
func (s *Session) appendLocked(role domain.Role, content string) domain.Message {
	msg := domain.Message{
		ID:        1,
		Content:   content,
		Role:      role,
		CreatedAt: s.clock.Now(),
	}
	if n := len(s.transcript); n > 0 {
		last := s.transcript[n-1]
		msg.ID = last.ID + 1
		if msg.CreatedAt.Before(last.CreatedAt) {
			msg.CreatedAt = last.CreatedAt
		}
	}
	s.transcript = append(s.transcript, msg)
	return msg
}

// CurrentItinerary returns a copy of the itinerary, or nil before the first reply.
func (s *Session) CurrentItinerary() *domain.Itinerary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itinerary.Clone()
}

// CurrentTranscript returns a copy of the transcript in creation order.
func (s *Session) CurrentTranscript() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.transcript)
}

// State returns the current generation state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until the session is idle or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
