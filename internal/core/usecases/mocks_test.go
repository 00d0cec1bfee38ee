package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samirrijal/wanderlust/internal/core/domain"
)

// --- Clock ---

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var may1 = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

// --- Delayers ---

// gateDelay holds generations until release is closed.
type gateDelay struct{ release chan struct{} }

func newGate() gateDelay { return gateDelay{release: make(chan struct{})} }

func (g gateDelay) Wait(ctx context.Context, _ time.Duration) error {
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --- Generators ---

type funcGenerator func(ctx context.Context, text string, current *domain.Itinerary) (*domain.Generation, error)

func (f funcGenerator) Generate(ctx context.Context, text string, current *domain.Itinerary) (*domain.Generation, error) {
	return f(ctx, text, current)
}

// stuckGenerator never answers before its context ends.
var stuckGenerator = funcGenerator(func(ctx context.Context, _ string, _ *domain.Itinerary) (*domain.Generation, error) {
	<-ctx.Done()
	return nil, ctx.Err()
})

// --- Repositories ---

type mockTripRepo struct {
	mu        sync.Mutex
	trips     map[string]*domain.Trip
	getCalls  int
	createErr error
}

func newTripRepo(trips ...*domain.Trip) *mockTripRepo {
	m := &mockTripRepo{trips: make(map[string]*domain.Trip)}
	for _, t := range trips {
		m.trips[t.ID] = t
	}
	return m
}

func (m *mockTripRepo) Create(ctx context.Context, t *domain.Trip) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = "trip-created"
	m.trips[t.ID] = t
	return nil
}

func (m *mockTripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	t, ok := m.trips[id]
	if !ok {
		return nil, domain.ErrTripNotFound
	}
	cp := *t
	cp.Roadmap = t.Roadmap.Clone()
	return &cp, nil
}

func (m *mockTripRepo) ListByUser(ctx context.Context, userID string) ([]domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Trip
	for _, t := range m.trips {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockTripRepo) UpdateRoadmap(ctx context.Context, tripID string, roadmap *domain.Itinerary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return domain.ErrTripNotFound
	}
	t.Roadmap = roadmap.Clone()
	return nil
}

func (m *mockTripRepo) gets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

type mockMessageRepo struct {
	listCalls int
	msgs      []domain.Message
}

func (m *mockMessageRepo) Insert(ctx context.Context, msg *domain.Message) error {
	msg.ID = int64(len(m.msgs) + 1)
	m.msgs = append(m.msgs, *msg)
	return nil
}
func (m *mockMessageRepo) Delete(ctx context.Context, id int64) error { return nil }
func (m *mockMessageRepo) ListByTrip(ctx context.Context, tripID string) ([]domain.Message, error) {
	m.listCalls++
	return m.msgs, nil
}

// recordingRecorder stores exchanges against a trip repository, like the
// transactional recorder does.
type recordingRecorder struct {
	trips     *mockTripRepo
	exchanges []domain.Exchange
	err       error
}

func (r *recordingRecorder) Record(ctx context.Context, ex *domain.Exchange) error {
	if r.err != nil {
		return r.err
	}
	r.exchanges = append(r.exchanges, *ex)
	if ex.Roadmap != nil && r.trips != nil {
		return r.trips.UpdateRoadmap(ctx, ex.TripID, ex.Roadmap)
	}
	return nil
}

// --- Event bus ---

type recordingPublisher struct {
	mu      sync.Mutex
	events  []domain.SessionEvent
	updates []string
	changed chan struct{}
}

func newPublisher() *recordingPublisher {
	return &recordingPublisher{changed: make(chan struct{}, 64)}
}

func (p *recordingPublisher) PublishSessionEvent(ctx context.Context, sessionID string, ev *domain.SessionEvent) error {
	p.mu.Lock()
	p.events = append(p.events, *ev)
	p.mu.Unlock()
	p.changed <- struct{}{}
	return nil
}

func (p *recordingPublisher) PublishTripUpdated(ctx context.Context, tripID string, roadmap *domain.Itinerary) error {
	p.mu.Lock()
	p.updates = append(p.updates, tripID)
	p.mu.Unlock()
	return nil
}

// waitEvents blocks until n session events were published or the deadline passes.
func (p *recordingPublisher) waitEvents(n int, d time.Duration) []domain.SessionEvent {
	deadline := time.After(d)
	for {
		p.mu.Lock()
		if len(p.events) >= n {
			out := append([]domain.SessionEvent(nil), p.events...)
			p.mu.Unlock()
			return out
		}
		p.mu.Unlock()
		select {
		case <-p.changed:
		case <-deadline:
			p.mu.Lock()
			defer p.mu.Unlock()
			return append([]domain.SessionEvent(nil), p.events...)
		}
	}
}

// --- Cache ---

var errMiss = errors.New("cache miss")

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}
