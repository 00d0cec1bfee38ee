package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/wanderlust/internal/adapters/http"
	"github.com/samirrijal/wanderlust/internal/core/domain"
	"github.com/samirrijal/wanderlust/internal/core/usecases"
)

// ---- Mocks ----

type mockTripRepo struct {
	getByIDFn    func(ctx context.Context, id string) (*domain.Trip, error)
	listByUserFn func(ctx context.Context, userID string) ([]domain.Trip, error)
	createFn     func(ctx context.Context, t *domain.Trip) error
}

func (m *mockTripRepo) Create(ctx context.Context, t *domain.Trip) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	t.ID = "trip-new"
	return nil
}
func (m *mockTripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrTripNotFound
}
func (m *mockTripRepo) ListByUser(ctx context.Context, userID string) ([]domain.Trip, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockTripRepo) UpdateRoadmap(ctx context.Context, tripID string, roadmap *domain.Itinerary) error {
	return nil
}

type mockMessageRepo struct {
	listByTripFn func(ctx context.Context, tripID string) ([]domain.Message, error)
}

func (m *mockMessageRepo) Insert(ctx context.Context, msg *domain.Message) error { return nil }
func (m *mockMessageRepo) Delete(ctx context.Context, id int64) error            { return nil }
func (m *mockMessageRepo) ListByTrip(ctx context.Context, tripID string) ([]domain.Message, error) {
	if m.listByTripFn != nil {
		return m.listByTripFn(ctx, tripID)
	}
	return nil, nil
}

type mockRecorder struct {
	mu    sync.Mutex
	calls []domain.Exchange
	err   error
}

func (m *mockRecorder) Record(ctx context.Context, ex *domain.Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, *ex)
	return m.err
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// stubVerifier accepts "Bearer good-token" as user-1 and "Bearer other-token" as user-2.
type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, token string) (string, error) {
	switch token {
	case "good-token":
		return "user-1", nil
	case "other-token":
		return "user-2", nil
	}
	return "", domain.ErrUnauthorized
}

// gateDelay holds every generation until release is closed.
type gateDelay struct {
	release chan struct{}
}

func (g gateDelay) Wait(ctx context.Context, _ time.Duration) error {
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// eventLog records session events in publish order.
type eventLog struct {
	mu     sync.Mutex
	events []string
	done   chan struct{}
}

func newEventLog() *eventLog {
	return &eventLog{done: make(chan struct{}, 16)}
}

func (e *eventLog) PublishSessionEvent(ctx context.Context, sessionID string, ev *domain.SessionEvent) error {
	e.mu.Lock()
	e.events = append(e.events, ev.Type+":"+sessionID)
	e.mu.Unlock()
	if ev.Type == "updated" {
		e.done <- struct{}{}
	}
	return nil
}

func (e *eventLog) PublishTripUpdated(ctx context.Context, tripID string, roadmap *domain.Itinerary) error {
	return nil
}

func (e *eventLog) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

// ---- Helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func newGenerator() *usecases.RuleGenerator {
	return usecases.NewRuleGenerator(usecases.WithReplyPicker(&usecases.RotatingPicker{}))
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	gen := newGenerator()
	trips := usecases.NewTripService(&mockTripRepo{}, &mockMessageRepo{}, nil)
	d := &handler.Dependencies{
		Sessions: usecases.NewSessionService(gen, nil, nil, usecases.SessionConfig{Delayer: usecases.NoDelay{}}),
		Agent:    usecases.NewAgentService(gen, trips, &mockRecorder{}, nil),
		Trips:    trips,
		Identity: stubVerifier{},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func do(t *testing.T, app *fiber.App, method, path, body, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func decodeError(t *testing.T, data []byte) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.Unmarshal(data, &apiErr); err != nil {
		t.Fatalf("decode error body %q: %v", data, err)
	}
	return apiErr
}

type agentResponse struct {
	Message        string           `json:"message"`
	UpdatedRoadmap domain.Itinerary `json:"updatedRoadmap"`
}

// ---- Agent ----

func TestAgent_NoAuthorization(t *testing.T) {
	rec := &mockRecorder{}
	trips := usecases.NewTripService(&mockTripRepo{}, &mockMessageRepo{}, nil)
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Agent = usecases.NewAgentService(newGenerator(), trips, rec, nil)
	}))

	status, body := do(t, app, "POST", "/v1/agent/messages", `{"message":"Paris","tripId":"trip-1"}`, "")
	if status != 401 {
		t.Fatalf("expected 401, got %d", status)
	}
	apiErr := decodeError(t, body)
	if apiErr.Code != "unauthorized" || apiErr.Message != "No authorization header" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if rec.count() != 0 {
		t.Errorf("expected nothing recorded, got %d", rec.count())
	}
}

func TestAgent_InvalidToken(t *testing.T) {
	app := setupApp(makeDeps())

	status, body := do(t, app, "POST", "/v1/agent/messages", `{"message":"Paris"}`, "forged")
	if status != 401 {
		t.Fatalf("expected 401, got %d", status)
	}
	if code := decodeError(t, body).Code; code != "unauthorized" {
		t.Errorf("expected unauthorized, got %s", code)
	}
}

func TestAgent_MissingMessage(t *testing.T) {
	app := setupApp(makeDeps())

	for _, body := range []string{`{}`, `{"message":"   "}`} {
		status, data := do(t, app, "POST", "/v1/agent/messages", body, "good-token")
		if status != 400 {
			t.Fatalf("body %s: expected 400, got %d", body, status)
		}
		if code := decodeError(t, data).Code; code != "validation_error" {
			t.Errorf("body %s: expected validation_error, got %s", body, code)
		}
	}
}

func TestAgent_Bootstrap(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := do(t, app, "POST", "/v1/agent/messages", `{"message":"A romantic week in Paris"}`, "good-token")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}

	var resp agentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.Message, `"A romantic week in Paris"`) {
		t.Errorf("expected reply to quote the prompt, got %q", resp.Message)
	}
	if resp.UpdatedRoadmap.Title != "Paris Adventure" {
		t.Errorf("expected Paris Adventure, got %q", resp.UpdatedRoadmap.Title)
	}
	if c := resp.UpdatedRoadmap.MapViewport.Center; c != (domain.Coordinates{2.3522, 48.8566}) {
		t.Errorf("expected Paris center, got %v", c)
	}
	if len(resp.UpdatedRoadmap.Days) == 0 || len(resp.UpdatedRoadmap.Days[0].Activities) == 0 {
		t.Error("expected a first day with activities")
	}
}

func TestAgent_FollowUpAppendsDay(t *testing.T) {
	app := setupApp(makeDeps())

	_, data := do(t, app, "POST", "/v1/agent/messages", `{"message":"Tokyo please"}`, "good-token")
	var first agentResponse
	if err := json.Unmarshal(data, &first); err != nil {
		t.Fatalf("decode: %v", err)
	}

	ctxJSON, _ := json.Marshal(first.UpdatedRoadmap)
	body := fmt.Sprintf(`{"message":"Where should we stay? Any hotel ideas?","tripContext":%s}`, ctxJSON)
	status, data := do(t, app, "POST", "/v1/agent/messages", body, "good-token")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}

	var second agentResponse
	if err := json.Unmarshal(data, &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(second.UpdatedRoadmap.Days) != len(first.UpdatedRoadmap.Days)+1 {
		t.Fatalf("expected one appended day, got %d -> %d", len(first.UpdatedRoadmap.Days), len(second.UpdatedRoadmap.Days))
	}
	last := second.UpdatedRoadmap.Days[len(second.UpdatedRoadmap.Days)-1]
	if last.Day != len(first.UpdatedRoadmap.Days)+1 {
		t.Errorf("expected day %d, got %d", len(first.UpdatedRoadmap.Days)+1, last.Day)
	}
}

func TestAgent_RecordsExchangeForTrip(t *testing.T) {
	rec := &mockRecorder{}
	trips := usecases.NewTripService(&mockTripRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Trip, error) {
			return &domain.Trip{ID: id, UserID: "user-1", Title: "Spring"}, nil
		},
	}, &mockMessageRepo{}, nil)
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Agent = usecases.NewAgentService(newGenerator(), trips, rec, nil)
	}))

	status, data := do(t, app, "POST", "/v1/agent/messages", `{"message":"Costa Rica","tripId":"trip-1"}`, "good-token")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	if rec.count() != 1 {
		t.Fatalf("expected 1 recorded exchange, got %d", rec.count())
	}
	ex := rec.calls[0]
	if ex.TripID != "trip-1" || ex.User.Role != domain.RoleUser || ex.Assistant.Role != domain.RoleAssistant {
		t.Errorf("unexpected exchange: %+v", ex)
	}
	if ex.User.Content != "Costa Rica" {
		t.Errorf("expected user content recorded, got %q", ex.User.Content)
	}
}

func TestAgent_ForeignTrip(t *testing.T) {
	rec := &mockRecorder{}
	trips := usecases.NewTripService(&mockTripRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Trip, error) {
			return &domain.Trip{ID: id, UserID: "user-2"}, nil
		},
	}, &mockMessageRepo{}, nil)
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Agent = usecases.NewAgentService(newGenerator(), trips, rec, nil)
	}))

	status, _ := do(t, app, "POST", "/v1/agent/messages", `{"message":"Paris","tripId":"trip-9"}`, "good-token")
	if status != 403 {
		t.Fatalf("expected 403, got %d", status)
	}
	if rec.count() != 0 {
		t.Errorf("expected nothing recorded")
	}
}

func TestAgent_RecorderFailure(t *testing.T) {
	rec := &mockRecorder{err: errors.New("db down")}
	trips := usecases.NewTripService(&mockTripRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Trip, error) {
			return &domain.Trip{ID: id, UserID: "user-1"}, nil
		},
	}, &mockMessageRepo{}, nil)
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Agent = usecases.NewAgentService(newGenerator(), trips, rec, nil)
	}))

	status, data := do(t, app, "POST", "/v1/agent/messages", `{"message":"Paris","tripId":"trip-1"}`, "good-token")
	if status != 500 {
		t.Fatalf("expected 500, got %d", status)
	}
	apiErr := decodeError(t, data)
	if apiErr.Code != "internal_error" || strings.Contains(apiErr.Message, "db down") {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestAgent_LegacyAliasIsDeprecated(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", handler.LegacyAgentPath, strings.NewReader(`{"message":"California"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer good-token")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header")
	}
	if !strings.Contains(resp.Header.Get("Link"), "/v1/agent/messages") {
		t.Errorf("expected successor link, got %q", resp.Header.Get("Link"))
	}
}

// ---- Sessions ----

func createSession(t *testing.T, app *fiber.App, prompt string) string {
	t.Helper()
	body := ""
	if prompt != "" {
		body = fmt.Sprintf(`{"prompt":%q}`, prompt)
	}
	status, data := do(t, app, "POST", "/v1/sessions", body, "")
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, data)
	}
	var created struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected session id")
	}
	return created.ID
}

func TestSession_Lifecycle(t *testing.T) {
	deps := makeDeps()
	app := setupApp(deps)

	id := createSession(t, app, "")

	status, _ := do(t, app, "GET", "/v1/sessions/"+id+"/itinerary", "", "")
	if status != 404 {
		t.Fatalf("expected 404 before first reply, got %d", status)
	}

	status, _ = do(t, app, "POST", "/v1/sessions/"+id+"/messages", `{"text":"Paris in spring"}`, "")
	if status != 202 {
		t.Fatalf("expected 202, got %d", status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := deps.Sessions.Wait(ctx, id); err != nil {
		t.Fatalf("wait: %v", err)
	}

	status, data := do(t, app, "GET", "/v1/sessions/"+id+"/transcript", "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var msgs []domain.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != domain.RoleUser || msgs[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected transcript: %+v", msgs)
	}

	status, data = do(t, app, "GET", "/v1/sessions/"+id+"/itinerary", "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var it domain.Itinerary
	if err := json.Unmarshal(data, &it); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if it.Title != "Paris Adventure" {
		t.Errorf("expected Paris Adventure, got %q", it.Title)
	}

	status, _ = do(t, app, "DELETE", "/v1/sessions/"+id, "", "")
	if status != 204 {
		t.Fatalf("expected 204, got %d", status)
	}
	status, _ = do(t, app, "GET", "/v1/sessions/"+id+"/transcript", "", "")
	if status != 404 {
		t.Fatalf("expected 404 after close, got %d", status)
	}
}

func TestSession_BusyRejected(t *testing.T) {
	gate := gateDelay{release: make(chan struct{})}
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sessions = usecases.NewSessionService(newGenerator(), nil, nil, usecases.SessionConfig{Delayer: gate})
	})
	app := setupApp(deps)

	id := createSession(t, app, "trip A")

	status, data := do(t, app, "POST", "/v1/sessions/"+id+"/messages", `{"text":"trip B"}`, "")
	if status != 409 {
		t.Fatalf("expected 409, got %d", status)
	}
	if code := decodeError(t, data).Code; code != "session_busy" {
		t.Errorf("expected session_busy, got %s", code)
	}

	close(gate.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := deps.Sessions.Wait(ctx, id); err != nil {
		t.Fatalf("wait: %v", err)
	}

	transcript, _ := deps.Sessions.Transcript(id)
	if len(transcript) != 2 || transcript[0].Content != "trip A" {
		t.Fatalf("expected only trip A and its reply, got %+v", transcript)
	}
}

func TestSession_EventsKeepSessionIDAcrossRequests(t *testing.T) {
	gate := gateDelay{release: make(chan struct{})}
	events := newEventLog()
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sessions = usecases.NewSessionService(newGenerator(), events, nil, usecases.SessionConfig{Delayer: gate})
	})
	app := setupApp(deps)

	id := createSession(t, app, "")
	status, _ := do(t, app, "POST", "/v1/sessions/"+id+"/messages", `{"text":"Tokyo in autumn"}`, "")
	if status != 202 {
		t.Fatalf("expected 202, got %d", status)
	}

	// Later requests reuse the request buffers the submit path was parsed from.
	other := strings.Repeat("z", len(id))
	for i := 0; i < 20; i++ {
		if status, _ := do(t, app, "GET", "/v1/sessions/"+other+"/transcript", "", ""); status != 404 {
			t.Fatalf("expected 404, got %d", status)
		}
	}

	close(gate.release)
	select {
	case <-events.done:
	case <-time.After(2 * time.Second):
		t.Fatal("no updated event")
	}

	want := []string{"generating:" + id, "updated:" + id}
	got := events.list()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSession_BlankMessage(t *testing.T) {
	app := setupApp(makeDeps())
	id := createSession(t, app, "")

	status, data := do(t, app, "POST", "/v1/sessions/"+id+"/messages", `{"text":"  "}`, "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if code := decodeError(t, data).Code; code != "invalid_input" {
		t.Errorf("expected invalid_input, got %s", code)
	}
}

func TestSession_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	for _, path := range []string{"/v1/sessions/missing", "/v1/sessions/missing/transcript"} {
		status, _ := do(t, app, "GET", path, "", "")
		if status != 404 {
			t.Errorf("%s: expected 404, got %d", path, status)
		}
	}
	status, _ := do(t, app, "POST", "/v1/sessions/missing/messages", `{"text":"hi"}`, "")
	if status != 404 {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestSession_TooMany(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Sessions = usecases.NewSessionService(newGenerator(), nil, nil, usecases.SessionConfig{
			Delayer:     usecases.NoDelay{},
			MaxSessions: 1,
		})
	}))

	createSession(t, app, "")
	status, _ := do(t, app, "POST", "/v1/sessions", "", "")
	if status != 503 {
		t.Fatalf("expected 503, got %d", status)
	}
}

// ---- Trips ----

func TestTrips_RequireAuth(t *testing.T) {
	app := setupApp(makeDeps())

	for _, path := range []string{"/v1/trips", "/v1/trips/trip-1", "/v1/trips/trip-1/messages"} {
		status, _ := do(t, app, "GET", path, "", "")
		if status != 401 {
			t.Errorf("%s: expected 401, got %d", path, status)
		}
	}
}

func TestTrips_ListPaginated(t *testing.T) {
	start := domain.NewDate(time.Now().UTC().AddDate(0, 0, 10))
	end := start.AddDays(4)
	trips := make([]domain.Trip, 5)
	for i := range trips {
		trips[i] = domain.Trip{ID: fmt.Sprintf("t%d", i), UserID: "user-1", Title: fmt.Sprintf("Trip %d", i), StartDate: &start, EndDate: &end}
	}
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Trips = usecases.NewTripService(&mockTripRepo{
			listByUserFn: func(ctx context.Context, userID string) ([]domain.Trip, error) {
				if userID != "user-1" {
					return nil, nil
				}
				return trips, nil
			},
		}, &mockMessageRepo{}, nil)
	}))

	status, data := do(t, app, "GET", "/v1/trips?offset=1&limit=2", "", "good-token")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var resp struct {
		Data []struct {
			ID           string `json:"id"`
			DurationDays int    `json:"duration_days"`
			TimeUntil    string `json:"time_until"`
		} `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[0].ID != "t1" {
		t.Fatalf("unexpected page: %+v", resp.Data)
	}
	if resp.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", resp.Pagination.Total)
	}
	if resp.Data[0].DurationDays != 4 {
		t.Errorf("expected 4 days, got %d", resp.Data[0].DurationDays)
	}
	if resp.Data[0].TimeUntil != "10 days" {
		t.Errorf("expected '10 days', got %q", resp.Data[0].TimeUntil)
	}
}

func TestTrips_GetForeign(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Trips = usecases.NewTripService(&mockTripRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Trip, error) {
				return &domain.Trip{ID: id, UserID: "user-1"}, nil
			},
		}, &mockMessageRepo{}, nil)
	}))

	status, _ := do(t, app, "GET", "/v1/trips/trip-1", "", "other-token")
	if status != 403 {
		t.Fatalf("expected 403, got %d", status)
	}
	status, _ = do(t, app, "GET", "/v1/trips/trip-1", "", "good-token")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestTrips_Create(t *testing.T) {
	var saved *domain.Trip
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Trips = usecases.NewTripService(&mockTripRepo{
			createFn: func(ctx context.Context, trip *domain.Trip) error {
				trip.ID = "trip-42"
				saved = trip
				return nil
			},
		}, &mockMessageRepo{}, nil)
	}))

	body := `{"roadmap":{"title":"Paris Adventure","days":[{"day":1,"date":"2026-05-01","summary":"Arrival","activities":[]},{"day":2,"date":"2026-05-02","summary":"Louvre","activities":[]}],"mapViewport":{"center":[2.3522,48.8566],"zoom":12}}}`
	status, data := do(t, app, "POST", "/v1/trips", body, "good-token")
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, data)
	}
	if saved == nil || saved.UserID != "user-1" || saved.Title != "Paris Adventure" {
		t.Fatalf("unexpected saved trip: %+v", saved)
	}
	if saved.StartDate.String() != "2026-05-01" || saved.EndDate.String() != "2026-05-02" {
		t.Errorf("expected span from roadmap, got %v - %v", saved.StartDate, saved.EndDate)
	}
}

func TestTrips_CreateInvalidRoadmap(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"title":"x","roadmap":{"title":"x","days":[{"day":1},{"day":1}],"mapViewport":{"center":[0,0],"zoom":2}}}`
	status, data := do(t, app, "POST", "/v1/trips", body, "good-token")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if code := decodeError(t, data).Code; code != "validation_error" {
		t.Errorf("expected validation_error, got %s", code)
	}
}

func TestTrips_Messages(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Trips = usecases.NewTripService(&mockTripRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Trip, error) {
				return &domain.Trip{ID: id, UserID: "user-1"}, nil
			},
		}, &mockMessageRepo{
			listByTripFn: func(ctx context.Context, tripID string) ([]domain.Message, error) {
				return []domain.Message{
					{ID: 1, TripID: tripID, Role: domain.RoleUser, Content: "Paris"},
					{ID: 2, TripID: tripID, Role: domain.RoleAssistant, Content: "Perfect!"},
				}, nil
			},
		}, nil)
	}))

	status, data := do(t, app, "GET", "/v1/trips/trip-1/messages", "", "good-token")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var resp struct {
		Data []domain.Message `json:"data"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected messages: %+v", resp.Data)
	}
}

// ---- GraphQL ----

func TestGraphQL_SessionItinerary(t *testing.T) {
	deps := makeDeps()
	app := setupApp(deps)
	id := createSession(t, app, "Tokyo food tour")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := deps.Sessions.Wait(ctx, id); err != nil {
		t.Fatalf("wait: %v", err)
	}

	query := fmt.Sprintf(`{"query":"{ session(id: %q) { state transcript { role } itinerary { title days { day distanceKm } } } }"}`, id)
	query = strings.ReplaceAll(query, `"`+id+`"`, `\"`+id+`\"`)
	status, data := do(t, app, "POST", "/graphql", query, "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var resp struct {
		Data struct {
			Session struct {
				State      string `json:"state"`
				Transcript []struct {
					Role string `json:"role"`
				} `json:"transcript"`
				Itinerary struct {
					Title string `json:"title"`
					Days  []struct {
						Day        int     `json:"day"`
						DistanceKm float64 `json:"distanceKm"`
					} `json:"days"`
				} `json:"itinerary"`
			} `json:"session"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", resp.Errors)
	}
	s := resp.Data.Session
	if s.State != "idle" || len(s.Transcript) != 2 {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.Itinerary.Title != "Tokyo Adventure" {
		t.Errorf("expected Tokyo Adventure, got %q", s.Itinerary.Title)
	}
	if len(s.Itinerary.Days) == 0 || s.Itinerary.Days[0].DistanceKm <= 0 {
		t.Errorf("expected positive distance on day 1, got %+v", s.Itinerary.Days)
	}
}

func TestGraphQL_SubmitMessage(t *testing.T) {
	deps := makeDeps()
	app := setupApp(deps)
	id := createSession(t, app, "")

	body := `{"query":"mutation($id: String!, $text: String!) { submitMessage(sessionId: $id, text: $text) { accepted state } }","variables":{"id":"` + id + `","text":"Paris"}}`
	status, data := do(t, app, "POST", "/graphql", body, "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(data), `"accepted":true`) {
		t.Fatalf("expected accepted, got %s", data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := deps.Sessions.Wait(ctx, id); err != nil {
		t.Fatalf("wait: %v", err)
	}
	it, _ := deps.Sessions.Itinerary(id)
	if it == nil || it.Title != "Paris Adventure" {
		t.Fatalf("expected Paris itinerary, got %+v", it)
	}
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := do(t, app, "GET", "/v1/health", "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(data), `"healthy"`) {
		t.Errorf("unexpected body: %s", data)
	}
}

func TestReady_WithoutBackends(t *testing.T) {
	app := setupApp(makeDeps())

	status, _ := do(t, app, "GET", "/v1/ready", "", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
}
