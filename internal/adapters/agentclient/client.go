package agentclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/wanderlust/internal/core/domain"
)

type request struct {
	Message     string            `json:"message"`
	TripContext *domain.Itinerary `json:"tripContext,omitempty"`
}

type response struct {
	Message        string            `json:"message"`
	UpdatedRoadmap *domain.Itinerary `json:"updatedRoadmap"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client implements ports.ResponseGenerator by calling a remote travel agent
// endpoint with a bearer token.
type Client struct {
	url     string
	token   string
	timeout time.Duration
	http    *fasthttp.Client
}

// New creates a client for the agent endpoint at url.
func New(url, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		url:     url,
		token:   token,
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "wanderlust-agentclient",
			MaxConnsPerHost:     64,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

// Generate sends text and current to the remote agent. A current itinerary
// without days is sent as absent context.
func (c *Client) Generate(ctx context.Context, text string, current *domain.Itinerary) (*domain.Generation, error) {
	mode := domain.ModeBootstrap
	body := request{Message: text}
	if current.HasDays() {
		mode = domain.ModeFollowUp
		body.TripContext = current
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode agent request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.token)
	req.SetBody(payload)

	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, fmt.Errorf("agent request: %w", context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("agent request: %w", err)
	}

	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusUnauthorized:
		return nil, fmt.Errorf("agent: %w", domain.ErrUnauthorized)
	case status == fasthttp.StatusBadRequest:
		return nil, fmt.Errorf("agent: %w: %s", domain.ErrInvalidInput, errorMessage(resp.Body()))
	case status != fasthttp.StatusOK:
		return nil, fmt.Errorf("agent: unexpected status %d: %s", status, errorMessage(resp.Body()))
	}

	var out response
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode agent response: %w", err)
	}
	if out.UpdatedRoadmap == nil {
		return nil, errors.New("agent response has no roadmap")
	}

	return &domain.Generation{
		Reply:     out.Message,
		Itinerary: out.UpdatedRoadmap,
		Mode:      mode,
	}, nil
}

// deadline is the earlier of the context deadline and the client timeout.
func (c *Client) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

func errorMessage(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
