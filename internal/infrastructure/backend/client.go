package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

const maxErrorBody = 64 << 10

// TokenSource yields the bearer token for authenticated calls; "" sends none.
type TokenSource func() string

// Observer is told about every upstream call once it completes. status is 0
// when no response arrived.
type Observer interface {
	ObserveUpstream(resource, method string, status int, elapsed time.Duration)
}

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// Limiter throttles outbound calls; nil disables throttling.
	Limiter *rate.Limiter
	// Breaker wraps every call; nil disables it. It should treat APIErrors
	// as successes (see IsTransportFailure) so a 4xx never opens it.
	Breaker  *gobreaker.CircuitBreaker
	Token    TokenSource
	Observer Observer
}

// Client is the HTTP client adapter in front of the REST backend. It attaches
// the bearer token, tags requests with an X-Request-ID, and turns non-2xx
// responses into *domain.APIError.
type Client struct {
	base     string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	token    TokenSource
	observer Observer
	log      zerolog.Logger
}

func NewClient(opts Options, log zerolog.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	token := opts.Token
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		base:     strings.TrimRight(opts.BaseURL, "/"),
		http:     hc,
		limiter:  opts.Limiter,
		breaker:  opts.Breaker,
		token:    token,
		observer: opts.Observer,
		log:      log,
	}
}

// request is one call to the backend.
type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	// bearer overrides the TokenSource; used by profile revalidation.
	bearer string
	// anonymous suppresses the Authorization header.
	anonymous bool
}

// IsTransportFailure reports whether err means the backend could not be
// reached or misbehaved, as opposed to a well-formed error response.
func IsTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled)
}

// do sends r and returns the response body of a 2xx reply.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	call := func() (interface{}, error) { return c.send(ctx, r) }
	var (
		out interface{}
		err error
	)
	if c.breaker != nil {
		out, err = c.breaker.Execute(call)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s %s: backend unavailable: %w: %w", r.method, r.path, domain.ErrNetwork, err)
		}
	} else {
		out, err = call()
	}
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s %s: rate limit: %w: %w", r.method, r.path, domain.ErrNetwork, err)
		}
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.base+"/"+strings.TrimLeft(r.path, "/"), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token := c.bearerFor(r); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resource := resourceOf(r.path)
	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(resource, r.method, 0, elapsed)
		c.log.Warn().Err(err).Str("request_id", reqID).Str("method", r.method).Str("path", r.path).Msg("backend unreachable")
		return nil, fmt.Errorf("%s %s: %w: %w", r.method, r.path, domain.ErrNetwork, err)
	}
	defer resp.Body.Close()
	c.observe(resource, r.method, resp.StatusCode, elapsed)

	ev := c.log.Debug()
	if resp.StatusCode >= http.StatusInternalServerError {
		ev = c.log.Warn()
	}
	ev.Str("request_id", reqID).
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, apiError(resp.StatusCode, raw))
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w: %w", r.method, r.path, domain.ErrNetwork, err)
	}
	return raw, nil
}

func (c *Client) bearerFor(r request) string {
	switch {
	case r.anonymous:
		return ""
	case r.bearer != "":
		return r.bearer
	default:
		return c.token()
	}
}

func (c *Client) observe(resource, method string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstream(resource, method, status, elapsed)
	}
}

// apiError extracts the backend's "message" field when the body carries one.
func apiError(status int, raw []byte) *domain.APIError {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	e := &domain.APIError{Status: status}
	if json.Unmarshal(raw, &body) == nil {
		e.Message = body.Message
		if e.Message == "" {
			e.Message = body.Error
		}
	}
	return e
}

// decode unmarshals a 2xx body into out. An empty body leaves out untouched
// and reports false.
func decode(raw []byte, out any) (bool, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode response: %w: %w", domain.ErrMalformedResponse, err)
	}
	return true, nil
}

// resourceOf returns the first path segment, used as a low-cardinality label.
func resourceOf(path string) string {
	path = strings.TrimLeft(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

func itemPath(resource, id string) string {
	return resource + "/" + url.PathEscape(id)
}

// Ping reports whether the backend answers at all. Any response below 500
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.send(ctx, request{method: http.MethodGet, path: "articles/cards", anonymous: true})
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return nil
	}
	return err
}
