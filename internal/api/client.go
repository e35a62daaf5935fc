// Package api is the HTTP client for the skill exchange backend.
package api

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
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/iksnae/skillswap/internal"
)

const (
	RequestIDHeader     = "X-Request-ID"
	AuthorizationHeader = "Authorization"

	// DefaultTimeout bounds a single request
	DefaultTimeout = 15 * time.Second

	maxBodySize = 4 << 20
)

// Config holds client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Rate is the outbound request rate per second; zero disables limiting
	Rate  float64
	Burst int
	// HTTPClient overrides the transport, mostly for tests
	HTTPClient *http.Client
}

// Client talks to the REST backend. The bearer token is read from the
// TokenSource on every request and omitted while it is empty.
type Client struct {
	base    *url.URL
	http    *http.Client
	tokens  internal.TokenSource
	limiter *rate.Limiter
	metrics *Metrics
	log     zerolog.Logger
}

var (
	_ internal.AuthAPI     = (*Client)(nil)
	_ internal.UsersAPI    = (*Client)(nil)
	_ internal.SessionsAPI = (*Client)(nil)
	_ internal.ReviewsAPI  = (*Client)(nil)
	_ internal.MessagesAPI = (*Client)(nil)
	_ internal.SkillsAPI   = (*Client)(nil)
)

// New creates a client for cfg.BaseURL
func New(cfg Config, tokens internal.TokenSource) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}

	if tokens == nil {
		tokens = noToken{}
	}

	return &Client{
		base:    base,
		http:    httpClient,
		tokens:  tokens,
		limiter: limiter,
		metrics: NewMetrics(),
		log:     internal.Logger("api"),
	}, nil
}

type noToken struct{}

func (noToken) Token() string { return "" }

// BaseURL returns the configured backend URL
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Metrics returns the request metrics of this client
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// do sends one request and decodes a successful response into out
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return c.failure(op, &internal.APIError{Op: op, Kind: internal.ErrNetwork, Err: err})
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	if token := c.tokens.Token(); token != "" {
		req.Header.Set(AuthorizationHeader, "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(op, 0, time.Since(start))
		return c.failure(op, &internal.APIError{Op: op, Kind: internal.ErrNetwork, Err: err})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	c.metrics.observe(op, resp.StatusCode, time.Since(start))
	if err != nil {
		return c.failure(op, &internal.APIError{Op: op, Status: resp.StatusCode, Kind: internal.ErrNetwork, Err: err})
	}

	c.log.Debug().
		Str("op", op).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("api request")

	if resp.StatusCode >= http.StatusBadRequest {
		return c.failure(op, &internal.APIError{
			Op:      op,
			Status:  resp.StatusCode,
			Message: errorMessage(data),
			Kind:    kindFor(op, resp.StatusCode),
		})
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return c.failure(op, malformed(op, resp.StatusCode, err))
	}
	return nil
}

func (c *Client) failure(op string, err *internal.APIError) error {
	kind := "unknown"
	if err.Kind != nil {
		kind = kindLabel(err.Kind)
	}
	c.metrics.fail(op, kind)
	return err
}

// errorMessage returns the "message" field of an error payload
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return strings.TrimSpace(gjson.GetBytes(body, "message").String())
}

func malformed(op string, status int, err error) *internal.APIError {
	return &internal.APIError{Op: op, Status: status, Kind: internal.ErrMalformedResponse, Err: err}
}

// kindFor maps an HTTP failure of op to an error kind
func kindFor(op string, status int) error {
	switch op {
	case opLogin, opRegister:
		switch status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusConflict:
			return internal.ErrAuthentication
		}
	case opMe:
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return internal.ErrInvalidSession
		}
	case opUpdateStatus:
		switch status {
		case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
			return internal.ErrIllegalTransition
		}
	}
	return internal.ErrServer
}

func kindLabel(kind error) string {
	switch {
	case errors.Is(kind, internal.ErrNetwork):
		return "network"
	case errors.Is(kind, internal.ErrAuthentication):
		return "authentication"
	case errors.Is(kind, internal.ErrInvalidSession):
		return "invalid_session"
	case errors.Is(kind, internal.ErrIllegalTransition):
		return "illegal_transition"
	case errors.Is(kind, internal.ErrMalformedResponse):
		return "malformed"
	default:
		return "server"
	}
}

// validateAll rejects a decoded list when any element fails check
func validateAll[T any](c *Client, op string, items []T, check func(*T) error) error {
	for i := range items {
		if err := check(&items[i]); err != nil {
			return c.failure(op, malformed(op, http.StatusOK, fmt.Errorf("item %d: %w", i, err)))
		}
	}
	return nil
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.JoinPath("skills").String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &internal.APIError{Op: "ping", Kind: internal.ErrNetwork, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
