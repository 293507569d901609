// Package gateway sends authenticated requests to the Covered backend and
// normalises every outcome into an Envelope. Send never returns an error value
// and never panics on transport or protocol failures.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 10 * time.Second

const maxBody = 10 << 20

// SessionSource yields the current session; nil means signed out.
type SessionSource interface {
	GetSession(ctx context.Context) (*model.Session, error)
}

// Envelope is the uniform result of Send.
type Envelope struct {
	Success bool
	Data    json.RawMessage
	Error   string
	// Err classifies the failure; match it with errors.Is against errs sentinels.
	Err    error
	Status int
}

func failure(status int, err error) Envelope {
	return Envelope{Status: status, Error: err.Error(), Err: err}
}

// Client is the authenticated request gateway.
type Client struct {
	baseURL  string
	hc       *http.Client
	sessions SessionSource
	timeout  time.Duration
	log      *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }
func WithTimeout(d time.Duration) Option    { return func(c *Client) { c.timeout = d } }
func WithLogger(l *zap.Logger) Option       { return func(c *Client) { c.log = l } }

// New returns a gateway for the backend at baseURL.
func New(baseURL string, sessions SessionSource, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		hc:       http.DefaultClient,
		sessions: sessions,
		timeout:  DefaultTimeout,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	return c
}

type request struct {
	headers http.Header
}

// RequestOption customises one request.
type RequestOption func(*request)

// WithHeader sets a header after the defaults, so it may override them.
func WithHeader(key, value string) RequestOption {
	return func(r *request) { r.headers.Set(key, value) }
}

type wireEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Send performs method on endpoint (a path such as "/api/homes") with an
// optional JSON body.
func (c *Client) Send(ctx context.Context, method, endpoint string, body any, opts ...RequestOption) Envelope {
	start := time.Now()
	env := c.send(ctx, method, endpoint, body, opts)
	observe(method, endpoint, env, time.Since(start))

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", env.Status),
		zap.Duration("duration", time.Since(start)),
	}
	if env.Success {
		c.log.Debug("api request", fields...)
	} else {
		c.log.Warn("api request failed", append(fields, zap.Error(env.Err))...)
	}
	return env
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any, opts []RequestOption) Envelope {
	sess, err := c.sessions.GetSession(ctx)
	if err != nil {
		return failure(0, fmt.Errorf("%w: %w", errs.ErrUnauthenticated, err))
	}
	if sess == nil || sess.AccessToken == "" {
		return failure(0, fmt.Errorf("%w: no authentication token available", errs.ErrUnauthenticated))
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return failure(0, fmt.Errorf("encode request: %w", err))
		}
		rdr = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, rdr)
	if err != nil {
		return failure(0, fmt.Errorf("%w: %w", errs.ErrTransport, err))
	}
	r := request{headers: http.Header{}}
	r.headers.Set("Authorization", "Bearer "+sess.AccessToken)
	r.headers.Set("Content-Type", "application/json")
	r.headers.Set("Accept", "application/json")
	r.headers.Set("X-Request-Id", uuid.Must(uuid.NewV4()).String())
	for _, o := range opts {
		o(&r)
	}
	req.Header = r.headers

	resp, err := c.hc.Do(req)
	if err != nil {
		return failure(0, classify(ctx, err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return failure(resp.StatusCode, classify(ctx, err))
	}
	return decode(resp.StatusCode, raw)
}

func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return errs.ErrTimeout
	}
	return fmt.Errorf("%w: %w", errs.ErrTransport, err)
}

func decode(status int, raw []byte) Envelope {
	ok := status >= 200 && status <= 299
	if len(bytes.TrimSpace(raw)) == 0 {
		if ok {
			return Envelope{Success: true, Status: status}
		}
		return failure(status, &errs.HTTPError{Status: status})
	}

	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		if ok {
			return failure(status, fmt.Errorf("%w: %w", errs.ErrMalformedResponse, err))
		}
		return failure(status, &errs.HTTPError{Status: status})
	}
	if !ok || (w.Success != nil && !*w.Success) {
		return failure(status, &errs.HTTPError{Status: status, Message: w.Error})
	}
	return Envelope{Success: true, Data: w.Data, Status: status}
}
