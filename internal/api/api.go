// Package api is the typed backend sync service: one thin call through the
// gateway per operation, translated into an entity-typed Result. No method
// returns an error value; failures travel in Result.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/gateway"
)

// Resource paths.
const (
	PathVerify    = "/api/auth/verify"
	PathProfile   = "/api/auth/profile"
	PathHomes     = "/api/homes"
	PathRooms     = "/api/rooms"
	PathItems     = "/api/items"
	PathPushToken = "/api/notifications/push-token"
)

// Sender is the gateway capability the service needs.
type Sender interface {
	Send(ctx context.Context, method, endpoint string, body any, opts ...gateway.RequestOption) gateway.Envelope
}

// Result is the typed envelope of every operation.
type Result[T any] struct {
	Success bool
	Data    T
	Error   string
	Err     error
}

func fail[T any](err error) Result[T] {
	return Result[T]{Error: err.Error(), Err: err}
}

func fromEnvelope[T any](env gateway.Envelope) Result[T] {
	if !env.Success {
		err := env.Err
		if err == nil {
			err = fmt.Errorf("%w: %s", errs.ErrHTTP, env.Error)
		}
		return Result[T]{Error: env.Error, Err: err}
	}
	return Result[T]{Success: true}
}

// Service implements the backend operations.
type Service struct {
	gw Sender
}

// New returns a Service sending through gw.
func New(gw Sender) *Service { return &Service{gw: gw} }

// call sends a request and decodes data[field] into T. An empty field means
// the response body carries nothing the caller needs.
func call[T any](ctx context.Context, gw Sender, method, endpoint string, body any, field string) Result[T] {
	env := gw.Send(ctx, method, endpoint, body)
	res := fromEnvelope[T](env)
	if !res.Success || field == "" {
		return res
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fail[T](fmt.Errorf("%w: %s: %w", errs.ErrMalformedResponse, endpoint, err))
	}
	raw, ok := data[field]
	if !ok || string(raw) == "null" {
		return fail[T](fmt.Errorf("%w: %s: missing %q", errs.ErrMalformedResponse, endpoint, field))
	}
	if err := json.Unmarshal(raw, &res.Data); err != nil {
		return fail[T](fmt.Errorf("%w: %s: %w", errs.ErrMalformedResponse, endpoint, err))
	}
	return res
}

func requireID[T any](name, id string) (Result[T], bool) {
	if id == "" {
		err := &errs.ValidationError{Fields: map[string]string{name: name + " is required"}}
		return fail[T](err), false
	}
	return Result[T]{}, true
}

func withID(base, id string) string { return base + "/" + url.PathEscape(id) }

func withQuery(base, key, value string) string {
	return base + "?" + url.Values{key: {value}}.Encode()
}
