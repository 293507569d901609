package errs

import (
	"fmt"
	"sort"
	"strings"
)

// HTTPError is a non-2xx response (or a 2xx envelope with success=false).
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Is makes errors.Is(err, ErrHTTP) hold for every HTTPError.
func (e *HTTPError) Is(target error) bool { return target == ErrHTTP }

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ProviderError is a failure reported by the identity provider; the message is passed through.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return ErrIdentityProvider.Error()
}

// Is makes errors.Is(err, ErrIdentityProvider) hold for every ProviderError.
func (e *ProviderError) Is(target error) bool { return target == ErrIdentityProvider }

// Message returns the user-facing text of err, or fallback when err is nil.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if m := err.Error(); m != "" {
		return m
	}
	return fallback
}
