package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/covered/internal/errs"
)

const maxBody = 1 << 20

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Error: msg})
}

// statusOf maps a service error to an HTTP status and a client-facing message.
// notFound is the message used for errs.ErrNotFound.
func statusOf(err error, notFound string) (int, string) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid input"
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, notFound
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict, "Already exists"
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	status, msg := statusOf(err, notFound)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeFail(w, status, msg)
}

// decodeJSON reads a JSON body into v; malformed bodies are invalid input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidInput,
			&errs.ValidationError{Fields: map[string]string{"body": "request body must be valid JSON"}})
	}
	return nil
}
