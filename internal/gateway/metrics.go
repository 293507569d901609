package gateway

import (
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/and161185/covered/internal/errs"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "covered_client",
			Name:      "requests_total",
			Help:      "Backend requests sent through the gateway by outcome.",
		},
		[]string{"method", "resource", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "covered_client",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency as seen by the gateway.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "resource"},
	)
)

func observe(method, endpoint string, env Envelope, d time.Duration) {
	res := resource(endpoint)
	requestsTotal.WithLabelValues(method, res, outcome(env)).Inc()
	requestDuration.WithLabelValues(method, res).Observe(d.Seconds())
}

// resource keeps label cardinality bounded: "/api/homes/42?x=1" -> "/api/homes".
func resource(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	parts := strings.SplitN(strings.TrimPrefix(endpoint, "/"), "/", 3)
	if len(parts) >= 2 {
		return "/" + parts[0] + "/" + parts[1]
	}
	return "/" + parts[0]
}

func outcome(env Envelope) string {
	switch {
	case env.Success:
		return "ok"
	case errors.Is(env.Err, errs.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(env.Err, errs.ErrTimeout):
		return "timeout"
	case errors.Is(env.Err, errs.ErrTransport):
		return "transport"
	case errors.Is(env.Err, errs.ErrMalformedResponse):
		return "malformed"
	case errors.Is(env.Err, errs.ErrHTTP):
		return "http_error"
	default:
		return "error"
	}
}
