// Package trace tags every request with an id, hands handlers a logger bound
// to it and logs the outcome once the handler returns.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "despesas/internal/log"
)

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

type Middleware struct {
	clientIP func(*http.Request) string
	logger   *applog.Logger
	events   *applog.StructuredLogger

	served  atomic.Int64
	elapsed atomic.Int64 // microseconds
}

type Metrics struct {
	TotalRequests       int64 `json:"total_requests"`
	AverageResponseTime int64 `json:"average_response_time_us"`
}

// NewMiddleware builds the tracer. clientIP may be nil, in which case no
// client address is logged.
func NewMiddleware(logger *applog.Logger, clientIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = applog.WithComponent(applog.ComponentHTTP)
	}
	return &Middleware{
		clientIP: clientIP,
		logger:   logger,
		events:   applog.NewStructuredLogger(logger),
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		id := GenerateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		ctx = applog.NewContext(ctx, m.logger.With(applog.FieldRequestID, id))
		r = r.WithContext(ctx)
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		took := time.Since(began)
		m.served.Add(1)
		m.elapsed.Add(took.Microseconds())

		var ip string
		if m.clientIP != nil {
			ip = m.clientIP(r)
		}
		m.events.LogHTTPEnd(ctx, r, rec.status, took.Milliseconds(), ip)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// GetRequestID returns the id assigned by the middleware, or "" outside a
// traced request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (m *Middleware) GetMetrics() Metrics {
	n := m.served.Load()
	out := Metrics{TotalRequests: n}
	if n > 0 {
		out.AverageResponseTime = m.elapsed.Load() / n
	}
	return out
}
