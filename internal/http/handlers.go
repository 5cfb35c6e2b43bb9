package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// handleHealth answers as long as the process serves requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the page can be served.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ready := true
	checks := map[string]any{
		"rate_limiter": map[string]any{"status": "ok", "active_clients": s.limiter.ActiveClients()},
	}

	if s.templates != nil {
		checks["templates"] = "ok"
	} else {
		checks["templates"] = "failed: templates not loaded"
		ready = false
	}

	if s.ledgers != nil {
		checks["ledgers"] = map[string]any{"status": "ok", "active": s.ledgers.Metrics().Ledgers}
	} else {
		checks["ledgers"] = "not_configured"
		ready = false
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

type metric struct {
	name, kind, help string
	value            any
}

func (m metric) writeTo(w io.Writer) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", m.name, m.help, m.name, m.kind, m.name, m.value)
}

// handleMetrics exposes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	requests := s.trace.GetMetrics()
	limits := s.limiter.GetMetrics()

	metrics := []metric{
		{"http_requests_total", "counter", "Requests served", requests.TotalRequests},
		{"http_response_time_us_avg", "gauge", "Mean response time in microseconds", requests.AverageResponseTime},
	}
	if s.ledgers != nil {
		lm := s.ledgers.Metrics()
		metrics = append(metrics,
			metric{"ledgers_active", "gauge", "Ledgers currently held in memory", lm.Ledgers},
			metric{"expenses_added_total", "counter", "Expenses added", lm.EntriesAdded},
			metric{"expenses_removed_total", "counter", "Expenses removed", lm.EntriesRemoved},
			metric{"duplicate_categories_total", "counter", "Submissions rejected for a repeated category", lm.DuplicatesRejected},
			metric{"aggregation_failures_total", "counter", "Totals passes aborted on an unreadable amount", lm.AggregationFailures},
		)
	}
	metrics = append(metrics,
		metric{"rate_limit_hits_total", "counter", "Requests refused by the rate limiter", limits.TotalHits},
		metric{"active_rate_limit_clients", "gauge", "Clients tracked by the rate limiter", limits.ClientCount},
		metric{"suspicious_requests_total", "counter", "Requests flagged by the detector", s.detector.GetMetrics().SuspiciousRequests},
		metric{"uptime_seconds", "gauge", "Seconds since start", int64(time.Since(s.started).Seconds())},
	)

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, m := range metrics {
		m.writeTo(w)
	}
}
