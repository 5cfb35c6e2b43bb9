package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLimiterAllowsBurstThenBlocks(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, Burst: 3})
	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should pass within burst", i)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("request over burst should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other clients have their own bucket")
	}
	m := rl.GetMetrics()
	if m.TotalHits != 1 || m.ClientCount != 2 || rl.ActiveClients() != 2 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestMiddlewareOnlyLimitsMutations(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, Burst: 1})
	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	do := func(method string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/ledgers/x/expenses", nil))
		return rec.Code
	}

	if code := do(http.MethodPost); code != http.StatusNoContent {
		t.Fatalf("first POST got %d", code)
	}
	if code := do(http.MethodPost); code != http.StatusTooManyRequests {
		t.Fatalf("second POST got %d", code)
	}
	for i := 0; i < 5; i++ {
		if code := do(http.MethodGet); code != http.StatusNoContent {
			t.Fatalf("GET should never be limited, got %d", code)
		}
	}
}

func TestMiddlewareCustomOnLimit(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, Burst: 1})
	called := false
	h := rl.Middleware(func(*http.Request) string { return "ip" }, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
		if i == 1 && rec.Header().Get("Retry-After") == "" {
			t.Fatal("Retry-After missing")
		}
	}
	if !called {
		t.Fatal("onLimit not called")
	}
}

func TestMiddlewareSkipsExemptPaths(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, Burst: 1, ExemptPaths: []string{"/ui/amount"}})
	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ui/amount", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d to exempt path got %d", i+1, rec.Code)
		}
	}
	if hits := rl.GetMetrics().TotalHits; hits != 0 {
		t.Fatalf("exempt requests counted %d hits", hits)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ledgers/x/expenses", nil))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ledgers/x/expenses", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("other paths should still be limited, got %d", rec.Code)
	}
}
