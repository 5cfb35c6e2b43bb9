package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"despesas/internal/core"
	"despesas/internal/ledger"
	"despesas/internal/services"
	"despesas/internal/store"
	"despesas/internal/store/memory"
)

var ledgerIDPattern = regexp.MustCompile(`hx-post="/ledgers/([^/"]+)/expenses"`)

func newTestService(t *testing.T) *services.LedgerService {
	t.Helper()
	reg := ledger.NewRegistry(func(context.Context, string) (store.EntryStore, error) {
		return memory.New(), nil
	}, 10, time.Hour)
	svc := services.NewLedgerService(reg, core.DefaultCatalog(), nil)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(":0", newTestService(t), ServerConfig{RateLimitPerMinute: 600})
}

// openPage loads the index and returns the ledger id embedded in the form.
func openPage(t *testing.T, srv *Server) string {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	m := ledgerIDPattern.FindStringSubmatch(rr.Body.String())
	if m == nil {
		t.Fatalf("index body has no ledger form: %s", rr.Body.String())
	}
	return m[1]
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Nova despesa",
		`<option value="casa">Casa</option>`,
		`<option value="servicos">Serviços</option>`,
		`id="amount"`,
		"0 despesas",
		"<small>R$</small>0,00",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		var payload map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			t.Fatalf("%s body is not JSON: %v", path, err)
		}
	}
}

func TestEachPageLoadStartsNewLedger(t *testing.T) {
	srv := newTestServer(t)

	first := openPage(t, srv)
	second := openPage(t, srv)
	if first == second {
		t.Fatalf("both page loads share ledger %s", first)
	}
	if got := srv.ledgers.Metrics().Ledgers; got != 2 {
		t.Errorf("live ledgers = %d, want 2", got)
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/expenses", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/static/style.css", "/static/app.js", "/static/img/casa.svg", "/static/img/remove.svg"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s status=%d", path, rr.Code)
			continue
		}
		if got := rr.Header().Get("Cache-Control"); !strings.Contains(got, "max-age=3600") {
			t.Errorf("%s Cache-Control = %q", path, got)
		}
	}
}

func TestCategoryIconsExist(t *testing.T) {
	srv := newTestServer(t)

	for _, cat := range core.DefaultCatalog() {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, iconURL(cat.Icon), nil))
		if rr.Code != http.StatusOK {
			t.Errorf("icon for %s: status=%d", cat.ID, rr.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	openPage(t, srv)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"http_requests_total 1",
		"ledgers_active 1",
		"expenses_added_total 0",
		"rate_limit_hits_total 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestTraceMethodRejected(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest("TRACE", "/", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	srv := NewServer(":0", newTestService(t), ServerConfig{RateLimitPerMinute: 1})

	var limited *httptest.ResponseRecorder
	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/ledgers/missing/expenses", strings.NewReader("category=casa"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		srv.Handler.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited = rr
			break
		}
	}
	if limited == nil {
		t.Fatal("expected a 429 after exhausting the burst")
	}
	if limited.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
	if !strings.Contains(limited.Header().Get("HX-Trigger"), "show-alert") {
		t.Error("rate limited response should raise an alert")
	}

	// Page loads are never limited.
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET after limit: status=%d", rr.Code)
	}
}

func TestAmountFormattingIsNeverRateLimited(t *testing.T) {
	srv := NewServer(":0", newTestService(t), ServerConfig{RateLimitPerMinute: 120})

	typed := ""
	for i := 0; i < 30; i++ {
		typed += "1"
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/ui/amount", strings.NewReader("amount="+typed))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		srv.Handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("keystroke %d: status=%d HX-Trigger=%s", i+1, rr.Code, rr.Header().Get("HX-Trigger"))
		}
		if rr.Header().Get("HX-Trigger") != "" {
			t.Fatalf("keystroke %d raised %s", i+1, rr.Header().Get("HX-Trigger"))
		}
	}
}

func TestMissingTemplates(t *testing.T) {
	srv := newTestServer(t)
	srv.templates = nil

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing templates, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz expected 503, got %d", rr.Code)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}
