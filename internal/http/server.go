package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	applog "despesas/internal/log"
	"despesas/internal/middleware/ratelimit"
	"despesas/internal/middleware/security"
	"despesas/internal/middleware/trace"
	"despesas/internal/services"
	appweb "despesas/web"
)

const msgRateLimited = "Muitas requisições. Tente novamente em instantes."

// ServerConfig tunes the middleware stack.
type ServerConfig struct {
	RateLimitPerMinute int
	TrustedProxies     []string
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	ledgers   *services.LedgerService
	logger    *applog.Logger

	detector *security.Detector
	limiter  *ratelimit.Limiter
	trace    *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, ledgers *services.LedgerService, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.WithComponent(applog.ComponentHTTP)
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ledgers:  ledgers,
		logger:   logger,
		detector: security.NewDetector(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			// The amount field posts on every keystroke.
			ExemptPaths: []string{amountPath},
		}),
		started: time.Now(),
	}
	for _, cidr := range cfg.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s.trace = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err,
			applog.FieldComponent, applog.ComponentTemplate)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix(staticPrefix, http.FileServer(http.FS(sub)))
		mux.Handle("GET "+staticPrefix, security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	page := func(h http.HandlerFunc) http.Handler { return security.NoStore(h) }
	mux.Handle("GET /{$}", page(s.handleIndex))
	mux.Handle("POST "+amountPath, page(s.handleFormatAmount))
	mux.Handle("POST /ledgers/{ledger}/expenses", page(s.handleAddExpense))
	mux.Handle("GET /ledgers/{ledger}/expenses", page(s.handleListExpenses))
	mux.Handle("/ledgers/{ledger}/expenses/{entry}", page(s.handleRemoveExpense))
	mux.Handle("GET /ledgers/{ledger}/summary", page(s.handleSummary))

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var h http.Handler = mux
	h = limited(h)
	h = s.detector.Middleware(h)
	h = headers.Middleware(h)
	h = s.trace.Middleware(h)
	s.Handler = h

	return s
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, msgRateLimited).Write(w)
}

// Shutdown gracefully shuts down the server. Ledgers are owned by the
// service and closed by the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info("Shutting down HTTP server", applog.FieldOperation, applog.OpShutdown)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
