// Package ratelimit throttles clients with one token bucket per client IP.
// Buckets of clients that went quiet expire on their own.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

type Limiter struct {
	mu      sync.Mutex
	clients *gocache.Cache
	limit   rate.Limit
	burst   int
	exempt  map[string]bool

	totalHits atomic.Int64
}

type Config struct {
	RequestsPerMinute int
	Burst             int
	IdleTTL           time.Duration // forget a client after this long without requests
	CleanupInterval   time.Duration
	ExemptPaths       []string // never limited, whatever the method
}

// DefaultConfig allows one request per second with bursts of ten.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		Burst:             10,
		IdleTTL:           10 * time.Minute,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter fills zero fields of cfg from DefaultConfig.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	cfg.RequestsPerMinute = positiveOr(cfg.RequestsPerMinute, def.RequestsPerMinute)
	cfg.Burst = positiveOr(cfg.Burst, def.Burst)
	cfg.IdleTTL = positiveOr(cfg.IdleTTL, def.IdleTTL)
	cfg.CleanupInterval = positiveOr(cfg.CleanupInterval, def.CleanupInterval)
	l := &Limiter{
		clients: gocache.New(cfg.IdleTTL, cfg.CleanupInterval),
		limit:   rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute)),
		burst:   cfg.Burst,
		exempt:  make(map[string]bool, len(cfg.ExemptPaths)),
	}
	for _, p := range cfg.ExemptPaths {
		l.exempt[p] = true
	}
	return l
}

func positiveOr[T int | time.Duration](v, fallback T) T {
	if v > 0 {
		return v
	}
	return fallback
}

func (l *Limiter) bucket(clientIP string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.clients.Get(clientIP)
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
	}
	// Refreshing the entry keeps active clients from expiring.
	l.clients.SetDefault(clientIP, b)
	return b.(*rate.Limiter)
}

// Allow takes a token from clientIP's bucket and counts a hit when none is left.
func (l *Limiter) Allow(clientIP string) bool {
	if l.bucket(clientIP).Allow() {
		return true
	}
	l.totalHits.Add(1)
	return false
}

func (l *Limiter) ActiveClients() int {
	return l.clients.ItemCount()
}

type Metrics struct {
	TotalHits   int64 `json:"total_hits"`
	ClientCount int64 `json:"client_count"`
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   l.totalHits.Load(),
		ClientCount: int64(l.clients.ItemCount()),
	}
}

// Middleware limits mutating requests only; page loads, reads and exempt
// paths pass.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || l.exempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if !l.Allow(extractIP(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *Limiter) retryAfterSeconds() int {
	secs := int(time.Duration(float64(time.Second) / float64(l.limit)).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}
