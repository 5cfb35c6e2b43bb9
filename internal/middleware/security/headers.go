package security

import (
	"net/http"
	"strconv"
	"strings"
)

// HeadersConfig lists the response headers added to every request. Empty
// values are not sent.
type HeadersConfig struct {
	CSP               string
	FrameOptions      string
	ReferrerPolicy    string
	PermissionsPolicy string
	// HSTSMaxAge is in seconds; the header is only sent over TLS.
	HSTSMaxAge int
}

// cspDirectives allow htmx from unpkg and the inline styles htmx injects.
// Everything else is same-origin; app.js raises list events so no eval is
// needed.
var cspDirectives = []string{
	"default-src 'self'",
	"script-src 'self' https://unpkg.com",
	"style-src 'self' 'unsafe-inline'",
	"img-src 'self' data:",
	"connect-src 'self'",
	"object-src 'none'",
	"frame-ancestors 'none'",
	"base-uri 'self'",
	"form-action 'self'",
}

func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:               strings.Join(cspDirectives, "; "),
		FrameOptions:      "DENY",
		ReferrerPolicy:    "strict-origin-when-cross-origin",
		PermissionsPolicy: "geolocation=(), microphone=(), camera=(), payment=()",
		HSTSMaxAge:        365 * 24 * 60 * 60,
	}
}

type HeadersMiddleware struct {
	fixed [][2]string
	hsts  string
}

func NewHeadersMiddleware(cfg HeadersConfig) *HeadersMiddleware {
	m := &HeadersMiddleware{}
	for _, h := range [][2]string{
		{"Content-Security-Policy", cfg.CSP},
		{"X-Frame-Options", cfg.FrameOptions},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", cfg.ReferrerPolicy},
		{"Permissions-Policy", cfg.PermissionsPolicy},
		{"Cross-Origin-Opener-Policy", "same-origin"},
		{"Cross-Origin-Resource-Policy", "same-origin"},
	} {
		if h[1] != "" {
			m.fixed = append(m.fixed, h)
		}
	}
	if cfg.HSTSMaxAge > 0 {
		m.hsts = "max-age=" + strconv.Itoa(cfg.HSTSMaxAge) + "; includeSubDomains"
	}
	return m
}

func (m *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range m.fixed {
			h.Set(kv[0], kv[1])
		}
		if r.TLS != nil && m.hsts != "" {
			h.Set("Strict-Transport-Security", m.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware lets browsers keep embedded assets for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	value := "public, max-age=" + strconv.Itoa(maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore marks responses as uncacheable. Ledger pages and fragments belong
// to a single session.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
