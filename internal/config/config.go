package config

import (
	"cmp"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string // the TUI writes here instead of the terminal

	// Backend selection
	DataBackend string

	// Ledger registry
	LedgerTTL       time.Duration
	LedgerMax       int
	CleanupInterval time.Duration

	// Rate limiting for mutating requests
	RateLimitPerMinute int
	TrustedProxies     []string // CIDRs whose X-Forwarded-For is honoured

	// AMQP ledger events, disabled when AMQPURL is empty
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

var (
	validBackends   = []string{"memory", "sqlite"}
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats = []string{"text", "json"}
)

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   getEnv("LOG_FILE", "despesas.log"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		LedgerTTL:       getEnvDuration("LEDGER_TTL", 2*time.Hour),
		LedgerMax:       getEnvInt("LEDGER_MAX", 1000),
		CleanupInterval: getEnvDuration("LEDGER_CLEANUP_INTERVAL", time.Minute),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "despesas"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "ledger"),
	}
}

type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var bad problems

	port, err := strconv.Atoi(c.Port)
	switch {
	case err != nil:
		bad.addf("invalid port '%s': must be a number", c.Port)
	case port < 1 || port > 65535:
		bad.addf("invalid port %d: must be between 1 and 65535", port)
	}

	oneOf := func(what, value string, allowed []string) {
		if !slices.Contains(allowed, value) {
			bad.addf("invalid %s '%s': must be one of %v", what, value, allowed)
		}
	}
	oneOf("log level", strings.ToLower(c.LogLevel), validLogLevels)
	oneOf("log format", strings.ToLower(c.LogFormat), validLogFormats)
	oneOf("data backend", c.DataBackend, validBackends)

	switch {
	case c.LedgerTTL < time.Minute:
		bad.addf("invalid ledger ttl %v: must be at least 1 minute", c.LedgerTTL)
	case c.LedgerTTL > 7*24*time.Hour:
		bad.addf("invalid ledger ttl %v: must be at most 168 hours", c.LedgerTTL)
	}
	if c.LedgerMax < 1 {
		bad.addf("invalid ledger max %d: must be at least 1", c.LedgerMax)
	}
	if c.CleanupInterval < time.Second {
		bad.addf("invalid cleanup interval %v: must be at least 1 second", c.CleanupInterval)
	}
	if c.RateLimitPerMinute < 1 {
		bad.addf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute)
	}

	if c.AMQPEnabled() {
		u, err := url.Parse(c.AMQPURL)
		switch {
		case err != nil:
			bad.addf("invalid AMQP URL '%s': %v", c.AMQPURL, err)
		case u.Scheme != "amqp" && u.Scheme != "amqps":
			bad.addf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme)
		}
		if c.AMQPExchange == "" {
			bad.addf("AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			bad.addf("AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if len(bad) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(bad, "\n- "))
}

// AMQPEnabled reports whether ledger events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, fallback string) string {
	return cmp.Or(os.Getenv(key), fallback)
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvParsed falls back when key is unset or does not parse.
func getEnvParsed[T any](key string, parse func(string) (T, error), fallback T) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	return getEnvParsed(key, strconv.Atoi, fallback)
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	return getEnvParsed(key, time.ParseDuration, fallback)
}
