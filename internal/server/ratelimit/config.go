package ratelimit

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Rule is the token bucket setting for one endpoint.
// A Path ending in "/" matches every path below it.
type Rule struct {
	Method string
	Path   string
	Limit  int           // requests per Window; 0 or less means unlimited
	Window time.Duration // refill period for Limit tokens
	Burst  int           // bucket capacity, Limit when 0
}

// capacity returns the bucket size for the rule
func (r Rule) capacity() int {
	if r.Burst > 0 {
		return r.Burst
	}
	return r.Limit
}

// refillPerSecond returns how many tokens the rule adds per second
func (r Rule) refillPerSecond() float64 {
	if r.Window <= 0 {
		return float64(r.Limit)
	}
	return float64(r.Limit) / r.Window.Seconds()
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	// Default applies to requests no Rule matches.
	Default         Rule
	Rules           []Rule
	CleanupInterval time.Duration
	// IdleTTL is how long an unused bucket is kept.
	IdleTTL time.Duration
	// Allow and Deny are client IPs that bypass or always fail the limiter.
	Allow map[string]bool
	Deny  map[string]bool
}

// DefaultConfig returns the limits used when no environment overrides are set.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Default:         Rule{Limit: 600, Window: time.Minute},
		Rules:           DefaultRules(),
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Allow:           map[string]bool{},
		Deny:            map[string]bool{},
	}
}

// DefaultRules returns the endpoint-specific limits. Pipeline runs may call
// the LLM and are the most expensive; stateless decisions are cheap.
func DefaultRules() []Rule {
	return []Rule{
		{Method: http.MethodPost, Path: "/runs", Limit: 20, Window: time.Hour, Burst: 3},
		{Method: http.MethodPost, Path: "/runs/stream", Limit: 20, Window: time.Hour, Burst: 3},
		{Method: http.MethodPost, Path: "/decisions", Limit: 120, Window: time.Minute, Burst: 20},
		{Method: http.MethodDelete, Path: "/runs/", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

// LoadConfig builds a Config from RATE_LIMIT_* environment variables on top
// of DefaultConfig.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	if !envBool("RATE_LIMIT_ENABLED", true) {
		cfg.Enabled = false
		return cfg
	}

	cfg.Default.Limit = envInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.Default.Limit)
	cfg.Default.Window = envDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.Default.Window)
	cfg.CleanupInterval = envDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.Allow = parseIPList(os.Getenv("RATE_LIMIT_WHITELIST"))
	cfg.Deny = parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST"))
	return cfg
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}
