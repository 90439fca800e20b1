package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Paths with their own limits
const (
	messagesPath      = "/conversations/messages"
	conversationsPath = "/conversations/"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	return configFromLookup(os.LookupEnv)
}

func configFromLookup(lookup func(string) (string, bool)) *Config {
	env := envReader(lookup)
	if !env.boolean("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	endpoints := DefaultEndpointConfigs()
	for i := range endpoints {
		if endpoints[i].Path == messagesPath {
			endpoints[i].Limit = env.integer("RATE_LIMIT_MESSAGE_LIMIT", endpoints[i].Limit)
			endpoints[i].Window = env.duration("RATE_LIMIT_MESSAGE_WINDOW", endpoints[i].Window)
		}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.integer("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   env.duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: env.duration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(env.str("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(env.str("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: endpoints,
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Each message may call the language model twice
		{Path: messagesPath, Method: "POST", Limit: 60, Window: time.Hour, Burst: 10},

		// Status changes
		{Path: conversationsPath, Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},

		// Reads use the default limit; health checks are unlimited (see MatchEndpoint)
	}
}

// envReader reads typed values, falling back to the default when a value is unset or malformed.
type envReader func(string) (string, bool)

func (e envReader) str(key string) string {
	v, _ := e(key)
	return strings.TrimSpace(v)
}

func (e envReader) integer(key string, def int) int {
	if n, err := strconv.Atoi(e.str(key)); err == nil && n > 0 {
		return n
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	if b, err := strconv.ParseBool(e.str(key)); err == nil {
		return b
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.str(key)); err == nil && d > 0 {
		return d
	}
	return def
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
