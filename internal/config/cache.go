package config

import "time"

// CacheConfig defines settings for the availability response cache.  When
// Enabled is false or no Redis client is available, caching is disabled.
// The TTL should stay short: cached availability is already an advisory
// snapshot and a long TTL only widens the window in which the public
// endpoint reports seats that are gone.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* environment variables.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 15*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "avail"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
