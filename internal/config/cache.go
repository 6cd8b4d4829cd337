package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  Methods lists the HTTP methods to cache (e.g. GET, HEAD) and
// Paths the route prefixes that are safe to cache; authenticated routes
// must not appear here because the cache key does not vary by session
// unless KeyStrategy includes the user.  SkipSuffixes excludes paths
// under an allowed prefix whose response depends on the current day, such
// as stay quotes.  Prefix and MaxBodyBytes control namespacing and the
// maximum size of responses to cache.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    Paths        []string
    SkipSuffixes []string
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  All methods are upper-cased.
func LoadCacheConfig() CacheConfig {
    methods := map[string]bool{}
    for _, m := range envList("CACHE_METHODS", "GET") {
        methods[strings.ToUpper(m)] = true
    }
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      methods,
        Paths:        envList("CACHE_PATHS", "/v1/listings"),
        SkipSuffixes: envList("CACHE_SKIP_SUFFIXES", "/quote"),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "staybook:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}

// Cacheable reports whether a request with the given method and path may
// be served from the cache.
func (c CacheConfig) Cacheable(method, path string) bool {
    if !c.Methods[strings.ToUpper(method)] {
        return false
    }
    for _, s := range c.SkipSuffixes {
        if strings.HasSuffix(strings.TrimRight(path, "/"), s) {
            return false
        }
    }
    for _, p := range c.Paths {
        if strings.HasPrefix(path, p) {
            return true
        }
    }
    return false
}
