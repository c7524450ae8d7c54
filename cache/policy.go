package cache

import "time"

// Policy configures TTLs per method.
type Policy struct {
	// DefaultTTL is the TTL for methods without an override.
	// If zero, caching is disabled by default.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Overrides are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration

	// MethodTTL overrides DefaultTTL for specific methods.
	MethodTTL map[string]time.Duration

	// Disabled lists methods that are never cached.
	Disabled map[string]bool
}

// DefaultPolicy returns the default caching policy.
// DefaultTTL: 60 seconds, MaxTTL: 1 hour
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 60 * time.Second,
		MaxTTL:     1 * time.Hour,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0 || len(p.MethodTTL) > 0
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}

// TTL returns the effective TTL for method. Zero means do not cache.
func (p Policy) TTL(method string) time.Duration {
	if p.Disabled[method] {
		return 0
	}
	return p.EffectiveTTL(p.MethodTTL[method])
}
