package push

import (
	"sync"

	"golang.org/x/time/rate"
)

// providerRate is a per-provider rate/burst pair. A provider with no
// override runs against ProviderLimiter's default.
type providerRate struct {
	r     rate.Limit
	burst int
}

// ProviderLimiter applies an independent token bucket to each outbound
// provider (e.g. "apns", "fcm") so a burst against one provider never
// starves the others of their own send allowance. Most providers share the
// configured default rate, but individual providers can be tuned
// separately through SetProviderLimit when a provider's own API quota
// differs from the rest.
type ProviderLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	defaultR  rate.Limit
	defaultB  int
	overrides map[string]providerRate
}

// NewProviderLimiter creates a limiter allowing r requests/sec with burst
// capacity per provider, absent a provider-specific override.
func NewProviderLimiter(r float64, burst int) *ProviderLimiter {
	return &ProviderLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaultR: rate.Limit(r),
		defaultB: burst,
	}
}

// SetProviderLimit overrides the rate/burst used for provider, replacing
// any bucket already created for it. Call before the provider's first
// Allow call; overriding a provider mid-flight discards its accumulated
// tokens.
func (l *ProviderLimiter) SetProviderLimit(provider string, r float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.overrides == nil {
		l.overrides = make(map[string]providerRate)
	}
	l.overrides[provider] = providerRate{r: rate.Limit(r), burst: burst}
	delete(l.limiters, provider)
}

// Allow reports whether an outbound call to provider may proceed now.
// Like the thread budget gate, this never queues: a denied call should be
// treated the same as an over-budget rejection by the caller.
func (l *ProviderLimiter) Allow(provider string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[provider]
	if !ok {
		r, burst := l.defaultR, l.defaultB
		if o, ok := l.overrides[provider]; ok {
			r, burst = o.r, o.burst
		}
		lim = rate.NewLimiter(r, burst)
		l.limiters[provider] = lim
	}
	return lim.Allow()
}
