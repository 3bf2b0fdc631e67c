// Package ratelimit provides per-client, per-endpoint rate limiting using
// the token bucket algorithm.
package ratelimit

import (
	"sync"
	"time"
)

// bucket is a token bucket. Callers hold Limiter.mu.
type bucket struct {
	capacity   float64
	perSecond  float64
	tokens     float64
	lastRefill time.Time
	lastUsed   time.Time
}

func newBucket(rule Rule, now time.Time) *bucket {
	capacity := float64(rule.capacity())
	return &bucket{
		capacity:   capacity,
		perSecond:  rule.refillPerSecond(),
		tokens:     capacity,
		lastRefill: now,
		lastUsed:   now,
	}
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed*b.perSecond)
		b.lastRefill = now
	}
}

// take consumes one token if available
func (b *bucket) take(now time.Time) bool {
	b.refill(now)
	b.lastUsed = now
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// untilFull returns how long the bucket needs to refill completely
func (b *bucket) untilFull() time.Duration {
	if b.perSecond <= 0 || b.tokens >= b.capacity {
		return 0
	}
	return time.Duration((b.capacity - b.tokens) / b.perSecond * float64(time.Second))
}

// untilNext returns how long until one token is available
func (b *bucket) untilNext() time.Duration {
	if b.perSecond <= 0 || b.tokens >= 1 {
		return 0
	}
	return time.Duration((1 - b.tokens) / b.perSecond * float64(time.Second))
}

// Info describes the limiter state after a request.
// Limit is 0 when the request was not subject to a limit.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter tracks one bucket per client, method and path. It is safe for
// concurrent use.
type Limiter struct {
	config *Config
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a limiter and starts its cleanup goroutine.
// A nil config uses DefaultConfig.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	l := &Limiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanupLoop(config.CleanupInterval)
	}
	return l
}

// Allow consumes a token for clientID on the given endpoint.
func (l *Limiter) Allow(clientID, method, path string) Info {
	if !l.config.Enabled || Exempt(method, path) || l.config.Allow[clientID] {
		return Info{Allowed: true}
	}
	if l.config.Deny[clientID] {
		return Info{Allowed: false}
	}

	rule, ok := Match(method, path, l.config.Rules)
	if !ok {
		rule = l.config.Default
	}
	if rule.Limit <= 0 {
		return Info{Allowed: true}
	}

	now := l.now()
	key := clientID + " " + method + " " + path

	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists {
		b = newBucket(rule, now)
		l.buckets[key] = b
	}

	info := Info{Allowed: b.take(now), Limit: rule.Limit}
	info.Remaining = int(b.tokens)
	info.ResetTime = now.Add(b.untilFull())
	if !info.Allowed {
		info.RetryAfter = b.untilNext()
	}
	return info
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// sweep drops buckets idle for longer than IdleTTL
func (l *Limiter) sweep() {
	ttl := l.config.IdleTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	cutoff := l.now().Add(-ttl)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.lastUsed.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
