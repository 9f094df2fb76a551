package session

import (
	"math"
	"sync"
	"time"
)

// tokenBucket paces one player's submissions.
type tokenBucket struct {
	tokens float64
	last   time.Time
}

func (b *tokenBucket) allow(now time.Time, rateHz, burst float64) bool {
	if b.last.IsZero() {
		b.last = now
		b.tokens = burst
	}

	dt := now.Sub(b.last).Seconds()
	b.tokens = math.Min(burst, b.tokens+dt*rateHz)
	b.last = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true
	}
	return false
}

const (
	maxBuckets = 10000
	bucketIdle = 10 * time.Minute
)

// Limiter enforces a per-username submission rate across the whole
// process.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	rateHz  float64
	burst   float64
	now     func() time.Time
}

// NewLimiter allows perMinute sustained submissions per username with
// the given burst headroom.
func NewLimiter(perMinute, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*tokenBucket),
		rateHz:  float64(perMinute) / 60.0,
		burst:   float64(burst),
		now:     time.Now,
	}
}

// Allow reports whether username may submit right now.
func (l *Limiter) Allow(username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.buckets) >= maxBuckets {
		l.sweep(now)
	}

	b, ok := l.buckets[username]
	if !ok {
		b = &tokenBucket{}
		l.buckets[username] = b
	}
	return b.allow(now, l.rateHz, l.burst)
}

// sweep drops buckets idle long enough to have refilled completely.
func (l *Limiter) sweep(now time.Time) {
	for name, b := range l.buckets {
		if now.Sub(b.last) > bucketIdle {
			delete(l.buckets, name)
		}
	}
}
