package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// entry holds one client's bucket and when it was last used
type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryLimiter is an in-process token bucket per (purpose, ip). Each bucket
// holds maxRequests tokens and refills fully over window.
type MemoryLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]*entry

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryLimiter starts a background sweep of idle buckets; call Close to stop it
func NewMemoryLimiter(maxRequests int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		limit:   rate.Every(window / time.Duration(maxRequests)),
		burst:   maxRequests,
		ttl:     window,
		entries: make(map[string]*entry),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

func (l *MemoryLimiter) CheckIPRateLimitWithPurpose(_ context.Context, ip, purpose string) (bool, error) {
	return l.get(key(purpose, ip)).Tokens() < 1, nil
}

func (l *MemoryLimiter) RecordIPRequestWithPurpose(_ context.Context, ip, purpose string) error {
	l.get(key(purpose, ip)).Allow()
	return nil
}

// Len returns the number of tracked buckets
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close stops the cleanup goroutine and waits for it to exit
func (l *MemoryLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stopCh) })
	<-l.done
}

func (l *MemoryLimiter) get(k string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[k]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[k] = e
	}
	e.lastAccess = time.Now()

	return e.limiter
}

func (l *MemoryLimiter) cleanupLoop() {
	defer close(l.done)

	ticker := time.NewTicker(l.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now())
		case <-l.stopCh:
			return
		}
	}
}

// cleanup drops buckets idle for longer than a full window; they would be
// full again anyway.
func (l *MemoryLimiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, e := range l.entries {
		if now.Sub(e.lastAccess) > l.ttl {
			delete(l.entries, k)
		}
	}
}
