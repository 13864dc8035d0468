package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/menezmethod/salute/internal/apierror"
	"github.com/menezmethod/salute/internal/router"
)

// HitResult is the outcome of one fixed-window counter hit.
type HitResult struct {
	Allowed   bool
	Count     int
	Remaining int
	Reset     time.Time
}

// RateLimitStore is the shared counter behind the rate-limit middleware.
// Hit must be atomic per key: concurrent bursts may not undercount.
type RateLimitStore interface {
	// Hit records one request for key against the given limit and window
	// and reports whether it is allowed.
	Hit(key string, limit int, window time.Duration) (HitResult, error)
}

// windowEntry is one fixed-window counter. Replaced, not incremented, once
// its window has elapsed.
type windowEntry struct {
	count int
	reset time.Time
}

// MemoryStore is the in-process RateLimitStore. A sweeper goroutine drops
// expired entries; Close stops it (tie this to server shutdown so tests do
// not leak timers).
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	done    chan struct{}
	once    sync.Once

	// now is the clock, injectable for window-expiry tests.
	now func() time.Time
}

// NewMemoryStore creates a MemoryStore and starts its sweeper.
func NewMemoryStore(sweepEvery time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*windowEntry),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go s.sweep(sweepEvery)
	return s
}

// Hit implements RateLimitStore. An expired window is replaced with a fresh
// count of 1; within a live window the count is checked against the limit
// before incrementing, so request limit+1 is the first one rejected.
func (s *MemoryStore) Hit(key string, limit int, window time.Duration) (HitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.reset) {
		e = &windowEntry{count: 1, reset: now.Add(window)}
		s.entries[key] = e
		return HitResult{Allowed: true, Count: 1, Remaining: limit - 1, Reset: e.reset}, nil
	}

	if e.count >= limit {
		return HitResult{Allowed: false, Count: e.count, Remaining: 0, Reset: e.reset}, nil
	}
	e.count++
	return HitResult{Allowed: true, Count: e.count, Remaining: limit - e.count, Reset: e.reset}, nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, e := range s.entries {
				if !now.Before(e.reset) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// RateLimitConfig configures the rate-limit middleware.
type RateLimitConfig struct {
	Store  RateLimitStore
	Max    int
	Window time.Duration

	// KeyFunc derives the client key. Defaults to ClientKey.
	KeyFunc func(req *router.Request) string
}

// ClientKey derives the rate-limit key from proxy headers, falling back to
// a composite of method, path, and user agent when no address is available.
// Address derivation is delegated to Request.ClientIP so the header
// precedence lives in exactly one place.
func ClientKey(req *router.Request) string {
	if req.Header.Get("X-Forwarded-For") != "" || req.Header.Get("X-Real-IP") != "" {
		return req.ClientIP()
	}
	return req.Method + ":" + req.Path + ":" + req.Header.Get("User-Agent")
}

// RateLimit returns fixed-window rate-limiting middleware. Over-limit
// requests are answered 429 with limit/remaining/reset details and never
// reach next. Store failures fail open: availability wins over strictness.
// X-RateLimit-* headers are set on the success path only.
func RateLimit(cfg RateLimitConfig) router.Middleware {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = ClientKey
	}

	return func(req *router.Request, res *router.Response, next router.Next) error {
		result, err := cfg.Store.Hit(keyFunc(req), cfg.Max, cfg.Window)
		if err != nil {
			return next()
		}

		if !result.Allowed {
			RateLimitRejections.Inc()
			return res.Fail(apierror.RateLimited(map[string]any{
				"limit":     cfg.Max,
				"remaining": 0,
				"resetTime": result.Reset.UTC().Format(time.RFC3339),
			}))
		}

		h := res.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))

		return next()
	}
}
