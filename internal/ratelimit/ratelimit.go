// Package ratelimit guards the public estimate endpoint with a fixed-window
// per-caller throttle.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a fixed-window counter per caller identity. The 31st request of
// a 30/minute window is rejected; the first request after the window rolls
// over is accepted again.
type Limiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	windows map[string]*window

	now  func() time.Time
	done chan struct{}
}

type window struct {
	start time.Time
	count int
}

// New creates a limiter allowing limit requests per window per identity.
func New(limit int, windowSize time.Duration) *Limiter {
	if limit <= 0 {
		limit = 30
	}
	if windowSize <= 0 {
		windowSize = time.Minute
	}
	return &Limiter{
		limit:   limit,
		window:  windowSize,
		windows: make(map[string]*window),
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

// Allow reports whether the identity may proceed, counting the request.
func (l *Limiter) Allow(identity string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[identity]
	if !ok || now.Sub(w.start) >= l.window {
		l.windows[identity] = &window{start: now, count: 1}
		return true
	}
	w.count++
	return w.count <= l.limit
}

// StartCleanup launches a background loop dropping expired windows so idle
// identities do not accumulate. Independent of request handling; Stop ends it.
func (l *Limiter) StartCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = l.window
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.cleanup()
			case <-l.done:
				return
			}
		}
	}()
}

// Stop terminates the cleanup loop.
func (l *Limiter) Stop() {
	close(l.done)
}

func (l *Limiter) cleanup() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, id)
		}
	}
}

// size reports live windows; used by tests and cleanup assertions.
func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
