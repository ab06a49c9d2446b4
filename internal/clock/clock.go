// Package clock provides the injectable "current instant" used by the store,
// the reminder scanner and the HTTP layer.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the host clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Manual is a Clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Live caches the last instant observed by the 1-second clock tick, so that
// readers ("today" highlighting, /api/now) see a value that changes once per
// tick instead of on every call. Before the first tick it reads Source.
type Live struct {
	Source Clock

	mu   sync.RWMutex
	last time.Time
}

func NewLive(src Clock) *Live {
	if src == nil {
		src = System{}
	}
	return &Live{Source: src}
}

// Tick samples Source and publishes the result.
func (l *Live) Tick() time.Time {
	now := l.Source.Now()
	l.mu.Lock()
	l.last = now
	l.mu.Unlock()
	return now
}

func (l *Live) Now() time.Time {
	l.mu.RLock()
	last := l.last
	l.mu.RUnlock()
	if last.IsZero() {
		return l.Source.Now()
	}
	return last
}
