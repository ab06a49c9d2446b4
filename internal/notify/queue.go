// Package notify holds transient notices until the user dismisses them.
package notify

import (
	"sync"

	"github.com/google/uuid"

	"evcal/internal/clock"
	"evcal/internal/model"
)

// DefaultDisplay is how many notices a display surface shows.
const DefaultDisplay = 3

// Queue is append-only; entries leave only through Dismiss.
type Queue struct {
	mu      sync.RWMutex
	items   []model.Notification
	clock   clock.Clock
	newID   func() string
	display int
}

type Option func(*Queue)

func WithClock(c clock.Clock) Option {
	return func(q *Queue) { q.clock = c }
}

func WithIDFunc(fn func() string) Option {
	return func(q *Queue) { q.newID = fn }
}

// WithDisplay sets the default count returned by Recent(0).
func WithDisplay(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.display = n
		}
	}
}

func New(opts ...Option) *Queue {
	q := &Queue{
		clock:   clock.System{},
		newID:   uuid.NewString,
		display: DefaultDisplay,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends n, filling in a missing id and time. The stored copy is
// returned.
func (q *Queue) Push(n model.Notification) model.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n.ID == "" {
		n.ID = q.newID()
	}
	if n.Time == "" {
		n.Time = q.clock.Now().Format("15:04")
	}
	q.items = append(q.items, n)
	return n
}

// Dismiss removes the notification with id and reports whether it existed.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// MarkRead flags the notification with id as read.
func (q *Queue) MarkRead(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if q.items[i].ID == id {
			q.items[i].Read = true
			return true
		}
	}
	return false
}

// Recent returns the last n notifications, oldest first. n <= 0 uses the
// display limit.
func (q *Queue) Recent(n int) []model.Notification {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if n <= 0 {
		n = q.display
	}
	start := len(q.items) - n
	if start < 0 {
		start = 0
	}
	return clone(q.items[start:])
}

func (q *Queue) All() []model.Notification {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return clone(q.items)
}

func (q *Queue) Unread() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	c := 0
	for _, n := range q.items {
		if !n.Read {
			c++
		}
	}
	return c
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}

func clone(ns []model.Notification) []model.Notification {
	out := make([]model.Notification, len(ns))
	copy(out, ns)
	return out
}
