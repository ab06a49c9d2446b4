// Package reminder finds events whose reminder moment has just elapsed and
// turns them into notifications, firing each reminder at most once.
package reminder

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"evcal/internal/datekey"
	"evcal/internal/model"
)

const (
	// DefaultWindow is one scan tick wide.
	DefaultWindow = time.Minute
	// DefaultTTL bounds how long fired keys are remembered.
	DefaultTTL = 48 * time.Hour
)

// Hit is an event whose reminder window contains the scan instant.
type Hit struct {
	Key   string
	Event model.Event
	// Moment is start minus the reminder offset.
	Moment time.Time
}

// Due returns every event with reminder > 0 and a parseable startTime24 whose
// reminder moment m satisfies m <= now < m+window, in key then stored order.
func Due(days model.Days, now time.Time, window time.Duration) []Hit {
	if window <= 0 {
		window = DefaultWindow
	}
	var hits []Hit
	days.Each(func(key string, ev model.Event) {
		if ev.Reminder <= 0 {
			return
		}
		start, ok := ev.StartAt()
		if !ok {
			return
		}
		m := start.Add(-time.Duration(ev.Reminder) * time.Minute)
		if !now.Before(m) && now.Before(m.Add(window)) {
			hits = append(hits, Hit{Key: key, Event: ev, Moment: m})
		}
	})
	return hits
}

// Scanner wraps Due with "already notified" tracking so a window observed by
// two ticks still fires once. It can also emit one upcoming notice per event
// per day for Pending events starting soon.
type Scanner struct {
	mu       sync.Mutex
	window   time.Duration
	upcoming time.Duration
	ttl      time.Duration
	newID    func() string
	fired    map[string]time.Time // key -> expiry
}

type Option func(*Scanner)

// WithWindow overrides the one-minute reminder window.
func WithWindow(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithUpcoming enables upcoming notices for events starting within d. Zero
// leaves them off.
func WithUpcoming(d time.Duration) Option {
	return func(s *Scanner) { s.upcoming = d }
}

func WithTTL(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithIDFunc(fn func() string) Option {
	return func(s *Scanner) { s.newID = fn }
}

func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		window: DefaultWindow,
		ttl:    DefaultTTL,
		newID:  uuid.NewString,
		fired:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns the notifications to push for now. Reminders come first, then
// upcoming notices.
func (s *Scanner) Scan(days model.Days, now time.Time) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(now)

	var out []model.Notification
	for _, h := range Due(days, now, s.window) {
		key := dedupKey("reminder", h.Event.ID, h.Key, h.Event.StartTime24, fmt.Sprint(h.Event.Reminder))
		if !s.mark(key, now) {
			continue
		}
		out = append(out, model.Notification{
			ID:       s.newID(),
			Title:    h.Event.Title,
			Message:  fmt.Sprintf("Reminder: %s starts in %d minutes", h.Event.Title, h.Event.Reminder),
			Time:     now.Format("15:04"),
			Type:     model.NotifyReminder,
			Priority: h.Event.Priority,
		})
	}

	if s.upcoming <= 0 {
		return out
	}
	today := datekey.ToKey(now)
	for _, ev := range days[today] {
		if ev.Status != model.StatusPending {
			continue
		}
		start, ok := ev.StartAt()
		if !ok || !start.After(now) || start.Sub(now) > s.upcoming {
			continue
		}
		if !s.mark(dedupKey("upcoming", ev.ID, today), now) {
			continue
		}
		out = append(out, model.Notification{
			ID:       s.newID(),
			Title:    "Upcoming Event",
			Message:  fmt.Sprintf("%s starts at %s", ev.Title, ev.StartTime),
			Time:     now.Format("15:04"),
			Type:     model.NotifyUpcoming,
			Priority: ev.Priority,
		})
	}
	return out
}

// Tracked is the number of remembered keys.
func (s *Scanner) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fired)
}

// mark records key and reports whether it was new. Caller holds mu.
func (s *Scanner) mark(key string, now time.Time) bool {
	if exp, ok := s.fired[key]; ok && now.Before(exp) {
		return false
	}
	s.fired[key] = now.Add(s.ttl)
	return true
}

func (s *Scanner) expire(now time.Time) {
	for k, exp := range s.fired {
		if !now.Before(exp) {
			delete(s.fired, k)
		}
	}
}

func dedupKey(parts ...string) string {
	return strings.Join(parts, "|")
}
