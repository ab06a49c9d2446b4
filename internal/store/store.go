// Package store owns the date-keyed event collection. Every mutation is
// validated, computed on a copy, written through to the Persister and only
// then committed, so a failed call leaves the store exactly as it was.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"evcal/internal/clock"
	"evcal/internal/datekey"
	appLog "evcal/internal/log"
	"evcal/internal/model"
)

// Persister is the durable storage contract: one document in, one out.
type Persister interface {
	Load() (model.Days, error)
	Save(days model.Days) error
}

// Quarantiner is implemented by persisters that can set the stored document
// aside when Open rejects it.
type Quarantiner interface {
	Quarantine() (string, error)
}

type ChangeKind string

const (
	ChangeAdd     ChangeKind = "add"
	ChangeUpdate  ChangeKind = "update"
	ChangeDelete  ChangeKind = "delete"
	ChangeMove    ChangeKind = "move"
	ChangeReplace ChangeKind = "replace"
)

// Change describes a committed mutation.
type Change struct {
	Kind    ChangeKind
	Event   model.Event // zero for ChangeReplace
	FromKey string
	ToKey   string
}

type Option func(*Store)

// WithClock sets the source of createdAt/updatedAt timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithIDFunc replaces the uuid generator.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithChangeHook registers fn to run after each committed mutation, outside
// the store lock.
func WithChangeHook(fn func(Change)) Option {
	return func(s *Store) { s.hooks = append(s.hooks, fn) }
}

// Store is the single owner of the current event document.
type Store struct {
	mu      sync.RWMutex
	days    model.Days
	ids     map[string]string // event id -> date key
	persist Persister
	clock   clock.Clock
	newID   func() string
	hooks   []func(Change)
}

// New returns an empty store that writes through to p. p may be nil for a
// purely in-memory store.
func New(p Persister, opts ...Option) *Store {
	s := &Store{
		days:    model.Days{},
		ids:     map[string]string{},
		persist: p,
		clock:   clock.System{},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open builds a store and loads the persisted document. Empty days are
// dropped. A missing, unreadable or invalid document yields an empty store
// and a warning: loading fails open, it never stops the process. A rejected
// document is quarantined first when p supports it.
func Open(p Persister, opts ...Option) *Store {
	s := New(p, opts...)
	if p == nil {
		return s
	}
	days, err := p.Load()
	if err != nil {
		appLog.Warn("store: persisted state unreadable, starting empty", "err", err)
		return s
	}
	if n := pruneEmpty(days); n > 0 {
		appLog.Warn("store: dropped empty days from persisted state", "days", n)
	}
	if err := s.replace(days, false); err != nil {
		appLog.Warn("store: persisted state rejected, starting empty", "err", err)
		if q, ok := p.(Quarantiner); ok {
			if _, qerr := q.Quarantine(); qerr != nil {
				appLog.Error("store: could not quarantine rejected state", qerr)
			}
		}
		return s
	}
	appLog.Info("store: loaded", "days", len(s.days), "events", s.days.Count())
	return s
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() model.Days {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.days.Clone()
}

// Day returns a copy of the events stored under key, in insertion order.
func (s *Store) Day(key string) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	evs := s.days[key]
	out := make([]model.Event, len(evs))
	copy(out, evs)
	return out
}

// Find locates an event by id anywhere in the store.
func (s *Store) Find(id string) (model.Event, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.ids[id]
	if !ok {
		return model.Event{}, "", false
	}
	i := indexOf(s.days[key], id)
	if i < 0 {
		return model.Event{}, "", false
	}
	return s.days[key][i], key, true
}

// Len is the total number of events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Add validates draft, assigns a fresh id and appends the event to the day
// of date, creating the day if needed.
func (s *Store) Add(date time.Time, draft model.Draft) (model.Event, error) {
	s.mu.Lock()
	now := s.clock.Now()
	id := s.freshID()
	ev, err := model.NewEvent(id, date, draft, now)
	if err != nil {
		s.mu.Unlock()
		return model.Event{}, err
	}
	key := ev.Key()

	next := s.days.Clone()
	next[key] = append(next[key], ev)
	if err := s.commit(next); err != nil {
		s.mu.Unlock()
		return model.Event{}, err
	}
	s.ids[id] = key
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeAdd, Event: ev, ToKey: key})
	return ev, nil
}

// Update replaces the fields present in patch on the event (dateKey, id).
// updatedAt is refreshed, createdAt kept.
func (s *Store) Update(dateKey, id string, patch model.Patch) (model.Event, error) {
	s.mu.Lock()
	i := indexOf(s.days[dateKey], id)
	if i < 0 {
		s.mu.Unlock()
		return model.Event{}, &model.NotFoundError{DateKey: dateKey, ID: id}
	}
	updated, err := s.days[dateKey][i].Apply(patch, s.clock.Now())
	if err != nil {
		s.mu.Unlock()
		return model.Event{}, err
	}

	next := s.days.Clone()
	next[dateKey][i] = updated
	if err := s.commit(next); err != nil {
		s.mu.Unlock()
		return model.Event{}, err
	}
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeUpdate, Event: updated, FromKey: dateKey, ToKey: dateKey})
	return updated, nil
}

// Delete removes the event (dateKey, id) and prunes the day when it becomes
// empty. Deleting a missing event is a NotFoundError.
func (s *Store) Delete(dateKey, id string) (model.Event, error) {
	s.mu.Lock()
	i := indexOf(s.days[dateKey], id)
	if i < 0 {
		s.mu.Unlock()
		return model.Event{}, &model.NotFoundError{DateKey: dateKey, ID: id}
	}
	removed := s.days[dateKey][i]

	next := s.days.Clone()
	removeAt(next, dateKey, i)
	if err := s.commit(next); err != nil {
		s.mu.Unlock()
		return model.Event{}, err
	}
	delete(s.ids, id)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeDelete, Event: removed, FromKey: dateKey})
	return removed, nil
}

// Move re-keys an event from fromKey to toKey, appending it at the end of the
// destination day with its date updated. Equal keys are a no-op.
func (s *Store) Move(id, fromKey, toKey string) (model.Event, error) {
	s.mu.Lock()
	i := indexOf(s.days[fromKey], id)
	if i < 0 {
		s.mu.Unlock()
		return model.Event{}, &model.NotFoundError{DateKey: fromKey, ID: id}
	}
	ev := s.days[fromKey][i]
	if fromKey == toKey {
		s.mu.Unlock()
		return ev, nil
	}
	date, err := datekey.FromKey(toKey)
	if err != nil || datekey.ToKey(date) != toKey {
		s.mu.Unlock()
		return model.Event{}, &model.ValidationError{Field: "to", Reason: "malformed date key " + toKey}
	}

	moved := ev
	moved.Date = date
	moved.UpdatedAt = s.clock.Now()

	next := s.days.Clone()
	removeAt(next, fromKey, i)
	next[toKey] = append(next[toKey], moved)
	if err := s.commit(next); err != nil {
		s.mu.Unlock()
		return model.Event{}, err
	}
	s.ids[id] = toKey
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeMove, Event: moved, FromKey: fromKey, ToKey: toKey})
	return moved, nil
}

// ReplaceAll swaps in a whole document after checking the store invariants.
func (s *Store) ReplaceAll(days model.Days) error {
	if err := s.replace(days, true); err != nil {
		return err
	}
	s.notify(Change{Kind: ChangeReplace})
	return nil
}

func (s *Store) replace(days model.Days, persist bool) error {
	next := make(model.Days, len(days))
	for k, evs := range days {
		out := make([]model.Event, 0, len(evs))
		for _, ev := range evs {
			n, err := ev.Normalized()
			if err != nil {
				return err
			}
			out = append(out, n)
		}
		next[k] = out
	}
	if err := next.Validate(); err != nil {
		return err
	}

	ids := make(map[string]string, next.Count())
	next.Each(func(key string, ev model.Event) { ids[ev.ID] = key })

	s.mu.Lock()
	defer s.mu.Unlock()
	if persist {
		if err := s.commit(next); err != nil {
			return err
		}
	} else {
		s.days = next
	}
	s.ids = ids
	return nil
}

// commit persists next and, on success, makes it current. Caller holds mu.
func (s *Store) commit(next model.Days) error {
	if s.persist != nil {
		if err := s.persist.Save(next); err != nil {
			var pe *model.PersistenceError
			if !errors.As(err, &pe) {
				err = &model.PersistenceError{Op: "save", Err: err}
			}
			appLog.Error("store: save failed, change rolled back", err)
			return err
		}
	}
	s.days = next
	return nil
}

// freshID draws ids until one is unused. Caller holds mu.
func (s *Store) freshID() string {
	for {
		id := s.newID()
		if _, taken := s.ids[id]; !taken && id != "" {
			return id
		}
	}
}

func (s *Store) notify(c Change) {
	for _, fn := range s.hooks {
		fn(c)
	}
}

func indexOf(evs []model.Event, id string) int {
	for i, ev := range evs {
		if ev.ID == id {
			return i
		}
	}
	return -1
}

// pruneEmpty deletes keys holding no events and reports how many it removed.
func pruneEmpty(days model.Days) int {
	n := 0
	for k, evs := range days {
		if len(evs) == 0 {
			delete(days, k)
			n++
		}
	}
	return n
}

// removeAt drops days[key][i] and deletes the key when the day empties.
func removeAt(days model.Days, key string, i int) {
	evs := days[key]
	rest := append(evs[:i:i], evs[i+1:]...)
	if len(rest) == 0 {
		delete(days, key)
		return
	}
	days[key] = rest
}
