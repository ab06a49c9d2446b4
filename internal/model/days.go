package model

import (
	"sort"

	"evcal/internal/datekey"
)

// Days maps a date key to the events on that day, in insertion order.
type Days map[string][]Event

// Clone deep-copies the map and every day sequence.
func (d Days) Clone() Days {
	out := make(Days, len(d))
	for k, evs := range d {
		cp := make([]Event, len(evs))
		copy(cp, evs)
		out[k] = cp
	}
	return out
}

// Count is the total number of events across all days.
func (d Days) Count() int {
	n := 0
	for _, evs := range d {
		n += len(evs)
	}
	return n
}

// Keys returns the date keys in chronological order.
func (d Days) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Each visits every event in key order, then insertion order.
func (d Days) Each(fn func(key string, ev Event)) {
	for _, k := range d.Keys() {
		for _, ev := range d[k] {
			fn(k, ev)
		}
	}
}

// Validate checks the store invariants: every key is canonical and maps to a
// non-empty sequence, every event's date formats to its key, and ids are
// unique across the whole document.
func (d Days) Validate() error {
	seen := make(map[string]string)
	for _, k := range d.Keys() {
		if !datekey.Valid(k) {
			return invalid("date", "malformed key %q", k)
		}
		evs := d[k]
		if len(evs) == 0 {
			return invalid("date", "key %s maps to an empty sequence", k)
		}
		for _, ev := range evs {
			if err := ev.Validate(); err != nil {
				return err
			}
			if got := ev.Key(); got != k {
				return invalid("date", "event %s dated %s stored under %s", ev.ID, got, k)
			}
			if other, dup := seen[ev.ID]; dup {
				return invalid("id", "duplicate id %s on %s and %s", ev.ID, other, k)
			}
			seen[ev.ID] = k
		}
	}
	return nil
}
