// Package query derives filtered views over a store snapshot. Nothing here
// mutates its input.
package query

import (
	"sort"
	"strings"

	"evcal/internal/model"
)

// All disables a criterion. An empty value does the same.
const All = "All"

// Criteria are the exact-match predicates; each one is AND-ed.
type Criteria struct {
	Category string `json:"category,omitempty"`
	Priority string `json:"priority,omitempty"`
	Status   string `json:"status,omitempty"`
}

// State is the caller-owned view state: a search term plus Criteria.
type State struct {
	SearchTerm string `json:"searchTerm,omitempty"`
	Criteria
}

// Search keeps the events whose title, description, category, location,
// attendees or notes contain term, ignoring case. A blank term returns an
// equal copy of days.
func Search(days model.Days, term string) model.Days {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return days.Clone()
	}
	return keep(days, func(ev model.Event) bool {
		for _, f := range []string{ev.Title, ev.Description, string(ev.Category), ev.Location, ev.Attendees, ev.Notes} {
			if strings.Contains(strings.ToLower(f), term) {
				return true
			}
		}
		return false
	})
}

// Filter keeps the events matching every active criterion.
func Filter(days model.Days, c Criteria) model.Days {
	if !active(c.Category) && !active(c.Priority) && !active(c.Status) {
		return days.Clone()
	}
	return keep(days, c.Match)
}

// Match reports whether ev satisfies every active criterion.
func (c Criteria) Match(ev model.Event) bool {
	if active(c.Category) && string(ev.Category) != c.Category {
		return false
	}
	if active(c.Priority) && string(ev.Priority) != c.Priority {
		return false
	}
	if active(c.Status) && string(ev.Status) != c.Status {
		return false
	}
	return true
}

// Apply runs Search and then Filter over its result.
func Apply(days model.Days, s State) model.Days {
	return Filter(Search(days, s.SearchTerm), s.Criteria)
}

// SortByTime returns a copy of evs ordered by startTime24. Untimed events go
// last; ties keep their stored order.
func SortByTime(evs []model.Event) []model.Event {
	out := make([]model.Event, len(evs))
	copy(out, evs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].StartTime24, out[j].StartTime24
		switch {
		case a == "":
			return false
		case b == "":
			return true
		default:
			return a < b
		}
	})
	return out
}

func active(v string) bool {
	return v != "" && v != All
}

// keep builds a fresh Days holding only matching events; days left empty are
// omitted.
func keep(days model.Days, match func(model.Event) bool) model.Days {
	out := make(model.Days)
	for k, evs := range days {
		var hits []model.Event
		for _, ev := range evs {
			if match(ev) {
				hits = append(hits, ev)
			}
		}
		if len(hits) > 0 {
			out[k] = hits
		}
	}
	return out
}
