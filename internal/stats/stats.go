// Package stats aggregates counts over a store snapshot.
package stats

import "evcal/internal/model"

// Stats are the dashboard counters. UpcomingEvents counts Pending events,
// whatever their date.
type Stats struct {
	TotalEvents        int `json:"totalEvents"`
	CompletedEvents    int `json:"completedEvents"`
	UpcomingEvents     int `json:"upcomingEvents"`
	HighPriorityEvents int `json:"highPriorityEvents"`
	DaysWithEvents     int `json:"daysWithEvents"`
}

func Compute(days model.Days) Stats {
	var s Stats
	for _, evs := range days {
		if len(evs) > 0 {
			s.DaysWithEvents++
		}
		for _, ev := range evs {
			s.TotalEvents++
			switch ev.Status {
			case model.StatusCompleted:
				s.CompletedEvents++
			case model.StatusPending:
				s.UpcomingEvents++
			}
			if ev.Priority == model.PriorityHigh {
				s.HighPriorityEvents++
			}
		}
	}
	return s
}
