package stats

import (
	"testing"
	"time"

	"evcal/internal/model"
)

func TestCompute(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	mk := func(id string, d model.Draft) model.Event {
		ev, err := model.NewEvent(id, time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local), d, now)
		if err != nil {
			t.Fatalf("event: %v", err)
		}
		return ev
	}
	days := model.Days{
		"2025-06-01": {
			mk("a", model.Draft{Title: "a", Priority: model.PriorityHigh}),
			mk("b", model.Draft{Title: "b", Status: model.StatusCompleted, Priority: model.PriorityHigh}),
			mk("c", model.Draft{Title: "c", Status: model.StatusCancelled}),
		},
		"2025-06-02": {
			mk("d", model.Draft{Title: "d"}),
		},
	}
	days["2025-06-02"][0].Date = days["2025-06-02"][0].Date.AddDate(0, 0, 1)

	got := Compute(days)
	want := Stats{TotalEvents: 4, CompletedEvents: 1, UpcomingEvents: 2, HighPriorityEvents: 2, DaysWithEvents: 2}
	if got != want {
		t.Fatalf("Compute = %+v, want %+v", got, want)
	}
}

func TestComputeEmpty(t *testing.T) {
	if got := Compute(nil); got != (Stats{}) {
		t.Fatalf("Compute(nil) = %+v", got)
	}
}
