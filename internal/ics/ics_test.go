package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"evcal/internal/datekey"
	"evcal/internal/model"
)

func TestRRule(t *testing.T) {
	tests := map[model.Occurrence]string{
		model.OccurrenceOnce:    "",
		model.OccurrenceDaily:   "FREQ=DAILY",
		model.OccurrenceWeekly:  "FREQ=WEEKLY",
		model.OccurrenceMonthly: "FREQ=MONTHLY",
		model.OccurrenceYearly:  "FREQ=YEARLY",
	}
	for o, want := range tests {
		if got := RRule(o); got != want {
			t.Errorf("RRule(%s) = %q, want %q", o, got, want)
		}
	}
}

func sample(t *testing.T) model.Days {
	t.Helper()
	created := time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC)
	timed, err := model.NewEvent("ev-1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local), model.Draft{
		Title: "Standup", StartTime24: "09:00", EndTime24: "09:15",
		Category: model.CategoryMeeting, Priority: model.PriorityHigh, Occurrence: model.OccurrenceWeekly,
		Reminder: 10, Location: "Room 4", Notes: "bring notes", Attendees: "Priya",
	}, created)
	if err != nil {
		t.Fatalf("timed: %v", err)
	}
	allDay, err := model.NewEvent("ev-2", time.Date(2025, 6, 7, 0, 0, 0, 0, time.Local), model.Draft{
		Title: "Bakrid", Category: model.CategoryHoliday, Priority: model.PriorityLow, Status: model.StatusCompleted,
	}, created)
	if err != nil {
		t.Fatalf("all day: %v", err)
	}
	return model.Days{"2025-06-01": {timed}, "2025-06-07": {allDay}}
}

func TestExport(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sample(t), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("export: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR", "PRODID:" + productID, "BEGIN:VEVENT", "SUMMARY:Standup",
		"RRULE:FREQ=WEEKLY", "BEGIN:VALARM", "TRIGGER:-PT10M", "CATEGORIES:Meeting",
		"PRIORITY:1", "DTSTART;VALUE=DATE:20250607", "X-EVCAL-STATUS:Completed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q", want)
		}
	}
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 2 {
		t.Errorf("VEVENT count = %d", n)
	}
	if got := ExportFileName(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)); got != "calendar-events-2025-06-01.ics" {
		t.Errorf("file name = %q", got)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	days := sample(t)
	var buf bytes.Buffer
	if err := Export(&buf, days, time.Now()); err != nil {
		t.Fatalf("export: %v", err)
	}
	items, err := Import(&buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}

	byKey := map[string]Item{}
	for _, it := range items {
		byKey[datekey.ToKey(it.Date)] = it
	}
	for key, evs := range days {
		it, ok := byKey[key]
		if !ok {
			t.Fatalf("no item on %s", key)
		}
		got, err := it.Draft.Normalize()
		if err != nil {
			t.Fatalf("normalize %s: %v", key, err)
		}
		want := evs[0].Draft()
		if got != want {
			t.Errorf("%s round trip:\n got %+v\nwant %+v", key, got, want)
		}
	}
}

func TestImportForeignCalendar(t *testing.T) {
	src := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//other//EN",
		"BEGIN:VEVENT",
		"UID:a@other",
		"DTSTAMP:20250601T000000Z",
		"DTSTART;VALUE=DATE:20250614",
		"SUMMARY:Rent",
		"RRULE:FREQ=MONTHLY;BYMONTHDAY=14",
		"PRIORITY:2",
		"STATUS:CANCELLED",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:b@other",
		"DTSTAMP:20250601T000000Z",
		"SUMMARY:No start",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	items, err := Import(strings.NewReader(src))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 (missing DTSTART skipped)", len(items))
	}
	it := items[0]
	if datekey.ToKey(it.Date) != "2025-06-14" || it.Draft.StartTime24 != "" {
		t.Fatalf("date/time = %s %q", datekey.ToKey(it.Date), it.Draft.StartTime24)
	}
	d := it.Draft
	if d.Occurrence != model.OccurrenceMonthly || d.Priority != model.PriorityHigh || d.Status != model.StatusCancelled || d.Category != "" {
		t.Fatalf("draft = %+v", d)
	}
}

func TestImportEmpty(t *testing.T) {
	if _, err := Import(strings.NewReader("  \n")); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestTriggerMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"-PT10M", 10, true},
		{"-PT1H", 60, true},
		{"PT10M", 0, false},
		{"-P1D", 0, false},
		{"-PTxM", 0, false},
	}
	for _, tt := range tests {
		got, ok := triggerMinutes(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("triggerMinutes(%q) = %d, %v", tt.in, got, ok)
		}
	}
}
