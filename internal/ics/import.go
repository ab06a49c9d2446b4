package ics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"evcal/internal/datekey"
	appLog "evcal/internal/log"
	"evcal/internal/model"
)

// Item is one VEVENT turned into a draft on its local calendar date.
type Item struct {
	UID   string
	Date  time.Time
	Draft model.Draft
}

// Import parses an iCalendar payload. VEVENTs that cannot be mapped are
// logged and skipped; the rest are returned in document order.
func Import(r io.Reader) ([]Item, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, err
	}

	items := make([]Item, 0)
	for _, ve := range cal.Events() {
		it, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "uid", it.UID, "err", perr)
			continue
		}
		items = append(items, it)
	}
	appLog.Info("ics parse completed", "event_count", len(items))
	return items, nil
}

func parseVEvent(ve *ical.VEvent) (Item, error) {
	var out Item
	out.UID = value(ve, ical.ComponentPropertyUniqueId)

	d := model.Draft{
		Title:       value(ve, ical.ComponentPropertySummary),
		Description: value(ve, ical.ComponentPropertyDescription),
		Location:    value(ve, ical.ComponentPropertyLocation),
		Notes:       value(ve, propNotes),
		Attendees:   value(ve, propAttendees),
		Category:    model.Category(value(ve, ical.ComponentPropertyCategories)),
	}
	if !oneOf(d.Category, model.Categories) {
		d.Category = ""
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}
	allDay := !strings.Contains(dtStart.Value, "T")
	if vs, ok := dtStart.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		allDay = true
	}

	if allDay {
		day, err := parseICSTime(dtStart.Value)
		if err != nil {
			return out, fmt.Errorf("DTSTART %q: %w", dtStart.Value, err)
		}
		out.Date = datekey.StartOfDay(day)
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, fmt.Errorf("DTSTART: %w", err)
		}
		start = start.In(time.Local)
		out.Date = datekey.StartOfDay(start)
		d.StartTime24 = start.Format("15:04")
		d.StartTime = value(ve, propDisplay)
		if end, err := ve.GetEndAt(); err == nil && !end.IsZero() {
			end = end.In(time.Local)
			if datekey.ToKey(end) == datekey.ToKey(start) {
				d.EndTime24 = end.Format("15:04")
			}
		}
	}

	d.Priority = priorityFromValue(value(ve, ical.ComponentPropertyPriority))
	d.Status = model.Status(value(ve, propStatus))
	if !oneOf(d.Status, model.Statuses) {
		d.Status = ""
		if strings.EqualFold(value(ve, ical.ComponentPropertyStatus), "CANCELLED") {
			d.Status = model.StatusCancelled
		}
	}
	d.Occurrence = occurrence(ve)

	for _, a := range ve.Alarms() {
		if p := a.GetProperty(ical.ComponentPropertyTrigger); p != nil {
			if n, ok := triggerMinutes(p.Value); ok {
				d.Reminder = n
				break
			}
		}
	}

	out.Draft = d
	return out, nil
}

func value(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}

// occurrence prefers the extension property and falls back to the RRULE
// frequency. Rules more specific than a bare frequency still map by FREQ.
func occurrence(ve *ical.VEvent) model.Occurrence {
	if o := model.Occurrence(value(ve, propOccurrence)); oneOf(o, model.Occurrences) {
		return o
	}
	raw := value(ve, ical.ComponentPropertyRrule)
	if raw == "" {
		return model.OccurrenceOnce
	}
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		appLog.Warn("ics: unparseable RRULE, storing as one-time", "rrule", raw, "err", err)
		return model.OccurrenceOnce
	}
	for o, f := range freqByOccurrence {
		if f == opt.Freq {
			return o
		}
	}
	return model.OccurrenceOnce
}

// priorityFromValue maps RFC 5545 PRIORITY (1 highest, 9 lowest, 0 undefined).
func priorityFromValue(v string) model.Priority {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	switch {
	case err != nil || n == 0:
		return ""
	case n <= 4:
		return model.PriorityHigh
	case n == 5:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// triggerMinutes reads a relative "-PT<n>M" / "-PT<n>H" trigger.
func triggerMinutes(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "-PT") || len(v) < 5 {
		return 0, false
	}
	n, err := strconv.Atoi(v[3 : len(v)-1])
	if err != nil || n < 0 {
		return 0, false
	}
	switch v[len(v)-1] {
	case 'M':
		return n, true
	case 'H':
		return n * 60, true
	}
	return 0, false
}

// parseICSTime parses a basic ICS date or date-time value.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}

func oneOf[T ~string](v T, allowed []T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
