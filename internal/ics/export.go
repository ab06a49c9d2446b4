// Package ics converts the store to and from iCalendar. Recurrence is carried
// as an RRULE derived from the event's occurrence and is never expanded.
package ics

import (
	"fmt"
	"io"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"evcal/internal/model"
)

const productID = "-//evcal//evcal//EN"

// Extension properties for fields iCalendar has no slot for.
const (
	propStatus     = ical.ComponentProperty("X-EVCAL-STATUS")
	propOccurrence = ical.ComponentProperty("X-EVCAL-OCCURRENCE")
	propNotes      = ical.ComponentProperty("X-EVCAL-NOTES")
	propAttendees  = ical.ComponentProperty("X-EVCAL-ATTENDEES")
	propDisplay    = ical.ComponentProperty("X-EVCAL-START-DISPLAY")
)

var freqByOccurrence = map[model.Occurrence]rrule.Frequency{
	model.OccurrenceDaily:   rrule.DAILY,
	model.OccurrenceWeekly:  rrule.WEEKLY,
	model.OccurrenceMonthly: rrule.MONTHLY,
	model.OccurrenceYearly:  rrule.YEARLY,
}

var priorityValue = map[model.Priority]int{
	model.PriorityHigh:   1,
	model.PriorityMedium: 5,
	model.PriorityLow:    9,
}

// RRule returns the RRULE value for o, or "" for one-time events.
func RRule(o model.Occurrence) string {
	freq, ok := freqByOccurrence[o]
	if !ok {
		return ""
	}
	opt := rrule.ROption{Freq: freq}
	return opt.RRuleString()
}

// Calendar builds a VCALENDAR holding one VEVENT per stored event.
func Calendar(days model.Days, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	days.Each(func(_ string, ev model.Event) {
		ve := cal.AddEvent(ev.ID + "@evcal")
		ve.SetDtStampTime(now)
		ve.SetCreatedTime(ev.CreatedAt)
		ve.SetModifiedAt(ev.UpdatedAt)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}

		if start, ok := ev.StartAt(); ok {
			ve.SetStartAt(start)
			if ev.EndTime24 != "" {
				if end, err := model.At(ev.Date, ev.EndTime24); err == nil && end.After(start) {
					ve.SetEndAt(end)
				}
			}
		} else {
			ve.SetAllDayStartAt(ev.Date)
		}

		ve.SetProperty(ical.ComponentPropertyCategories, string(ev.Category))
		ve.SetProperty(ical.ComponentPropertyPriority, strconv.Itoa(priorityValue[ev.Priority]))
		if ev.Status == model.StatusCancelled {
			ve.SetProperty(ical.ComponentPropertyStatus, "CANCELLED")
		} else {
			ve.SetProperty(ical.ComponentPropertyStatus, "CONFIRMED")
		}
		ve.SetProperty(propStatus, string(ev.Status))
		ve.SetProperty(propOccurrence, string(ev.Occurrence))
		if r := RRule(ev.Occurrence); r != "" {
			ve.AddRrule(r)
		}
		if ev.StartTime != "" {
			ve.SetProperty(propDisplay, ev.StartTime)
		}
		if ev.Notes != "" {
			ve.SetProperty(propNotes, ev.Notes)
		}
		if ev.Attendees != "" {
			ve.SetProperty(propAttendees, ev.Attendees)
		}

		if ev.Reminder > 0 {
			alarm := ve.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger(fmt.Sprintf("-PT%dM", ev.Reminder))
		}
	})
	return cal
}

// Export serializes days as an iCalendar document.
func Export(w io.Writer, days model.Days, now time.Time) error {
	_, err := io.WriteString(w, Calendar(days, now).Serialize())
	return err
}

// ExportFileName is the download name for an iCalendar export taken at now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("calendar-events-%s.ics", now.UTC().Format("2006-01-02"))
}
