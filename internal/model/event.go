package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"evcal/internal/datekey"
)

type Category string

const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryMeeting  Category = "Meeting"
	CategoryHoliday  Category = "Holiday"
	CategoryOther    Category = "Other"
)

var Categories = []Category{CategoryWork, CategoryPersonal, CategoryMeeting, CategoryHoliday, CategoryOther}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

var Statuses = []Status{StatusPending, StatusCompleted, StatusCancelled}

// Occurrence is stored and exported but never expanded into instances.
type Occurrence string

const (
	OccurrenceOnce    Occurrence = "One-time"
	OccurrenceDaily   Occurrence = "Daily"
	OccurrenceWeekly  Occurrence = "Weekly"
	OccurrenceMonthly Occurrence = "Monthly"
	OccurrenceYearly  Occurrence = "Yearly"
)

var Occurrences = []Occurrence{OccurrenceOnce, OccurrenceDaily, OccurrenceWeekly, OccurrenceMonthly, OccurrenceYearly}

func oneOf[T ~string](v T, allowed []T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Event is a single calendar entry stored under its date key.
type Event struct {
	ID    string
	Title string
	// Date is the logical day of the event, local midnight. It always formats
	// to the key the event is stored under.
	Date time.Time

	StartTime   string
	EndTime     string
	StartTime24 string
	EndTime24   string

	Category   Category
	Priority   Priority
	Status     Status
	Occurrence Occurrence
	Reminder   int

	Description string
	Notes       string
	Location    string
	Attendees   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// eventJSON is the persisted/exported document shape.
type eventJSON struct {
	ID          documentID `json:"id"`
	Title       string     `json:"title"`
	Date        string     `json:"date"`
	StartTime   string     `json:"startTime,omitempty"`
	EndTime     string     `json:"endTime,omitempty"`
	StartTime24 string     `json:"startTime24,omitempty"`
	EndTime24   string     `json:"endTime24,omitempty"`
	Category    Category   `json:"category"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Occurrence  Occurrence `json:"occurrence"`
	Reminder    int        `json:"reminder"`
	Description string     `json:"description,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Location    string     `json:"location,omitempty"`
	Attendees   string     `json:"attendees,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		ID:          documentID(e.ID),
		Title:       e.Title,
		Date:        datekey.ToKey(e.Date),
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		StartTime24: e.StartTime24,
		EndTime24:   e.EndTime24,
		Category:    e.Category,
		Priority:    e.Priority,
		Status:      e.Status,
		Occurrence:  e.Occurrence,
		Reminder:    e.Reminder,
		Description: e.Description,
		Notes:       e.Notes,
		Location:    e.Location,
		Attendees:   e.Attendees,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	})
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := parseDocumentDate(raw.Date)
	if err != nil {
		return err
	}
	*e = Event{
		ID:          string(raw.ID),
		Title:       raw.Title,
		Date:        date,
		StartTime:   raw.StartTime,
		EndTime:     raw.EndTime,
		StartTime24: raw.StartTime24,
		EndTime24:   raw.EndTime24,
		Category:    raw.Category,
		Priority:    raw.Priority,
		Status:      raw.Status,
		Occurrence:  raw.Occurrence,
		Reminder:    raw.Reminder,
		Description: raw.Description,
		Notes:       raw.Notes,
		Location:    raw.Location,
		Attendees:   raw.Attendees,
		CreatedAt:   raw.CreatedAt,
		UpdatedAt:   raw.UpdatedAt,
	}
	return nil
}

// documentID is an event id as found in a document. Browser-made documents
// use numeric ids; those are kept in their JSON number spelling.
type documentID string

func (id *documentID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] != '"' && string(data) != "null" {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("event id: %w", err)
		}
		*id = documentID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	*id = documentID(s)
	return nil
}

// parseDocumentDate accepts a date key or a full RFC 3339 timestamp, which is
// what browser-exported documents carry.
func parseDocumentDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := datekey.FromKey(s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("event date %q: %w", s, datekey.ErrInvalidKey)
	}
	return datekey.StartOfDay(t.In(time.Local)), nil
}

// Key is the storage key derived from Date.
func (e Event) Key() string {
	return datekey.ToKey(e.Date)
}

// AttendeeList splits the comma-separated attendee field.
func (e Event) AttendeeList() []string {
	out := make([]string, 0)
	for _, a := range strings.Split(e.Attendees, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// StartAt combines Date and StartTime24. ok is false for untimed events.
func (e Event) StartAt() (time.Time, bool) {
	if e.StartTime24 == "" {
		return time.Time{}, false
	}
	t, err := At(e.Date, e.StartTime24)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Validate checks the fields a stored event must satisfy.
func (e Event) Validate() error {
	if e.ID == "" {
		return invalid("id", "must not be empty")
	}
	if e.Date.IsZero() {
		return invalid("date", "must be set")
	}
	return e.Draft().validate()
}

// Draft returns the caller-editable fields of e.
func (e Event) Draft() Draft {
	return Draft{
		Title:       e.Title,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		StartTime24: e.StartTime24,
		EndTime24:   e.EndTime24,
		Category:    e.Category,
		Priority:    e.Priority,
		Status:      e.Status,
		Occurrence:  e.Occurrence,
		Reminder:    e.Reminder,
		Description: e.Description,
		Notes:       e.Notes,
		Location:    e.Location,
		Attendees:   e.Attendees,
	}
}

func (e *Event) setDraft(d Draft) {
	e.Title = d.Title
	e.StartTime = d.StartTime
	e.EndTime = d.EndTime
	e.StartTime24 = d.StartTime24
	e.EndTime24 = d.EndTime24
	e.Category = d.Category
	e.Priority = d.Priority
	e.Status = d.Status
	e.Occurrence = d.Occurrence
	e.Reminder = d.Reminder
	e.Description = d.Description
	e.Notes = d.Notes
	e.Location = d.Location
	e.Attendees = d.Attendees
}

// NewEvent builds a stored event from a normalized draft.
func NewEvent(id string, date time.Time, d Draft, now time.Time) (Event, error) {
	nd, err := d.Normalize()
	if err != nil {
		return Event{}, err
	}
	ev := Event{
		ID:        id,
		Date:      datekey.StartOfDay(date),
		CreatedAt: now,
		UpdatedAt: now,
	}
	ev.setDraft(nd)
	return ev, nil
}

// Apply returns a copy of e with the present patch fields replaced and the
// result normalized. ID, Date and CreatedAt are never touched.
func (e Event) Apply(p Patch, now time.Time) (Event, error) {
	if err := p.validate(); err != nil {
		return Event{}, err
	}
	d := e.Draft()
	p.applyTo(&d)
	nd, err := d.Normalize()
	if err != nil {
		return Event{}, err
	}
	out := e
	out.setDraft(nd)
	out.UpdatedAt = now
	return out, nil
}

// Normalized fills defaults and derives missing time forms, as Add would.
// Used when accepting whole documents (load, import).
func (e Event) Normalized() (Event, error) {
	nd, err := e.Draft().Normalize()
	if err != nil {
		return Event{}, err
	}
	e.setDraft(nd)
	return e, nil
}
