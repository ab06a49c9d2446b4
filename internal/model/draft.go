package model

import (
	"strings"
	"time"
)

// Draft is an event's field set before id and timestamps are assigned.
type Draft struct {
	Title       string     `json:"title"`
	StartTime   string     `json:"startTime,omitempty"`
	EndTime     string     `json:"endTime,omitempty"`
	StartTime24 string     `json:"startTime24,omitempty"`
	EndTime24   string     `json:"endTime24,omitempty"`
	Category    Category   `json:"category,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	Status      Status     `json:"status,omitempty"`
	Occurrence  Occurrence `json:"occurrence,omitempty"`
	Reminder    int        `json:"reminder,omitempty"`
	Description string     `json:"description,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Location    string     `json:"location,omitempty"`
	Attendees   string     `json:"attendees,omitempty"`
}

// Normalize trims the title, fills enum defaults, derives whichever of the
// 12h/24h time forms is missing and validates the result.
func (d Draft) Normalize() (Draft, error) {
	d.Title = strings.TrimSpace(d.Title)
	if d.Category == "" {
		d.Category = CategoryWork
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if d.Status == "" {
		d.Status = StatusPending
	}
	if d.Occurrence == "" {
		d.Occurrence = OccurrenceOnce
	}

	var err error
	if d.StartTime, d.StartTime24, err = pairTimes("startTime", d.StartTime, d.StartTime24); err != nil {
		return Draft{}, err
	}
	if d.EndTime, d.EndTime24, err = pairTimes("endTime", d.EndTime, d.EndTime24); err != nil {
		return Draft{}, err
	}

	if err := d.validate(); err != nil {
		return Draft{}, err
	}
	return d, nil
}

func pairTimes(field, display, canonical string) (string, string, error) {
	display = strings.TrimSpace(display)
	canonical = strings.TrimSpace(canonical)
	switch {
	case canonical != "":
		c, err := Canonical24(canonical)
		if err != nil {
			return "", "", invalid(field+"24", "%v", err)
		}
		// A display form that disagrees with the 24h form is rebuilt from it.
		if d, err := To24Hour(display); display == "" || err != nil || d != c {
			display, _ = To12Hour(c)
		}
		return display, c, nil
	case display != "":
		c, err := To24Hour(display)
		if err != nil {
			return "", "", invalid(field, "%v", err)
		}
		return display, c, nil
	default:
		return "", "", nil
	}
}

func (d Draft) validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return invalid("title", "must not be empty")
	}
	if !oneOf(d.Category, Categories) {
		return invalid("category", "unknown value %q", d.Category)
	}
	if !oneOf(d.Priority, Priorities) {
		return invalid("priority", "unknown value %q", d.Priority)
	}
	if !oneOf(d.Status, Statuses) {
		return invalid("status", "unknown value %q", d.Status)
	}
	if !oneOf(d.Occurrence, Occurrences) {
		return invalid("occurrence", "unknown value %q", d.Occurrence)
	}
	if d.Reminder < 0 {
		return invalid("reminder", "must be >= 0, got %d", d.Reminder)
	}
	if d.StartTime24 != "" {
		if _, _, err := ParseTime24(d.StartTime24); err != nil {
			return invalid("startTime24", "%v", err)
		}
	}
	if d.EndTime24 != "" {
		if _, _, err := ParseTime24(d.EndTime24); err != nil {
			return invalid("endTime24", "%v", err)
		}
	}
	return nil
}

// Patch carries the fields an update replaces; nil means "leave as is".
type Patch struct {
	Title       *string     `json:"title,omitempty"`
	StartTime   *string     `json:"startTime,omitempty"`
	EndTime     *string     `json:"endTime,omitempty"`
	StartTime24 *string     `json:"startTime24,omitempty"`
	EndTime24   *string     `json:"endTime24,omitempty"`
	Category    *Category   `json:"category,omitempty"`
	Priority    *Priority   `json:"priority,omitempty"`
	Status      *Status     `json:"status,omitempty"`
	Occurrence  *Occurrence `json:"occurrence,omitempty"`
	Reminder    *int        `json:"reminder,omitempty"`
	Description *string     `json:"description,omitempty"`
	Notes       *string     `json:"notes,omitempty"`
	Location    *string     `json:"location,omitempty"`
	Attendees   *string     `json:"attendees,omitempty"`
}

// PatchFromDraft returns a patch that sets every field of d.
func PatchFromDraft(d Draft) Patch {
	return Patch{
		Title:       &d.Title,
		StartTime:   &d.StartTime,
		EndTime:     &d.EndTime,
		StartTime24: &d.StartTime24,
		EndTime24:   &d.EndTime24,
		Category:    &d.Category,
		Priority:    &d.Priority,
		Status:      &d.Status,
		Occurrence:  &d.Occurrence,
		Reminder:    &d.Reminder,
		Description: &d.Description,
		Notes:       &d.Notes,
		Location:    &d.Location,
		Attendees:   &d.Attendees,
	}
}

// validate rejects enum fields that are present but empty. Defaults are
// only filled for new drafts.
func (p Patch) validate() error {
	switch {
	case p.Category != nil && *p.Category == "":
		return invalid("category", "must not be empty")
	case p.Priority != nil && *p.Priority == "":
		return invalid("priority", "must not be empty")
	case p.Status != nil && *p.Status == "":
		return invalid("status", "must not be empty")
	case p.Occurrence != nil && *p.Occurrence == "":
		return invalid("occurrence", "must not be empty")
	}
	return nil
}

func (p Patch) applyTo(d *Draft) {
	set(&d.Title, p.Title)
	set(&d.Category, p.Category)
	set(&d.Priority, p.Priority)
	set(&d.Status, p.Status)
	set(&d.Occurrence, p.Occurrence)
	set(&d.Reminder, p.Reminder)
	set(&d.Description, p.Description)
	set(&d.Notes, p.Notes)
	set(&d.Location, p.Location)
	set(&d.Attendees, p.Attendees)

	// Changing one form of a time without the other drops the stale partner
	// so Normalize derives it again.
	switch {
	case p.StartTime24 != nil && p.StartTime == nil:
		d.StartTime24, d.StartTime = *p.StartTime24, ""
	case p.StartTime != nil && p.StartTime24 == nil:
		d.StartTime, d.StartTime24 = *p.StartTime, ""
	default:
		set(&d.StartTime, p.StartTime)
		set(&d.StartTime24, p.StartTime24)
	}
	switch {
	case p.EndTime24 != nil && p.EndTime == nil:
		d.EndTime24, d.EndTime = *p.EndTime24, ""
	case p.EndTime != nil && p.EndTime24 == nil:
		d.EndTime, d.EndTime24 = *p.EndTime, ""
	default:
		set(&d.EndTime, p.EndTime)
		set(&d.EndTime24, p.EndTime24)
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Template is a quick-fill preset for new drafts.
type Template struct {
	Name     string
	Title    string
	Category Category
	Priority Priority
	Duration time.Duration
}

var Templates = []Template{
	{Name: "Meeting", Title: "Team Meeting", Category: CategoryMeeting, Priority: PriorityMedium, Duration: time.Hour},
	{Name: "Call", Title: "Client Call", Category: CategoryWork, Priority: PriorityHigh, Duration: 30 * time.Minute},
	{Name: "Break", Title: "Coffee Break", Category: CategoryPersonal, Priority: PriorityLow, Duration: 15 * time.Minute},
	{Name: "Lunch", Title: "Lunch", Category: CategoryPersonal, Priority: PriorityMedium, Duration: time.Hour},
}

// TemplateByName looks a template up case-insensitively.
func TemplateByName(name string) (Template, bool) {
	for _, t := range Templates {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Template{}, false
}

// ApplyTo fills title, category and priority from the template. When the
// draft has a start time the end time is set to start + Duration.
func (t Template) ApplyTo(d Draft) (Draft, error) {
	d.Title = t.Title
	d.Category = t.Category
	d.Priority = t.Priority

	start := d.StartTime24
	if start == "" && d.StartTime != "" {
		c, err := To24Hour(d.StartTime)
		if err != nil {
			return Draft{}, invalid("startTime", "%v", err)
		}
		start = c
	}
	if start == "" || t.Duration <= 0 {
		return d, nil
	}
	h, m, err := ParseTime24(start)
	if err != nil {
		return Draft{}, invalid("startTime24", "%v", err)
	}
	end := time.Date(2000, 1, 1, h, m, 0, 0, time.UTC).Add(t.Duration)
	d.EndTime24 = end.Format(layout24)
	d.EndTime = end.Format(layout12)
	return d, nil
}
