package commands

import (
	"github.com/spf13/cobra"

	"evcal/internal/model"
)

// eventOptions carries the draft fields settable from flags.
type eventOptions struct {
	title       string
	start       string
	end         string
	category    string
	priority    string
	status      string
	occurrence  string
	reminder    int
	description string
	notes       string
	location    string
	attendees   string
}

func addEventArgs(cmd *cobra.Command, o *eventOptions) {
	f := cmd.Flags()
	f.StringVar(&o.title, "title", "", "Event title.")
	f.StringVar(&o.start, "start", "", `Start time, "HH:MM" or "h:mm AM".`)
	f.StringVar(&o.end, "end", "", `End time, "HH:MM" or "h:mm AM".`)
	f.StringVar(&o.category, "category", "", "One of Work, Personal, Meeting, Holiday, Other.")
	f.StringVar(&o.priority, "priority", "", "One of High, Medium, Low.")
	f.StringVar(&o.status, "status", "", "One of Pending, Completed, Cancelled.")
	f.StringVar(&o.occurrence, "occurrence", "", "One of One-time, Daily, Weekly, Monthly, Yearly.")
	f.IntVar(&o.reminder, "reminder", 0, "Minutes before start to remind; 0 for none.")
	f.StringVar(&o.description, "description", "", "Description.")
	f.StringVar(&o.notes, "notes", "", "Notes.")
	f.StringVar(&o.location, "location", "", "Location.")
	f.StringVar(&o.attendees, "attendees", "", "Comma-separated attendees.")
}

// draft builds a draft from every flag value.
func (o *eventOptions) draft() model.Draft {
	d := model.Draft{
		Title:       o.title,
		Category:    model.Category(o.category),
		Priority:    model.Priority(o.priority),
		Status:      model.Status(o.status),
		Occurrence:  model.Occurrence(o.occurrence),
		Reminder:    o.reminder,
		Description: o.description,
		Notes:       o.notes,
		Location:    o.location,
		Attendees:   o.attendees,
	}
	d.StartTime, d.StartTime24 = splitTime(o.start)
	d.EndTime, d.EndTime24 = splitTime(o.end)
	return d
}

// patch builds a patch holding only the flags the user set.
func (o *eventOptions) patch(cmd *cobra.Command) model.Patch {
	var p model.Patch
	changed := cmd.Flags().Changed
	if changed("title") {
		p.Title = &o.title
	}
	if changed("start") {
		display, canonical := splitTime(o.start)
		if canonical != "" {
			p.StartTime24 = &canonical
		} else {
			p.StartTime = &display
		}
	}
	if changed("end") {
		display, canonical := splitTime(o.end)
		if canonical != "" {
			p.EndTime24 = &canonical
		} else {
			p.EndTime = &display
		}
	}
	if changed("category") {
		v := model.Category(o.category)
		p.Category = &v
	}
	if changed("priority") {
		v := model.Priority(o.priority)
		p.Priority = &v
	}
	if changed("status") {
		v := model.Status(o.status)
		p.Status = &v
	}
	if changed("occurrence") {
		v := model.Occurrence(o.occurrence)
		p.Occurrence = &v
	}
	if changed("reminder") {
		p.Reminder = &o.reminder
	}
	if changed("description") {
		p.Description = &o.description
	}
	if changed("notes") {
		p.Notes = &o.notes
	}
	if changed("location") {
		p.Location = &o.location
	}
	if changed("attendees") {
		p.Attendees = &o.attendees
	}
	return p
}

// splitTime routes a flag value to the 12h or 24h field by its shape.
func splitTime(v string) (display, canonical string) {
	if v == "" {
		return "", ""
	}
	if _, _, err := model.ParseTime24(v); err == nil {
		return "", v
	}
	return v, ""
}

// filterOptions are the query flags of list.
type filterOptions struct {
	search   string
	category string
	priority string
	status   string
	byTime   bool
	json     bool
}

func addFilterArgs(cmd *cobra.Command, o *filterOptions) {
	f := cmd.Flags()
	f.StringVarP(&o.search, "search", "q", "", "Case-insensitive text search.")
	f.StringVar(&o.category, "category", "All", "Category filter.")
	f.StringVar(&o.priority, "priority", "All", "Priority filter.")
	f.StringVar(&o.status, "status", "All", "Status filter.")
	f.BoolVar(&o.byTime, "by-time", false, "Sort each day by start time.")
	f.BoolVar(&o.json, "json", false, "Output as JSON.")
}
