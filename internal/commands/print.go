package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"evcal/internal/model"
	"evcal/internal/stats"
)

var (
	bold      = color.New(color.Bold).SprintFunc()
	underline = color.New(color.Bold, color.Underline).SprintFunc()
	faint     = color.New(color.Faint).SprintFunc()
	red       = color.New(color.FgRed).SprintFunc()
	green     = color.New(color.FgGreen).SprintFunc()
	yellow    = color.New(color.FgHiYellow, color.Faint).SprintFunc()
)

func priorityCell(p model.Priority) string {
	if p == model.PriorityHigh {
		return red(string(p))
	}
	return string(p)
}

func statusCell(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return green(string(s))
	case model.StatusCancelled:
		return faint(string(s))
	}
	return string(s)
}

func timeCell(ev model.Event) string {
	switch {
	case ev.StartTime == "":
		return faint("all day")
	case ev.EndTime != "":
		return ev.StartTime + " - " + ev.EndTime
	default:
		return ev.StartTime
	}
}

// printEvents writes one table per day in date order.
func printEvents(w io.Writer, days model.Days) {
	if len(days) == 0 {
		_, _ = fmt.Fprintln(w, faint(" none"))
		return
	}
	for _, key := range days.Keys() {
		evs := days[key]
		_, _ = fmt.Fprintf(w, "%s %s\n", underline(key), faint(fmt.Sprintf("- %d", len(evs))))

		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.MaxColWidth = 40
		tbl.AddRow(bold("TIME"), bold("TITLE"), bold("CATEGORY"), bold("PRIORITY"), bold("STATUS"), bold("ID"))
		for _, ev := range evs {
			tbl.AddRow(timeCell(ev), ev.Title, string(ev.Category), priorityCell(ev.Priority), statusCell(ev.Status), yellow(ev.ID))
		}
		_, _ = fmt.Fprintln(w, tbl)
		_, _ = fmt.Fprintln(w)
	}
}

func printStats(w io.Writer, s stats.Stats) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold("Total"), strconv.Itoa(s.TotalEvents))
	tbl.AddRow(bold("Completed"), green(strconv.Itoa(s.CompletedEvents)))
	tbl.AddRow(bold("Upcoming"), strconv.Itoa(s.UpcomingEvents))
	tbl.AddRow(bold("High priority"), red(strconv.Itoa(s.HighPriorityEvents)))
	tbl.AddRow(bold("Days with events"), strconv.Itoa(s.DaysWithEvents))
	_, _ = fmt.Fprintln(w, tbl)
}

func printNotifications(w io.Writer, ns []model.Notification) {
	if len(ns) == 0 {
		_, _ = fmt.Fprintln(w, faint(" none"))
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold("TIME"), bold("TYPE"), bold("TITLE"), bold("MESSAGE"), bold("ID"))
	for _, n := range ns {
		title := n.Title
		if !n.Read {
			title = bold(title)
		}
		tbl.AddRow(n.Time, string(n.Type), title, n.Message, yellow(n.ID))
	}
	_, _ = fmt.Fprintln(w, tbl)
}
