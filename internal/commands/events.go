package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"evcal/internal/datekey"
	"evcal/internal/model"
	"evcal/internal/query"
)

func addAdd(topLevel *cobra.Command, ro *rootOptions) {
	eo := &eventOptions{}
	template := ""
	cmd := &cobra.Command{
		Use:   "add DATE [TITLE]",
		Short: "Add an event on DATE (YYYY-MM-DD).",
		Example: `
evcal add 2025-03-14 "Holi Prep"
evcal add 2025-06-01 Standup --start 09:00 --end 09:15 --category Meeting --reminder 10
evcal add 2025-06-02 --template Call --start "2:00 PM"
`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateArg(args[0])
			if err != nil {
				return err
			}
			d := eo.draft()
			if len(args) == 2 {
				d.Title = args[1]
			}
			if template != "" {
				tpl, ok := model.TemplateByName(template)
				if !ok {
					return &model.ValidationError{Field: "template", Reason: "unknown template " + template}
				}
				if d, err = tpl.ApplyTo(d); err != nil {
					return err
				}
			}

			_, st, err := ro.open()
			if err != nil {
				return err
			}
			ev, err := st.Add(date, d)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s on %s\n", ev.ID, ev.Key())
			return nil
		},
	}
	addEventArgs(cmd, eo)
	cmd.Flags().StringVar(&template, "template", "", "Quick template: Meeting, Call, Break or Lunch.")
	topLevel.AddCommand(cmd)
}

func addList(topLevel *cobra.Command, ro *rootOptions) {
	fo := &filterOptions{}
	cmd := &cobra.Command{
		Use:   "list [DATE]",
		Short: "List events, optionally for one day, with search and filters.",
		Example: `
evcal list
evcal list 2025-06-01 --by-time
evcal list -q standup --priority High
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := ro.open()
			if err != nil {
				return err
			}
			days := st.Snapshot()
			if len(args) == 1 {
				if _, err := parseDateArg(args[0]); err != nil {
					return err
				}
				days = model.Days{}
				if evs := st.Day(args[0]); len(evs) > 0 {
					days[args[0]] = evs
				}
			}
			days = query.Apply(days, query.State{
				SearchTerm: fo.search,
				Criteria:   query.Criteria{Category: fo.category, Priority: fo.priority, Status: fo.status},
			})
			if fo.byTime {
				for k, evs := range days {
					days[k] = query.SortByTime(evs)
				}
			}
			if fo.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(days)
			}
			printEvents(cmd.OutOrStdout(), days)
			return nil
		},
	}
	addFilterArgs(cmd, fo)
	topLevel.AddCommand(cmd)
}

func addShow(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one event by id, whatever its day.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := ro.open()
			if err != nil {
				return err
			}
			ev, key, ok := st.Find(args[0])
			if !ok {
				return &model.NotFoundError{ID: args[0]}
			}
			printEvents(cmd.OutOrStdout(), model.Days{key: {ev}})
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addUpdate(topLevel *cobra.Command, ro *rootOptions) {
	eo := &eventOptions{}
	cmd := &cobra.Command{
		Use:   "update DATE ID",
		Short: "Change the fields given as flags on one event.",
		Example: `
evcal update 2025-06-01 6f1c... --status Completed
evcal update 2025-06-01 6f1c... --start 10:00 --reminder 5
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := eo.patch(cmd)
			_, st, err := ro.open()
			if err != nil {
				return err
			}
			ev, err := st.Update(args[0], args[1], patch)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", ev.ID)
			return nil
		},
	}
	addEventArgs(cmd, eo)
	topLevel.AddCommand(cmd)
}

func addMove(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "move FROM ID TO",
		Short: "Reschedule an event to another day.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := ro.open()
			if err != nil {
				return err
			}
			ev, err := st.Move(args[1], args[0], args[2])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "moved %s to %s\n", ev.ID, ev.Key())
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addDelete(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:     "delete DATE ID",
		Aliases: []string{"rm"},
		Short:   "Delete an event.",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := ro.open()
			if err != nil {
				return err
			}
			ev, err := st.Delete(args[0], args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (%s)\n", ev.ID, ev.Title)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func parseDateArg(s string) (time.Time, error) {
	t, err := datekey.FromKey(s)
	if err != nil || !datekey.Valid(s) {
		return time.Time{}, &model.ValidationError{Field: "date", Reason: "malformed date key " + s}
	}
	return t, nil
}
