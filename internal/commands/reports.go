package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"evcal/internal/datekey"
	"evcal/internal/festival"
	"evcal/internal/model"
	"evcal/internal/reminder"
	"evcal/internal/stats"
)

func addStats(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show event counts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, st, err := ro.open()
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats.Compute(st.Snapshot()))
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addMonth(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "month [ANCHOR]",
		Short: "Print the 6-week grid for ANCHOR's month (default today) with event counts.",
		Example: `
evcal month
evcal month 2025-06-15
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			anchor := time.Now()
			if len(args) == 1 {
				t, err := parseDateArg(args[0])
				if err != nil {
					return err
				}
				anchor = t
			}
			cfg, st, err := ro.open()
			if err != nil {
				return err
			}
			fpath, err := cfg.FestivalsFile()
			if err != nil {
				return err
			}
			fest, err := festival.Load(fpath)
			if err != nil {
				return err
			}

			days := st.Snapshot()
			today := datekey.ToKey(time.Now())
			grid := datekey.MonthGrid(anchor, datekey.WeekStartFromString(cfg.WeekStart))

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, underline(anchor.Format("January 2006")))
			tbl := uitable.New()
			tbl.Separator = "  "
			header := make([]interface{}, 7)
			for i := range header {
				header[i] = bold(grid[i].Weekday().String()[:3])
			}
			tbl.AddRow(header...)

			var notes []string
			for row := 0; row < datekey.GridCells/7; row++ {
				cells := make([]interface{}, 7)
				for col := 0; col < 7; col++ {
					d := grid[row*7+col]
					key := datekey.ToKey(d)
					cell := strconv.Itoa(d.Day())
					if n := len(days[key]); n > 0 {
						cell += fmt.Sprintf("(%d)", n)
					}
					if name, ok := fest.Lookup(key); ok {
						cell += "*"
						notes = append(notes, key+" "+name)
					}
					switch {
					case key == today:
						cell = underline(cell)
					case d.Month() != anchor.Month():
						cell = faint(cell)
					}
					cells[col] = cell
				}
				tbl.AddRow(cells...)
			}
			_, _ = fmt.Fprintln(out, tbl)
			for _, n := range notes {
				_, _ = fmt.Fprintln(out, faint("* "+n))
			}
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addDue(topLevel *cobra.Command, ro *rootOptions) {
	at := ""
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List reminders due now, or at --at.",
		Example: `
evcal due
evcal due --at "2025-06-01 08:50"
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if at != "" {
				t, err := time.ParseInLocation("2006-01-02 15:04", at, time.Local)
				if err != nil {
					return &model.ValidationError{Field: "at", Reason: err.Error()}
				}
				now = t
			}
			cfg, st, err := ro.open()
			if err != nil {
				return err
			}
			s := reminder.NewScanner(reminder.WithWindow(cfg.ReminderWindow))
			printNotifications(cmd.OutOrStdout(), s.Scan(st.Snapshot(), now))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", `Scan instant, "YYYY-MM-DD HH:MM" local.`)
	topLevel.AddCommand(cmd)
}
