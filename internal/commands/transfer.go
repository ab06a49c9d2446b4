package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"evcal/internal/ics"
	"evcal/internal/model"
	"evcal/internal/persist"
)

func addExport(topLevel *cobra.Command, ro *rootOptions) {
	dir := "."
	format := "json"
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole store to calendar-events-<date>.json or .ics.",
		Example: `
evcal export
evcal export --format ics --dir ~/Downloads
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, st, err := ro.open()
			if err != nil {
				return err
			}
			now := time.Now()
			days := st.Snapshot()

			var path string
			switch format {
			case "json":
				path, err = persist.ExportToDir(dir, days, now)
			case "ics":
				path, err = exportICS(dir, days, now)
			default:
				return &model.ValidationError{Field: "format", Reason: "must be json or ics"}
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d events to %s\n", days.Count(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", dir, "Directory to write the export file into.")
	cmd.Flags().StringVar(&format, "format", format, "One of json, ics.")
	topLevel.AddCommand(cmd)
}

func exportICS(dir string, days model.Days, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ics.ExportFileName(now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	if err := ics.Export(f, days, now); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func addImport(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import events. A .json export replaces the store, an .ics file is added to it.",
		Example: `
evcal import calendar-events-2025-06-01.json
evcal import holidays.ics
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := ro.open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			path := args[0]

			switch strings.ToLower(filepath.Ext(path)) {
			case ".json":
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				days, err := persist.Decode(data)
				if err != nil {
					return err
				}
				if err := st.ReplaceAll(days); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "replaced store with %d events\n", days.Count())
			case ".ics":
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				items, err := ics.Import(f)
				if err != nil {
					return err
				}
				added := 0
				for _, it := range items {
					if _, err := st.Add(it.Date, it.Draft); err != nil {
						return fmt.Errorf("import %s: %w", it.UID, err)
					}
					added++
				}
				_, _ = fmt.Fprintf(out, "added %d events\n", added)
			default:
				return &model.ValidationError{Field: "file", Reason: "expected a .json or .ics file"}
			}
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
