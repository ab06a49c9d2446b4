package persist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"evcal/internal/model"
)

// ExportFileName is the download name for a JSON export taken at now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("calendar-events-%s.json", now.UTC().Format("2006-01-02"))
}

// WriteExport writes days as a 2-space indented document.
func WriteExport(w io.Writer, days model.Days) error {
	if days == nil {
		days = model.Days{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(days)
}

// ExportToDir writes an export file into dir and returns its path.
func ExportToDir(dir string, days model.Days, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ExportFileName(now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	if err := WriteExport(f, days); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
