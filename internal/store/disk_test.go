package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"evcal/internal/model"
	"evcal/internal/persist"
)

func openSeededDisk(t *testing.T, doc string) (*persist.Disk, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, persist.EventsKey), []byte(doc), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	disk, err := persist.OpenDisk(dir)
	if err != nil {
		t.Fatalf("open disk: %v", err)
	}
	return disk, dir
}

func TestOpenDropsEmptyDaysAndKeepsEvents(t *testing.T) {
	disk, dir := openSeededDisk(t, `{
		"2025-06-01": [{"id": "p1", "title": "Precious", "date": "2025-06-01", "startTime24": "09:00"}],
		"2025-06-02": []
	}`)

	s := Open(disk, WithIDFunc(counterIDs()))
	if s.Len() != 1 {
		t.Fatalf("loaded %d events, want 1", s.Len())
	}
	if _, err := s.Add(day(t, "2025-06-03"), model.Draft{Title: "new"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, persist.EventsKey))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "Precious") {
		t.Fatalf("saved document lost the loaded event:\n%s", data)
	}
	assertInvariants(t, s)
}

func TestOpenQuarantinesRejectedDocument(t *testing.T) {
	// Decodes fine, but the event is filed under the wrong day.
	disk, dir := openSeededDisk(t, `{
		"2025-06-01": [{"id": "p1", "title": "Precious", "date": "2025-06-05"}]
	}`)

	s := Open(disk, WithIDFunc(counterIDs()))
	if s.Len() != 0 {
		t.Fatalf("loaded %d events from a rejected document", s.Len())
	}
	if _, err := s.Add(day(t, "2025-06-03"), model.Draft{Title: "new"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	var backup string
	for _, k := range disk.Keys() {
		if strings.HasPrefix(k, persist.EventsKey+".corrupt-") {
			backup = k
		}
	}
	if backup == "" {
		t.Fatalf("no backup among keys %v", disk.Keys())
	}
	data, err := os.ReadFile(filepath.Join(dir, backup))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !strings.Contains(string(data), "Precious") {
		t.Fatalf("backup does not hold the rejected document:\n%s", data)
	}
}
