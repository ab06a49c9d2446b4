package festival

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"evcal/internal/datekey"
)

func TestDefault(t *testing.T) {
	tbl := Default()
	if name, ok := tbl.Lookup("2025-03-14"); !ok || name != "Holi" {
		t.Fatalf("Lookup(2025-03-14) = %q, %v", name, ok)
	}
	if _, ok := tbl.Lookup("2025-03-15"); ok {
		t.Fatal("unexpected festival")
	}
	for k := range tbl {
		if !datekey.Valid(k) {
			t.Errorf("bad key %q", k)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "festivals.yaml")
	if err := os.WriteFile(path, []byte("\"2026-01-01\": New Year\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tbl) != 1 || tbl["2026-01-01"] != "New Year" {
		t.Fatalf("table = %v", tbl)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("\"01/01/2026\": New Year\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(bad); !errors.Is(err, datekey.ErrInvalidKey) {
		t.Fatalf("err = %v, want ErrInvalidKey", err)
	}

	if tbl, err := Load(""); err != nil || len(tbl) != len(Default()) {
		t.Fatalf("Load(\"\") = %d, %v", len(tbl), err)
	}
}
