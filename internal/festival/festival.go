// Package festival is a read-only lookup of named holidays by date key.
package festival

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"evcal/internal/datekey"
)

// Table maps a date key to a festival name.
type Table map[string]string

// Default is the built-in table.
func Default() Table {
	return Table{
		"2024-01-15": "Pongal",
		"2024-03-25": "Holi",
		"2024-03-29": "Good Friday",
		"2024-04-11": "Eid-ul-Fitr",
		"2024-06-17": "Bakrid",
		"2024-08-15": "Independence Day",
		"2024-10-31": "Diwali",
		"2024-12-25": "Christmas",
		"2025-01-15": "Pongal",
		"2025-03-14": "Holi",
		"2025-03-21": "Good Friday",
		"2025-03-31": "Eid-ul-Fitr",
		"2025-06-07": "Bakrid",
		"2025-10-20": "Diwali",
		"2025-12-25": "Christmas",
	}
}

// Load reads a YAML mapping of "YYYY-MM-DD": name that replaces the built-in
// table. An empty path returns Default.
func Load(path string) (Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("festivals %s: %w", path, err)
	}
	for k := range t {
		if !datekey.Valid(k) {
			return nil, fmt.Errorf("festivals %s: bad date %q: %w", path, k, datekey.ErrInvalidKey)
		}
	}
	if t == nil {
		t = Table{}
	}
	return t, nil
}

// Lookup returns the festival on key, if any.
func (t Table) Lookup(key string) (string, bool) {
	name, ok := t[key]
	return name, ok
}
