// Package citylookup provides a static city-to-website table used as an
// optional shortcut before pattern-based domain generation. Absence of
// an entry is not an error; discovery simply falls back to generated
// candidates.
package citylookup

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table maps localities to their known official websites.
type Table struct {
	entries map[string]string
}

// Seed entries for localities whose official sites don't follow the
// usual naming patterns. Keys are "city|ST".
var defaultEntries = map[string]string{
	"new york|NY":      "https://www.nyc.gov",
	"los angeles|CA":   "https://lacity.gov",
	"chicago|IL":       "https://www.chicago.gov",
	"philadelphia|PA":  "https://www.phila.gov",
	"san francisco|CA": "https://sf.gov",
	"washington|DC":    "https://dc.gov",
	"louisville|KY":    "https://louisvilleky.gov",
	"nashville|TN":     "https://www.nashville.gov",
}

// New creates a table with the built-in seed entries.
func New() *Table {
	entries := make(map[string]string, len(defaultEntries))
	for k, v := range defaultEntries {
		entries[k] = v
	}
	return &Table{entries: entries}
}

// LoadOverlay merges entries from a YAML file into the table. The file
// maps "City, ST" keys to website URLs. Existing entries are replaced.
func (t *Table) LoadOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading city table: %w", err)
	}

	raw := make(map[string]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing city table: %w", err)
	}

	for k, v := range raw {
		city, state, ok := splitLocality(k)
		if !ok {
			continue
		}
		t.entries[key(city, state)] = v
	}
	return nil
}

// LookupWebsite returns the known official website for a locality, if
// any.
func (t *Table) LookupWebsite(city, state string) (string, bool) {
	url, ok := t.entries[key(city, state)]
	return url, ok
}

func key(city, state string) string {
	return strings.ToLower(strings.TrimSpace(city)) + "|" + strings.ToUpper(strings.TrimSpace(state))
}

func splitLocality(s string) (city, state string, ok bool) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}
