package catalogue

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var defaultCatalogueYAML []byte

// ErrDuplicateID is returned when two entries share a KPI id.
var ErrDuplicateID = errors.New("duplicate kpi id")

// Entry is a single catalogued KPI: its position in the hierarchy and its
// current measurement against target.
type Entry struct {
	Pillar       string  `yaml:"pillar"`
	MacroProcess string  `yaml:"macro_process"`
	Category     string  `yaml:"category"`
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Value        float64 `yaml:"value"`
	Target       float64 `yaml:"target"`
	Unit         string  `yaml:"unit"`
}

type file struct {
	Entries []Entry `yaml:"entries"`
}

// Default returns the built-in catalogue in catalogue order.
func Default() ([]Entry, error) {
	return Parse(defaultCatalogueYAML)
}

// Load reads a catalogue YAML file. An empty path yields the built-in catalogue.
func Load(path string) ([]Entry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalogue YAML and rejects incomplete or duplicate entries.
func Parse(data []byte) ([]Entry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalogue: %w", err)
	}
	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("parsing catalogue: no entries")
	}

	seen := make(map[string]int, len(f.Entries))
	for i, e := range f.Entries {
		if missing := e.missingFields(); len(missing) > 0 {
			return nil, fmt.Errorf("catalogue entry %d (%q): missing %s", i, e.ID, strings.Join(missing, ", "))
		}
		if prev, ok := seen[e.ID]; ok {
			return nil, fmt.Errorf("catalogue entries %d and %d: %w %q", prev, i, ErrDuplicateID, e.ID)
		}
		seen[e.ID] = i
	}
	return f.Entries, nil
}

func (e Entry) missingFields() []string {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"id", e.ID},
		{"name", e.Name},
		{"pillar", e.Pillar},
		{"macro_process", e.MacroProcess},
		{"category", e.Category},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
