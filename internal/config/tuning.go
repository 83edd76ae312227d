package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/warfront/internal/career"
)

//go:embed divisions.yaml
var defaultTuning []byte

// Tuning is the world content a deployment may override.
type Tuning struct {
	Population int               `yaml:"population"`
	Divisions  []career.Division `yaml:"divisions"`
}

// LoadTuning reads path, or the built-in catalog when path is empty.
func LoadTuning(path string) (Tuning, error) {
	raw := defaultTuning
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Tuning{}, err
		}
		raw = b
	}
	return parseTuning(raw)
}

func parseTuning(raw []byte) (Tuning, error) {
	var t Tuning
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning: %w", err)
	}
	if len(t.Divisions) == 0 {
		return t, fmt.Errorf("tuning: no divisions")
	}
	seen := make(map[string]bool, len(t.Divisions))
	for _, d := range t.Divisions {
		if d.Code == "" {
			return t, fmt.Errorf("tuning: division without code")
		}
		if seen[d.Code] {
			return t, fmt.Errorf("tuning: duplicate division %s", d.Code)
		}
		seen[d.Code] = true
		if d.MinTier < 1 || d.MinTier > 3 {
			return t, fmt.Errorf("tuning: division %s min_tier %d outside 1..3", d.Code, d.MinTier)
		}
		if d.QuotaTotal <= 0 {
			return t, fmt.Errorf("tuning: division %s needs a positive quota", d.Code)
		}
	}
	if t.Population <= 0 {
		t.Population = 24
	}
	return t, nil
}
