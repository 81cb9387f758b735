// Package catalog loads the static security universe the simulation is
// seeded from. The catalog is read once at startup and never mutated.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"niftypulse/models"
)

type catalogFile struct {
	Securities []models.Security `yaml:"securities"`
}

// Load reads and validates the security catalog at the given path.
func Load(path string) ([]models.Security, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	if err := validate(file.Securities); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}
	return file.Securities, nil
}

func validate(securities []models.Security) error {
	if len(securities) == 0 {
		return fmt.Errorf("catalog contains no securities")
	}

	seen := make(map[string]struct{}, len(securities))
	for n, sec := range securities {
		symbol := strings.TrimSpace(sec.Symbol)
		if symbol == "" {
			return fmt.Errorf("security %d has an empty symbol", n)
		}
		if _, dup := seen[symbol]; dup {
			return fmt.Errorf("duplicate symbol %q", symbol)
		}
		seen[symbol] = struct{}{}

		if sec.Name == "" {
			return fmt.Errorf("security %q has an empty name", symbol)
		}
		if sec.BasePrice <= 0 {
			return fmt.Errorf("security %q has non-positive base price %v", symbol, sec.BasePrice)
		}
	}
	return nil
}

// Symbols returns the ordered symbol list of the catalog.
func Symbols(securities []models.Security) []string {
	out := make([]string, len(securities))
	for n, sec := range securities {
		out[n] = sec.Symbol
	}
	return out
}
