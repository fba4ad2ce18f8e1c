package events

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is one event listing endpoint returning a JSON array of
// listings.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type sourceFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the YAML source list used by the scraper.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	var f sourceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sources file: %w", err)
	}

	for i, s := range f.Sources {
		if s.Name == "" || s.URL == "" {
			return nil, fmt.Errorf("source %d: name and url are required", i)
		}
	}
	return f.Sources, nil
}
