// Package devseed loads key-value seed files for the in-memory store used in
// development and by the sandbox server. Seeds are JSON or YAML lists of
// {key, value} records; values may be any JSON-compatible document.
package devseed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one seeded key.
type Entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type yamlEntry struct {
	Key   string `yaml:"key"`
	Value any    `yaml:"value"`
}

// Load reads the seed file at path. The format is chosen by extension:
// .yaml/.yml are YAML, anything else is JSON.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", path, err)
	}

	var entries []Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		entries, err = parseYAML(data)
	default:
		err = json.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, fmt.Errorf("devseed: parse %s: %w", path, err)
	}

	for i, e := range entries {
		if strings.TrimSpace(e.Key) == "" {
			return nil, fmt.Errorf("devseed: entry %d in %s has no key", i, path)
		}
	}
	return entries, nil
}

func parseYAML(data []byte) ([]Entry, error) {
	var raw []yamlEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		value, err := json.Marshal(r.Value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", r.Key, err)
		}
		entries = append(entries, Entry{Key: r.Key, Value: value})
	}
	return entries, nil
}
