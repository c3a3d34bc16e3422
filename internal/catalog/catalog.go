package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a catalog snapshot from disk. The file may be the raw JSON
// body of the upstream /models endpoint ({"data": [...]}), a bare list of
// records, or the same shapes written as YAML.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading snapshot: %v", ErrUnavailable, err)
	}

	records, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}

	return &Snapshot{Source: path, Records: records}, nil
}

// Parse decodes a /models response body or a bare record list. JSON input
// is decoded with encoding/json, numbers kept as json.Number; anything else
// is read as YAML. Entries that are not mappings are kept as nil records so
// the filter engine can report them by position.
func Parse(data []byte) ([]Record, error) {
	doc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	var items []any
	switch v := doc.(type) {
	case map[string]any:
		list, ok := v["data"].([]any)
		if !ok {
			return nil, fmt.Errorf("parsing snapshot: missing \"data\" list")
		}
		items = list
	case []any:
		items = v
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("parsing snapshot: unexpected top-level %T", doc)
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		m, _ := item.(map[string]any)
		records = append(records, Record(m))
	}
	return records, nil
}

func decode(data []byte) (any, error) {
	var doc any
	if json.Valid(data) {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
