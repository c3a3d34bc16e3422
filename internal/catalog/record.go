package catalog

import (
	"errors"
	"strings"
)

// ErrUnavailable is returned when the raw catalog cannot be retrieved
// (missing credentials, transport failure, unreadable snapshot).
var ErrUnavailable = errors.New("catalog unavailable")

// Record is one raw model entry as published by the upstream /models
// endpoint. It is read-only input: fields of interest are id, name,
// description, canonical_slug, pricing, context_length, architecture,
// top_provider and supported_parameters.
type Record map[string]any

// ID returns the record's trimmed string id, or "" when absent.
func (r Record) ID() string {
	if r == nil {
		return ""
	}
	id, _ := r["id"].(string)
	return strings.TrimSpace(id)
}

// Snapshot is a fully materialized catalog listing.
type Snapshot struct {
	Source  string
	Records []Record
}
