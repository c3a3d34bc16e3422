package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/everstacklabs/modelfilter/internal/catalog"
)

var (
	mu      sync.RWMutex
	sources = make(map[string]Source)
)

// Register adds a source to the global registry.
func Register(s Source) {
	mu.Lock()
	defer mu.Unlock()
	sources[s.Name()] = s
}

// Get returns a source by name.
func Get(name string) (Source, error) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := sources[name]
	if !ok {
		return nil, fmt.Errorf("unknown catalog source: %s", name)
	}
	return s, nil
}

// List returns all registered source names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fetch runs the source's health probe when it has one, fetches the
// snapshot and warns when it is smaller than expected.
func Fetch(ctx context.Context, s Source) (*catalog.Snapshot, error) {
	hc, checked := s.(HealthChecker)
	if checked {
		if err := hc.HealthCheck(ctx); err != nil {
			return nil, fmt.Errorf("%s health check: %w", s.Name(), err)
		}
	}

	snap, err := s.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}

	if checked {
		if want := hc.MinExpectedRecords(); len(snap.Records) < want {
			slog.Warn("catalog smaller than expected",
				"source", s.Name(), "records", len(snap.Records), "min_expected", want)
		}
	}
	slog.Info("catalog fetched", "source", s.Name(), "origin", snap.Source, "records", len(snap.Records))
	return snap, nil
}
