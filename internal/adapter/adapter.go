package adapter

import (
	"context"

	"github.com/everstacklabs/modelfilter/internal/catalog"
)

// SourceType names where a catalog snapshot comes from.
type SourceType string

const (
	SourceAPI  SourceType = "api"
	SourceFile SourceType = "file"
)

// Source retrieves the raw model catalog. It is the only component that
// performs I/O; the filter engine consumes the snapshot it returns.
type Source interface {
	// Name returns the registry name (e.g., "openrouter").
	Name() string
	// Type reports how the source obtains its snapshot.
	Type() SourceType
	// Fetch returns the full catalog. Failures wrap catalog.ErrUnavailable.
	Fetch(ctx context.Context) (*catalog.Snapshot, error)
}

// HealthChecker is an optional interface sources can implement for a
// pre-fetch liveness probe and a post-fetch record count check.
type HealthChecker interface {
	// HealthCheck performs a lightweight liveness probe against the upstream.
	HealthCheck(ctx context.Context) error
	// MinExpectedRecords returns the fewest records a healthy catalog has.
	// A smaller snapshot signals a truncated or filtered upstream response.
	MinExpectedRecords() int
}
