package snapshot

import (
	"context"
	"fmt"

	"github.com/everstacklabs/modelfilter/internal/adapter"
	"github.com/everstacklabs/modelfilter/internal/catalog"
)

func init() {
	adapter.Register(&Snapshot{})
}

// Snapshot serves a catalog previously saved to disk, either the raw
// /models response body or a YAML/JSON list of records.
type Snapshot struct {
	path string
}

func (s *Snapshot) Name() string { return "snapshot" }

func (s *Snapshot) Type() adapter.SourceType { return adapter.SourceFile }

// Configure sets the snapshot file path.
func (s *Snapshot) Configure(path string) {
	s.path = path
}

func (s *Snapshot) Fetch(ctx context.Context) (*catalog.Snapshot, error) {
	if s.path == "" {
		return nil, fmt.Errorf("%w: no snapshot path configured", catalog.ErrUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return catalog.Load(s.path)
}
