package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/everstacklabs/modelfilter/internal/adapter"
	"github.com/everstacklabs/modelfilter/internal/catalog"
)

func TestFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	data := "- id: openai/gpt-4o\n  pricing:\n    prompt: \"0.0000025\"\n- id: openai/gpt-4o-mini\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	s := &Snapshot{}
	s.Configure(path)
	snap, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(snap.Records) != 2 || snap.Source != path {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestFetchUnconfigured(t *testing.T) {
	_, err := (&Snapshot{}).Fetch(context.Background())
	if !errors.Is(err, catalog.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestFetchThroughRegistry(t *testing.T) {
	s, err := adapter.Get("snapshot")
	if err != nil {
		t.Fatal(err)
	}
	s.(*Snapshot).Configure(filepath.Join(t.TempDir(), "missing.json"))
	defer s.(*Snapshot).Configure("")

	_, err = adapter.Fetch(context.Background(), s)
	if !errors.Is(err, catalog.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
