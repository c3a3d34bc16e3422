package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseModelsResponse(t *testing.T) {
	body := `{"data": [
		{"id": "openai/gpt-4o", "canonical_slug": "openai/gpt-4o", "pricing": {"prompt": "0.0000025"}},
		{"id": "meta-llama/llama-3.3-70b-instruct:free", "context_length": 131072},
		"not-a-record"
	]}`

	records, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].ID() != "openai/gpt-4o" {
		t.Errorf("records[0].ID() = %q", records[0].ID())
	}
	pricing, ok := records[0]["pricing"].(map[string]any)
	if !ok {
		t.Fatalf("pricing decoded as %T, want map", records[0]["pricing"])
	}
	if pricing["prompt"] != "0.0000025" {
		t.Errorf("prompt price = %v, want string 0.0000025", pricing["prompt"])
	}
	if records[2] != nil {
		t.Errorf("non-mapping entry should decode to nil record, got %v", records[2])
	}
	if records[2].ID() != "" {
		t.Error("nil record should have empty ID")
	}
}

func TestParseBareListYAML(t *testing.T) {
	body := `
- id: mistralai/mistral-large
  context_length: 128000
- id: "  google/gemini-2.5-pro  "
`
	records, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].ID() != "google/gemini-2.5-pro" {
		t.Errorf("ID should be trimmed, got %q", records[1].ID())
	}
}

func TestParseRejectsUnexpectedShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"object without data", `{"models": []}`},
		{"scalar", `42`},
		{"broken", `{"data": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFileIsUnavailable(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	if err := os.WriteFile(path, []byte(`{"data":[{"id":"a/b"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.Source != path {
		t.Errorf("Source = %q, want %q", snap.Source, path)
	}
	if len(snap.Records) != 1 || snap.Records[0].ID() != "a/b" {
		t.Errorf("unexpected records: %v", snap.Records)
	}
}

func TestParseJSONEscapes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		want  string
	}{
		{"escaped solidus", `{"data":[{"id":"a\/b"}]}`, "id", "a/b"},
		{"surrogate pair", `{"data":[{"id":"x/fast","description":"Fast \ud83d\ude80 model"}]}`, "description", "Fast 🚀 model"},
		{"unicode escape", `[{"id":"mistralai/mistral-large","name":"Mistral \u00e9dition"}]`, "name", "Mistral édition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Parse([]byte(tt.body))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(records))
			}
			if got := records[0][tt.field]; got != tt.want {
				t.Errorf("%s = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestParseModelsResponseWithRichText(t *testing.T) {
	body := `{"data":[
		{"id":"qwen\/qwen3-max","name":"Qwen: Qwen3 Max","description":"通义千问 flagship \ud83e\udde0, see https:\/\/qwen.ai","context_length":262144,"pricing":{"prompt":"0.0000012","completion":"0.000006"}},
		{"id":"openai\/gpt-4o","description":"\"omni\" model\nwith tabs\tand \\ backslashes","context_length":128000,"pricing":{"prompt":0.0000025}}
	]}`

	records, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID() != "qwen/qwen3-max" || records[1].ID() != "openai/gpt-4o" {
		t.Errorf("ids = %q, %q", records[0].ID(), records[1].ID())
	}
	if n, ok := records[0]["context_length"].(json.Number); !ok || n.String() != "262144" {
		t.Errorf("context_length decoded as %T %v, want json.Number", records[0]["context_length"], records[0]["context_length"])
	}
	pricing := records[1]["pricing"].(map[string]any)
	if n, ok := pricing["prompt"].(json.Number); !ok || n.String() != "0.0000025" {
		t.Errorf("numeric price should keep its literal, got %T %v", pricing["prompt"], pricing["prompt"])
	}
}
