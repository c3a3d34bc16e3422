package openrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/everstacklabs/modelfilter/internal/adapter"
	"github.com/everstacklabs/modelfilter/internal/catalog"
	"github.com/everstacklabs/modelfilter/internal/httpclient"
)

const modelsBody = `{
  "data": [
    {
      "id": "anthropic/claude-sonnet-4.5",
      "canonical_slug": "anthropic/claude-4.5-sonnet-20250929",
      "name": "Anthropic: Claude Sonnet 4.5",
      "context_length": 1000000,
      "pricing": {"prompt": "0.000003", "completion": "0.000015", "image": "0.0048"},
      "architecture": {"modality": "text+image->text", "input_modalities": ["text", "image"]},
      "supported_parameters": ["tools", "reasoning", "response_format"]
    },
    {
      "id": "openrouter/auto",
      "pricing": {"prompt": "-1", "completion": "-1"}
    }
  ]
}`

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-or-test" {
			t.Errorf("Authorization = %q", got)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := newServer(t, http.StatusOK, modelsBody)

	o := &OpenRouter{}
	o.Configure("sk-or-test", srv.URL+"/api/v1/", httpclient.New())

	snap, err := o.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if snap.Source != srv.URL+"/api/v1/models" {
		t.Errorf("Source = %q", snap.Source)
	}
	if len(snap.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(snap.Records))
	}
	if got := snap.Records[0].ID(); got != "anthropic/claude-sonnet-4.5" {
		t.Errorf("first id = %q", got)
	}
	pricing, ok := snap.Records[0]["pricing"].(map[string]any)
	if !ok || pricing["prompt"] != "0.000003" {
		t.Errorf("pricing not preserved: %v", snap.Records[0]["pricing"])
	}
}

func TestFetchEscapedBody(t *testing.T) {
	body := `{"data":[
		{"id":"moonshotai\/kimi-k2","name":"MoonshotAI: Kimi K2","description":"\u6708\u4e4b\u6697\u9762 agentic model \ud83d\ude80","pricing":{"prompt":"0.0000005"}},
		{"id":"openai\/gpt-4o","description":"Docs: https:\/\/platform.openai.com","context_length":128000}
	]}`
	srv := newServer(t, http.StatusOK, body)

	o := &OpenRouter{}
	o.Configure("sk-or-test", srv.URL+"/api/v1", httpclient.New())

	snap, err := o.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(snap.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(snap.Records))
	}
	if got := snap.Records[0].ID(); got != "moonshotai/kimi-k2" {
		t.Errorf("first id = %q", got)
	}
	if got := snap.Records[0]["description"]; got != "月之暗面 agentic model 🚀" {
		t.Errorf("description = %q", got)
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		key    string
	}{
		{"missing key", http.StatusOK, modelsBody, ""},
		{"rejected key", http.StatusUnauthorized, `{"error":{"message":"No auth credentials found"}}`, "sk-or-test"},
		{"server error", http.StatusBadGateway, "upstream down", "sk-or-test"},
		{"bad body", http.StatusOK, `{"models": []}`, "sk-or-test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body)
			o := &OpenRouter{}
			o.Configure(tt.key, srv.URL+"/api/v1", httpclient.New())

			_, err := o.Fetch(context.Background())
			if !errors.Is(err, catalog.ErrUnavailable) {
				t.Errorf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestRegistered(t *testing.T) {
	s, err := adapter.Get("openrouter")
	if err != nil {
		t.Fatalf("openrouter not registered: %v", err)
	}
	if s.Type() != adapter.SourceAPI {
		t.Errorf("Type = %q", s.Type())
	}
	if _, ok := s.(adapter.HealthChecker); !ok {
		t.Error("openrouter should implement HealthChecker")
	}
}
