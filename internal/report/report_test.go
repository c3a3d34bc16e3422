package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/modelfilter/internal/catalog"
	"github.com/everstacklabs/modelfilter/internal/filter"
)

func fixture(t *testing.T) *filter.Result {
	t.Helper()
	recs := []catalog.Record{
		{
			"id":                   "openai/gpt-4o-mini",
			"name":                 "OpenAI: GPT-4o-mini",
			"context_length":       128000,
			"pricing":              map[string]any{"prompt": "0.00000015", "image": "0.007225"},
			"architecture":         map[string]any{"input_modalities": []any{"text", "image"}},
			"supported_parameters": []any{"tools", "response_format"},
		},
		{"id": "meta-llama/llama-3.3-70b-instruct:free", "pricing": map[string]any{"prompt": "0"}},
		{"id": "openrouter/auto", "pricing": map[string]any{"prompt": "-1"}},
		{"id": 5},
	}
	res, err := filter.Filter(recs, filter.Request{SortOrder: filter.SortPriceAsc})
	require.NoError(t, err)
	return res
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"":         FormatTable,
		"TABLE":    FormatTable,
		"md":       FormatMarkdown,
		"json":     FormatJSON,
		"yml":      FormatYAML,
		"markdown": FormatMarkdown,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestRows(t *testing.T) {
	rows := Rows(fixture(t).Models)
	require.Len(t, rows, 3)

	assert.Equal(t, "meta-llama/llama-3.3-70b-instruct:free", rows[0].ID)
	assert.True(t, rows[0].Free)
	require.NotNil(t, rows[0].PromptPer1M)
	assert.Equal(t, 0.0, *rows[0].PromptPer1M)
	assert.Empty(t, rows[0].Capabilities)

	mini := rows[1]
	require.NotNil(t, mini.PromptPer1M)
	assert.InDelta(t, 0.15, *mini.PromptPer1M, 1e-9)
	require.NotNil(t, mini.ImagePrice)
	assert.Equal(t, []string{"image_input", "structured_output", "tool_calling"}, mini.Capabilities)
	assert.Equal(t, "OpenAI: GPT-4o-mini", mini.Name)

	assert.Nil(t, rows[2].PromptPer1M, "unknown price serializes as null")
}

func TestWriteModelsJSONAndYAML(t *testing.T) {
	res := fixture(t)

	var buf bytes.Buffer
	require.NoError(t, WriteModels(&buf, res, FormatJSON))
	var fromJSON []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	require.Len(t, fromJSON, 3)
	assert.Nil(t, fromJSON[2]["prompt_per_1m"])

	buf.Reset()
	require.NoError(t, WriteModels(&buf, res, FormatYAML))
	var fromYAML []ModelRow
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, Rows(res.Models), fromYAML)
}

func TestWriteModelsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteModels(&buf, fixture(t), FormatTable))
	out := buf.String()

	assert.Contains(t, out, "MODEL")
	assert.Contains(t, out, "free")
	assert.Contains(t, out, "unknown")
	assert.Contains(t, out, "Total: 3 models (seen 4, kept 3, malformed 1")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[1], "meta-llama/"), "rows keep sorted order")
}

func TestWriteModelsMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteModels(&buf, fixture(t), FormatMarkdown))
	assert.Contains(t, buf.String(), "| `openai/gpt-4o-mini` | OpenAI: GPT-4o-mini | 0.15 | 128000 |")
}

func TestWriteDecisions(t *testing.T) {
	recs := []catalog.Record{
		{"id": "anthropic/claude-3.5-sonnet-20240620", "canonical_slug": "anthropic/claude-3.5-sonnet-20241022"},
		{"id": true},
	}
	decisions, err := filter.Explain(recs, filter.Request{})
	require.NoError(t, err)

	rows := DecisionRows(decisions)
	require.Len(t, rows, 2)
	assert.Equal(t, "variant", rows[0].Stage)
	assert.Equal(t, string(filter.ReasonStale), rows[0].Reason)
	assert.Equal(t, "malformed", rows[1].Stage)
	assert.Empty(t, rows[1].Reason)
	assert.Contains(t, rows[1].Error, "malformed record")

	var buf bytes.Buffer
	require.NoError(t, WriteDecisions(&buf, decisions, FormatTable))
	assert.Contains(t, buf.String(), string(filter.ReasonStale))

	buf.Reset()
	require.NoError(t, WriteDecisions(&buf, decisions, FormatMarkdown))
	assert.Contains(t, buf.String(), "| 1 | `` | malformed |")
}
