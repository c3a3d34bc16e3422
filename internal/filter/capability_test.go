package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everstacklabs/modelfilter/internal/catalog"
)

func capabilityFixtures(t *testing.T) []*Descriptor {
	t.Helper()
	recs := []catalog.Record{
		{"id": "a/text-only"},
		{"id": "a/vision", "architecture": map[string]any{"input_modalities": []any{"text", "image"}}},
		{"id": "a/json", "supported_parameters": []any{"response_format"}},
		{"id": "a/structured", "supported_parameters": []any{"structured_outputs", "tools"}},
		{"id": "a/thinker", "supported_parameters": []any{"include_reasoning", "reasoning"}},
		{
			"id":                   "a/everything",
			"architecture":         map[string]any{"input_modalities": []any{"image"}},
			"supported_parameters": []any{"response_format", "reasoning", "tool_choice"},
		},
	}
	out := make([]*Descriptor, 0, len(recs))
	for _, r := range recs {
		d, err := Normalize(r, nil)
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func TestSupportsPredicates(t *testing.T) {
	ds := capabilityFixtures(t)
	byID := map[string]*Descriptor{}
	for _, d := range ds {
		byID[d.ID] = d
	}

	assert.False(t, Supports(byID["a/text-only"], ImageInput))
	assert.True(t, Supports(byID["a/vision"], ImageInput))
	assert.True(t, Supports(byID["a/json"], StructuredOutput))
	assert.True(t, Supports(byID["a/structured"], StructuredOutput))
	assert.True(t, Supports(byID["a/structured"], ToolCalling))
	assert.True(t, Supports(byID["a/thinker"], Reasoning))
	assert.False(t, Supports(byID["a/thinker"], StructuredOutput))

	assert.False(t, Supports(byID["a/everything"], ImageInput|Reasoning), "Supports takes one atomic flag")
}

func TestAdmitsNoneAdmitsEverything(t *testing.T) {
	for _, d := range capabilityFixtures(t) {
		assert.True(t, Admits(d, None), d.ID)
	}
}

func TestAdmitsIsConjunctionOverBits(t *testing.T) {
	flags := []Capability{None, ImageInput, StructuredOutput, Reasoning, ToolCalling, All()}
	for _, d := range capabilityFixtures(t) {
		for _, f1 := range flags {
			for _, f2 := range flags {
				want := Admits(d, f1) && Admits(d, f2)
				assert.Equal(t, want, Admits(d, f1|f2), "%s: %s | %s", d.ID, f1, f2)
			}
		}
	}
}

func TestAdmitsRequiresEveryBit(t *testing.T) {
	ds := capabilityFixtures(t)
	var admitted []string
	for _, d := range ds {
		if Admits(d, ImageInput|StructuredOutput) {
			admitted = append(admitted, d.ID)
		}
	}
	assert.Equal(t, []string{"a/everything"}, admitted)
}

func TestMultimodalIsImageInputAlias(t *testing.T) {
	assert.Equal(t, ImageInput, Multimodal)
	assert.Equal(t, ImageInput, Multimodal|ImageInput, "alias is never double counted")
	assert.Len(t, (Multimodal | ImageInput).Atoms(), 1)
}

func TestAllCoversEveryClassifier(t *testing.T) {
	all := All()
	for c := range classifiers {
		assert.True(t, all.Has(c))
	}
	assert.Len(t, all.Atoms(), len(classifiers))
	require.NoError(t, all.Validate())
}

func TestCapabilityValidate(t *testing.T) {
	require.NoError(t, None.Validate())
	require.NoError(t, (ImageInput | Reasoning).Validate())

	err := Capability(1 << 40).Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Contains(t, err.Error(), "capabilities")
}

func TestCapabilityString(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "image_input", Multimodal.String())
	assert.Equal(t, "image_input|structured_output", (StructuredOutput | ImageInput).String())
}

func TestParseCapabilities(t *testing.T) {
	tests := []struct {
		in   string
		want Capability
	}{
		{"", None},
		{"none", None},
		{"image_input", ImageInput},
		{"multimodal", ImageInput},
		{"IMAGE_INPUT, structured_output", ImageInput | StructuredOutput},
		{"reasoning|tool_calling", Reasoning | ToolCalling},
		{"all", All()},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCapabilities(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseCapabilities("image_input,telepathy")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Contains(t, err.Error(), "telepathy")
}
