package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/modelfilter/internal/filter"
)

// Format selects how results are written.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat accepts table, markdown (md), json and yaml (yml).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, markdown, json or yaml)", s)
}

// ModelRow is the serialized view of one filtered model. Prices are per
// million tokens; nil means the upstream published no usable price.
type ModelRow struct {
	ID                 string   `json:"id" yaml:"id"`
	Name               string   `json:"name" yaml:"name"`
	CanonicalSlug      string   `json:"canonical_slug,omitempty" yaml:"canonical_slug,omitempty"`
	PromptPer1M        *float64 `json:"prompt_per_1m" yaml:"prompt_per_1m"`
	Free               bool     `json:"free" yaml:"free"`
	ImagePrice         *float64 `json:"image_price,omitempty" yaml:"image_price,omitempty"`
	ContextLength      int      `json:"context_length,omitempty" yaml:"context_length,omitempty"`
	Capabilities       []string `json:"capabilities" yaml:"capabilities"`
	Deprecated         bool     `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Experimental       bool     `json:"experimental,omitempty" yaml:"experimental,omitempty"`
	ProblematicVariant bool     `json:"problematic_variant,omitempty" yaml:"problematic_variant,omitempty"`
	SlugMismatch       bool     `json:"canonical_slug_mismatch,omitempty" yaml:"canonical_slug_mismatch,omitempty"`
}

// DecisionRow is the serialized view of one Explain decision.
type DecisionRow struct {
	Index  int    `json:"index" yaml:"index"`
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Stage  string `json:"stage" yaml:"stage"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Rows converts filter output into serializable rows, keeping order.
func Rows(models []*filter.Model) []ModelRow {
	rows := make([]ModelRow, 0, len(models))
	for _, m := range models {
		row := ModelRow{
			ID:                 m.ID,
			Name:               m.SortName(),
			CanonicalSlug:      m.CanonicalSlug,
			Free:               m.IsFree(),
			ContextLength:      m.ContextLength,
			Capabilities:       capabilityList(m.Capabilities()),
			Deprecated:         m.IsDeprecated(),
			Experimental:       m.IsExperimental(),
			ProblematicVariant: m.IsProblematicVariant(),
			SlugMismatch:       m.HasCanonicalSlugMismatch(),
		}
		if m.HasPricing() {
			p := m.PricingPer1MTokens()
			row.PromptPer1M = &p
		}
		if img, ok := m.ImagePricing(); ok {
			row.ImagePrice = &img
		}
		rows = append(rows, row)
	}
	return rows
}

// DecisionRows converts Explain output into serializable rows.
func DecisionRows(decisions []filter.Decision) []DecisionRow {
	rows := make([]DecisionRow, 0, len(decisions))
	for _, d := range decisions {
		row := DecisionRow{Index: d.Index, ID: d.ID, Stage: string(d.Stage)}
		if d.Descriptor != nil {
			row.Reason = string(d.Variant.Reason)
		}
		if d.Err != nil {
			row.Error = d.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteModels renders a filter result.
func WriteModels(w io.Writer, res *filter.Result, f Format) error {
	rows := Rows(res.Models)
	switch f {
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatYAML:
		return writeYAML(w, rows)
	case FormatMarkdown:
		_, err := io.WriteString(w, markdownModels(rows))
		return err
	default:
		if _, err := io.WriteString(w, tableModels(rows)); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "\nTotal: %d models (%s)\n", len(rows), Summary(res.Stats))
		return err
	}
}

// WriteDecisions renders an Explain trace.
func WriteDecisions(w io.Writer, decisions []filter.Decision, f Format) error {
	rows := DecisionRows(decisions)
	switch f {
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatYAML:
		return writeYAML(w, rows)
	case FormatMarkdown:
		var b strings.Builder
		b.WriteString("| # | Model | Stage | Reason |\n")
		b.WriteString("|---|-------|-------|--------|\n")
		for _, r := range rows {
			fmt.Fprintf(&b, "| %d | `%s` | %s | %s |\n", r.Index, r.ID, r.Stage, explainReason(r))
		}
		_, err := io.WriteString(w, b.String())
		return err
	default:
		var b strings.Builder
		for _, r := range rows {
			fmt.Fprintf(&b, "%-5d %-50s %-11s %s\n", r.Index, r.ID, r.Stage, explainReason(r))
		}
		_, err := io.WriteString(w, b.String())
		return err
	}
}

// Summary renders per-stage counts on one line.
func Summary(s filter.Stats) string {
	return fmt.Sprintf("seen %d, kept %d, malformed %d, capability %d, deprecated %d, variant %d",
		s.Seen, s.Kept, s.Malformed, s.Capability, s.Deprecated, s.Variant)
}

func tableModels(rows []ModelRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-50s %12s %10s  %s\n", "MODEL", "$/1M IN", "CONTEXT", "CAPABILITIES")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-50s %12s %10s  %s\n", r.ID, formatPrice(r), formatContext(r.ContextLength), strings.Join(r.Capabilities, ","))
	}
	return b.String()
}

func markdownModels(rows []ModelRow) string {
	var b strings.Builder
	b.WriteString("| Model | Name | $/1M input | Context | Capabilities |\n")
	b.WriteString("|-------|------|-----------|---------|--------------|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s |\n",
			r.ID, r.Name, formatPrice(r), formatContext(r.ContextLength), strings.Join(r.Capabilities, ", "))
	}
	return b.String()
}

func explainReason(r DecisionRow) string {
	if r.Error != "" {
		return r.Error
	}
	return r.Reason
}

func formatPrice(r ModelRow) string {
	switch {
	case r.PromptPer1M == nil:
		return "unknown"
	case r.Free:
		return "free"
	default:
		return fmt.Sprintf("%.4g", *r.PromptPer1M)
	}
}

func formatContext(n int) string {
	if n <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

func capabilityList(c filter.Capability) []string {
	if c == filter.None {
		return []string{}
	}
	return strings.Split(c.String(), "|")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
