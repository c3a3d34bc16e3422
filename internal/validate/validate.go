package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/everstacklabs/modelfilter/internal/catalog"
	"github.com/everstacklabs/modelfilter/internal/filter"
	"github.com/everstacklabs/modelfilter/internal/policy"
)

// ErrFailed is returned by Result.Err when any record-dropping error was found.
var ErrFailed = errors.New("catalog validation failed")

// Severity classifies validation issues.
type Severity int

const (
	SeverityError   Severity = iota // Record is dropped by the filter engine
	SeverityWarning                 // Record is kept but some data is degraded
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "WARN"
	}
	return "ERROR"
}

// Issue represents a single data-quality problem in a raw record.
type Issue struct {
	Severity Severity
	Index    int
	Model    string
	Field    string
	Message  string
}

func (i Issue) String() string {
	model := i.Model
	if model == "" {
		model = fmt.Sprintf("#%d", i.Index)
	}
	return fmt.Sprintf("[%s] %s: %s: %s", i.Severity, model, i.Field, i.Message)
}

// Result holds all validation issues.
type Result struct {
	Records int
	Issues  []Issue
}

// HasErrors returns true if there are any record-dropping errors.
func (r *Result) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err returns ErrFailed wrapped with the error count, or nil when the
// catalog has no record-dropping errors.
func (r *Result) Err() error {
	if n := len(r.Errors()); n > 0 {
		return fmt.Errorf("%w: %d errors in %d records", ErrFailed, n, r.Records)
	}
	return nil
}

// Errors returns only error-severity issues.
func (r *Result) Errors() []Issue {
	var errs []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}
	return errs
}

// Warnings returns only warning-severity issues.
func (r *Result) Warnings() []Issue {
	var warns []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			warns = append(warns, i)
		}
	}
	return warns
}

// Known modality values.
var knownModalities = map[string]bool{
	"text":  true,
	"image": true,
	"audio": true,
	"video": true,
	"file":  true,
}

// maxTokenPrice flags per-token prices above $1000 per million tokens,
// which usually means the upstream published a per-1K or per-1M figure.
var maxTokenPrice = decimal.New(1, -3)

var tokenPriceKinds = []string{
	filter.PriceKindPrompt,
	filter.PriceKindCompletion,
	filter.PriceKindInternalReasoning,
	filter.PriceKindInputCacheRead,
	filter.PriceKindInputCacheWrite,
}

// ValidateRecord checks one raw record. index is its position in the
// snapshot and is used when the record has no usable id.
func ValidateRecord(index int, rec catalog.Record, pol *policy.Policy) *Result {
	r := &Result{Records: 1}
	add := func(sev Severity, model, field, format string, args ...any) {
		r.Issues = append(r.Issues, Issue{sev, index, model, field, fmt.Sprintf(format, args...)})
	}

	d, err := filter.Normalize(rec, pol)
	if err != nil {
		add(SeverityError, rec.ID(), "id", "%v", err)
		return r
	}

	// Pricing
	rawPricing, _ := rec["pricing"].(map[string]any)
	if rawPricing == nil {
		add(SeverityWarning, d.ID, "pricing", "no pricing published; sorts as most expensive")
	}
	for _, kind := range sortedKeys(rawPricing) {
		if d.Price(kind).Known() {
			continue
		}
		v, ok := rawDecimal(rawPricing[kind])
		switch {
		case ok && v.IsNegative():
			add(SeverityWarning, d.ID, "pricing."+kind, "negative price %s treated as unknown (dynamic pricing)", v)
		case rawPricing[kind] == nil:
			add(SeverityWarning, d.ID, "pricing."+kind, "null price treated as unknown")
		default:
			add(SeverityWarning, d.ID, "pricing."+kind, "unparsable price %v treated as unknown", rawPricing[kind])
		}
	}
	if rawPricing != nil && !d.Price(filter.PriceKindPrompt).Known() && d.Price(filter.PriceKindCompletion).Known() {
		add(SeverityWarning, d.ID, "pricing.prompt", "completion price published without a prompt price")
	}
	for _, kind := range tokenPriceKinds {
		if p := d.Price(kind); p.Known() && p.Decimal().GreaterThan(maxTokenPrice) {
			add(SeverityWarning, d.ID, "pricing."+kind,
				"per-token price %s exceeds %s; check the unit", p, maxTokenPrice)
		}
	}

	// Context length
	if !d.HasContextLength() {
		if _, present := rec["context_length"]; present {
			add(SeverityWarning, d.ID, "context_length", "unusable value %v treated as unknown", rec["context_length"])
		} else {
			add(SeverityWarning, d.ID, "context_length", "not published; sorts last")
		}
	}

	// Modality taxonomy
	for _, mod := range d.Inputs() {
		if !knownModalities[mod] {
			add(SeverityWarning, d.ID, "architecture.input_modalities", "unknown modality %q", mod)
		}
	}
	for _, mod := range sortedKeys(d.OutputModalities) {
		if !knownModalities[mod] {
			add(SeverityWarning, d.ID, "architecture.output_modalities", "unknown modality %q", mod)
		}
	}

	// Canonical slug
	if v := filter.ClassifyVariant(d, pol); v.Reason == filter.ReasonUnrelated {
		add(SeverityWarning, d.ID, "canonical_slug", "%q: %s", d.CanonicalSlug, v.Reason)
	}

	return r
}

// ValidateSnapshot validates every record and flags duplicate ids.
func ValidateSnapshot(records []catalog.Record, pol *policy.Policy) *Result {
	r := &Result{}
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		rr := ValidateRecord(i, rec, pol)
		r.Records += rr.Records
		r.Issues = append(r.Issues, rr.Issues...)

		id := rec.ID()
		if id == "" {
			continue
		}
		if first, dup := seen[id]; dup {
			r.Issues = append(r.Issues, Issue{SeverityWarning, i, id, "id",
				fmt.Sprintf("duplicate of record #%d", first)})
			continue
		}
		seen[id] = i
	}
	return r
}

// FormatResult formats validation results for display.
func FormatResult(r *Result) string {
	if len(r.Issues) == 0 {
		return fmt.Sprintf("Validation passed: %d records, no issues found.", r.Records)
	}

	var b strings.Builder
	errors := r.Errors()
	warnings := r.Warnings()

	fmt.Fprintf(&b, "Checked %d records.\n", r.Records)
	if len(errors) > 0 {
		fmt.Fprintf(&b, "Errors (%d):\n", len(errors))
		for _, e := range errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}

	if len(warnings) > 0 {
		fmt.Fprintf(&b, "Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}

	return b.String()
}

func rawDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		return rawDecimal(n.String())
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	}
	return decimal.Zero, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
