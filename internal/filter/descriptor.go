package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/everstacklabs/modelfilter/internal/catalog"
	"github.com/everstacklabs/modelfilter/internal/policy"
)

// Price kinds published by the upstream catalog. Token kinds are
// denominated per token; image, request and web_search are per unit.
const (
	PriceKindPrompt            = "prompt"
	PriceKindCompletion        = "completion"
	PriceKindRequest           = "request"
	PriceKindImage             = "image"
	PriceKindWebSearch         = "web_search"
	PriceKindInternalReasoning = "internal_reasoning"
	PriceKindInputCacheRead    = "input_cache_read"
	PriceKindInputCacheWrite   = "input_cache_write"
)

// Price is a normalized price: either a known non-negative amount or unknown.
// The zero value is unknown.
type Price struct {
	value decimal.Decimal
	known bool
}

// KnownPrice returns a known price. Negative amounts are unknown.
func KnownPrice(v decimal.Decimal) Price {
	if v.IsNegative() {
		return Price{}
	}
	return Price{value: v, known: true}
}

// Known reports whether a price was published and parsable.
func (p Price) Known() bool { return p.known }

// Decimal returns the exact amount; zero when unknown.
func (p Price) Decimal() decimal.Decimal { return p.value }

// Float64 returns the amount; zero when unknown.
func (p Price) Float64() float64 { return p.value.InexactFloat64() }

func (p Price) String() string {
	if !p.known {
		return "unknown"
	}
	return p.value.String()
}

// Descriptor is the normalized, read-only view of one raw record.
type Descriptor struct {
	ID            string
	Name          string
	Description   string
	CanonicalSlug string
	// ContextLength is 0 when the upstream did not publish a usable value.
	ContextLength       int
	Pricing             map[string]Price
	InputModalities     map[string]struct{}
	OutputModalities    map[string]struct{}
	SupportedParameters map[string]struct{}
	Deprecated          bool
	Experimental        bool
}

// Price returns the normalized price for kind (unknown when absent).
func (d *Descriptor) Price(kind string) Price {
	return d.Pricing[kind]
}

// HasContextLength reports whether a context length was published.
func (d *Descriptor) HasContextLength() bool { return d.ContextLength > 0 }

// HasInputModality reports whether the model accepts the given input modality.
func (d *Descriptor) HasInputModality(m string) bool {
	_, ok := d.InputModalities[m]
	return ok
}

// HasParameter reports whether any of the given parameters is supported.
func (d *Descriptor) HasParameter(names ...string) bool {
	for _, n := range names {
		if _, ok := d.SupportedParameters[n]; ok {
			return true
		}
	}
	return false
}

// Parameters returns supported parameters in sorted order.
func (d *Descriptor) Parameters() []string { return sortedKeys(d.SupportedParameters) }

// Inputs returns input modalities in sorted order.
func (d *Descriptor) Inputs() []string { return sortedKeys(d.InputModalities) }

// Normalize builds a Descriptor from a raw record. Missing optional fields
// get safe defaults; the only failure is a record with no usable id.
func Normalize(rec catalog.Record, pol *policy.Policy) (*Descriptor, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: not a mapping", ErrMalformedRecord)
	}
	if _, present := rec["id"]; present {
		if _, ok := rec["id"].(string); !ok {
			return nil, fmt.Errorf("%w: id is %T, want string", ErrMalformedRecord, rec["id"])
		}
	}
	id := rec.ID()
	if id == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	if pol == nil {
		pol = policy.Default()
	}

	d := &Descriptor{
		ID:                  id,
		Pricing:             normalizePricing(getMap(rec, "pricing")),
		SupportedParameters: extractStringSet(rec["supported_parameters"]),
	}

	d.Name, _ = getString(rec, "name")
	if d.Name == "" {
		d.Name = id
	}
	d.Description, _ = getString(rec, "description")
	d.CanonicalSlug, _ = getString(rec, "canonical_slug")

	if n, ok := positiveIntFromAny(rec["context_length"]); ok {
		d.ContextLength = n
	} else if n, ok := positiveIntFromAny(getMap(rec, "top_provider")["context_length"]); ok {
		d.ContextLength = n
	}

	d.InputModalities, d.OutputModalities = normalizeModalities(getMap(rec, "architecture"))

	status, _ := getString(rec, "status")
	d.Deprecated = getBool(rec, "deprecated") ||
		strings.EqualFold(status, "deprecated") ||
		pol.MentionsDeprecation(d.Description)
	d.Experimental = getBool(rec, "experimental") || pol.LooksExperimental(id)

	return d, nil
}

func normalizePricing(raw map[string]any) map[string]Price {
	pricing := make(map[string]Price, len(raw))
	for kind, value := range raw {
		v, ok := decimalFromAny(value)
		if !ok {
			pricing[kind] = Price{}
			continue
		}
		pricing[kind] = KnownPrice(v)
	}
	return pricing
}

// normalizeModalities prefers the explicit modality lists and falls back to
// the compact "text+image->text" form.
func normalizeModalities(arch map[string]any) (map[string]struct{}, map[string]struct{}) {
	in := extractStringSet(arch["input_modalities"])
	out := extractStringSet(arch["output_modalities"])
	if len(in) > 0 || len(out) > 0 {
		return in, out
	}

	modality, _ := getString(arch, "modality")
	if modality == "" {
		return in, out
	}
	inPart, outPart, found := strings.Cut(strings.ToLower(modality), "->")
	for _, m := range strings.Split(inPart, "+") {
		if m = strings.TrimSpace(m); m != "" {
			in[m] = struct{}{}
		}
	}
	if found {
		for _, m := range strings.Split(outPart, "+") {
			if m = strings.TrimSpace(m); m != "" {
				out[m] = struct{}{}
			}
		}
	}
	return in, out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
