package filter

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/everstacklabs/modelfilter/internal/policy"
)

var oneMillion = decimal.NewFromInt(1_000_000)

// Model is a descriptor that survived a Filter call, with derived accessors.
type Model struct {
	*Descriptor
	policy *policy.Policy
}

func newModel(d *Descriptor, pol *policy.Policy) *Model {
	return &Model{Descriptor: d, policy: pol}
}

// PricingPer1MTokens returns the prompt price per million tokens: 0 for
// free models and +Inf when no price is published.
func (m *Model) PricingPer1MTokens() float64 {
	p := m.Price(PriceKindPrompt)
	if !p.Known() {
		return math.Inf(1)
	}
	if p.Decimal().IsZero() {
		return 0
	}
	return p.Decimal().Mul(oneMillion).InexactFloat64()
}

// IsFree reports whether a prompt price is published and exactly zero.
func (m *Model) IsFree() bool {
	p := m.Price(PriceKindPrompt)
	return p.Known() && p.Decimal().IsZero()
}

// HasPricing reports whether a prompt price is published, including zero.
func (m *Model) HasPricing() bool {
	return m.Price(PriceKindPrompt).Known()
}

// ImagePricing returns the per-image price when one is published and
// non-zero.
func (m *Model) ImagePricing() (float64, bool) {
	p := m.Price(PriceKindImage)
	if !p.Known() || !p.Decimal().IsPositive() {
		return 0, false
	}
	return p.Float64(), true
}

func (m *Model) SupportsImages() bool           { return Supports(m.Descriptor, ImageInput) }
func (m *Model) SupportsStructuredOutput() bool { return Supports(m.Descriptor, StructuredOutput) }
func (m *Model) SupportsReasoning() bool        { return Supports(m.Descriptor, Reasoning) }
func (m *Model) SupportsTools() bool            { return Supports(m.Descriptor, ToolCalling) }

// Capabilities returns every atomic capability the model satisfies.
func (m *Model) Capabilities() Capability {
	var c Capability
	for _, bit := range All().Atoms() {
		if Supports(m.Descriptor, bit) {
			c |= bit
		}
	}
	return c
}

func (m *Model) HasCanonicalSlugMismatch() bool { return HasCanonicalSlugMismatch(m.Descriptor) }

// IsProblematicVariant re-evaluates the variant classifier with the policy
// the model was filtered under.
func (m *Model) IsProblematicVariant() bool { return IsProblematicVariant(m.Descriptor, m.policy) }

func (m *Model) IsDeprecated() bool   { return m.Deprecated }
func (m *Model) IsExperimental() bool { return m.Experimental }

// SortName returns the display name, falling back to the id.
func (m *Model) SortName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}
