package policy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy is the hand-maintained vocabulary the filter engine consults when
// deciding whether a model is deprecated or a problematic variant.
type Policy struct {
	// SafeSuffixes are identifier suffixes that mark an intentional publishing
	// variant of a canonical model (e.g. ":free", ":thinking").
	SafeSuffixes []string `yaml:"safe_suffixes"`
	// RoutingPrefixes are identifier prefixes added by the upstream router
	// (e.g. "~" for floating aliases).
	RoutingPrefixes []string `yaml:"routing_prefixes"`
	// DeprecationKeywords are matched case-insensitively against descriptions.
	DeprecationKeywords []string `yaml:"deprecation_keywords"`
	// ExperimentalMarkers are identifier substrings that mark preview releases.
	ExperimentalMarkers []string `yaml:"experimental_markers"`
}

// Default returns the built-in policy.
func Default() *Policy {
	return &Policy{
		SafeSuffixes: []string{
			":free",
			":exacto",
			":thinking",
			":extended",
			":online",
			":nitro",
			":floor",
			":beta",
			"-thinking",
			"-exacto",
		},
		RoutingPrefixes: []string{"~"},
		DeprecationKeywords: []string{
			"deprecated",
			"removed",
			"discontinued",
			"being deprecated",
		},
		ExperimentalMarkers: []string{":beta", "-preview", "-exp", "-experimental"},
	}
}

// Load reads a policy from a YAML file. Lists present in the file replace the
// defaults; omitted lists keep them.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML policy document on top of the defaults.
func Parse(data []byte) (*Policy, error) {
	var overlay Policy
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}

	p := Default()
	if overlay.SafeSuffixes != nil {
		p.SafeSuffixes = overlay.SafeSuffixes
	}
	if overlay.RoutingPrefixes != nil {
		p.RoutingPrefixes = overlay.RoutingPrefixes
	}
	if overlay.DeprecationKeywords != nil {
		p.DeprecationKeywords = overlay.DeprecationKeywords
	}
	if overlay.ExperimentalMarkers != nil {
		p.ExperimentalMarkers = overlay.ExperimentalMarkers
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate rejects empty entries, which would otherwise match every identifier.
func (p *Policy) Validate() error {
	check := func(field string, values []string) error {
		for i, v := range values {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("policy %s[%d]: empty entry", field, i)
			}
		}
		return nil
	}
	if err := check("safe_suffixes", p.SafeSuffixes); err != nil {
		return err
	}
	if err := check("routing_prefixes", p.RoutingPrefixes); err != nil {
		return err
	}
	if err := check("deprecation_keywords", p.DeprecationKeywords); err != nil {
		return err
	}
	return check("experimental_markers", p.ExperimentalMarkers)
}

// StripMarkers removes every routing prefix and safe suffix from id and
// reports whether anything was removed. Suffixes are stripped repeatedly so
// stacked markers ("model:free:thinking") reduce to the base identifier.
func (p *Policy) StripMarkers(id string) (string, bool) {
	base := id
	stripped := false

	for _, prefix := range p.RoutingPrefixes {
		if strings.HasPrefix(base, prefix) && len(base) > len(prefix) {
			base = base[len(prefix):]
			stripped = true
		}
	}

	for {
		trimmed := false
		for _, suffix := range p.SafeSuffixes {
			if strings.HasSuffix(base, suffix) && len(base) > len(suffix) {
				base = base[:len(base)-len(suffix)]
				stripped = true
				trimmed = true
			}
		}
		if !trimmed {
			break
		}
	}

	return base, stripped
}

// MentionsDeprecation reports whether text contains a deprecation keyword.
func (p *Policy) MentionsDeprecation(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range p.DeprecationKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// LooksExperimental reports whether id carries an experimental marker.
func (p *Policy) LooksExperimental(id string) bool {
	lower := strings.ToLower(id)
	for _, m := range p.ExperimentalMarkers {
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
