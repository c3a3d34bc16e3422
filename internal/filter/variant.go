package filter

import (
	"strings"

	"github.com/everstacklabs/modelfilter/internal/policy"
)

// Reason explains a variant verdict.
type Reason string

const (
	ReasonNoCanonical  Reason = "no canonical slug"
	ReasonCanonical    Reason = "id matches canonical slug"
	ReasonSafeMarker   Reason = "recognized publishing variant"
	ReasonNewerOrEqual Reason = "same or newer release than canonical slug"
	ReasonStale        Reason = "older release than canonical slug"
	ReasonUnrelated    Reason = "unrelated to canonical slug"
)

// Verdict is the outcome of the variant classifier for one descriptor.
// Verdicts are derived per call and never cached.
type Verdict struct {
	Problematic bool
	Reason      Reason
}

// IsProblematicVariant reports whether d is a stale or duplicate
// publication of its canonical model.
func IsProblematicVariant(d *Descriptor, pol *policy.Policy) bool {
	return ClassifyVariant(d, pol).Problematic
}

// ClassifyVariant evaluates the variant rules in order; first match wins:
//
//  1. no canonical slug, or id equals it: not problematic
//  2. a safe marker is present and the base id matches the slug: not problematic
//  3. same namespace and model family, and the id's version/date is newer
//     or equal: not problematic
//  4. anything else: problematic
func ClassifyVariant(d *Descriptor, pol *policy.Policy) Verdict {
	if pol == nil {
		pol = policy.Default()
	}

	slug := d.CanonicalSlug
	if slug == "" {
		return Verdict{Reason: ReasonNoCanonical}
	}
	if d.ID == slug {
		return Verdict{Reason: ReasonCanonical}
	}

	base, marked := pol.StripMarkers(d.ID)
	slugBase, _ := pol.StripMarkers(slug)
	if marked && matchesCanonical(base, slugBase) {
		return Verdict{Reason: ReasonSafeMarker}
	}

	id, canon := parseLineage(base), parseLineage(slugBase)
	if id.namespace != canon.namespace || !sameFamily(id, canon) {
		return Verdict{Problematic: true, Reason: ReasonUnrelated}
	}

	switch {
	case len(id.version) > 0 && len(canon.version) > 0:
		if c := compareVersions(id.version, canon.version); c != 0 {
			if c > 0 {
				return Verdict{Reason: ReasonNewerOrEqual}
			}
			return Verdict{Problematic: true, Reason: ReasonStale}
		}
	case len(id.version) != len(canon.version):
		return Verdict{Problematic: true, Reason: ReasonUnrelated}
	}

	if compareDates(id.date, canon.date) >= 0 {
		return Verdict{Reason: ReasonNewerOrEqual}
	}
	return Verdict{Problematic: true, Reason: ReasonStale}
}

// HasCanonicalSlugMismatch is the raw comparison: a canonical slug is
// published and differs from the id. Every problematic variant has a
// mismatch, but a mismatch may be an allowed variant.
func HasCanonicalSlugMismatch(d *Descriptor) bool {
	return d.CanonicalSlug != "" && d.CanonicalSlug != d.ID
}

// matchesCanonical reports whether a marker-stripped id names the canonical
// model. An undated base also matches a dated snapshot of itself; a dated
// base must match exactly so stale snapshots cannot hide behind a marker.
func matchesCanonical(base, slug string) bool {
	if strings.EqualFold(base, slug) {
		return true
	}
	if parseLineage(base).date != "" {
		return false
	}
	return withoutDate(base) == withoutDate(slug)
}
