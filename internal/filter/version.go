package filter

import (
	"slices"
	"strconv"
	"strings"
)

// familyQualifiers are stem tokens that mark a release channel or tuning of
// the same family rather than a different model.
var familyQualifiers = map[string]bool{
	"instruct": true,
	"it":       true,
	"preview":  true,
	"latest":   true,
	"exp":      true,
}

// lineage is the comparable structure of an identifier: its provider
// namespace, the non-numeric stem, numeric version segments and an optional
// date-snapshot component.
type lineage struct {
	namespace string
	stem      string
	version   []int
	date      string
}

// parseLineage splits "anthropic/claude-3.5-sonnet-20241022" into
// namespace "anthropic", stem "claude-sonnet", version [3 5], date "20241022".
func parseLineage(id string) lineage {
	var l lineage
	name := id
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		l.namespace = strings.ToLower(id[:idx])
		name = id[idx+1:]
	}
	name = strings.ToLower(name)
	// Drop any ":variant" tag left after policy stripping.
	if idx := strings.Index(name, ":"); idx >= 0 {
		name = name[:idx]
	}

	parts := strings.Split(name, "-")
	var stem []string
	for i := 0; i < len(parts); i++ {
		p := parts[i]

		// YYYY-MM-DD across three segments
		if i+2 < len(parts) && len(p) == 4 && len(parts[i+1]) == 2 && len(parts[i+2]) == 2 &&
			isAllDigits(p) && isAllDigits(parts[i+1]) && isAllDigits(parts[i+2]) {
			l.date = p + parts[i+1] + parts[i+2]
			i += 2
			continue
		}
		// MM-DD across two segments (preview snapshots like "preview-05-20")
		if i > 0 && i+1 < len(parts) && len(p) == 2 && len(parts[i+1]) == 2 &&
			isAllDigits(p) && isAllDigits(parts[i+1]) && l.date == "" {
			l.date = p + parts[i+1]
			i++
			continue
		}
		if i > 0 && isDateLike(p) {
			l.date = p
			continue
		}
		if isSizeToken(p) {
			stem = append(stem, p)
			continue
		}

		letters, digits := splitToken(p)
		if letters != "" {
			stem = append(stem, letters)
		}
		l.version = append(l.version, digits...)
	}
	l.stem = strings.Join(stem, "-")
	return l
}

// family returns the stem tokens that name the model family, without
// parameter sizes and release qualifiers.
func (l lineage) family() []string {
	if l.stem == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(l.stem, "-") {
		if isSizeToken(tok) || familyQualifiers[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// sameFamily reports whether a and b are publications of one model family:
// "claude-3.5-sonnet" and "claude-sonnet-4.5" are, "claude-3-haiku" and
// "claude-3-opus" are not.
func sameFamily(a, b lineage) bool {
	return slices.Equal(a.family(), b.family())
}

// splitToken separates a segment such as "4.5", "4o" or "r1" into its
// letters and its dotted numeric runs.
func splitToken(p string) (string, []int) {
	var letters strings.Builder
	var digits []int
	for _, seg := range strings.Split(p, ".") {
		num := ""
		for _, r := range seg {
			if r >= '0' && r <= '9' {
				num += string(r)
				continue
			}
			if num != "" {
				n, _ := strconv.Atoi(num)
				digits = append(digits, n)
				num = ""
			}
			letters.WriteRune(r)
		}
		if num != "" {
			n, _ := strconv.Atoi(num)
			digits = append(digits, n)
		}
	}
	return letters.String(), digits
}

func isDateLike(s string) bool {
	if len(s) != 4 && len(s) != 6 && len(s) != 8 {
		return false
	}
	return isAllDigits(s)
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// isSizeToken matches parameter-count and context-size segments such as
// "70b", "1.5b", "8x7b", "a3b", "128k" which are not release versions.
func isSizeToken(p string) bool {
	if len(p) < 2 {
		return false
	}
	unit := p[len(p)-1]
	if unit != 'b' && unit != 'k' && unit != 'm' && unit != 't' {
		return false
	}
	body := strings.TrimPrefix(p[:len(p)-1], "a")
	if body == "" {
		return false
	}
	for _, r := range body {
		if (r < '0' || r > '9') && r != '.' && r != 'x' {
			return false
		}
	}
	return body[0] >= '0' && body[0] <= '9'
}

func compareVersions(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}

// compareDates compares snapshot dates lexically. An undated a is a
// floating alias and counts as newer than any dated b. A dated a against an
// undated b reports equal rather than older, so a pinned snapshot of a
// floating canonical slug is kept. Dates of different widths are not
// comparable and report equal.
func compareDates(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return 0
	case len(a) != len(b):
		return 0
	case a < b:
		return -1
	default:
		return 1
	}
}

// withoutDate returns the identifier with date-snapshot segments removed,
// used to match "model" against "model-20250929".
func withoutDate(id string) string {
	prefix := ""
	name := id
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		prefix, name = id[:idx+1], id[idx+1:]
	}
	parts := strings.Split(name, "-")
	kept := make([]string, 0, len(parts))
	for i := 0; i < len(parts); i++ {
		p := parts[i]
		if i+2 < len(parts) && len(p) == 4 && len(parts[i+1]) == 2 && len(parts[i+2]) == 2 &&
			isAllDigits(p) && isAllDigits(parts[i+1]) && isAllDigits(parts[i+2]) {
			i += 2
			continue
		}
		if i > 0 && isDateLike(p) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.ToLower(prefix + strings.Join(kept, "-"))
}
