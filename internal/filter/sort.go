package filter

import (
	"sort"
	"strings"
)

// SortKey selects the ordering of Filter results.
type SortKey int

const (
	SortNone SortKey = iota
	SortPriceAsc
	SortPriceDesc
	SortNameAsc
	SortNameDesc
	SortContextAsc
	SortContextDesc
)

var sortKeyNames = []string{
	SortNone:        "none",
	SortPriceAsc:    "price_asc",
	SortPriceDesc:   "price_desc",
	SortNameAsc:     "name_asc",
	SortNameDesc:    "name_desc",
	SortContextAsc:  "context_asc",
	SortContextDesc: "context_desc",
}

func (k SortKey) String() string {
	if k < 0 || int(k) >= len(sortKeyNames) {
		return "unknown"
	}
	return sortKeyNames[k]
}

// Validate rejects keys outside the enumeration.
func (k SortKey) Validate() error {
	if k < 0 || int(k) >= len(sortKeyNames) {
		return invalidRequest("sort_order", "unknown sort key %d", int(k))
	}
	return nil
}

// ParseSortKey accepts names like "price_asc" or "price-asc"; "" is SortNone.
func ParseSortKey(s string) (SortKey, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if name == "" {
		return SortNone, nil
	}
	for i, n := range sortKeyNames {
		if n == name {
			return SortKey(i), nil
		}
	}
	return SortNone, invalidRequest("sort_order", "unknown sort key %q (want one of %s)",
		s, strings.Join(sortKeyNames, ", "))
}

// sortModels orders models in place. Sorting is stable so ties, and
// SortNone, keep upstream catalog order.
func sortModels(models []*Model, key SortKey) {
	var less func(a, b *Model) bool

	switch key {
	case SortPriceAsc:
		less = func(a, b *Model) bool { return a.PricingPer1MTokens() < b.PricingPer1MTokens() }
	case SortPriceDesc:
		less = func(a, b *Model) bool { return a.PricingPer1MTokens() > b.PricingPer1MTokens() }
	case SortNameAsc:
		less = func(a, b *Model) bool { return a.ID < b.ID }
	case SortNameDesc:
		less = func(a, b *Model) bool { return a.ID > b.ID }
	case SortContextAsc:
		less = contextLess(func(x, y int) bool { return x < y })
	case SortContextDesc:
		less = contextLess(func(x, y int) bool { return x > y })
	default:
		return
	}

	sort.SliceStable(models, func(i, j int) bool { return less(models[i], models[j]) })
}

// contextLess places unknown context lengths last in either direction.
func contextLess(cmp func(x, y int) bool) func(a, b *Model) bool {
	return func(a, b *Model) bool {
		ak, bk := a.HasContextLength(), b.HasContextLength()
		switch {
		case ak && bk:
			return cmp(a.ContextLength, b.ContextLength)
		case ak != bk:
			return ak
		default:
			return false
		}
	}
}
