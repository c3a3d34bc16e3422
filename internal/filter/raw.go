package filter

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Helpers for reading loosely typed upstream records. Values may arrive as
// JSON numbers, YAML ints, or numeric strings depending on the source.

func getString(raw map[string]any, key string) (string, bool) {
	if raw == nil {
		return "", false
	}
	if value, ok := raw[key]; ok {
		if str, ok := value.(string); ok {
			return strings.TrimSpace(str), true
		}
	}
	return "", false
}

func getBool(raw map[string]any, key string) bool {
	if raw == nil {
		return false
	}
	b, _ := raw[key].(bool)
	return b
}

func getMap(raw map[string]any, key string) map[string]any {
	if raw == nil {
		return nil
	}
	m, _ := raw[key].(map[string]any)
	return m
}

func extractStringSet(value any) map[string]struct{} {
	set := make(map[string]struct{})
	switch arr := value.(type) {
	case []any:
		for _, item := range arr {
			if str, ok := item.(string); ok {
				if s := strings.ToLower(strings.TrimSpace(str)); s != "" {
					set[s] = struct{}{}
				}
			}
		}
	case []string:
		for _, item := range arr {
			if s := strings.ToLower(strings.TrimSpace(item)); s != "" {
				set[s] = struct{}{}
			}
		}
	}
	return set
}

// decimalFromAny coerces a raw numeric value. Unparsable values report false.
func decimalFromAny(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		return decimalFromAny(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case uint64:
		if v > math.MaxInt64 {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(int64(v)), true
	case json.Number:
		return decimalFromAny(v.String())
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

func positiveIntFromAny(value any) (int, bool) {
	d, ok := decimalFromAny(value)
	if !ok || !d.IsPositive() || !d.IsInteger() {
		return 0, false
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, false
	}
	return int(d.IntPart()), true
}
