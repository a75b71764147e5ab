package condition

import (
	"math"
	"reflect"
	"strings"
)

// compare applies the rule's operator to the resolved value. It is total:
// type mismatches and invalid operations return false, and an unknown
// operator returns true after logging a warning.
func (ev *Evaluator) compare(actual any, op string, r Rule, keyExists bool) bool {
	expected := r.Value

	switch op {
	case "eq":
		return looseEqual(actual, expected)

	case "neq":
		return !looseEqual(actual, expected)

	case "gt":
		cmp, ok := order(actual, expected)
		return ok && cmp > 0

	case "gte":
		cmp, ok := order(actual, expected)
		return ok && cmp >= 0

	case "lt":
		cmp, ok := order(actual, expected)
		return ok && cmp < 0

	case "lte":
		cmp, ok := order(actual, expected)
		return ok && cmp <= 0

	case "in":
		return member(expected, actual)

	case "not_in":
		if isEmptyCollection(expected) {
			return true
		}
		return !member(expected, actual)

	case "contains":
		if actual == nil {
			return false
		}
		return member(actual, expected)

	case "exists":
		return truthy(actual)

	case "present":
		return keyExists

	case "not_exists":
		return !truthy(actual)

	case "not_empty":
		if actual == nil {
			return false
		}
		return truthy(actual)

	case "empty":
		if actual == nil {
			return true
		}
		return !truthy(actual)

	case "mod":
		a, aok := toFloat(actual)
		m, mok := toFloat(expected)
		if !aok || !mok || m == 0 {
			return false
		}
		want := 0.0
		if r.Result != nil {
			w, ok := toFloat(r.Result)
			if !ok {
				return false
			}
			want = w
		}
		return math.Mod(a, m) == want
	}

	// Unknown operator: lenient pass, but loud about it.
	ev.log().Warn("unknown condition operator", "op", op)
	return true
}

// looseEqual compares two values, normalizing numeric types through float64
// so that config-sourced ints match JSON-decoded floats.
func looseEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// order compares two values, returning -1/0/1 and whether they are
// comparable. Numbers compare numerically; strings lexicographically.
// A nil actual is never comparable.
func order(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// member reports whether needle is contained in container: element of a
// list, substring of a string, or key of a map.
func member(container, needle any) bool {
	switch c := container.(type) {
	case []any:
		for _, item := range c {
			if looseEqual(item, needle) {
				return true
			}
		}
		return false
	case []string:
		s, ok := needle.(string)
		if !ok {
			return false
		}
		for _, item := range c {
			if item == s {
				return true
			}
		}
		return false
	case string:
		s, ok := needle.(string)
		if !ok {
			return false
		}
		return strings.Contains(c, s)
	case map[string]any:
		s, ok := needle.(string)
		if !ok {
			return false
		}
		_, present := c[s]
		return present
	}
	return false
}

// truthy mirrors dynamic-language truthiness over JSON-representable values:
// nil, false, zero numbers, empty strings, and empty collections are falsy.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// isEmptyCollection reports whether v is nil or an empty list/string/map.
func isEmptyCollection(v any) bool {
	if v == nil {
		return true
	}
	return !truthy(v)
}

// toFloat coerces any Go numeric type to float64.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	}
	return 0, false
}
