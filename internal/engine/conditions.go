package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/area-labs/area-core/internal/area"
)

// Passes reports whether an event payload satisfies every condition.
// AND semantics: all must pass; an empty list always passes. A condition
// naming a field absent from the event fails.
func Passes(conditions []area.Condition, event map[string]any) bool {
	for _, c := range conditions {
		if !passes(c, event) {
			return false
		}
	}
	return true
}

func passes(c area.Condition, event map[string]any) bool {
	raw, ok := event[c.Field]
	if !ok {
		return false
	}
	got := stringify(raw)

	switch c.Operator {
	case area.OpEquals:
		return got == c.Value
	case area.OpNotEquals:
		return got != c.Value
	case area.OpGreaterThan:
		return compare(got, c.Value) > 0
	case area.OpLessThan:
		return compare(got, c.Value) < 0
	case area.OpContains:
		return strings.Contains(got, c.Value)
	default:
		// Unknown operators are rejected at validation time; fail closed
		// if one reaches evaluation anyway.
		return false
	}
}

// compare orders two values numerically when both parse as floats,
// lexically otherwise. Condition values are stored as text, so "10" vs
// "9" must not fall into string ordering when both sides are numbers.
func compare(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// stringify renders an event value for comparison. JSON numbers arrive as
// float64; render integral values without a trailing ".0" so they match
// the text users type into conditions.
func stringify(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprint(v)
	}
}
