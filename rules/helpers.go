package rules

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// Building blocks for common checks over token attributes. Workflow authors
// compose these with AllOf/AnyOf or register them individually.

// Present requires the field to exist with a non-empty value.
func Present(field string) Rule {
	return Func(func(s Subject, _ Context) Result {
		v, ok := s.AttrValue(field)
		if !ok || empty(v) {
			return Failf("field %q is missing", field)
		}
		return Pass()
	})
}

// MinLength requires a string field of at least n characters.
func MinLength(field string, n int) Rule {
	return Func(func(s Subject, _ Context) Result {
		str, res := stringField(s, field)
		if !res.Valid {
			return res
		}
		if len(str) < n {
			return Failf("field %q is shorter than %d characters", field, n)
		}
		return Pass()
	})
}

// MaxLength requires a string field of at most n characters.
func MaxLength(field string, n int) Rule {
	return Func(func(s Subject, _ Context) Result {
		str, res := stringField(s, field)
		if !res.Valid {
			return res
		}
		if len(str) > n {
			return Failf("field %q is longer than %d characters", field, n)
		}
		return Pass()
	})
}

// Matches requires a string field to match the pattern. The pattern is
// compiled at build time and panics if invalid.
func Matches(field string, pattern string) Rule {
	re := regexp.MustCompile(pattern)
	return Func(func(s Subject, _ Context) Result {
		str, res := stringField(s, field)
		if !res.Valid {
			return res
		}
		if !re.MatchString(str) {
			return Failf("field %q does not match %q", field, pattern)
		}
		return Pass()
	})
}

// OneOf requires a string field to be one of the allowed values.
func OneOf(field string, allowed ...string) Rule {
	return Func(func(s Subject, _ Context) Result {
		str, res := stringField(s, field)
		if !res.Valid {
			return res
		}
		for _, a := range allowed {
			if str == a {
				return Pass()
			}
		}
		return Failf("field %q is %q, want one of %v", field, str, allowed)
	})
}

// Distinct requires both fields to be present and carry different values.
func Distinct(a, b string) Rule {
	return Func(func(s Subject, _ Context) Result {
		va, okA := s.AttrValue(a)
		vb, okB := s.AttrValue(b)
		if !okA || empty(va) {
			return Failf("field %q is missing", a)
		}
		if !okB || empty(vb) {
			return Failf("field %q is missing", b)
		}
		if va == vb {
			return Failf("fields %q and %q must differ, both are %v", a, b, va)
		}
		return Pass()
	})
}

// GreaterThan requires a numeric field strictly above bound.
func GreaterThan(field string, bound float64) Rule {
	return compare(field, bound, "greater than", func(c int) bool { return c > 0 })
}

// AtLeast requires a numeric field at or above bound.
func AtLeast(field string, bound float64) Rule {
	return compare(field, bound, "at least", func(c int) bool { return c >= 0 })
}

// LessThan requires a numeric field strictly below bound.
func LessThan(field string, bound float64) Rule {
	return compare(field, bound, "less than", func(c int) bool { return c < 0 })
}

// AtMost requires a numeric field at or below bound.
func AtMost(field string, bound float64) Rule {
	return compare(field, bound, "at most", func(c int) bool { return c <= 0 })
}

// Equals requires a numeric field equal to bound.
func Equals(field string, bound float64) Rule {
	return compare(field, bound, "equal to", func(c int) bool { return c == 0 })
}

func compare(field string, bound float64, word string, ok func(int) bool) Rule {
	b := decimal.NewFromFloat(bound)
	return Func(func(s Subject, _ Context) Result {
		v, found := s.AttrValue(field)
		if !found {
			return Failf("field %q is missing", field)
		}
		d, numeric := toDecimal(v)
		if !numeric {
			return Failf("field %q is not numeric: %v", field, v)
		}
		if !ok(d.Cmp(b)) {
			return Failf("field %q is %s, want %s %s", field, d, word, b)
		}
		return Pass()
	})
}

// toDecimal converts the numeric forms an attribute bag can hold. Decimal
// comparison keeps int64 and float64 fields directly comparable without
// float drift on large values.
func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	case decimal.Decimal:
		return n, true
	}
	return decimal.Decimal{}, false
}

func stringField(s Subject, field string) (string, Result) {
	v, ok := s.AttrValue(field)
	if !ok {
		return "", Failf("field %q is missing", field)
	}
	str, isString := v.(string)
	if !isString {
		return "", Failf("field %q is %T, want string", field, v)
	}
	return str, Pass()
}

func empty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	}
	return false
}
