package rules_test

import (
	"testing"

	"github.com/petriflow/petriflow/rules"
)

// subject is a minimal rules.Subject for tests.
type subject struct {
	state string
	attrs map[string]interface{}
}

func (s *subject) State() string { return s.state }

func (s *subject) AttrValue(name string) (interface{}, bool) {
	v, ok := s.attrs[name]
	return v, ok
}

func (s *subject) AttrValues() map[string]interface{} {
	out := make(map[string]interface{}, len(s.attrs))
	for k, v := range s.attrs {
		out[k] = v
	}
	return out
}

func pass() rules.Result { return rules.Pass() }

func fail(reason string) rules.Result { return rules.Fail(reason) }

func TestAll(t *testing.T) {
	if r := rules.All(); !r.Valid {
		t.Errorf("all of zero results passes vacuously")
	}
	if r := rules.All(pass(), pass()); !r.Valid {
		t.Errorf("all passing should pass")
	}
	r := rules.All(fail("first"), pass(), fail("second"))
	if r.Valid {
		t.Errorf("any failure fails the conjunction")
	}
	if len(r.Reasons) != 2 {
		t.Errorf("reasons = %v, want both failures reported", r.Reasons)
	}
}

func TestAny(t *testing.T) {
	if r := rules.Any(); r.Valid {
		t.Errorf("any of zero results fails: at least one of zero cannot hold")
	}
	if r := rules.Any(fail("a"), pass()); !r.Valid {
		t.Errorf("one pass is enough")
	}
	r := rules.Any(fail("a"), fail("b"))
	if r.Valid {
		t.Errorf("no passes should fail")
	}
	if len(r.Reasons) != 2 {
		t.Errorf("reasons = %v, want every attempt reported", r.Reasons)
	}
}

func TestNone(t *testing.T) {
	if r := rules.None(); !r.Valid {
		t.Errorf("none of zero results passes")
	}
	if r := rules.None(fail("a")); !r.Valid {
		t.Errorf("all failing passes None")
	}
	if r := rules.None(pass()); r.Valid {
		t.Errorf("a passing rule fails None")
	}
}

func TestAllOf_NoShortCircuit(t *testing.T) {
	evaluated := 0
	counting := rules.Func(func(rules.Subject, rules.Context) rules.Result {
		evaluated++
		return rules.Fail("count me")
	})
	r := rules.AllOf(counting, counting, counting).Evaluate(&subject{}, nil)
	if r.Valid {
		t.Errorf("should fail")
	}
	if evaluated != 3 {
		t.Errorf("evaluated = %d, want all members even after a failure", evaluated)
	}
	if len(r.Reasons) != 3 {
		t.Errorf("reasons = %v", r.Reasons)
	}
}

func TestAnyOf(t *testing.T) {
	yes := rules.Func(func(rules.Subject, rules.Context) rules.Result { return rules.Pass() })
	no := rules.Func(func(rules.Subject, rules.Context) rules.Result { return rules.Fail("no") })
	if r := rules.AnyOf(no, yes).Evaluate(&subject{}, nil); !r.Valid {
		t.Errorf("AnyOf with a passing member should pass")
	}
	if r := rules.AnyOf(no, no).Evaluate(&subject{}, nil); r.Valid {
		t.Errorf("AnyOf with no passing member should fail")
	}
}
