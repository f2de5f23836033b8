package rules_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/petriflow/petriflow/rules"
)

func TestRegistry_Evaluate(t *testing.T) {
	reg := rules.NewRegistry()
	reg.RegisterFunc("titled", func(s rules.Subject, _ rules.Context) rules.Result {
		if v, ok := s.AttrValue("title"); ok && v != "" {
			return rules.Pass()
		}
		return rules.Fail("no title")
	})

	res, err := reg.Evaluate("titled", &subject{attrs: map[string]interface{}{"title": "x"}}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.Valid {
		t.Errorf("result = %+v", res)
	}

	res, err = reg.Evaluate("titled", &subject{attrs: map[string]interface{}{}}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Valid || len(res.Reasons) == 0 {
		t.Errorf("failing rule must carry a reason, got %+v", res)
	}
}

func TestRegistry_Unknown(t *testing.T) {
	reg := rules.NewRegistry()
	_, err := reg.Evaluate("ghost", &subject{}, nil)
	var unknown *rules.UnknownRuleError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownRuleError", err)
	}
	if unknown.Rule != "ghost" {
		t.Errorf("rule = %q", unknown.Rule)
	}
	if !errors.Is(err, rules.ErrUnknownRule) {
		t.Errorf("should unwrap to ErrUnknownRule")
	}
	if reg.Has("ghost") {
		t.Errorf("Has should be false")
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	reg := rules.NewRegistry()
	reg.RegisterFunc("gate", func(rules.Subject, rules.Context) rules.Result { return rules.Fail("closed") })
	reg.RegisterFunc("gate", func(rules.Subject, rules.Context) rules.Result { return rules.Pass() })
	res, err := reg.Evaluate("gate", &subject{}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.Valid {
		t.Errorf("registration overwrites")
	}
}

// A panicking predicate fails its own evaluation instead of crashing the
// firing attempt.
func TestRegistry_PanicRecovered(t *testing.T) {
	reg := rules.NewRegistry()
	reg.RegisterFunc("bomb", func(rules.Subject, rules.Context) rules.Result {
		panic("boom")
	})
	res, err := reg.Evaluate("bomb", &subject{}, nil)
	if err != nil {
		t.Fatalf("a panic is not an evaluation error: %v", err)
	}
	if res.Valid {
		t.Errorf("a panicking rule fails")
	}
	if len(res.Reasons) == 0 || res.Reasons[0] == "" {
		t.Errorf("the panic message becomes the reason, got %v", res.Reasons)
	}
}

func TestRegistry_ConcurrentRegistration(t *testing.T) {
	reg := rules.NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.RegisterFunc("shared", func(rules.Subject, rules.Context) rules.Result { return rules.Pass() })
			_, _ = reg.Evaluate("shared", &subject{}, nil)
			_ = reg.Names()
		}()
	}
	wg.Wait()
	if !reg.Has("shared") {
		t.Errorf("rule should be registered")
	}
}
