package rules

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownRule reports a rule name that was never registered. It marks a
// mis-built workflow rather than a policy rejection.
var ErrUnknownRule = errors.New("unknown rule")

type UnknownRuleError struct {
	Rule string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("unknown rule %q", e.Rule)
}

func (e *UnknownRuleError) Unwrap() error { return ErrUnknownRule }

// Registry maps rule names to predicates. It is built once when a workflow
// is defined and read on every firing attempt; late registration is allowed
// and synchronized.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds or overwrites a named rule.
func (r *Registry) Register(name string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[name] = rule
}

// RegisterFunc adds a plain function under a name.
func (r *Registry) RegisterFunc(name string, f Func) {
	r.Register(name, f)
}

// Has reports whether a rule is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rules[name]
	return ok
}

// Names returns the registered rule names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	return names
}

// Evaluate runs a named rule. A panicking predicate fails its own
// evaluation instead of aborting the firing attempt; the panic message
// becomes the reason.
func (r *Registry) Evaluate(name string, s Subject, ctx Context) (res Result, err error) {
	r.mu.RLock()
	rule, ok := r.rules[name]
	r.mu.RUnlock()
	if !ok {
		return Result{}, &UnknownRuleError{Rule: name}
	}
	defer func() {
		if rec := recover(); rec != nil {
			res = Failf("rule %q panicked: %v", name, rec)
			err = nil
		}
	}()
	return rule.Evaluate(s, ctx), nil
}
