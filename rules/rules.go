// Package rules is a registry of named predicates evaluated against workflow
// tokens. Rules compose through ALL-of and ANY-of policies and report every
// reason they reject, not just the first, so operators can debug a rejected
// firing from its error alone.
package rules

import "fmt"

// Context carries action results the caller gathered before attempting a
// firing. Long-running work (service calls, model invocations) happens
// outside the engine; rules only read the stashed outcome.
type Context map[string]interface{}

// Subject is the view of a token that rules evaluate against.
type Subject interface {
	// State is the name of the place currently holding the subject.
	State() string
	// AttrValue looks up a single attribute as a plain value.
	AttrValue(name string) (interface{}, bool)
	// AttrValues returns the attribute bag as plain values.
	AttrValues() map[string]interface{}
}

// Result is the outcome of evaluating one or more rules.
type Result struct {
	Valid   bool
	Reasons []string
}

func Pass() Result {
	return Result{Valid: true}
}

func Fail(reasons ...string) Result {
	return Result{Reasons: reasons}
}

func Failf(format string, args ...interface{}) Result {
	return Result{Reasons: []string{fmt.Sprintf(format, args...)}}
}

// Rule is a predicate over a token and an optional action context.
type Rule interface {
	Evaluate(s Subject, ctx Context) Result
}

// Func adapts a plain function to a Rule.
type Func func(s Subject, ctx Context) Result

func (f Func) Evaluate(s Subject, ctx Context) Result {
	return f(s, ctx)
}

// All passes when every result passes. Zero results pass vacuously. Reasons
// from every failing result are kept; evaluation never short-circuits, so
// callers see the full diagnosis.
func All(results ...Result) Result {
	out := Result{Valid: true}
	for _, r := range results {
		if r.Valid {
			continue
		}
		out.Valid = false
		out.Reasons = append(out.Reasons, r.Reasons...)
	}
	return out
}

// Any passes when at least one result passes. Zero results fail: at least
// one of zero cannot hold.
func Any(results ...Result) Result {
	out := Result{}
	for _, r := range results {
		if r.Valid {
			out.Valid = true
			continue
		}
		out.Reasons = append(out.Reasons, r.Reasons...)
	}
	if len(results) == 0 {
		out.Reasons = append(out.Reasons, "no rules to evaluate")
	}
	return out
}

// None passes when every result fails.
func None(results ...Result) Result {
	out := Result{Valid: true}
	for _, r := range results {
		if r.Valid {
			out.Valid = false
			out.Reasons = append(out.Reasons, "rule passed but must not")
		}
	}
	return out
}

// AllOf combines rules into one that requires every member to pass.
func AllOf(rr ...Rule) Rule {
	return Func(func(s Subject, ctx Context) Result {
		results := make([]Result, len(rr))
		for i, r := range rr {
			results[i] = r.Evaluate(s, ctx)
		}
		return All(results...)
	})
}

// AnyOf combines rules into one that requires at least one member to pass.
func AnyOf(rr ...Rule) Rule {
	return Func(func(s Subject, ctx Context) Result {
		results := make([]Result, len(rr))
		for i, r := range rr {
			results[i] = r.Evaluate(s, ctx)
		}
		return Any(results...)
	})
}
