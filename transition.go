package petriflow

import "github.com/petriflow/petriflow/rules"

// Guard is a predicate over a token and the action context the caller
// populated before the firing attempt.
type Guard func(tok *Token, ctx rules.Context) bool

// RulePolicy names registered rules gating a transition. Every All rule
// must pass; when Any is non-empty, at least one of it must.
type RulePolicy struct {
	All []string
	Any []string
}

// Transition is a gate between a source and a target place: required
// fields, an optional guard, and a rule policy. It holds no state across
// firings; enabling is recomputed on every attempt.
type Transition struct {
	name     string
	from     string
	to       string
	required []string
	guard    Guard
	policy   RulePolicy
}

func NewTransition(name, from, to string) *Transition {
	return &Transition{
		name: name,
		from: from,
		to:   to,
	}
}

// WithRequiredFields lists attributes that must be present and non-empty
// before the transition may fire.
func (t *Transition) WithRequiredFields(fields ...string) *Transition {
	t.required = append(t.required, fields...)
	return t
}

func (t *Transition) WithGuard(g Guard) *Transition {
	t.guard = g
	return t
}

// WithAllRules adds rules that must all pass.
func (t *Transition) WithAllRules(names ...string) *Transition {
	t.policy.All = append(t.policy.All, names...)
	return t
}

// WithAnyRules adds rules of which at least one must pass.
func (t *Transition) WithAnyRules(names ...string) *Transition {
	t.policy.Any = append(t.policy.Any, names...)
	return t
}

func (t *Transition) Name() string { return t.name }

func (t *Transition) From() string { return t.from }

func (t *Transition) To() string { return t.to }

func (t *Transition) RequiredFields() []string {
	out := make([]string, len(t.required))
	copy(out, t.required)
	return out
}

func (t *Transition) Policy() RulePolicy {
	return RulePolicy{
		All: append([]string(nil), t.policy.All...),
		Any: append([]string(nil), t.policy.Any...),
	}
}

func (t *Transition) Kind() NodeKind { return TransitionNode }

func (t *Transition) String() string { return t.name }
