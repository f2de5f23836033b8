package petriflow

import (
	"errors"
	"fmt"
	"strings"
)

// Every rejected firing carries one of two categories. Policy rejections
// are routine outcomes the caller handles: fix the input data or satisfy
// the business rule and try again. Configuration errors mean the net itself
// is mis-built and should be loud in development.
var (
	ErrRejected      = errors.New("firing rejected")
	ErrMisconfigured = errors.New("net misconfigured")
)

// UnknownTransitionError reports firing a name not present in the graph.
type UnknownTransitionError struct {
	Transition string
}

func (e *UnknownTransitionError) Error() string {
	return fmt.Sprintf("unknown transition %q", e.Transition)
}

func (e *UnknownTransitionError) Unwrap() error { return ErrMisconfigured }

// WrongStateError reports a token whose location does not match the
// transition's source. Losers of a firing race for the same token see this
// error as well.
type WrongStateError struct {
	Transition string
	Want       string
	Got        string
}

func (e *WrongStateError) Error() string {
	return fmt.Sprintf("transition %q fires from %q, token is in %q", e.Transition, e.Want, e.Got)
}

func (e *WrongStateError) Unwrap() error { return ErrRejected }

// MissingFieldError reports required fields absent or empty on the token.
// All missing fields are named, not just the first.
type MissingFieldError struct {
	Transition string
	Fields     []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("transition %q requires fields: %s", e.Transition, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldError) Unwrap() error { return ErrRejected }

// GuardRejectedError reports a guard predicate returning false.
type GuardRejectedError struct {
	Transition string
}

func (e *GuardRejectedError) Error() string {
	return fmt.Sprintf("guard rejected transition %q", e.Transition)
}

func (e *GuardRejectedError) Unwrap() error { return ErrRejected }

// RuleFailedError reports ALL-policy rules that failed, with every failing
// rule and reason.
type RuleFailedError struct {
	Transition string
	Rules      []string
	Reasons    []string
}

func (e *RuleFailedError) Error() string {
	return fmt.Sprintf("transition %q rules failed: %s (%s)",
		e.Transition, strings.Join(e.Rules, ", "), strings.Join(e.Reasons, "; "))
}

func (e *RuleFailedError) Unwrap() error { return ErrRejected }

// NoRulePassedError reports an ANY-policy group in which no rule passed,
// with every attempted rule and reason.
type NoRulePassedError struct {
	Transition string
	Rules      []string
	Reasons    []string
}

func (e *NoRulePassedError) Error() string {
	return fmt.Sprintf("transition %q: none of the rules passed: %s (%s)",
		e.Transition, strings.Join(e.Rules, ", "), strings.Join(e.Reasons, "; "))
}

func (e *NoRulePassedError) Unwrap() error { return ErrRejected }

// NotEnabledError reports an input arc whose place holds fewer tokens than
// the arc's weight.
type NotEnabledError struct {
	Transition string
	Place      string
	Weight     int
	Count      int
}

func (e *NotEnabledError) Error() string {
	return fmt.Sprintf("transition %q needs %d tokens in %q, place holds %d",
		e.Transition, e.Weight, e.Place, e.Count)
}

func (e *NotEnabledError) Unwrap() error { return ErrRejected }

// DuplicateTokenError reports adding a token the net already tracks.
// Adding twice is an error, not a no-op.
type DuplicateTokenError struct {
	ID string
}

func (e *DuplicateTokenError) Error() string {
	return fmt.Sprintf("token %q is already tracked", e.ID)
}

func (e *DuplicateTokenError) Unwrap() error { return ErrMisconfigured }
