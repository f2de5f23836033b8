// Package petriflow models business workflows as Petri nets: places hold
// tokens, transitions move them, and firing is gated by required fields, a
// guard predicate, and a composable rule policy. Validation runs first and
// mutation last, so a rejected firing never leaves the net half-moved.
package petriflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/petriflow/petriflow/rules"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Net is a workflow expressed as a Petri net. Construction is single-writer
// during setup; once built, firings for different tokens may run
// concurrently. Concurrent firings for the same token are serialized by the
// source place: only the caller that finds the token there wins.
type Net struct {
	name   string
	logger *zap.Logger
	rules  *rules.Registry

	mu          sync.RWMutex
	places      map[string]*Place
	pOrder      []string
	transitions map[string]*Transition
	tOrder      []string
	arcs        []*Arc
	arcIndex    map[string]map[string]*Arc
	tokens      map[string]*Token
	handlers    map[string][]Handler
}

type Option func(*Net)

// WithLogger attaches a logger. Firings, rejections, and handler panics are
// logged through it; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(n *Net) { n.logger = l }
}

// WithRegistry shares a prebuilt rule registry instead of the net's own.
func WithRegistry(r *rules.Registry) Option {
	return func(n *Net) { n.rules = r }
}

func New(name string, opts ...Option) *Net {
	n := &Net{
		name:        name,
		logger:      zap.NewNop(),
		rules:       rules.NewRegistry(),
		places:      make(map[string]*Place),
		transitions: make(map[string]*Transition),
		arcIndex:    make(map[string]map[string]*Arc),
		tokens:      make(map[string]*Token),
		handlers:    make(map[string][]Handler),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Net) Name() string { return n.name }

// Rules exposes the registry so callers can register rules directly.
func (n *Net) Rules() *rules.Registry { return n.rules }

// RegisterRule names a rule for use in transition policies.
func (n *Net) RegisterRule(name string, r rules.Rule) {
	n.rules.Register(name, r)
}

// AddPlace declares a place. The first declared place receives tokens that
// have no explicit starting state. Redeclaring a name returns the existing
// place.
func (n *Net) AddPlace(name string, bound ...int) *Place {
	if p, ok := n.places[name]; ok {
		return p
	}
	p := NewPlace(name, bound...)
	n.places[name] = p
	n.pOrder = append(n.pOrder, name)
	return p
}

// AddTransition wires a transition and its default weight-1 arcs into the
// graph. Both endpoints must be declared places.
func (n *Net) AddTransition(t *Transition) error {
	if _, ok := n.transitions[t.name]; ok {
		return fmt.Errorf("transition %q already declared: %w", t.name, ErrMisconfigured)
	}
	from, ok := n.places[t.from]
	if !ok {
		return fmt.Errorf("transition %q: no place %q: %w", t.name, t.from, ErrMisconfigured)
	}
	to, ok := n.places[t.to]
	if !ok {
		return fmt.Errorf("transition %q: no place %q: %w", t.name, t.to, ErrMisconfigured)
	}
	n.transitions[t.name] = t
	n.tOrder = append(n.tOrder, t.name)
	n.connect(from, t, 1)
	n.connect(t, to, 1)
	return nil
}

// Connect adds a weighted arc between a declared place and transition.
// Connecting an existing pair updates the arc's weight, which is how a
// default weight-1 arc becomes a heavier one.
func (n *Net) Connect(src, dest string, weight int) (*Arc, error) {
	if weight < 1 {
		return nil, fmt.Errorf("arc %s -> %s: weight must be positive: %w", src, dest, ErrMisconfigured)
	}
	s := n.node(src)
	d := n.node(dest)
	if s == nil {
		return nil, fmt.Errorf("no node %q: %w", src, ErrMisconfigured)
	}
	if d == nil {
		return nil, fmt.Errorf("no node %q: %w", dest, ErrMisconfigured)
	}
	if s.Kind() == d.Kind() {
		return nil, fmt.Errorf("cannot connect two places or two transitions: %w", ErrMisconfigured)
	}
	if a := n.Arc(src, dest); a != nil {
		a.Weight = weight
		return a, nil
	}
	return n.connect(s, d, weight), nil
}

func (n *Net) connect(s, d Node, weight int) *Arc {
	a := &Arc{Src: s, Dest: d, Weight: weight}
	n.arcs = append(n.arcs, a)
	if _, ok := n.arcIndex[s.String()]; !ok {
		n.arcIndex[s.String()] = make(map[string]*Arc)
	}
	n.arcIndex[s.String()][d.String()] = a
	return a
}

func (n *Net) node(name string) Node {
	if p, ok := n.places[name]; ok {
		return p
	}
	if t, ok := n.transitions[name]; ok {
		return t
	}
	return nil
}

// Arc returns the arc between two named nodes, or nil.
func (n *Net) Arc(src, dest string) *Arc {
	return n.arcIndex[src][dest]
}

// Inputs returns the arcs ending at the node.
func (n *Net) Inputs(node Node) []*Arc {
	var in []*Arc
	for _, a := range n.arcs {
		if a.Dest == node {
			in = append(in, a)
		}
	}
	return in
}

// Outputs returns the arcs leaving the node.
func (n *Net) Outputs(node Node) []*Arc {
	var out []*Arc
	for _, a := range n.arcs {
		if a.Src == node {
			out = append(out, a)
		}
	}
	return out
}

// Places returns the places in declaration order.
func (n *Net) Places() []*Place {
	out := make([]*Place, len(n.pOrder))
	for i, name := range n.pOrder {
		out[i] = n.places[name]
	}
	return out
}

// Transitions returns the transitions in declaration order.
func (n *Net) Transitions() []*Transition {
	out := make([]*Transition, len(n.tOrder))
	for i, name := range n.tOrder {
		out[i] = n.transitions[name]
	}
	return out
}

func (n *Net) Place(name string) *Place { return n.places[name] }

func (n *Net) Transition(name string) *Transition { return n.transitions[name] }

// AddToken registers a token and puts it into its starting place: the
// token's explicit state if set, otherwise the first declared place.
func (n *Net) AddToken(tok *Token) error {
	n.mu.Lock()
	if _, ok := n.tokens[tok.ID()]; ok {
		n.mu.Unlock()
		return &DuplicateTokenError{ID: tok.ID()}
	}
	state := tok.State()
	if state == "" {
		if len(n.pOrder) == 0 {
			n.mu.Unlock()
			return fmt.Errorf("net %q has no places: %w", n.name, ErrMisconfigured)
		}
		state = n.pOrder[0]
	}
	p, ok := n.places[state]
	if !ok {
		n.mu.Unlock()
		return fmt.Errorf("no place %q for token %q: %w", state, tok.ID(), ErrMisconfigured)
	}
	n.tokens[tok.ID()] = tok
	n.mu.Unlock()

	if err := p.Add(tok); err != nil {
		n.mu.Lock()
		delete(n.tokens, tok.ID())
		n.mu.Unlock()
		return fmt.Errorf("place %q: %w: %w", state, err, ErrRejected)
	}
	tok.setState(state)
	n.logger.Debug("token added",
		zap.String("token", tok.ID()),
		zap.String("place", state),
	)
	return nil
}

// Token returns a tracked token by ID, or nil.
func (n *Net) Token(id string) *Token {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.tokens[id]
}

// Marking snapshots the token count of every place. Counts are read one
// place at a time; the snapshot is diagnostic, not a control input.
func (n *Net) Marking() map[string]int {
	n.mu.RLock()
	places := make([]*Place, 0, len(n.places))
	for _, p := range n.places {
		places = append(places, p)
	}
	n.mu.RUnlock()
	m := make(map[string]int, len(places))
	for _, p := range places {
		m[p.name] = p.Count()
	}
	return m
}

// FireOption customizes a firing attempt.
type FireOption func(*firing)

type firing struct {
	actor   string
	ctx     rules.Context
	details map[string]interface{}
}

// WithActor records who triggered the firing in the history entry.
func WithActor(actor string) FireOption {
	return func(f *firing) { f.actor = actor }
}

// WithActionContext passes prior action results for the guard and rules to
// read.
func WithActionContext(ctx rules.Context) FireOption {
	return func(f *firing) { f.ctx = ctx }
}

// WithDetails attaches extra data to the history entry.
func WithDetails(d map[string]interface{}) FireOption {
	return func(f *firing) { f.details = d }
}

// Fire attempts a transition for a token. The five checks run in order:
// location, required fields, guard, ALL rules, ANY rules; only then is the
// token moved, its state updated, and a history entry appended. A rejected
// firing returns a typed error and leaves the token, every place, and the
// history exactly as they were.
//
// Fire is safe to call concurrently. For the same token, the atomic
// check-and-remove against the source place lets exactly one racing caller
// through; the rest fail with WrongStateError.
func (n *Net) Fire(ctx context.Context, transition string, tok *Token, opts ...FireOption) error {
	f := &firing{ctx: rules.Context{}}
	for _, opt := range opts {
		opt(f)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.RLock()
	t, ok := n.transitions[transition]
	n.mu.RUnlock()
	if !ok {
		err := &UnknownTransitionError{Transition: transition}
		n.reject(transition, tok, err)
		return err
	}

	if err := n.validate(t, tok, f); err != nil {
		n.reject(transition, tok, err)
		return err
	}
	if err := n.move(t, tok, f); err != nil {
		n.reject(transition, tok, err)
		return err
	}

	n.logger.Info("transition fired",
		zap.String("net", n.name),
		zap.String("transition", t.name),
		zap.String("token", tok.ID()),
		zap.String("from", t.from),
		zap.String("to", t.to),
	)
	n.emit(StateChanged, Change{From: t.from, To: t.to, Transition: t.name, Token: tok})
	return nil
}

// validate runs the checks that read token data but mutate nothing.
func (n *Net) validate(t *Transition, tok *Token, f *firing) error {
	if got := tok.State(); got != t.from {
		return &WrongStateError{Transition: t.name, Want: t.from, Got: got}
	}
	if missing := tok.missing(t.required); len(missing) > 0 {
		return &MissingFieldError{Transition: t.name, Fields: missing}
	}
	if t.guard != nil && !t.guard(tok, f.ctx) {
		return &GuardRejectedError{Transition: t.name}
	}

	// Every ALL rule is evaluated even after one fails; the error names
	// them all.
	var failed, reasons []string
	for _, name := range t.policy.All {
		res, err := n.rules.Evaluate(name, tok, f.ctx)
		if err != nil {
			return fmt.Errorf("transition %q: %w", t.name, err)
		}
		if !res.Valid {
			failed = append(failed, name)
			reasons = append(reasons, res.Reasons...)
		}
	}
	if len(failed) > 0 {
		return &RuleFailedError{Transition: t.name, Rules: failed, Reasons: reasons}
	}

	if len(t.policy.Any) > 0 {
		passed := false
		var tried, anyReasons []string
		for _, name := range t.policy.Any {
			res, err := n.rules.Evaluate(name, tok, f.ctx)
			if err != nil {
				return fmt.Errorf("transition %q: %w", t.name, err)
			}
			if res.Valid {
				passed = true
			}
			tried = append(tried, name)
			anyReasons = append(anyReasons, res.Reasons...)
		}
		if !passed {
			return &NoRulePassedError{Transition: t.name, Rules: tried, Reasons: anyReasons}
		}
	}
	return nil
}

// move performs the atomic relocation. All places the transition touches
// are locked in name order so opposed moves between the same places cannot
// deadlock; the token's presence in the source place is the authoritative
// location signal.
func (n *Net) move(t *Transition, tok *Token, f *firing) error {
	n.mu.RLock()
	from := n.places[t.from]
	to := n.places[t.to]
	touched := map[string]*Place{from.name: from, to.name: to}
	var inArcs []*Arc
	for _, a := range n.arcs {
		if a.Dest != t {
			continue
		}
		p, ok := a.Src.(*Place)
		if !ok {
			continue
		}
		inArcs = append(inArcs, a)
		touched[p.name] = p
	}
	n.mu.RUnlock()

	names := make([]string, 0, len(touched))
	for name := range touched {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		touched[name].mu.Lock()
	}
	defer func() {
		for i := len(names) - 1; i >= 0; i-- {
			touched[names[i]].mu.Unlock()
		}
	}()

	if !from.holds(tok) {
		return &WrongStateError{Transition: t.name, Want: t.from, Got: tok.State()}
	}
	for _, a := range inArcs {
		p := a.Src.(*Place)
		if len(p.tokens) < a.Weight {
			return &NotEnabledError{Transition: t.name, Place: p.name, Weight: a.Weight, Count: len(p.tokens)}
		}
	}
	if to.bound > 0 && to != from && len(to.tokens) >= to.bound {
		return fmt.Errorf("transition %q: place %q %w: %w", t.name, to.name, ErrPlaceFull, ErrRejected)
	}

	from.take(tok)
	to.tokens = append(to.tokens, tok)
	tok.setState(t.to)
	tok.appendHistory(Entry{
		From:       t.from,
		To:         t.to,
		Transition: t.name,
		Timestamp:  time.Now(),
		Actor:      f.actor,
		Details:    f.details,
	})
	return nil
}

func (n *Net) reject(transition string, tok *Token, err error) {
	n.logger.Debug("firing rejected",
		zap.String("net", n.name),
		zap.String("transition", transition),
		zap.Error(err),
	)
	c := Change{Transition: transition, Token: tok, Err: err}
	if tok != nil {
		c.From = tok.State()
	}
	n.emit(TransitionFailed, c)
}

// Validate checks the net's structural consistency: transition endpoints
// exist, arc weights are positive, and every rule named in a policy is
// registered. All problems are reported at once.
func (n *Net) Validate() error {
	var err error
	for _, name := range n.tOrder {
		t := n.transitions[name]
		if _, ok := n.places[t.from]; !ok {
			err = multierr.Append(err, fmt.Errorf("transition %q: no place %q: %w", t.name, t.from, ErrMisconfigured))
		}
		if _, ok := n.places[t.to]; !ok {
			err = multierr.Append(err, fmt.Errorf("transition %q: no place %q: %w", t.name, t.to, ErrMisconfigured))
		}
		for _, rule := range t.policy.All {
			if !n.rules.Has(rule) {
				err = multierr.Append(err, fmt.Errorf("transition %q: %w", t.name, &rules.UnknownRuleError{Rule: rule}))
			}
		}
		for _, rule := range t.policy.Any {
			if !n.rules.Has(rule) {
				err = multierr.Append(err, fmt.Errorf("transition %q: %w", t.name, &rules.UnknownRuleError{Rule: rule}))
			}
		}
	}
	for _, a := range n.arcs {
		if a.Weight < 1 {
			err = multierr.Append(err, fmt.Errorf("arc %s: weight must be positive: %w", a, ErrMisconfigured))
		}
	}
	return err
}
