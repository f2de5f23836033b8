package petriflow

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Token is a unit of work moving through a net. It carries an open
// attribute bag, the name of the place currently holding it, and an
// append-only history of firings. The attribute bag is safe to mutate from
// concurrent callers; location changes happen only through Net.Fire.
type Token struct {
	id string

	mu      sync.RWMutex
	state   string
	attrs   map[string]Attr
	history []Entry
}

func NewToken() *Token {
	return &Token{
		id:    uuid.New().String(),
		attrs: make(map[string]Attr),
	}
}

func (t *Token) ID() string { return t.id }

// WithState sets the starting place for a token that has not been added to
// a net yet. Without it the token starts in the net's first declared place.
func (t *Token) WithState(state string) *Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	return t
}

// WithAttr sets an attribute and returns the token for chaining.
func (t *Token) WithAttr(name string, v Attr) *Token {
	t.Set(name, v)
	return t
}

// State is the name of the place currently holding the token.
func (t *Token) State() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *Token) Set(name string, v Attr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attrs[name] = v
}

func (t *Token) Get(name string) (Attr, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.attrs[name]
	return a, ok
}

// AttrValue looks up a single attribute as a plain value. Together with
// AttrValues and State it satisfies rules.Subject.
func (t *Token) AttrValue(name string) (interface{}, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.attrs[name]
	if !ok {
		return nil, false
	}
	return a.Value(), true
}

// AttrValues returns a copy of the attribute bag as plain values, the form
// rule expressions evaluate against.
func (t *Token) AttrValues() map[string]interface{} {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]interface{}, len(t.attrs))
	for name, a := range t.attrs {
		out[name] = a.Value()
	}
	return out
}

// History returns a copy of the firing log, oldest first.
func (t *Token) History() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.history))
	copy(out, t.history)
	return out
}

func (t *Token) String() string {
	return fmt.Sprintf("%s@%s", t.id, t.State())
}

// setState and appendHistory are called by Net.Fire while it holds the
// place locks for the move.
func (t *Token) setState(state string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

func (t *Token) appendHistory(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = append(t.history, e)
}

// missing returns the required fields that are absent or empty.
func (t *Token) missing(fields []string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for _, f := range fields {
		a, ok := t.attrs[f]
		if !ok || a.Empty() {
			out = append(out, f)
		}
	}
	return out
}
