package petriflow

import (
	"errors"
	"sync"
)

var ErrPlaceFull = errors.New("place is full")

// Place holds tokens. Multiple tokens may occupy the same place at once,
// modeling parallel work items. Add and remove are atomic with respect to
// concurrent firings; Net.Fire manipulates the bag directly under the
// place's lock.
type Place struct {
	name  string
	bound int

	mu     sync.Mutex
	tokens []*Token
}

// NewPlace creates a place. The bound is optional; without it the place is
// unbounded.
func NewPlace(name string, bound ...int) *Place {
	b := 0
	if len(bound) > 0 {
		b = bound[0]
	}
	return &Place{name: name, bound: b}
}

func (p *Place) Name() string { return p.name }

func (p *Place) Bound() int { return p.bound }

func (p *Place) Kind() NodeKind { return PlaceNode }

func (p *Place) String() string { return p.name }

// Add appends a token to the bag.
func (p *Place) Add(t *Token) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bound > 0 && len(p.tokens) >= p.bound {
		return ErrPlaceFull
	}
	p.tokens = append(p.tokens, t)
	return nil
}

// Remove pops the most recently added token, or nil when the bag is empty.
func (p *Place) Remove() *Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tokens) == 0 {
		return nil
	}
	t := p.tokens[len(p.tokens)-1]
	p.tokens = p.tokens[:len(p.tokens)-1]
	return t
}

// Count is a snapshot of the number of tokens in the place.
func (p *Place) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tokens)
}

// Holds reports whether the place currently holds the token.
func (p *Place) Holds(t *Token) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.holds(t)
}

// holds and take are called by Net.Fire with p.mu held.
func (p *Place) holds(t *Token) bool {
	for _, held := range p.tokens {
		if held == t {
			return true
		}
	}
	return false
}

func (p *Place) take(t *Token) bool {
	for i, held := range p.tokens {
		if held == t {
			p.tokens = append(p.tokens[:i], p.tokens[i+1:]...)
			return true
		}
	}
	return false
}
