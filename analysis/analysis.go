// Package analysis derives structural properties of a workflow net: its
// incidence matrix, the marking reached by a firing, and reachability via a
// coverability tree. Places and transitions are indexed in declaration
// order.
package analysis

import (
	"strconv"

	"github.com/petriflow/petriflow"
	"gonum.org/v1/gonum/mat"
)

const omega = 1e6 // stands in for an unbounded count in the coverability tree

type Net struct {
	*petriflow.Net
}

// State is a marking as a vector of token counts, one entry per place in
// declaration order.
type State []float64

func (s State) Clone() State {
	out := make(State, len(s))
	copy(out, s)
	return out
}

// InitialState reads the net's current marking into a state vector.
func (net *Net) InitialState() State {
	marking := net.Marking()
	places := net.Places()
	s := make(State, len(places))
	for i, p := range places {
		s[i] = float64(marking[p.Name()])
	}
	return s
}

// FiringVector is the unit row vector selecting transition t.
func (net *Net) FiringVector(t int) *mat.Dense {
	tt := net.Transitions()
	v := make([]float64, len(tt))
	v[t] = 1
	return mat.NewDense(1, len(tt), v)
}

// arcNet is the net token change at place p when transition t fires:
// produced weight minus consumed weight.
func (net *Net) arcNet(t *petriflow.Transition, p *petriflow.Place) float64 {
	ret := float64(0)
	if produced := net.Arc(t.Name(), p.Name()); produced != nil {
		ret += float64(produced.Weight)
	}
	if consumed := net.Arc(p.Name(), t.Name()); consumed != nil {
		ret -= float64(consumed.Weight)
	}
	return ret
}

// Incidence builds the transition-by-place incidence matrix. Row i is the
// marking change vector of firing transition i.
func (net *Net) Incidence() *mat.Dense {
	places := net.Places()
	transitions := net.Transitions()
	m := len(places)
	n := len(transitions)
	d := make([]float64, m*n)
	for i, t := range transitions {
		for j, p := range places {
			d[i*m+j] = net.arcNet(t, p)
		}
	}
	return mat.NewDense(n, m, d)
}

// NextState computes the marking after firing t from state, or false when t
// is not enabled there.
func (net *Net) NextState(state State, t *petriflow.Transition) (State, bool) {
	places := net.Places()
	index := make(map[string]int, len(places))
	for i, p := range places {
		index[p.Name()] = i
	}
	for _, a := range net.Inputs(t) {
		p, ok := a.Src.(*petriflow.Place)
		if !ok {
			continue
		}
		if state[index[p.Name()]] < float64(a.Weight) {
			return nil, false
		}
	}

	var tIndex int
	for i, other := range net.Transitions() {
		if other == t {
			tIndex = i
			break
		}
	}
	s := mat.NewDense(1, len(state), state)
	f := net.FiringVector(tIndex)

	var change mat.Dense
	change.Mul(f, net.Incidence())
	var out mat.Dense
	out.Add(s, &change)

	next := make(State, len(state))
	for i := range next {
		next[i] = out.At(0, i)
	}
	return next, true
}

type TreeNode struct {
	State    State
	Parent   *TreeNode
	Children []*TreeNode
}

type Tree struct {
	Root *TreeNode
}

// Dominates reports whether s covers b: no component smaller, at least one
// larger.
func (s State) Dominates(b State) bool {
	oneGt := false
	for i := range s {
		if s[i] < b[i] {
			return false
		}
		if s[i] > b[i] {
			oneGt = true
		}
	}
	return oneGt
}

func (t *TreeNode) dominatedBy(s State) []int {
	var growing []int
	for i := range s {
		if s[i] > t.State[i] {
			growing = append(growing, i)
		}
	}
	if len(growing) != 0 {
		return growing
	}
	if t.Parent != nil {
		return t.Parent.dominatedBy(s)
	}
	return nil
}

func serialize(s State) string {
	var ret string
	for _, v := range s {
		if v >= omega {
			ret += "w"
			continue
		}
		ret += strconv.Itoa(int(v))
	}
	return ret
}

func (net *Net) buildTree(seen map[string]bool, node *TreeNode) {
	id := serialize(node.State)
	if seen[id] {
		return
	}
	seen[id] = true
	for _, t := range net.Transitions() {
		next, ok := net.NextState(node.State, t)
		if !ok {
			continue
		}
		child := &TreeNode{State: next, Parent: node}
		for par := child.Parent; par != nil; par = par.Parent {
			if child.State.Dominates(par.State) {
				for _, i := range par.dominatedBy(child.State) {
					child.State[i] = omega
				}
			}
		}
		node.Children = append(node.Children, child)
	}
	for _, child := range node.Children {
		for i := range child.State {
			if node.State[i] >= omega {
				child.State[i] = omega
			}
		}
		net.buildTree(seen, child)
	}
}

// CoverabilityTree expands the markings reachable (or covered, once a place
// grows without bound) from the initial state.
func (net *Net) CoverabilityTree(initial State) *Tree {
	root := &TreeNode{State: initial.Clone()}
	tree := &Tree{Root: root}
	net.buildTree(make(map[string]bool), root)
	return tree
}

// Reachable reports whether target is reached from initial.
func (net *Net) Reachable(initial, target State) bool {
	return net.CoverabilityTree(initial).Reachable(target)
}

func (t *Tree) Reachable(s State) bool {
	want := serialize(s)
	var walk func(n *TreeNode) bool
	walk = func(n *TreeNode) bool {
		if serialize(n.State) == want {
			return true
		}
		for _, c := range n.Children {
			if walk(c) {
				return true
			}
		}
		return false
	}
	for _, c := range t.Root.Children {
		if walk(c) {
			return true
		}
	}
	return false
}
