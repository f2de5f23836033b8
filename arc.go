package petriflow

type NodeKind int

const (
	PlaceNode NodeKind = iota
	TransitionNode
)

type Node interface {
	Kind() NodeKind
	String() string
}

// Arc is a weighted edge between a place and a transition. Arcs are built
// alongside transitions and immutable afterwards except for the weight a
// later Connect call assigns.
type Arc struct {
	Src    Node
	Dest   Node
	Weight int
}

// Enabled reports whether the arc permits flow. An arc leaving a place
// requires the place to hold at least Weight tokens; an arc leaving a
// transition never blocks.
func (a *Arc) Enabled() bool {
	if p, ok := a.Src.(*Place); ok {
		return p.Count() >= a.Weight
	}
	return true
}

func (a *Arc) String() string {
	return a.Src.String() + " -> " + a.Dest.String()
}
