package optimize

import "jitcore/internal/ir"

// EscapeAnalysis computes, for every Parameter and Phi node (the candidate
// set, §4.4.4: this IR has no allocation-site node of its own), whether it
// escapes the function. Optimistic: every candidate starts NoEscape, and a
// node escapes if it is an input to Return, StoreProperty (as the value),
// or Call; escaping propagates through Phi from the phi to its inputs (if
// a phi escapes, every input escapes) to a fixed point.
type EscapeAnalysis struct {
	escaped map[ir.NodeID]bool
}

func (EscapeAnalysis) Name() string { return "escape-analysis" }
func (EscapeAnalysis) Description() string {
	return "marks Parameter/Phi candidates that escape via Return, StoreProperty, or Call"
}

// Escapes reports whether node escaped, valid after Apply has run.
func (e *EscapeAnalysis) Escapes(id ir.NodeID) bool {
	return e.escaped != nil && e.escaped[id]
}

func (e *EscapeAnalysis) Apply(g *ir.Graph) bool {
	escaped := map[ir.NodeID]bool{}
	isCandidate := func(id ir.NodeID) bool {
		k := g.Node(id).Kind()
		return k == ir.KindParameter || k == ir.KindPhi
	}

	mark := func(id ir.NodeID) bool {
		if !isCandidate(id) || escaped[id] {
			return false
		}
		escaped[id] = true
		return true
	}

	for {
		progress := false
		for i := 0; i < g.NumNodes(); i++ {
			n := g.Node(ir.NodeID(i))
			if n.Block() == ir.InvalidBlockID {
				continue
			}
			switch n.Kind() {
			case ir.KindReturn:
				for _, in := range n.Inputs() {
					if mark(in) {
						progress = true
					}
				}
			case ir.KindStoreProperty:
				if len(n.Inputs()) > 1 && mark(n.Inputs()[1]) {
					progress = true
				}
			case ir.KindCall:
				for _, in := range n.Inputs() {
					if mark(in) {
						progress = true
					}
				}
			case ir.KindPhi:
				if escaped[n.ID()] {
					for _, in := range n.Inputs() {
						if mark(in) {
							progress = true
						}
					}
				}
			}
		}
		if !progress {
			break
		}
	}

	e.escaped = escaped
	return len(escaped) > 0
}
