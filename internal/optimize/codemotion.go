package optimize

import "jitcore/internal/ir"

// CodeMotion performs the per-block topological sort of §4.4.10: pure
// nodes are "sinkable" (free to reorder toward their users), while
// side-effecting nodes (Store, Call, Branch) keep a fixed serialization
// order relative to each other. The sort respects the data-dependency
// partial order plus that serialization total order, tie-breaking by
// preferring LoadProperty nodes early (latency hiding) and nodes with more
// users (critical path) when neither order dictates a position.
type CodeMotion struct{}

func (CodeMotion) Name() string { return "code-motion-scheduling" }
func (CodeMotion) Description() string {
	return "topologically reschedules each block's nodes under data and serialization order"
}

func (CodeMotion) Apply(g *ir.Graph) bool {
	changed := false
	for _, bid := range g.Blocks() {
		b := g.Block(bid)
		if scheduleBlock(g, b) {
			changed = true
		}
	}
	return changed
}

// scheduleBlock rewrites b.Nodes in place to a valid schedule, returning
// whether the order actually changed.
func scheduleBlock(g *ir.Graph, b *ir.Block) bool {
	if len(b.Nodes) == 0 {
		return false
	}

	// A block-ending Branch/Return must stay last regardless of data or
	// serialization order: it is the control transfer, not just another
	// side-effecting op. Schedule the rest, then reattach it.
	var terminator ir.NodeID = ir.InvalidNodeID
	nodes := b.Nodes
	if last := g.Node(b.Nodes[len(b.Nodes)-1]); last.Kind() == ir.KindReturn || last.Kind() == ir.KindBranch {
		terminator = last.ID()
		nodes = b.Nodes[:len(b.Nodes)-1]
	}

	inBlock := map[ir.NodeID]bool{}
	for _, id := range nodes {
		inBlock[id] = true
	}

	// Serialization edges: each side-effecting node must follow every
	// side-effecting node before it in the original order.
	var sideEffecting []ir.NodeID
	for _, id := range nodes {
		if g.Node(id).IsSideEffecting() {
			sideEffecting = append(sideEffecting, id)
		}
	}
	mustFollow := map[ir.NodeID]ir.NodeID{} // side-effecting node -> its immediate predecessor in serialization order
	for i := 1; i < len(sideEffecting); i++ {
		mustFollow[sideEffecting[i]] = sideEffecting[i-1]
	}

	indegree := map[ir.NodeID]int{}
	dependents := map[ir.NodeID][]ir.NodeID{}
	for _, id := range nodes {
		n := g.Node(id)
		deps := map[ir.NodeID]bool{}
		for _, in := range n.Inputs() {
			if inBlock[in] {
				deps[in] = true
			}
		}
		if pred, ok := mustFollow[id]; ok {
			deps[pred] = true
		}
		indegree[id] = len(deps)
		for dep := range deps {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	ready := make([]ir.NodeID, 0, len(nodes))
	for _, id := range nodes {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	scheduled := make([]ir.NodeID, 0, len(nodes))
	for len(scheduled) < len(nodes) {
		pick := pickNext(g, ready)
		scheduled = append(scheduled, pick)
		ready = removeFromReady(ready, pick)
		for _, dep := range dependents[pick] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if terminator != ir.InvalidNodeID {
		scheduled = append(scheduled, terminator)
	}

	changed := false
	for i, id := range scheduled {
		if b.Nodes[i] != id {
			changed = true
		}
	}
	copy(b.Nodes, scheduled)
	return changed
}

// pickNext chooses among the ready set: LoadProperty nodes first, then the
// node with the most users, tie-broken by original id for determinism.
func pickNext(g *ir.Graph, ready []ir.NodeID) ir.NodeID {
	best := ready[0]
	for _, cand := range ready[1:] {
		if betterCandidate(g, cand, best) {
			best = cand
		}
	}
	return best
}

func betterCandidate(g *ir.Graph, a, b ir.NodeID) bool {
	an, bn := g.Node(a), g.Node(b)
	aLoad := an.Kind() == ir.KindLoadProperty
	bLoad := bn.Kind() == ir.KindLoadProperty
	if aLoad != bLoad {
		return aLoad
	}
	if len(an.Users()) != len(bn.Users()) {
		return len(an.Users()) > len(bn.Users())
	}
	return a < b
}

func removeFromReady(ready []ir.NodeID, id ir.NodeID) []ir.NodeID {
	for i, r := range ready {
		if r == id {
			return append(ready[:i], ready[i+1:]...)
		}
	}
	return ready
}
