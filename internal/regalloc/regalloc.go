// Package regalloc implements the graph-coloring register allocator of
// §4.6: linear-position live ranges, an interference graph over
// value-producing nodes, Chaitin-style simplify/spill/color, and a final
// allocation map. Runaway spilling is an accepted outcome, never a failure
// (§4.6, §7): every graph the allocator is given produces an allocation.
package regalloc

import (
	"sort"

	"jitcore/internal/ir"
)

// DefaultK is the target register count used when a caller has no reason to
// override it (§4.6).
const DefaultK = 14

// valueProducing reports whether n's result may be consumed by another node
// and therefore needs a register. Return, Branch, Merge, and StoreProperty
// have no result; Guard is inserted purely for its side effect and never
// rewires a consumer onto it (see ir.Graph.NewGuardIn), so it needs none
// either.
func valueProducing(n *ir.Node) bool {
	switch n.Kind() {
	case ir.KindReturn, ir.KindBranch, ir.KindMerge, ir.KindStoreProperty, ir.KindGuard:
		return false
	default:
		return true
	}
}

// LinearOrder assigns every node a position by walking blocks in reverse
// postorder from the entry and, within a block, in their existing
// (post-code-motion) order. Returns the per-node position map and the
// ordered node list driving it.
func LinearOrder(g *ir.Graph) (map[ir.NodeID]int, []ir.NodeID) {
	positions := map[ir.NodeID]int{}
	var order []ir.NodeID
	if g.Entry() == ir.InvalidBlockID {
		return positions, order
	}

	rpo := reversePostorder(g)
	for _, bid := range rpo {
		for _, id := range g.Block(bid).Nodes {
			positions[id] = len(order)
			order = append(order, id)
		}
	}
	return positions, order
}

func reversePostorder(g *ir.Graph) []ir.BlockID {
	visited := map[ir.BlockID]bool{}
	var post []ir.BlockID
	var visit func(ir.BlockID)
	visit = func(b ir.BlockID) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range g.Block(b).Succs {
			visit(s)
		}
		post = append(post, b)
	}
	visit(g.Entry())
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// LiveRange is the closed position interval [def, last use] a value is live
// over (§4.6 phase 1). A value with no users is live only at its own
// definition.
type LiveRange struct {
	Node  ir.NodeID
	Start int
	End   int
}

// BuildLiveRanges computes one LiveRange per value-producing node.
func BuildLiveRanges(g *ir.Graph, positions map[ir.NodeID]int) map[ir.NodeID]LiveRange {
	ranges := map[ir.NodeID]LiveRange{}
	for id, pos := range positions {
		n := g.Node(id)
		if !valueProducing(n) {
			continue
		}
		end := pos
		for _, user := range n.Users() {
			if up, ok := positions[user]; ok && up > end {
				end = up
			}
		}
		ranges[id] = LiveRange{Node: id, Start: pos, End: end}
	}
	return ranges
}

// overlaps reports whether two closed intervals intersect.
func overlaps(a, b LiveRange) bool {
	return a.Start <= b.End && b.Start <= a.End
}

// InterferenceGraph is an adjacency-set over value-producing nodes (§4.6
// phase 2, SUPPLEMENTED FEATURES: adjacency-set rather than a dense matrix,
// since most functions' interference graphs are sparse).
type InterferenceGraph map[ir.NodeID]map[ir.NodeID]bool

// BuildInterferenceGraph adds an edge between every pair of live ranges
// whose closed intervals overlap.
func BuildInterferenceGraph(ranges map[ir.NodeID]LiveRange) InterferenceGraph {
	ig := InterferenceGraph{}
	ids := make([]ir.NodeID, 0, len(ranges))
	for id := range ranges {
		ig[id] = map[ir.NodeID]bool{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			if overlaps(ranges[a], ranges[b]) {
				ig[a][b] = true
				ig[b][a] = true
			}
		}
	}
	return ig
}

// Allocation is the outcome for one value-producing node: either a color
// (register index in [0, K)) or a spill.
type Allocation struct {
	Color   int
	Spilled bool
}

// stackEntry records one node popped during simplify, in the order it was
// pushed (first pushed = last colored, i.e. the bottom of Chaitin's stack).
type stackEntry struct {
	node  ir.NodeID
	spill bool
}

// Allocate runs phases 3-5 over ig with K available colors, always
// producing a full allocation (§4.6's no-failure guarantee: a node that
// cannot be colored is marked Spilled, never rejected).
func Allocate(ig InterferenceGraph, k int) map[ir.NodeID]Allocation {
	working := make(InterferenceGraph, len(ig))
	for n, neighbors := range ig {
		cp := make(map[ir.NodeID]bool, len(neighbors))
		for m := range neighbors {
			cp[m] = true
		}
		working[n] = cp
	}

	remaining := make([]ir.NodeID, 0, len(working))
	for n := range working {
		remaining = append(remaining, n)
	}
	sort.Slice(remaining, func(i, j int) bool { return remaining[i] < remaining[j] })

	var stack []stackEntry
	remove := func(n ir.NodeID) {
		for m := range working[n] {
			delete(working[m], n)
		}
		delete(working, n)
		for i, r := range remaining {
			if r == n {
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}

	for len(remaining) > 0 {
		picked := ir.InvalidNodeID
		for _, n := range remaining {
			if len(working[n]) < k {
				picked = n
				break
			}
		}
		if picked != ir.InvalidNodeID {
			stack = append(stack, stackEntry{node: picked})
			remove(picked)
			continue
		}

		// No low-degree node: spill the highest-degree remaining candidate.
		spillCand := remaining[0]
		for _, n := range remaining[1:] {
			if len(working[n]) > len(working[spillCand]) {
				spillCand = n
			}
		}
		stack = append(stack, stackEntry{node: spillCand, spill: true})
		remove(spillCand)
	}

	colors := map[ir.NodeID]Allocation{}
	for i := len(stack) - 1; i >= 0; i-- {
		entry := stack[i]
		used := map[int]bool{}
		for neighbor := range ig[entry.node] {
			if alloc, ok := colors[neighbor]; ok && !alloc.Spilled {
				used[alloc.Color] = true
			}
		}
		color := -1
		for c := 0; c < k; c++ {
			if !used[c] {
				color = c
				break
			}
		}
		if color == -1 {
			colors[entry.node] = Allocation{Spilled: true}
			continue
		}
		colors[entry.node] = Allocation{Color: color}
	}
	return colors
}

// AllocationMap is the §4.6 phase-5 output: one allocation per
// value-producing node in the graph, plus the live ranges it was derived
// from (useful for diagnostics and for the driver's artifact assembly).
type AllocationMap struct {
	Ranges      map[ir.NodeID]LiveRange
	Allocations map[ir.NodeID]Allocation
}

// Run executes every phase of §4.6 over g with K target registers.
func Run(g *ir.Graph, k int) AllocationMap {
	positions, _ := LinearOrder(g)
	ranges := BuildLiveRanges(g, positions)
	ig := BuildInterferenceGraph(ranges)
	allocs := Allocate(ig, k)
	return AllocationMap{Ranges: ranges, Allocations: allocs}
}

// SpillCount reports how many nodes were spilled, for diagnostics; a
// nonzero count is expected behavior under register pressure, not an error.
func (a AllocationMap) SpillCount() int {
	n := 0
	for _, alloc := range a.Allocations {
		if alloc.Spilled {
			n++
		}
	}
	return n
}
