// Package domtree computes dominators, immediate dominators, and dominance
// frontiers over an ir.Graph's control-flow skeleton (§4.2).
package domtree

import (
	"sort"

	"jitcore/internal/ir"
)

// Tree is the dominator tree for one graph, computed once and consumed by
// the SSA builder and the loop optimizer. It is recomputed lazily after any
// pass that mutates control flow; it is never updated incrementally.
type Tree struct {
	graph *ir.Graph

	dom   map[ir.BlockID]map[ir.BlockID]bool // Dom(b): full dominator set, including b
	idom  map[ir.BlockID]ir.BlockID          // immediate dominator, InvalidBlockID for entry
	frontier map[ir.BlockID][]ir.BlockID
}

// Build computes the dominator tree of g, restricted to blocks reachable
// from the entry block. Unreachable blocks are excluded entirely: their
// dominator set is undefined per §4.2.
func Build(g *ir.Graph) *Tree {
	reach := g.Reachable()
	blocks := sortedReachable(reach)

	all := map[ir.BlockID]bool{}
	for _, b := range blocks {
		all[b] = true
	}

	dom := map[ir.BlockID]map[ir.BlockID]bool{}
	entry := g.Entry()
	dom[entry] = map[ir.BlockID]bool{entry: true}
	for _, b := range blocks {
		if b == entry {
			continue
		}
		dom[b] = cloneSet(all)
	}

	changed := true
	for changed {
		changed = false
		for _, b := range blocks {
			if b == entry {
				continue
			}
			var merged map[ir.BlockID]bool
			for _, p := range g.Block(b).Preds {
				if !reach[p] {
					continue
				}
				if merged == nil {
					merged = cloneSet(dom[p])
					continue
				}
				intersect(merged, dom[p])
			}
			if merged == nil {
				merged = map[ir.BlockID]bool{}
			}
			merged[b] = true

			if !setsEqual(merged, dom[b]) {
				dom[b] = merged
				changed = true
			}
		}
	}

	idom := computeIdom(dom, entry, blocks)
	t := &Tree{graph: g, dom: dom, idom: idom}
	t.frontier = computeFrontiers(g, idom, blocks, reach)
	return t
}

func sortedReachable(reach map[ir.BlockID]bool) []ir.BlockID {
	out := make([]ir.BlockID, 0, len(reach))
	for b := range reach {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func cloneSet(s map[ir.BlockID]bool) map[ir.BlockID]bool {
	out := make(map[ir.BlockID]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

// intersect mutates dst to contain only elements also present in src.
func intersect(dst, src map[ir.BlockID]bool) {
	for k := range dst {
		if !src[k] {
			delete(dst, k)
		}
	}
}

func setsEqual(a, b map[ir.BlockID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// computeIdom derives, for each non-entry block B, the unique d in
// Dom(B)\{B} that is not dominated by any other member of Dom(B)\{B} — i.e.
// the member of the strict dominator set with the largest strict dominator
// set of its own.
func computeIdom(dom map[ir.BlockID]map[ir.BlockID]bool, entry ir.BlockID, blocks []ir.BlockID) map[ir.BlockID]ir.BlockID {
	idom := map[ir.BlockID]ir.BlockID{entry: ir.InvalidBlockID}
	for _, b := range blocks {
		if b == entry {
			continue
		}
		var best ir.BlockID = ir.InvalidBlockID
		bestSize := -1
		for d := range dom[b] {
			if d == b {
				continue
			}
			size := len(dom[d])
			if size > bestSize {
				bestSize = size
				best = d
			}
		}
		idom[b] = best
	}
	return idom
}

// computeFrontiers implements the classical runner algorithm: for every
// block b with at least two predecessors, walk up each predecessor's idom
// chain until reaching idom(b), adding b to the dominance frontier of every
// block visited along the way.
func computeFrontiers(g *ir.Graph, idom map[ir.BlockID]ir.BlockID, blocks []ir.BlockID, reach map[ir.BlockID]bool) map[ir.BlockID][]ir.BlockID {
	df := map[ir.BlockID][]ir.BlockID{}
	for _, b := range blocks {
		preds := g.Block(b).Preds
		if len(preds) < 2 {
			continue
		}
		for _, p := range preds {
			if !reach[p] {
				continue
			}
			runner := p
			for runner != idom[b] && runner != ir.InvalidBlockID {
				if !containsBlock(df[runner], b) {
					df[runner] = append(df[runner], b)
				}
				runner = idom[runner]
			}
		}
	}
	return df
}

func containsBlock(list []ir.BlockID, b ir.BlockID) bool {
	for _, x := range list {
		if x == b {
			return true
		}
	}
	return false
}

// Dominates reports whether a dominates b (non-strictly): every path from
// entry to b passes through a.
func (t *Tree) Dominates(a, b ir.BlockID) bool {
	set, ok := t.dom[b]
	return ok && set[a]
}

// StrictlyDominates reports whether a dominates b and a != b.
func (t *Tree) StrictlyDominates(a, b ir.BlockID) bool {
	return a != b && t.Dominates(a, b)
}

// IDom returns b's immediate dominator, or InvalidBlockID for the entry
// block or an unreachable block.
func (t *Tree) IDom(b ir.BlockID) ir.BlockID {
	d, ok := t.idom[b]
	if !ok {
		return ir.InvalidBlockID
	}
	return d
}

// Frontier returns the dominance frontier of b: blocks where control-flow
// paths through b and some sibling path merge.
func (t *Tree) Frontier(b ir.BlockID) []ir.BlockID {
	return t.frontier[b]
}

// IteratedFrontier returns the iterated dominance frontier of a set of
// blocks: DF closed under repeated application, the phi-insertion site set
// for a value defined across exactly that set of blocks (§4.3).
func (t *Tree) IteratedFrontier(defs []ir.BlockID) []ir.BlockID {
	inResult := map[ir.BlockID]bool{}
	var result []ir.BlockID
	worklist := append([]ir.BlockID{}, defs...)
	seenWork := map[ir.BlockID]bool{}
	for _, d := range defs {
		seenWork[d] = true
	}

	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, f := range t.Frontier(b) {
			if !inResult[f] {
				inResult[f] = true
				result = append(result, f)
			}
			if !seenWork[f] {
				seenWork[f] = true
				worklist = append(worklist, f)
			}
		}
	}
	return result
}

// Reachable exposes the reachable-block set the tree was computed over, so
// callers (e.g. the printer) can tell an excluded block from one with an
// empty dominator set.
func (t *Tree) Reachable() map[ir.BlockID]bool {
	return t.graph.Reachable()
}
