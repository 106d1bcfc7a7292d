// Package ssa transforms an ir.Graph into single-assignment form: phi nodes
// at iterated dominance frontiers, followed by a dominator-tree pre-order
// rename pass (§4.3, Cytron et al.).
//
// The IR is already value-oriented — each node is its own SSA value — so
// unlike a textbook SSA construction over named variables, renaming here
// only has to decide, at every use, which definition reaches it. The
// "variable" this package tracks per block is therefore not a source-level
// name but a VarSlot: a caller-assigned logical storage slot (e.g. "the
// local at bytecode stack offset 3") that may be written more than once
// across the blocks the builder visits.
package ssa

import (
	"jitcore/internal/domtree"
	"jitcore/internal/ir"
)

// VarSlot identifies one logical storage location the bytecode builder
// assigns to (a local variable slot, an accumulator) that may have more
// than one definition across the function's blocks.
type VarSlot int

// Def records one assignment to a slot: the node producing the value and
// the block it was produced in.
type Def struct {
	Slot  VarSlot
	Block ir.BlockID
	Value ir.NodeID
}

// Use records one read of a slot that must be rewritten to the reaching
// definition once renaming completes.
type Use struct {
	Slot VarSlot
	Node ir.NodeID // the node whose input should be rewritten
	Idx  int        // which input position reads the slot
}

// Builder drives phi insertion and renaming over a single graph.
type Builder struct {
	graph *ir.Graph
	tree  *domtree.Tree

	defsBySlot map[VarSlot][]Def
	phis       map[ir.BlockID]map[VarSlot]ir.NodeID
}

// New creates an SSA builder bound to g's (already computed) dominator
// tree.
func New(g *ir.Graph, tree *domtree.Tree) *Builder {
	return &Builder{
		graph:      g,
		tree:       tree,
		defsBySlot: map[VarSlot][]Def{},
		phis:       map[ir.BlockID]map[VarSlot]ir.NodeID{},
	}
}

// SetTree attaches a dominator tree computed after all defs have been
// recorded, so callers can build a Builder before the graph's entry/exit
// are known and supply the tree once dominance can be computed.
func (b *Builder) SetTree(tree *domtree.Tree) {
	b.tree = tree
}

// RecordDef registers that slot is assigned the value produced by node in
// block. Must be called for every assignment before InsertPhis.
func (b *Builder) RecordDef(slot VarSlot, block ir.BlockID, value ir.NodeID) {
	b.defsBySlot[slot] = append(b.defsBySlot[slot], Def{Slot: slot, Block: block, Value: value})
}

// InsertPhis places an empty Phi node (inputs filled in by Rename) at every
// block in the iterated dominance frontier of each slot's definition
// blocks, per §4.3. The phi node id created per (block, slot) is recorded
// for PhiAt and as a new definition of the slot in that block.
func (b *Builder) InsertPhis(ib *ir.Builder) {
	for slot, defs := range b.defsBySlot {
		defBlocks := make([]ir.BlockID, 0, len(defs))
		seen := map[ir.BlockID]bool{}
		for _, d := range defs {
			if !seen[d.Block] {
				seen[d.Block] = true
				defBlocks = append(defBlocks, d.Block)
			}
		}

		for _, target := range b.tree.IteratedFrontier(defBlocks) {
			if b.phis[target] == nil {
				b.phis[target] = map[VarSlot]ir.NodeID{}
			}
			if _, exists := b.phis[target][slot]; exists {
				continue
			}
			prevBlock := ib.CurrentBlock()
			ib.SetCurrentBlock(target)
			phi := ib.Phi()
			ib.SetCurrentBlock(prevBlock)
			b.phis[target][slot] = phi
			b.RecordDef(slot, target, phi)
		}
	}
}

// PhiAt returns the phi node for slot at block, if InsertPhis created one.
func (b *Builder) PhiAt(block ir.BlockID, slot VarSlot) (ir.NodeID, bool) {
	m, ok := b.phis[block]
	if !ok {
		return ir.InvalidNodeID, false
	}
	n, ok := m[slot]
	return n, ok
}

// Rename performs the dominator-tree pre-order walk: for each block, in
// tree order, it wires the block's phi inputs (one per predecessor, using
// the definition reaching that predecessor) and resolves every recorded Use
// to its reaching definition. stack holds, per slot, the definition visible
// at the current point of the walk.
func (b *Builder) Rename(ib *ir.Builder, uses map[ir.BlockID][]Use) {
	stack := map[VarSlot][]Def{}

	defsByBlock := map[ir.BlockID][]Def{}
	for _, defs := range b.defsBySlot {
		for _, d := range defs {
			defsByBlock[d.Block] = append(defsByBlock[d.Block], d)
		}
	}

	// operands[succ][slot] is a slice indexed the same way as succ's
	// Preds list; it is filled in while visiting each predecessor (so the
	// value recorded is always "top of stack right after that
	// predecessor's own definitions"), then wired onto the phi in
	// predecessor-list order once the whole walk completes.
	operands := map[ir.BlockID]map[VarSlot][]ir.NodeID{}
	ensureOperands := func(succ ir.BlockID) map[VarSlot][]ir.NodeID {
		m, ok := operands[succ]
		if !ok {
			m = map[VarSlot][]ir.NodeID{}
			for slot := range b.phis[succ] {
				m[slot] = make([]ir.NodeID, len(b.graph.Block(succ).Preds))
			}
			operands[succ] = m
		}
		return m
	}

	pushed := map[ir.BlockID][]VarSlot{}

	var walk func(block ir.BlockID)
	walk = func(block ir.BlockID) {
		for _, d := range defsByBlock[block] {
			stack[d.Slot] = append(stack[d.Slot], d)
			pushed[block] = append(pushed[block], d.Slot)
		}

		for _, u := range uses[block] {
			reaching := topOfStack(stack, u.Slot)
			if reaching != ir.InvalidNodeID {
				b.graph.ReplaceInput(u.Node, u.Idx, reaching)
			}
		}

		// Record this block's contribution to every CFG successor's
		// phis, at the correct predecessor-list index.
		for _, succ := range b.graph.Block(block).Succs {
			if len(b.phis[succ]) == 0 {
				continue
			}
			idx := predIndex(b.graph.Block(succ).Preds, block)
			if idx < 0 {
				continue
			}
			m := ensureOperands(succ)
			for slot, phi := range b.phis[succ] {
				_ = phi
				m[slot][idx] = topOfStack(stack, slot)
			}
		}

		for _, child := range b.children(nil, block) {
			walk(child)
		}

		for _, slot := range pushed[block] {
			s := stack[slot]
			stack[slot] = s[:len(s)-1]
		}
	}

	walk(b.graph.Entry())

	for succ, bySlot := range operands {
		for slot, values := range bySlot {
			phi, ok := b.phis[succ][slot]
			if !ok {
				continue
			}
			for _, v := range values {
				if v == ir.InvalidNodeID {
					continue
				}
				ib.AddPhiInput(phi, v)
			}
		}
	}
}

func predIndex(preds []ir.BlockID, block ir.BlockID) int {
	for i, p := range preds {
		if p == block {
			return i
		}
	}
	return -1
}

func topOfStack(stack map[VarSlot][]Def, slot VarSlot) ir.NodeID {
	s := stack[slot]
	if len(s) == 0 {
		return ir.InvalidNodeID
	}
	return s[len(s)-1].Value
}

// children returns the immediate dominator-tree children of block: every
// reachable block whose idom is block.
func (b *Builder) children(_ []ir.BlockID, block ir.BlockID) []ir.BlockID {
	var kids []ir.BlockID
	for _, id := range b.graph.Blocks() {
		if !b.tree.Reachable()[id] {
			continue
		}
		if b.tree.IDom(id) == block {
			kids = append(kids, id)
		}
	}
	return kids
}
