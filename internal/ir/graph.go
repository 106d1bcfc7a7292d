package ir

// Graph is the whole compiled function's IR: the node arena, the block
// arena, and distinguished entry/exit blocks. The graph exclusively owns
// its nodes and blocks; every cross-reference is a non-owning NodeID or
// BlockID handle into the corresponding arena.
type Graph struct {
	nodes  []Node
	blocks []Block

	entry BlockID
	exit  BlockID

	finalized bool
}

// NewGraph creates an empty, unfinalized graph.
func NewGraph() *Graph {
	return &Graph{entry: InvalidBlockID, exit: InvalidBlockID}
}

// Entry returns the graph's entry block, or InvalidBlockID before Finalize.
func (g *Graph) Entry() BlockID { return g.entry }

// Exit returns the graph's exit block, or InvalidBlockID before Finalize.
func (g *Graph) Exit() BlockID { return g.exit }

// Finalized reports whether Finalize has been called.
func (g *Graph) Finalized() bool { return g.finalized }

// NumNodes returns the number of nodes ever allocated in this graph,
// including any later removed by a pass (removal only detaches a node from
// its block; the arena slot is never reused).
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumBlocks returns the number of blocks ever allocated in this graph.
func (g *Graph) NumBlocks() int { return len(g.blocks) }

// Node resolves a NodeID to its node. Panics on an out-of-range id, which
// indicates a dangling handle — a malformed-IR invariant violation (§7).
func (g *Graph) Node(id NodeID) *Node {
	return &g.nodes[id]
}

// Block resolves a BlockID to its block.
func (g *Graph) Block(id BlockID) *Block {
	return &g.blocks[id]
}

// Blocks returns the ids of every block ever allocated, in arena
// (creation) order.
func (g *Graph) Blocks() []BlockID {
	ids := make([]BlockID, len(g.blocks))
	for i := range g.blocks {
		ids[i] = BlockID(i)
	}
	return ids
}

// CreateBlock allocates a new, unconnected block and returns its id.
func (g *Graph) CreateBlock(name string) BlockID {
	id := BlockID(len(g.blocks))
	g.blocks = append(g.blocks, Block{id: id, Name: name})
	return id
}

// newNode allocates a node of the given kind, unplaced, with no edges.
func (g *Graph) newNode(kind Kind) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{id: id, kind: kind, block: InvalidBlockID})
	return id
}

// NewConstantIn allocates a fresh Constant node carrying value and places
// it directly into block, for passes (strength reduction, range-driven
// rewrites) that run after the builder has finalized the graph and so
// cannot go through Builder.Constant.
func (g *Graph) NewConstantIn(block BlockID, value interface{}) NodeID {
	id := g.newNode(KindConstant)
	g.nodes[id].ConstValue = value
	g.PlaceNode(block, id)
	return id
}

// NewGuardIn allocates a fresh Guard node checking value and places it into
// block, for the speculation manager, which runs after the builder has
// finalized the graph and so cannot go through Builder.Guard. The guard
// does not rewire value's existing consumers: it is inserted purely for its
// side effect (a live DCE root and a deoptimization point), not as a new
// producer in the dataflow.
func (g *Graph) NewGuardIn(block BlockID, kind GuardKind, value NodeID, witness interface{}) NodeID {
	id := g.newNode(KindGuard)
	g.nodes[id].GuardKind = kind
	g.nodes[id].GuardWitness = witness
	g.AddInput(id, value)
	g.PlaceNode(block, id)
	return id
}

// AddInput records that n depends on input, mirroring the edge into
// input's user list. This is the single routine permitted to touch either
// list; every pass must route edge mutation through it (or RemoveInput /
// ReplaceAllUses) to keep the bidirectional invariant in §3 intact.
func (g *Graph) AddInput(n, input NodeID) {
	g.nodes[n].inputs = append(g.nodes[n].inputs, input)
	g.nodes[input].users = append(g.nodes[input].users, n)
}

// RemoveInput deletes the input at position idx from n's input list and
// removes the matching occurrence from that input's user list.
func (g *Graph) RemoveInput(n NodeID, idx int) {
	input := g.nodes[n].inputs[idx]
	g.nodes[n].inputs = append(g.nodes[n].inputs[:idx], g.nodes[n].inputs[idx+1:]...)
	g.removeUserOnce(input, n)
}

func (g *Graph) removeUserOnce(of, user NodeID) {
	users := g.nodes[of].users
	for i, u := range users {
		if u == user {
			g.nodes[of].users = append(users[:i], users[i+1:]...)
			return
		}
	}
}

// ReplaceInput overwrites the input at position idx on n, updating both
// user lists accordingly.
func (g *Graph) ReplaceInput(n NodeID, idx int, newInput NodeID) {
	old := g.nodes[n].inputs[idx]
	if old == newInput {
		return
	}
	g.nodes[n].inputs[idx] = newInput
	g.removeUserOnce(old, n)
	g.nodes[newInput].users = append(g.nodes[newInput].users, n)
}

// ReplaceAllUses rewires every current user of old to use new instead, and
// clears old's user list. Used by constant folding and scalar replacement
// to retire a node while keeping every consumer consistent in one step.
func (g *Graph) ReplaceAllUses(old, new NodeID) {
	if old == new {
		return
	}
	users := make([]NodeID, len(g.nodes[old].users))
	copy(users, g.nodes[old].users)

	for _, u := range users {
		inputs := g.nodes[u].inputs
		for i, in := range inputs {
			if in == old {
				inputs[i] = new
				g.nodes[new].users = append(g.nodes[new].users, u)
			}
		}
	}
	g.nodes[old].users = nil
}

// PlaceNode appends node n to block b's instruction list and records the
// owning block on the node. A node may be placed at most once; placing an
// already-placed node is a builder-misuse error the caller must not trigger
// (callers route construction through Builder, which enforces this).
func (g *Graph) PlaceNode(b BlockID, n NodeID) {
	g.blocks[b].Nodes = append(g.blocks[b].Nodes, n)
	g.nodes[n].block = b
}

// DetachNode removes id from its owning block's Nodes list and resets its
// block back to InvalidBlockID, marking it unplaced. Every full-arena pass
// treats InvalidBlockID as "already dead, skip" (§8: after DCE, every
// remaining node is either side-effecting or transitively used by one), so
// any pass that drops a node out of a block's schedule must route the
// removal through here rather than splicing Nodes directly — otherwise a
// later pass can still find the node by NumNodes()/Node() and resurrect it
// into a live block via PlaceNode/NewConstantIn.
func (g *Graph) DetachNode(id NodeID) {
	b := g.nodes[id].block
	if b == InvalidBlockID {
		return
	}
	blk := &g.blocks[b]
	for i, n := range blk.Nodes {
		if n == id {
			blk.Nodes = append(blk.Nodes[:i], blk.Nodes[i+1:]...)
			break
		}
	}
	g.nodes[id].block = InvalidBlockID
}

// RelocateNode moves an already-placed node to a different block, used by
// code-motion passes (LICM, scheduling) that sink or hoist pure nodes
// across block boundaries after the initial build. The caller is
// responsible for removing id from its previous block's Nodes list; this
// only updates the node's own block pointer and appends it to to's list.
func (g *Graph) RelocateNode(id NodeID, to BlockID) {
	g.nodes[id].block = to
	g.blocks[to].Nodes = append(g.blocks[to].Nodes, id)
}

// Connect adds a successor edge from -> to, keeping predecessor and
// successor lists symmetric. Duplicate edges between the same pair of
// blocks are elided per §4.1.
func (g *Graph) Connect(from, to BlockID) {
	fb := &g.blocks[from]
	if fb.containsSucc(to) {
		return
	}
	fb.Succs = append(fb.Succs, to)
	tb := &g.blocks[to]
	if !tb.containsPred(from) {
		tb.Preds = append(tb.Preds, from)
	}
}

// RemoveBlock excises a block from the graph's connectivity and drops its
// node list. It does not compact the arena; the slot is simply orphaned (no
// predecessor can reach it).
func (g *Graph) RemoveBlock(b BlockID) {
	blk := &g.blocks[b]
	for _, s := range blk.Succs {
		sb := &g.blocks[s]
		for i, p := range sb.Preds {
			if p == b {
				sb.Preds = append(sb.Preds[:i], sb.Preds[i+1:]...)
				break
			}
		}
	}
	for _, p := range blk.Preds {
		pb := &g.blocks[p]
		for i, s := range pb.Succs {
			if s == b {
				pb.Succs = append(pb.Succs[:i], pb.Succs[i+1:]...)
				break
			}
		}
	}
	blk.Preds = nil
	blk.Succs = nil
	blk.Nodes = nil
}

// Finalize designates the entry and exit blocks and marks the graph as
// built. Finalizing without a valid entry, or finalizing twice, are both
// fatal builder-misuse conditions per §7 and are reported by the IR
// builder, not here — Graph itself stays a dumb data structure.
func (g *Graph) Finalize(entry, exit BlockID) {
	g.entry = entry
	g.exit = exit
	g.finalized = true
}

// Reachable returns the set of blocks reachable from the entry block by
// walking successor edges. Blocks excluded from the result are undefined
// for dominance purposes (§4.2).
func (g *Graph) Reachable() map[BlockID]bool {
	seen := map[BlockID]bool{}
	if g.entry == InvalidBlockID {
		return seen
	}
	stack := []BlockID{g.entry}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[b] {
			continue
		}
		seen[b] = true
		for _, s := range g.blocks[b].Succs {
			if !seen[s] {
				stack = append(stack, s)
			}
		}
	}
	return seen
}
