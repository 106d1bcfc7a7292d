package ir

// BlockID is a stable handle into a Graph's block arena.
type BlockID int32

// InvalidBlockID marks the absence of a block reference.
const InvalidBlockID BlockID = -1

// Block is a straight-line sequence of nodes with one entry and one exit.
// Predecessor and successor links are kept symmetric by the Graph that owns
// the block; nothing outside Graph.Connect should append to them directly.
type Block struct {
	id    BlockID
	Name  string
	Nodes []NodeID // contained nodes, in execution order

	Preds []BlockID
	Succs []BlockID
}

// ID returns the block's stable identifier.
func (b *Block) ID() BlockID { return b.id }

// hasTerminatorKind reports whether the last node placed in the block is a
// control-transferring kind (Return or Branch); it is false for an empty
// block or one that falls through via a plain successor edge.
func (b *Block) hasTerminatorKind(g *Graph) bool {
	if len(b.Nodes) == 0 {
		return false
	}
	last := g.Node(b.Nodes[len(b.Nodes)-1])
	return last.Kind() == KindReturn || last.Kind() == KindBranch
}

// containsSucc reports whether target is already a successor of b.
func (b *Block) containsSucc(target BlockID) bool {
	for _, s := range b.Succs {
		if s == target {
			return true
		}
	}
	return false
}

func (b *Block) containsPred(source BlockID) bool {
	for _, p := range b.Preds {
		if p == source {
			return true
		}
	}
	return false
}
