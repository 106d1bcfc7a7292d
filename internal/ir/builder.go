package ir

import (
	"fmt"

	cerrors "jitcore/internal/errors"
)

// Builder constructs a Graph one node and one block at a time. It is the
// only intended way to mutate a graph before Finalize: it enforces the
// builder-misuse invariants in the fatal C0xxx class (§7) that Graph itself,
// being a dumb data structure, does not check.
//
// A Builder is single-use: once Finalize has been called, every further
// operation records a C0002 diagnostic (see Err) instead of touching the
// graph; a second Finalize reports C0003.
type Builder struct {
	graph *Graph

	current BlockID // block new nodes are appended to
	placed  map[NodeID]bool

	finalized bool
	fatal     *cerrors.CompilerError
}

// NewBuilder creates a builder around a fresh, empty graph.
func NewBuilder() *Builder {
	return &Builder{
		graph:   NewGraph(),
		current: InvalidBlockID,
		placed:  make(map[NodeID]bool),
	}
}

// Graph returns the graph under construction. Safe to call at any point,
// including after a fatal error, to inspect partial state.
func (b *Builder) Graph() *Graph { return b.graph }

// Err returns the first fatal builder-misuse error encountered, or nil.
// Once set it is sticky: every subsequent builder call is a no-op.
func (b *Builder) Err() *cerrors.CompilerError { return b.fatal }

func (b *Builder) fail(err *cerrors.CompilerError) {
	if b.fatal == nil {
		b.fatal = err
	}
}

func (b *Builder) guard() bool {
	if b.fatal != nil {
		return false
	}
	if b.finalized {
		b.fail(cerrors.Fatalf(cerrors.ErrBuildOnFinalized, "builder", "operation attempted after Finalize"))
		return false
	}
	return true
}

// CreateBlock allocates a new block and returns its id. It does not become
// the current block; call SetCurrentBlock to start appending nodes to it.
func (b *Builder) CreateBlock(name string) BlockID {
	if !b.guard() {
		return InvalidBlockID
	}
	return b.graph.CreateBlock(name)
}

// SetCurrentBlock directs subsequent Append* calls at block id.
func (b *Builder) SetCurrentBlock(id BlockID) {
	if !b.guard() {
		return
	}
	b.current = id
}

// CurrentBlock returns the block new nodes are being appended to.
func (b *Builder) CurrentBlock() BlockID { return b.current }

// Connect records a control-flow edge from one block to another.
func (b *Builder) Connect(from, to BlockID) {
	if !b.guard() {
		return
	}
	b.graph.Connect(from, to)
}

func (b *Builder) place(n NodeID) {
	if b.placed[n] {
		b.fail(cerrors.Fatalf(cerrors.ErrNodePlacedTwice, "builder", "node n%d placed more than once", n).AtNode(int32(n)))
		return
	}
	b.placed[n] = true
	b.graph.PlaceNode(b.current, n)
}

// Constant appends a Constant node to the current block.
func (b *Builder) Constant(value interface{}) NodeID {
	if !b.guard() {
		return InvalidNodeID
	}
	n := b.graph.newNode(KindConstant)
	b.graph.Node(n).ConstValue = value
	b.place(n)
	return n
}

// Parameter appends a Parameter node to the current block.
func (b *Builder) Parameter(index int) NodeID {
	if !b.guard() {
		return InvalidNodeID
	}
	n := b.graph.newNode(KindParameter)
	b.graph.Node(n).ParamIndex = index
	b.place(n)
	return n
}

// BinaryOp appends a BinaryOp node computing lhs op rhs.
func (b *Builder) BinaryOp(op string, lhs, rhs NodeID) NodeID {
	if !b.guard() {
		return InvalidNodeID
	}
	n := b.graph.newNode(KindBinaryOp)
	b.graph.Node(n).Op = op
	b.graph.AddInput(n, lhs)
	b.graph.AddInput(n, rhs)
	b.place(n)
	return n
}

// UnaryOp appends a UnaryOp node computing op operand.
func (b *Builder) UnaryOp(op string, operand NodeID) NodeID {
	if !b.guard() {
		return InvalidNodeID
	}
	n := b.graph.newNode(KindUnaryOp)
	b.graph.Node(n).Op = op
	b.graph.AddInput(n, operand)
	b.place(n)
	return n
}

// LoadProperty appends a LoadProperty node reading property off object.
func (b *Builder) LoadProperty(object NodeID, property string) NodeID {
	if !b.guard() {
		return InvalidNodeID
	}
	n := b.graph.newNode(KindLoadProperty)
	b.graph.Node(n).Property = property
	b.graph.AddInput(n, object)
	b.place(n)
	return n
}

// StoreProperty appends a StoreProperty node writing value to property on object.
func (b *Builder) StoreProperty(object NodeID, property string, value NodeID) NodeID {
	if !b.guard() {
		return InvalidNodeID
	}
	n := b.graph.newNode(KindStoreProperty)
	b.graph.Node(n).Property = property
	b.graph.AddInput(n, object)
	b.graph.AddInput(n, value)
	b.place(n)
	return n
}

// Call appends a Call node invoking callee with args, in order.
func (b *Builder) Call(callee string, args ...NodeID) NodeID {
	if !b.guard() {
		return InvalidNodeID
	}
	n := b.graph.newNode(KindCall)
	b.graph.Node(n).Callee = callee
	for _, a := range args {
		b.graph.AddInput(n, a)
	}
	b.place(n)
	return n
}

// Return appends a Return node. value may be InvalidNodeID for a bare return.
func (b *Builder) Return(value NodeID) NodeID {
	if !b.guard() {
		return InvalidNodeID
	}
	n := b.graph.newNode(KindReturn)
	if value != InvalidNodeID {
		b.graph.AddInput(n, value)
	}
	b.place(n)
	return n
}

// Branch appends a Branch node testing cond. The caller must also Connect
// the current block to both the true and false successor blocks.
func (b *Builder) Branch(cond NodeID) NodeID {
	if !b.guard() {
		return InvalidNodeID
	}
	n := b.graph.newNode(KindBranch)
	b.graph.AddInput(n, cond)
	b.place(n)
	return n
}

// Merge appends a Merge node marking a block as a control-flow join point.
func (b *Builder) Merge() NodeID {
	if !b.guard() {
		return InvalidNodeID
	}
	n := b.graph.newNode(KindMerge)
	b.place(n)
	return n
}

// Guard appends a speculative Guard node of the given kind over value,
// carrying witness (a type name, shape id, or interval depending on kind).
func (b *Builder) Guard(kind GuardKind, value NodeID, witness interface{}) NodeID {
	if !b.guard() {
		return InvalidNodeID
	}
	n := b.graph.newNode(KindGuard)
	node := b.graph.Node(n)
	node.GuardKind = kind
	node.GuardWitness = witness
	b.graph.AddInput(n, value)
	b.place(n)
	return n
}

// Phi appends a Phi node. inputs must line up positionally with the current
// block's predecessor list once the block is sealed; arity mismatches are
// caught by Finalize's validation pass, not here, since predecessors may
// still be in flux while a phi is being built (§4.1).
func (b *Builder) Phi(inputs ...NodeID) NodeID {
	if !b.guard() {
		return InvalidNodeID
	}
	n := b.graph.newNode(KindPhi)
	for _, in := range inputs {
		b.graph.AddInput(n, in)
	}
	b.place(n)
	return n
}

// AddPhiInput appends one more operand to an existing phi, used while a
// block is still being wired to its predecessors one at a time.
func (b *Builder) AddPhiInput(phi, input NodeID) {
	if !b.guard() {
		return
	}
	b.graph.AddInput(phi, input)
}

// Finalize designates entry/exit and seals the graph after checking for a
// double Finalize, a missing or out-of-range entry block, and phi arity.
// Use after Finalize and double placement are caught per call (guard,
// place); no other IR invariant is validated here.
func (b *Builder) Finalize(entry, exit BlockID) *cerrors.CompilerError {
	if b.fatal != nil {
		return b.fatal
	}
	if b.finalized {
		b.fail(cerrors.Fatalf(cerrors.ErrDoubleFinalize, "builder", "graph finalized more than once"))
		return b.fatal
	}
	if entry == InvalidBlockID || int(entry) >= b.graph.NumBlocks() {
		b.fail(cerrors.Fatalf(cerrors.ErrFinalizeWithoutEntry, "builder", "finalize called without a valid entry block"))
		return b.fatal
	}

	if err := b.validatePhiArity(); err != nil {
		b.fail(err)
		return b.fatal
	}

	b.graph.Finalize(entry, exit)
	b.finalized = true
	return nil
}

// validatePhiArity enforces §3's phi invariant: every phi has exactly one
// input per predecessor of its owning block.
func (b *Builder) validatePhiArity() *cerrors.CompilerError {
	for i := 0; i < b.graph.NumNodes(); i++ {
		n := b.graph.Node(NodeID(i))
		if n.Kind() != KindPhi {
			continue
		}
		if n.Block() == InvalidBlockID {
			continue
		}
		block := b.graph.Block(n.Block())
		if len(n.Inputs()) != len(block.Preds) {
			return cerrors.Fatalf(cerrors.ErrPhiArityMismatch, "builder",
				"phi n%d has %d inputs for %d predecessors of block %q",
				n.ID(), len(n.Inputs()), len(block.Preds), block.Name).AtNode(int32(n.ID())).AtBlock(int32(block.ID()))
		}
	}
	return nil
}

// String renders a one-line summary, used by CLI banners and trace logs.
func (b *Builder) String() string {
	return fmt.Sprintf("Builder{blocks=%d nodes=%d finalized=%v}", b.graph.NumBlocks(), b.graph.NumNodes(), b.finalized)
}
