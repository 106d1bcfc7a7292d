package driver

import (
	"strconv"

	"jitcore/internal/bytecode"
	"jitcore/internal/domtree"
	"jitcore/internal/ir"
	"jitcore/internal/ssa"

	cerrors "jitcore/internal/errors"
)

// atoiArg parses a bytecode operand that names a parameter index.
func atoiArg(raw string) (int, error) {
	return strconv.Atoi(raw)
}

// lowerState carries the bookkeeping Lower needs across a single unit:
// resolved values already built as real nodes, locals still awaiting a
// reaching definition, and the per-block SSA def/use lists fed to the SSA
// builder once every block has been visited.
type lowerState struct {
	ib     *ir.Builder
	blocks map[string]ir.BlockID
	values map[string]ir.NodeID // bytecode %N -> IR node, once resolved
	slots  map[string]ssa.VarSlot

	// pendingLocals maps a getlocal's destination name to the slot it
	// reads, since getlocal itself produces no real node.
	pendingLocals map[string]ssa.VarSlot
	nextSlot      ssa.VarSlot

	// placeholders maps a placeholder Constant(nil) node, created by
	// resolve for a not-yet-resolvable local read, back to the slot it
	// stands in for, so whoever wires it in as an input can turn it into
	// a proper ssa.Use against the real consuming node.
	placeholders map[ir.NodeID]ssa.VarSlot

	sb   *ssa.Builder
	uses map[ir.BlockID][]ssa.Use

	// offsets maps a produced node back to the bytecode instruction index
	// that built it, since ProfilingRecord feedback (§6) is keyed by
	// offset, not by node id. nextOffset increments once per source
	// instruction, independent of how many IR nodes that instruction
	// lowers to.
	offsets    map[ir.NodeID]int
	nextOffset int
}

func (s *lowerState) recordOffset(n ir.NodeID) {
	if n == ir.InvalidNodeID {
		return
	}
	s.offsets[n] = s.nextOffset
}

func (s *lowerState) slotFor(local string) ssa.VarSlot {
	if id, ok := s.slots[local]; ok {
		return id
	}
	id := s.nextSlot
	s.nextSlot++
	s.slots[local] = id
	return id
}

// resolve returns a usable NodeID for name: the real node if already built,
// or a fresh placeholder if name was bound by a not-yet-resolved getlocal.
// Callers that wire the result in as an instruction input must route it
// through useArg so the placeholder is rewritten by Rename instead of
// surviving as a literal nil constant.
func (s *lowerState) resolve(name string) (ir.NodeID, *cerrors.CompilerError) {
	if n, ok := s.values[name]; ok {
		return n, nil
	}
	if slot, ok := s.pendingLocals[name]; ok {
		ph := s.ib.Constant(nil)
		if s.placeholders == nil {
			s.placeholders = map[ir.NodeID]ssa.VarSlot{}
		}
		s.placeholders[ph] = slot
		return ph, nil
	}
	return ir.InvalidNodeID, cerrors.Fatalf(cerrors.ErrDanglingHandle, "lower", "reference to undefined value %q", name)
}

// useArg records, for arg already wired as input index idx of consumer,
// that the input is really a pending local read: Rename must rewrite it to
// the reaching definition of the slot rather than leaving consumer pointed
// at the placeholder's meaningless nil constant.
func (s *lowerState) useArg(block ir.BlockID, consumer ir.NodeID, idx int, arg ir.NodeID) {
	if slot, ok := s.placeholders[arg]; ok {
		s.uses[block] = append(s.uses[block], ssa.Use{Slot: slot, Node: consumer, Idx: idx})
	}
}

// Lower builds a finalized, SSA-form ir.Graph from a bytecode.Unit (§4.1 +
// §4.3, run back to back as the driver's first two pipeline steps). It
// returns a fatal *cerrors.CompilerError on malformed input; per §7 that
// aborts the compile and the caller falls back to the baseline tier.
func Lower(unit *bytecode.Unit) (*ir.Graph, *cerrors.CompilerError) {
	g, _, err := LowerWithOffsets(unit)
	return g, err
}

// LowerWithOffsets is Lower plus the bytecode-offset map the speculation
// manager needs to look up ProfilingRecord feedback for a given node (§4.5,
// §6). The offset is the source instruction's index within the unit,
// counted across all blocks in traversal order, with each block's
// terminator also taking one offset after that block's instructions.
func LowerWithOffsets(unit *bytecode.Unit) (*ir.Graph, map[ir.NodeID]int, *cerrors.CompilerError) {
	if len(unit.Blocks) == 0 {
		ib := ir.NewBuilder()
		entry := ib.CreateBlock("entry")
		ib.SetCurrentBlock(entry)
		ib.Return(ir.InvalidNodeID)
		if err := ib.Finalize(entry, entry); err != nil {
			return nil, nil, err
		}
		return ib.Graph(), map[ir.NodeID]int{}, nil
	}

	ib := ir.NewBuilder()
	s := &lowerState{
		ib:            ib,
		blocks:        map[string]ir.BlockID{},
		values:        map[string]ir.NodeID{},
		slots:         map[string]ssa.VarSlot{},
		pendingLocals: map[string]ssa.VarSlot{},
		uses:          map[ir.BlockID][]ssa.Use{},
		offsets:       map[ir.NodeID]int{},
	}

	for _, blk := range unit.Blocks {
		s.blocks[blk.Name] = ib.CreateBlock(blk.Name)
	}

	s.sb = ssa.New(ib.Graph(), nil)

	for _, blk := range unit.Blocks {
		bid := s.blocks[blk.Name]
		ib.SetCurrentBlock(bid)

		for _, instr := range blk.Instr {
			if err := s.lowerInstr(bid, instr); err != nil {
				return nil, nil, err
			}
			if instr.Dest != "" {
				if id, ok := s.values[instr.Dest]; ok {
					s.recordOffset(id)
				}
			}
			s.nextOffset++
		}
		if err := s.lowerTerminator(bid, blk); err != nil {
			return nil, nil, err
		}
		s.nextOffset++
		if err := ib.Err(); err != nil {
			return nil, nil, err
		}
	}

	entry := s.blocks[unit.Blocks[0].Name]
	exit := s.blocks[unit.Blocks[len(unit.Blocks)-1].Name]

	// Set entry/exit on the graph directly so dominance can be computed
	// while the builder is still unlocked for SSA's Phi/AddPhiInput
	// calls; Builder.Finalize (below) re-applies this and performs the
	// real validation once renaming has completed.
	ib.Graph().Finalize(entry, exit)

	tree := domtree.Build(ib.Graph())
	s.sb.SetTree(tree)
	s.sb.InsertPhis(ib)
	s.sb.Rename(ib, s.uses)

	if err := ib.Finalize(entry, exit); err != nil {
		return nil, nil, err
	}
	return ib.Graph(), s.offsets, nil
}

// lowerInstr builds the IR node(s) for one pre-SSA bytecode instruction and
// binds instr.Dest (if any) to the resulting value.
func (s *lowerState) lowerInstr(block ir.BlockID, instr bytecode.Instr) *cerrors.CompilerError {
	switch instr.Op {
	case bytecode.OpConst:
		s.values[instr.Dest] = s.ib.Constant(instr.Const)

	case bytecode.OpParam:
		idx, convErr := atoiArg(instr.Args[0])
		if convErr != nil {
			return cerrors.Fatalf(cerrors.ErrDanglingHandle, "lower", "param argument %q is not an index", instr.Args[0])
		}
		s.values[instr.Dest] = s.ib.Parameter(idx)

	case bytecode.OpBinOp:
		lhs, err := s.resolve(instr.Args[0])
		if err != nil {
			return err
		}
		rhs, err := s.resolve(instr.Args[1])
		if err != nil {
			return err
		}
		n := s.ib.BinaryOp(instr.Extra, lhs, rhs)
		s.useArg(block, n, 0, lhs)
		s.useArg(block, n, 1, rhs)
		s.values[instr.Dest] = n

	case bytecode.OpUnOp:
		operand, err := s.resolve(instr.Args[0])
		if err != nil {
			return err
		}
		n := s.ib.UnaryOp(instr.Extra, operand)
		s.useArg(block, n, 0, operand)
		s.values[instr.Dest] = n

	case bytecode.OpLoadProp:
		obj, err := s.resolve(instr.Args[0])
		if err != nil {
			return err
		}
		n := s.ib.LoadProperty(obj, instr.Extra)
		s.useArg(block, n, 0, obj)
		s.values[instr.Dest] = n

	case bytecode.OpStoreProp:
		obj, err := s.resolve(instr.Args[0])
		if err != nil {
			return err
		}
		val, err := s.resolve(instr.Args[1])
		if err != nil {
			return err
		}
		n := s.ib.StoreProperty(obj, instr.Extra, val)
		s.useArg(block, n, 0, obj)
		s.useArg(block, n, 1, val)

	case bytecode.OpCall:
		args := make([]ir.NodeID, len(instr.Args))
		for i, a := range instr.Args {
			v, err := s.resolve(a)
			if err != nil {
				return err
			}
			args[i] = v
		}
		n := s.ib.Call(instr.Extra, args...)
		for i, a := range args {
			s.useArg(block, n, i, a)
		}
		s.values[instr.Dest] = n

	case bytecode.OpSetLocal:
		val, err := s.resolve(instr.Args[0])
		if err != nil {
			return err
		}
		if _, pending := s.placeholders[val]; pending {
			return cerrors.Fatalf(cerrors.ErrDanglingHandle, "lower", "setlocal %q forwards an unresolved getlocal with no intervening definition", instr.Local)
		}
		s.sb.RecordDef(s.slotFor(instr.Local), block, val)

	case bytecode.OpGetLocal:
		s.pendingLocals[instr.Dest] = s.slotFor(instr.Local)

	default:
		return cerrors.Fatalf(cerrors.ErrUnimplementedOpcode, "lower", "no IR lowering for opcode %q", instr.Op)
	}
	return nil
}

// lowerTerminator builds the IR for blk's terminator and wires the CFG
// edges to its successors.
func (s *lowerState) lowerTerminator(block ir.BlockID, blk bytecode.Block) *cerrors.CompilerError {
	switch blk.Term.Kind {
	case bytecode.TermReturn:
		v := ir.InvalidNodeID
		if blk.Term.Value != "" {
			resolved, err := s.resolve(blk.Term.Value)
			if err != nil {
				return err
			}
			v = resolved
		}
		n := s.ib.Return(v)
		if v != ir.InvalidNodeID {
			s.useArg(block, n, 0, v)
		}

	case bytecode.TermBranch:
		cond, err := s.resolve(blk.Term.Cond)
		if err != nil {
			return err
		}
		n := s.ib.Branch(cond)
		s.useArg(block, n, 0, cond)

		trueID, ok := s.blocks[blk.Term.True]
		if !ok {
			return cerrors.Fatalf(cerrors.ErrDanglingHandle, "lower", "branch targets unknown block %q", blk.Term.True)
		}
		falseID, ok := s.blocks[blk.Term.False]
		if !ok {
			return cerrors.Fatalf(cerrors.ErrDanglingHandle, "lower", "branch targets unknown block %q", blk.Term.False)
		}
		s.ib.Connect(block, trueID)
		s.ib.Connect(block, falseID)

	case bytecode.TermJump:
		targetID, ok := s.blocks[blk.Term.Jump]
		if !ok {
			return cerrors.Fatalf(cerrors.ErrDanglingHandle, "lower", "jump targets unknown block %q", blk.Term.Jump)
		}
		s.ib.Connect(block, targetID)

	default:
		return cerrors.Fatalf(cerrors.ErrUnimplementedOpcode, "lower", "no IR lowering for terminator %q", blk.Term.Kind)
	}
	return nil
}
