package optimize

import "jitcore/internal/ir"

// StrengthReduction rewrites multiply/divide/modulo by a non-negative
// constant power of two into shift/mask ops (§4.4.6). Multiplication is
// commutative, so either operand may be the power-of-two constant; division
// and modulo are not, so only a right-operand constant qualifies.
type StrengthReduction struct{}

func (StrengthReduction) Name() string { return "strength-reduction" }
func (StrengthReduction) Description() string {
	return "rewrites multiply/divide/modulo by a power of two into shift/mask"
}

func (StrengthReduction) Apply(g *ir.Graph) bool {
	changed := false
	for i := 0; i < g.NumNodes(); i++ {
		n := g.Node(ir.NodeID(i))
		if n.Block() == ir.InvalidBlockID || n.Kind() != ir.KindBinaryOp {
			continue
		}
		if reduceOne(g, n) {
			changed = true
		}
	}
	return changed
}

func reduceOne(g *ir.Graph, n *ir.Node) bool {
	lhs, rhs := n.Inputs()[0], n.Inputs()[1]

	switch n.Op {
	case "*":
		if k, ok := powerOfTwoShift(g, rhs); ok {
			n.Op = "<<"
			g.ReplaceInput(n.ID(), 1, shiftAmount(g, n.Block(), k))
			return true
		}
		if k, ok := powerOfTwoShift(g, lhs); ok {
			n.Op = "<<"
			g.ReplaceInput(n.ID(), 0, rhs)
			g.ReplaceInput(n.ID(), 1, shiftAmount(g, n.Block(), k))
			return true
		}
	case "/":
		if k, ok := powerOfTwoShift(g, rhs); ok {
			n.Op = ">>"
			g.ReplaceInput(n.ID(), 1, shiftAmount(g, n.Block(), k))
			return true
		}
	case "%":
		if k, ok := powerOfTwoShift(g, rhs); ok {
			n.Op = "&"
			g.ReplaceInput(n.ID(), 1, maskValue(g, n.Block(), k))
			return true
		}
	}
	return false
}

// powerOfTwoShift reports whether id is a non-negative constant power of
// two, returning its base-2 exponent.
func powerOfTwoShift(g *ir.Graph, id ir.NodeID) (int, bool) {
	n := g.Node(id)
	if n.Kind() != ir.KindConstant {
		return 0, false
	}
	v, ok := asNonNegInt(n.ConstValue)
	if !ok || v == 0 || v&(v-1) != 0 {
		return 0, false
	}
	shift := 0
	for v > 1 {
		v >>= 1
		shift++
	}
	return shift, true
}

func asNonNegInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		if x < 0 {
			return 0, false
		}
		return x, true
	case int32:
		if x < 0 {
			return 0, false
		}
		return int(x), true
	case int64:
		if x < 0 {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
}

// shiftAmount/maskValue allocate a fresh constant in the rewritten op's own
// block, since the original power-of-two constant node may still have
// other users and cannot be mutated in place.
func shiftAmount(g *ir.Graph, block ir.BlockID, k int) ir.NodeID {
	return g.NewConstantIn(block, k)
}

func maskValue(g *ir.Graph, block ir.BlockID, k int) ir.NodeID {
	return g.NewConstantIn(block, (1<<uint(k))-1)
}
