package optimize

import (
	"math"

	"jitcore/internal/ir"
)

// ConstantFolding evaluates binary/unary ops whose inputs are all constants
// and rewires every user to the computed value (§4.4.1). Runs to a fixed
// point since folding one node can make its user foldable in turn.
type ConstantFolding struct{}

func (ConstantFolding) Name() string { return "constant-folding" }
func (ConstantFolding) Description() string {
	return "replaces binary/unary ops over all-constant inputs with a literal"
}

func (cf ConstantFolding) Apply(g *ir.Graph) bool {
	changed := false
	for {
		progress := false
		for i := 0; i < g.NumNodes(); i++ {
			n := g.Node(ir.NodeID(i))
			if n.Block() == ir.InvalidBlockID {
				continue // already dead / unplaced
			}
			folded, ok := foldNode(g, n)
			if !ok {
				continue
			}
			replacement := g.NewConstantIn(n.Block(), folded)
			g.ReplaceAllUses(n.ID(), replacement)
			g.DetachNode(n.ID())
			progress = true
		}
		if !progress {
			break
		}
		changed = true
	}
	return changed
}

func foldNode(g *ir.Graph, n *ir.Node) (interface{}, bool) {
	switch n.Kind() {
	case ir.KindBinaryOp:
		lhs, lok := constOf(g, n.Inputs()[0])
		rhs, rok := constOf(g, n.Inputs()[1])
		if !lok || !rok {
			return nil, false
		}
		return foldBinary(n.Op, lhs, rhs)
	case ir.KindUnaryOp:
		v, ok := constOf(g, n.Inputs()[0])
		if !ok {
			return nil, false
		}
		return foldUnary(n.Op, v)
	default:
		return nil, false
	}
}

func constOf(g *ir.Graph, id ir.NodeID) (interface{}, bool) {
	n := g.Node(id)
	if n.Kind() != ir.KindConstant || n.ConstValue == nil {
		return nil, false
	}
	return n.ConstValue, true
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	default:
		return 0, false
	}
}

func isInt(v interface{}) bool {
	switch v.(type) {
	case int, int32, int64:
		return true
	default:
		return false
	}
}

// foldBinary implements the supported arithmetic, comparison, and
// arithmetic-shape of §4.4.1. Division by zero yields +/-inf for floats (NaN
// for 0/0) and is left unfolded for ints (dividing by zero is undefined, not
// a value).
func foldBinary(op string, lraw, rraw interface{}) (interface{}, bool) {
	if lb, rb, ok := asBools(lraw, rraw); ok {
		switch op {
		case "==":
			return lb == rb, true
		case "!=":
			return lb != rb, true
		}
	}

	l, lok := toFloat(lraw)
	r, rok := toFloat(rraw)
	if !lok || !rok {
		return nil, false
	}
	bothInt := isInt(lraw) && isInt(rraw)

	switch op {
	case "+":
		return reconstruct(l+r, bothInt), true
	case "-":
		return reconstruct(l-r, bothInt), true
	case "*":
		return reconstruct(l*r, bothInt), true
	case "/":
		if r == 0 {
			if bothInt {
				return nil, false
			}
			if l == 0 {
				return nan(), true
			}
			if l > 0 {
				return posInf(), true
			}
			return negInf(), true
		}
		return reconstruct(l/r, bothInt), true
	case "%":
		if r == 0 {
			return nil, false
		}
		return reconstruct(modFloat(l, r), bothInt), true
	case "==":
		return l == r, true
	case "!=":
		return l != r, true
	case "<":
		return l < r, true
	case "<=":
		return l <= r, true
	case ">":
		return l > r, true
	case ">=":
		return l >= r, true
	default:
		return nil, false
	}
}

func foldUnary(op string, raw interface{}) (interface{}, bool) {
	switch op {
	case "-":
		v, ok := toFloat(raw)
		if !ok {
			return nil, false
		}
		return reconstruct(-v, isInt(raw)), true
	case "!":
		b, ok := raw.(bool)
		if !ok {
			return nil, false
		}
		return !b, true
	default:
		return nil, false
	}
}

func asBools(l, r interface{}) (lb, rb bool, ok bool) {
	lv, lok := l.(bool)
	rv, rok := r.(bool)
	if lok && rok {
		return lv, rv, true
	}
	return false, false, false
}

func reconstruct(v float64, asInt bool) interface{} {
	if asInt {
		return int(v)
	}
	return v
}

func modFloat(a, b float64) float64 {
	return math.Mod(a, b)
}

func nan() float64     { return math.NaN() }
func posInf() float64  { return math.Inf(1) }
func negInf() float64  { return math.Inf(-1) }
