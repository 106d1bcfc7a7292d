package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jitcore/internal/ir"
)

func TestStrengthReductionRewritesMultiplyByPowerOfTwo(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	p := ib.Parameter(0)
	eight := ib.Constant(8)
	mul := ib.BinaryOp("*", p, eight)
	ib.Return(mul)
	require.Nil(t, ib.Finalize(entry, entry))

	g := ib.Graph()
	changed := StrengthReduction{}.Apply(g)
	assert.True(t, changed)

	n := g.Node(mul)
	assert.Equal(t, "<<", n.Op)
	shift := g.Node(n.Inputs()[1])
	assert.Equal(t, ir.KindConstant, shift.Kind())
	assert.Equal(t, 3, shift.ConstValue)
}

func TestStrengthReductionRewritesDivideByPowerOfTwo(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	p := ib.Parameter(0)
	four := ib.Constant(4)
	div := ib.BinaryOp("/", p, four)
	ib.Return(div)
	require.Nil(t, ib.Finalize(entry, entry))

	g := ib.Graph()
	changed := StrengthReduction{}.Apply(g)
	assert.True(t, changed)
	assert.Equal(t, ">>", g.Node(div).Op)
}

func TestStrengthReductionLeavesNonPowerOfTwoAlone(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	p := ib.Parameter(0)
	three := ib.Constant(3)
	mul := ib.BinaryOp("*", p, three)
	ib.Return(mul)
	require.Nil(t, ib.Finalize(entry, entry))

	g := ib.Graph()
	changed := StrengthReduction{}.Apply(g)
	assert.False(t, changed)
	assert.Equal(t, "*", g.Node(mul).Op)
}
