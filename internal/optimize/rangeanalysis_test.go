package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jitcore/internal/ir"
)

func TestRangeAnalysisConstantIsPointInterval(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	c := ib.Constant(7)
	ib.Return(c)
	require.Nil(t, ib.Finalize(entry, entry))

	ra := &RangeAnalysis{}
	ra.Apply(ib.Graph())
	assert.Equal(t, Interval{7, 7}, ra.RangeOf(c))
}

func TestRangeAnalysisParameterIsTop(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	p := ib.Parameter(0)
	ib.Return(p)
	require.Nil(t, ib.Finalize(entry, entry))

	ra := &RangeAnalysis{}
	ra.Apply(ib.Graph())
	assert.Equal(t, top(), ra.RangeOf(p))
}

func TestRangeAnalysisComparisonYieldsZeroOne(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	p := ib.Parameter(0)
	c := ib.Constant(1)
	cmp := ib.BinaryOp("<", p, c)
	ib.Return(cmp)
	require.Nil(t, ib.Finalize(entry, entry))

	ra := &RangeAnalysis{}
	ra.Apply(ib.Graph())
	assert.Equal(t, Interval{0, 1}, ra.RangeOf(cmp))
}

func TestRangeAnalysisAdditionAddsCorners(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	a := ib.Constant(3)
	b := ib.Constant(4)
	sum := ib.BinaryOp("+", a, b)
	ib.Return(sum)
	require.Nil(t, ib.Finalize(entry, entry))

	ra := &RangeAnalysis{}
	ra.Apply(ib.Graph())
	assert.Equal(t, Interval{7, 7}, ra.RangeOf(sum))
}
