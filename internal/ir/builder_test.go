package ir

import (
	"testing"

	cerrors "jitcore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderBuildsStraightLineFunction(t *testing.T) {
	b := NewBuilder()
	entry := b.CreateBlock("entry")
	b.SetCurrentBlock(entry)

	p0 := b.Parameter(0)
	p1 := b.Parameter(1)
	sum := b.BinaryOp("+", p0, p1)
	b.Return(sum)

	err := b.Finalize(entry, entry)
	require.Nil(t, err)

	g := b.Graph()
	assert.Equal(t, entry, g.Entry())
	assert.Equal(t, []NodeID{p0, p1}, g.Node(sum).Inputs())
}

func TestBuilderFinalizeWithoutEntryIsFatal(t *testing.T) {
	b := NewBuilder()
	err := b.Finalize(InvalidBlockID, InvalidBlockID)
	require.NotNil(t, err)
	assert.Equal(t, cerrors.ErrFinalizeWithoutEntry, err.Code)
	assert.True(t, err.Fatal())
}

func TestBuilderDoubleFinalizeIsFatal(t *testing.T) {
	b := NewBuilder()
	entry := b.CreateBlock("entry")
	b.SetCurrentBlock(entry)
	b.Return(InvalidNodeID)

	require.Nil(t, b.Finalize(entry, entry))
	err := b.Finalize(entry, entry)
	require.NotNil(t, err)
	assert.Equal(t, cerrors.ErrDoubleFinalize, err.Code)
}

func TestBuilderOperationAfterFinalizeIsFatal(t *testing.T) {
	b := NewBuilder()
	entry := b.CreateBlock("entry")
	b.SetCurrentBlock(entry)
	b.Return(InvalidNodeID)
	require.Nil(t, b.Finalize(entry, entry))

	b.Constant(1)
	require.NotNil(t, b.Err())
	assert.Equal(t, cerrors.ErrBuildOnFinalized, b.Err().Code)
}

func TestBuilderPhiArityMismatchIsFatal(t *testing.T) {
	b := NewBuilder()
	entry := b.CreateBlock("entry")
	left := b.CreateBlock("left")
	right := b.CreateBlock("right")
	join := b.CreateBlock("join")

	b.SetCurrentBlock(entry)
	cond := b.Constant(true)
	b.Branch(cond)
	b.Connect(entry, left)
	b.Connect(entry, right)

	b.SetCurrentBlock(left)
	lv := b.Constant(1)
	b.Connect(left, join)

	b.SetCurrentBlock(right)
	b.Connect(right, join)

	b.SetCurrentBlock(join)
	// Only one input supplied for two predecessors.
	phi := b.Phi(lv)
	b.Return(phi)

	err := b.Finalize(entry, join)
	require.NotNil(t, err)
	assert.Equal(t, cerrors.ErrPhiArityMismatch, err.Code)
}

func TestBuilderWellFormedPhiPasses(t *testing.T) {
	b := NewBuilder()
	entry := b.CreateBlock("entry")
	left := b.CreateBlock("left")
	right := b.CreateBlock("right")
	join := b.CreateBlock("join")

	b.SetCurrentBlock(entry)
	cond := b.Parameter(0)
	b.Branch(cond)
	b.Connect(entry, left)
	b.Connect(entry, right)

	b.SetCurrentBlock(left)
	lv := b.Constant(1)
	b.Connect(left, join)

	b.SetCurrentBlock(right)
	rv := b.Constant(2)
	b.Connect(right, join)

	b.SetCurrentBlock(join)
	phi := b.Phi(lv, rv)
	b.Return(phi)

	require.Nil(t, b.Finalize(entry, join))
}

func TestNodePlacedTwiceIsFatal(t *testing.T) {
	b := NewBuilder()
	entry := b.CreateBlock("entry")
	b.SetCurrentBlock(entry)
	n := b.Constant(1)
	b.place(n) // force a second placement of the same node

	require.NotNil(t, b.Err())
	assert.Equal(t, cerrors.ErrNodePlacedTwice, b.Err().Code)
}
