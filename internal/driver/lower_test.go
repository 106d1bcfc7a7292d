package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jitcore/internal/bytecode"
	"jitcore/internal/ir"
)

func TestLowerStraightLineFunction(t *testing.T) {
	src := `
block entry:
  %0 = param 0
  %1 = const 2
  %2 = binop + %0 %1
  return %2
`
	unit, err := bytecode.Parse("t.jitasm", src)
	require.NoError(t, err)

	g, cerr := Lower(unit)
	require.Nil(t, cerr)
	require.NotNil(t, g)
	assert.True(t, g.Finalized())

	entry := g.Block(g.Entry())
	require.Len(t, entry.Nodes, 4)
}

func TestLowerEmptyUnitReturnsBareFunction(t *testing.T) {
	g, cerr := Lower(&bytecode.Unit{})
	require.Nil(t, cerr)
	require.NotNil(t, g)
	assert.True(t, g.Finalized())
}

func TestLowerRejectsUnknownBranchTarget(t *testing.T) {
	unit := &bytecode.Unit{Blocks: []bytecode.Block{
		{
			Name: "entry",
			Instr: []bytecode.Instr{
				{Dest: "%0", Op: bytecode.OpConst, Const: true},
			},
			Term: bytecode.Terminator{Kind: bytecode.TermBranch, Cond: "%0", True: "left", False: "nowhere"},
		},
		{
			Name: "left",
			Term: bytecode.Terminator{Kind: bytecode.TermReturn},
		},
	}}

	_, cerr := Lower(unit)
	require.NotNil(t, cerr)
	assert.True(t, cerr.Fatal())
}

// TestLowerMergesLocalAcrossBranches exercises the pending-local placeholder
// path end to end: a value set on both sides of a branch and read after the
// merge must resolve to a phi rather than either placeholder surviving into
// the finished graph.
func TestLowerMergesLocalAcrossBranches(t *testing.T) {
	src := `
block entry:
  %0 = param 0
  branch %0 left right

block left:
  %1 = const 1
  setlocal x %1
  jump join

block right:
  %2 = const 2
  setlocal x %2
  jump join

block join:
  %3 = getlocal x
  return %3
`
	unit, err := bytecode.Parse("t.jitasm", src)
	require.NoError(t, err)

	g, cerr := Lower(unit)
	require.Nil(t, cerr)
	require.NotNil(t, g)

	join, ok := findBlockByName(g, "join")
	require.True(t, ok)

	var ret *ir.Node
	for _, id := range join.Nodes {
		if g.Node(id).Kind() == ir.KindReturn {
			ret = g.Node(id)
		}
	}
	require.NotNil(t, ret)
	require.Len(t, ret.Inputs(), 1)

	reaching := g.Node(ret.Inputs()[0])
	assert.Equal(t, ir.KindPhi, reaching.Kind())
	assert.Len(t, reaching.Inputs(), 2)
	for _, in := range reaching.Inputs() {
		// Each phi operand must be the real constant set on that branch
		// (1 or 2), never the nil-valued placeholder resolve() hands out
		// for an unresolved getlocal.
		assert.NotNil(t, g.Node(in).ConstValue)
	}
}

func findBlockByName(g *ir.Graph, name string) (*ir.Block, bool) {
	for _, id := range g.Blocks() {
		b := g.Block(id)
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}
