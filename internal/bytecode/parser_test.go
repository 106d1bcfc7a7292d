package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStraightLineFunction(t *testing.T) {
	src := `
block entry:
  %0 = param 0
  %1 = const 2
  %2 = binop + %0 %1
  return %2
`
	u, err := Parse("test.jitasm", src)
	require.NoError(t, err)
	require.Len(t, u.Blocks, 1)

	entry := u.Blocks[0]
	assert.Equal(t, "entry", entry.Name)
	require.Len(t, entry.Instr, 3)
	assert.Equal(t, OpBinOp, entry.Instr[2].Op)
	assert.Equal(t, "+", entry.Instr[2].Extra)
	assert.Equal(t, TermReturn, entry.Term.Kind)
	assert.Equal(t, "%2", entry.Term.Value)
}

func TestParseBranchAndLocals(t *testing.T) {
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
	u, err := Parse("test.jitasm", src)
	require.NoError(t, err)
	require.Len(t, u.Blocks, 4)

	entry, _ := u.Block("entry")
	assert.Equal(t, TermBranch, entry.Term.Kind)
	assert.Equal(t, "left", entry.Term.True)
	assert.Equal(t, "right", entry.Term.False)

	left, _ := u.Block("left")
	require.Len(t, left.Instr, 2)
	assert.Equal(t, OpSetLocal, left.Instr[1].Op)
	assert.Equal(t, "x", left.Instr[1].Local)

	join, _ := u.Block("join")
	assert.Equal(t, OpGetLocal, join.Instr[0].Op)
}

func TestParseConstantKinds(t *testing.T) {
	src := `
block entry:
  %0 = const 42
  %1 = const true
  %2 = const 3.5
  return %0
`
	u, err := Parse("test.jitasm", src)
	require.NoError(t, err)
	entry := u.Blocks[0]
	assert.Equal(t, 42, entry.Instr[0].Const)
	assert.Equal(t, true, entry.Instr[1].Const)
	assert.Equal(t, 3.5, entry.Instr[2].Const)
}

func TestParseRejectsUnimplementedOpcode(t *testing.T) {
	src := `
block entry:
  %0 = frobnicate 1
  return %0
`
	_, err := Parse("test.jitasm", src)
	assert.Error(t, err)
}
