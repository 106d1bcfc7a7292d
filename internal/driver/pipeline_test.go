package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jitcore/internal/bytecode"
	"jitcore/internal/profile"
)

func TestCompileWithoutProfileProducesUnguardedArtifact(t *testing.T) {
	src := `
block entry:
  %0 = param 0
  %1 = const 2
  %2 = binop + %0 %1
  return %2
`
	unit, err := bytecode.Parse("t.jitasm", src)
	require.NoError(t, err)

	artifact, cerr := Compile(unit, Options{Profile: profile.Empty()})
	require.Nil(t, cerr)
	require.NotNil(t, artifact)
	assert.NotEmpty(t, artifact.SessionID)
	assert.Empty(t, artifact.Guards)
	assert.Empty(t, artifact.DeoptInfo)
	assert.NotEmpty(t, artifact.Registers.Allocations)
}

func TestCompileWithProfileInsertsGuardsInLockstep(t *testing.T) {
	src := `
block entry:
  %0 = param 0
  %1 = loadprop %0 x
  return %1
`
	unit, err := bytecode.Parse("t.jitasm", src)
	require.NoError(t, err)

	rec := profile.Empty()
	// offset 0 is the param instruction, offset 1 is the loadprop.
	rec.TypeFeedback[0] = profile.TypeObservation{Type: "object", Nullable: true}
	rec.TypeFeedback[1] = profile.TypeObservation{Shape: 7}

	artifact, cerr := Compile(unit, Options{Profile: rec})
	require.Nil(t, cerr)
	require.NotNil(t, artifact)

	require.Len(t, artifact.Guards, len(artifact.DeoptInfo))
	assert.NotEmpty(t, artifact.Guards)
	for i, trig := range artifact.DeoptInfo {
		assert.Equal(t, artifact.Guards[i].ID, trig.GuardID)
	}
}

func TestCompilePropagatesFatalLoweringError(t *testing.T) {
	unit := &bytecode.Unit{Blocks: []bytecode.Block{
		{
			Name:  "entry",
			Instr: []bytecode.Instr{{Dest: "%0", Op: "nonsense"}},
			Term:  bytecode.Terminator{Kind: bytecode.TermReturn},
		},
	}}

	artifact, cerr := Compile(unit, Options{Profile: profile.Empty()})
	require.NotNil(t, cerr)
	assert.Nil(t, artifact)
}

func TestCompileHonorsCustomRegisterBudget(t *testing.T) {
	src := `
block entry:
  %0 = param 0
  %1 = param 1
  %2 = binop + %0 %1
  return %2
`
	unit, err := bytecode.Parse("t.jitasm", src)
	require.NoError(t, err)

	artifact, cerr := Compile(unit, Options{Profile: profile.Empty(), K: 1})
	require.Nil(t, cerr)
	require.NotNil(t, artifact)
	assert.Len(t, artifact.Registers.Allocations, 3)
	assert.Greater(t, artifact.Registers.SpillCount(), 0)
}

func TestCompileTracesPipelineProgress(t *testing.T) {
	src := `
block entry:
  %0 = param 0
  return %0
`
	unit, err := bytecode.Parse("t.jitasm", src)
	require.NoError(t, err)

	var lines []string
	artifact, cerr := Compile(unit, Options{
		Profile: profile.Empty(),
		Trace:   func(msg string) { lines = append(lines, msg) },
	})
	require.Nil(t, cerr)
	require.NotNil(t, artifact)
	assert.NotEmpty(t, lines)
}
