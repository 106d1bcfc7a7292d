package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFatalClassification(t *testing.T) {
	assert.True(t, IsFatal(ErrFinalizeWithoutEntry))
	assert.True(t, IsFatal(ErrDanglingHandle))
	assert.False(t, IsFatal(ErrUnimplementedOpcode))
	assert.False(t, IsFatal(NoteUnreachableBlock))
	assert.False(t, IsFatal(NoteSpilled))
}

func TestDescribeKnownAndUnknownCodes(t *testing.T) {
	assert.Equal(t, "graph finalized without a designated entry block", Describe(ErrFinalizeWithoutEntry))
	assert.Equal(t, "unknown error code", Describe("C9999"))
}

func TestFatalfCapturesCause(t *testing.T) {
	err := Fatalf(ErrUserListDesync, "optimize:dce", "input %d has no matching user entry", 7)
	require.True(t, err.Fatal())
	assert.Contains(t, err.Error(), ErrUserListDesync)
	assert.Contains(t, err.Error(), "input 7 has no matching user entry")
	require.Error(t, err.Unwrap())
}

func TestNodeAndBlockLocationRendering(t *testing.T) {
	err := New(NoteSpilled, "regalloc", "value spilled to stack slot").AtNode(3).AtBlock(1)
	assert.Contains(t, err.Error(), "n3")
	assert.Contains(t, err.Error(), "b1")
}

func TestReporterAccumulatesAndDetectsFatal(t *testing.T) {
	r := NewReporter()
	r.Record(New(NoteUnreachableBlock, "domtree", "block b4 is unreachable from entry").AtBlock(4))
	require.False(t, r.HasFatal())

	r.Record(Fatalf(ErrPhiArityMismatch, "ssa", "phi n9 has 3 inputs for 2 predecessors").AtNode(9))
	assert.True(t, r.HasFatal())
	assert.Len(t, r.Diagnostics(), 2)
}

func TestReporterFormat(t *testing.T) {
	r := NewReporter()
	r.Record(New(NoteSpilled, "regalloc", "v12 spilled"))
	r.Record(Fatalf(ErrDanglingHandle, "builder", "block handle out of range"))

	out := r.Format()
	assert.Contains(t, out, "C4001")
	assert.Contains(t, out, "C1001")
}
