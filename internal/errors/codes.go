package errors

// Error codes for the optimizing JIT compiler core.
//
// Error code ranges track the taxonomy in spec.md §7, not the pipeline
// stage that raised them:
//
// C0xxx: builder misuse (fatal — aborts this compile, falls back to baseline)
// C1xxx: malformed IR invariant violation (fatal — indicates a compiler bug)
// C2xxx: unimplemented opcode / construct (non-fatal — compile abandoned)
// C3xxx: cyclic / irreducible control flow (handled conservatively, never fatal)
// C4xxx: register-allocation spill pressure (not an error; informational)

const (
	// C0xxx: builder misuse
	ErrFinalizeWithoutEntry = "C0001"
	ErrBuildOnFinalized     = "C0002"
	ErrDoubleFinalize       = "C0003"
	ErrNodePlacedTwice      = "C0004"

	// C1xxx: malformed IR invariant violation
	ErrDanglingHandle   = "C1001"
	ErrUserListDesync   = "C1002"
	ErrAsymmetricEdge   = "C1003"
	ErrMultipleDefs     = "C1004"
	ErrPhiArityMismatch = "C1005"

	// C2xxx: unimplemented opcode / construct
	ErrUnimplementedOpcode = "C2001"
	ErrUnknownCallee       = "C2002"

	// C3xxx: irreducible control flow (informational, non-fatal)
	NoteUnreachableBlock = "C3001"
	NoteIrreducibleLoop  = "C3002"

	// C4xxx: register allocation (informational, non-fatal)
	NoteSpilled = "C4001"
)

// IsFatal reports whether code belongs to a fatal class (C0xxx or C1xxx):
// the enclosing compile is aborted and the baseline tier keeps executing
// the function. Every other class is recoverable — the pipeline degrades
// (skips an optimization, keeps a guard, spills a value) and continues.
func IsFatal(code string) bool {
	return len(code) > 1 && (code[1] == '0' || code[1] == '1')
}

// descriptions holds the human-readable text for each code, used by the
// reporter and by documentation generation.
var descriptions = map[string]string{
	ErrFinalizeWithoutEntry: "graph finalized without a designated entry block",
	ErrBuildOnFinalized:     "builder operation attempted on an already-finalized graph",
	ErrDoubleFinalize:       "graph finalized more than once",
	ErrNodePlacedTwice:      "node placed into a block more than once",
	ErrDanglingHandle:       "node or block handle does not resolve within the graph's arena",
	ErrUserListDesync:       "an input edge has no matching entry in the target's user list",
	ErrAsymmetricEdge:       "a block successor edge has no matching predecessor edge",
	ErrMultipleDefs:         "an SSA value has more than one defining node",
	ErrPhiArityMismatch:     "a phi does not have exactly one input per predecessor block",
	ErrUnimplementedOpcode:  "bytecode construct has no IR lowering",
	ErrUnknownCallee:        "call targets a callee the builder does not recognize",
	NoteUnreachableBlock:    "block is unreachable from entry; dominance is undefined for it",
	NoteIrreducibleLoop:     "loop region has no statically known trip count; left intact",
	NoteSpilled:             "value could not be assigned a register and was spilled",
}

// Describe returns a human-readable description of code, or "unknown error
// code" if code is not recognized.
func Describe(code string) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return "unknown error code"
}
