package driver

import (
	"jitcore/internal/regalloc"
	"jitcore/internal/speculate"
)

// Artifact is the compiler driver's output record (§6): opaque machine
// code, the entry offset, and the guard/deopt metadata needed to interpret
// a runtime deoptimization. Code generation itself is out of scope (§4.7),
// so Code is always empty here; everything else is real.
type Artifact struct {
	SessionID  string
	Code       []byte
	EntryPoint int
	Guards     []speculate.GuardDescriptor
	DeoptInfo  []speculate.DeoptTrigger
	Registers  regalloc.AllocationMap

	// Diagnostics is a slot for non-fatal notes about the compile. Compile
	// does not fill it: no pipeline stage records spill-pressure or
	// irreducible-loop notes here, so it is empty in every artifact Compile
	// returns.
	Diagnostics []string
}

// validate checks the two artifact invariants from §6: every trigger's
// guard id resolves within Guards, and triggers appear in the same order as
// their guards. Both are true by construction in Compile, but this exists
// so tests (and callers hand-assembling an Artifact) can assert it rather
// than trust it.
func (a *Artifact) validate() bool {
	if len(a.Guards) != len(a.DeoptInfo) {
		return false
	}
	for i, trig := range a.DeoptInfo {
		if int(trig.GuardID) < 0 || int(trig.GuardID) >= len(a.Guards) {
			return false
		}
		if a.Guards[i].ID != trig.GuardID {
			return false
		}
	}
	return true
}
