// Package speculate implements the speculation manager (§4.5): it consumes
// a profiling record from the baseline tier and inserts Guard nodes for
// every value with concentrated enough feedback to bet on, emitting a
// DeoptTrigger describing how to fall back to the interpreter when a guard
// proves wrong at runtime.
package speculate

import (
	"fmt"

	"jitcore/internal/ir"
	"jitcore/internal/profile"
)

// GuardID identifies one inserted guard within a single compilation. Ids are
// assigned in insertion order starting at zero, matching the artifact
// invariant that a trigger's guard id always resolves within the same
// artifact's guard list.
type GuardID int

// GuardDescriptor records one inserted guard: which node performs the check
// and which value it protects.
type GuardDescriptor struct {
	ID       GuardID
	Kind     ir.GuardKind
	Node     ir.NodeID // the Guard node itself
	Protects ir.NodeID // the value being speculated on
	Witness  interface{}
}

// DeoptTrigger is the metadata record of §4.5: what to do when a guard
// fails. ValueMap is a placeholder — a real implementation would materialize
// interpreter slots from SSA values and register-allocator spill slots, but
// that needs the emitted code layout this module never produces.
type DeoptTrigger struct {
	GuardID      GuardID
	Reason       string
	ResumeOffset int
	ValueMap     map[string]interface{}
}

// Manager inserts guards into a finalized graph from profiling feedback.
// Offsets maps a node back to the bytecode offset that produced it, since
// ProfilingRecord feedback is keyed by offset, not by node id; the driver
// builds this alongside the graph during lowering.
type Manager struct {
	Offsets map[ir.NodeID]int
}

// InsertGuards walks every Parameter and LoadProperty node in block order
// and inserts a guard wherever the record's feedback is concentrated enough
// to speculate on, returning the guards and their triggers in lockstep
// insertion order (the artifact invariant in §6).
func (m *Manager) InsertGuards(g *ir.Graph, rec profile.Record) ([]GuardDescriptor, []DeoptTrigger) {
	if !rec.HasFeedback() {
		return nil, nil
	}

	var guards []GuardDescriptor
	var triggers []DeoptTrigger

	add := func(block ir.BlockID, kind ir.GuardKind, protects ir.NodeID, witness interface{}, reason string, resumeOffset int) {
		id := GuardID(len(guards))
		node := g.NewGuardIn(block, kind, protects, witness)
		guards = append(guards, GuardDescriptor{ID: id, Kind: kind, Node: node, Protects: protects, Witness: witness})
		triggers = append(triggers, DeoptTrigger{
			GuardID:      id,
			Reason:       reason,
			ResumeOffset: resumeOffset,
			ValueMap:     map[string]interface{}{"value": fmt.Sprintf("n%d", protects)},
		})
	}

	for _, bid := range g.Blocks() {
		for _, id := range append([]ir.NodeID(nil), g.Block(bid).Nodes...) {
			n := g.Node(id)
			off, known := m.Offsets[id]
			if !known {
				continue
			}
			obs, ok := rec.TypeFeedback[off]
			if !ok {
				continue
			}

			switch n.Kind() {
			case ir.KindParameter:
				if obs.Type != "" {
					add(bid, ir.GuardType, id, obs.Type,
						fmt.Sprintf("type mismatch: expected %s", obs.Type), off)
				}
				if !obs.Nullable {
					add(bid, ir.GuardNull, id, nil, "unexpected null", off)
				}
				if obs.Min != 0 || obs.Max != 0 {
					add(bid, ir.GuardRange, id, [2]int32{obs.Min, obs.Max},
						fmt.Sprintf("value outside observed range [%d, %d]", obs.Min, obs.Max), off)
				}
			case ir.KindLoadProperty:
				if obs.Shape != 0 && len(n.Inputs()) > 0 {
					object := n.Inputs()[0]
					add(bid, ir.GuardShape, object, obs.Shape,
						fmt.Sprintf("shape mismatch: expected shape %d", obs.Shape), off)
				}
			}
		}
	}

	return guards, triggers
}
