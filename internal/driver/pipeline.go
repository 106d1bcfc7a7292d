// Package driver wires the compiler driver of §4.7: the tier-up predicate,
// the fixed-order pass pipeline, the speculation manager, the register
// allocator, and the resulting Artifact.
package driver

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/segmentio/ksuid"

	"jitcore/internal/bytecode"
	cerrors "jitcore/internal/errors"
	"jitcore/internal/ir"
	"jitcore/internal/optimize"
	"jitcore/internal/profile"
	"jitcore/internal/regalloc"
	"jitcore/internal/speculate"
)

// Trace is a sink for short, colorized one-line pipeline progress notices,
// attached explicitly by a caller (the jitc CLI always attaches ColorTrace);
// the driver is silent by default.
type Trace func(string)

// ColorTrace renders pipeline notices the way the teacher's CLI renders its
// own banners: a colorized prefix, plain message.
func ColorTrace(fn func(string)) Trace {
	prefix := color.New(color.FgCyan).SprintFunc()
	return func(msg string) { fn(prefix("[jit] ") + msg) }
}

// Options configures one Compile call.
type Options struct {
	Trace   Trace
	K       int // register allocator target count; defaults to regalloc.DefaultK
	Profile profile.Record
}

// Compile runs the full §4.7 pipeline over unit: lower to SSA, run the ten
// optimization passes in fixed order, insert speculative guards from
// Profile, schedule, and allocate registers. Code emission is out of scope,
// so Artifact.Code is always empty; everything else in the artifact is
// real. A fatal lowering error aborts the compile and returns it directly,
// per §7 ("aborts the compile and return a typed error the driver
// recognizes"); the caller's job is falling back to the baseline tier.
func Compile(unit *bytecode.Unit, opts Options) (*Artifact, *cerrors.CompilerError) {
	sessionID := ksuid.New().String()

	trace := opts.Trace
	emit := func(format string, args ...interface{}) {
		if trace != nil {
			trace(fmt.Sprintf(format, args...))
		}
	}
	emit("session %s: lowering bytecode unit", sessionID)

	g, offsets, err := LowerWithOffsets(unit)
	if err != nil {
		return nil, err
	}

	k := opts.K
	if k == 0 {
		k = regalloc.DefaultK
	}

	feedback := shapeFeedback(g, offsets, opts.Profile)
	pipeline := optimize.NewPipeline(optimize.DefaultPasses(feedback)...)
	if trace != nil {
		pipeline.SetTrace(trace)
	}
	pipeline.Run(g)

	mgr := &speculate.Manager{Offsets: offsets}
	guards, deopts := mgr.InsertGuards(g, opts.Profile)
	emit("session %s: inserted %d guard(s)", sessionID, len(guards))

	// Scheduling runs once more after guard insertion: new Guard nodes were
	// spliced in directly via Graph.NewGuardIn, bypassing CodeMotion's
	// earlier pass, so their block position needs the same data/
	// serialization-order treatment everything else already got.
	optimize.CodeMotion{}.Apply(g)

	allocation := regalloc.Run(g, k)
	emit("session %s: register allocation done, %d spilled", sessionID, allocation.SpillCount())

	artifact := &Artifact{
		SessionID:  sessionID,
		EntryPoint: int(g.Entry()),
		Guards:     guards,
		DeoptInfo:  deopts,
		Registers:  allocation,
	}
	if !artifact.validate() {
		return nil, cerrors.Fatalf(cerrors.ErrDanglingHandle, "driver", "artifact guard/trigger invariant violated")
	}
	return artifact, nil
}

// shapeFeedback adapts a ProfilingRecord's per-offset TypeObservation into
// the per-node ShapeFeedback map PolymorphicICLowering expects: a load with
// an observed nonzero shape is treated as one monomorphic observation,
// since ProfilingRecord (§6) carries only the most recent shape per offset,
// not a full IC observation history.
func shapeFeedback(g *ir.Graph, offsets map[ir.NodeID]int, rec profile.Record) map[ir.NodeID]optimize.ShapeFeedback {
	fb := map[ir.NodeID]optimize.ShapeFeedback{}
	for id, off := range offsets {
		if g.Node(id).Kind() != ir.KindLoadProperty {
			continue
		}
		obs, ok := rec.TypeFeedback[off]
		if !ok || obs.Shape == 0 {
			continue
		}
		fb[id] = optimize.ShapeFeedback{Shapes: []int{obs.Shape}, Offsets: []int{0}}
	}
	return fb
}
