// Package optimize implements the ten classical and speculative
// optimization passes over an SSA ir.Graph (§4.4) plus the fixed-order
// pipeline that runs them (§4.7). Every pass is a total function
// SSAGraph -> SSAGraph: it mutates g in place and reports whether it made
// any change, following the teacher's OptimizationPass/OptimizationPipeline
// shape (internal/ir/optimizations.go) adapted from a gas-efficiency pass
// list to this module's domain.
package optimize

import (
	"fmt"

	"jitcore/internal/ir"
)

// Pass is one optimization transformation over a graph.
type Pass interface {
	Name() string
	Description() string
	Apply(g *ir.Graph) bool
}

// Pipeline runs a fixed ordered sequence of passes. Order matters: §4.7
// fixes it, and each pass must observe the previous pass's output
// atomically, so Pipeline never reorders or parallelizes passes.
type Pipeline struct {
	passes []Pass
	trace  func(string)
}

// NewPipeline builds a pipeline running passes in the given order.
func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes}
}

// SetTrace attaches a sink for short one-line progress notices, one per
// pass. Pipelines are silent by default; the driver wires this to a
// colorized sink only when asked, mirroring the teacher's own quiet
// default for everything except its CLI banners.
func (p *Pipeline) SetTrace(fn func(string)) {
	p.trace = fn
}

func (p *Pipeline) emit(format string, args ...interface{}) {
	if p.trace == nil {
		return
	}
	p.trace(fmt.Sprintf(format, args...))
}

// Run executes every pass in order over g.
func (p *Pipeline) Run(g *ir.Graph) {
	for _, pass := range p.passes {
		changed := pass.Apply(g)
		if changed {
			p.emit("%s: applied", pass.Name())
		} else {
			p.emit("%s: no change", pass.Name())
		}
	}
}

// DefaultPasses wires the ten passes in the §4.7 pipeline order, threading
// the EscapeAnalysis verdict into ScalarReplacement and the RangeAnalysis
// verdict into BoundsCheckElimination so each consumer sees the producer's
// output from this same run, not a stale or empty one. feedback supplies
// per-load inline-cache observations for PolymorphicICLowering (empty if
// the profiling record carries none).
func DefaultPasses(feedback map[ir.NodeID]ShapeFeedback) []Pass {
	escape := &EscapeAnalysis{}
	ranges := &RangeAnalysis{}
	return []Pass{
		&ConstantFolding{},
		&DeadCodeElimination{},
		&LoopInvariantCodeMotion{},
		&LoopUnrolling{},
		escape,
		&ScalarReplacement{Escape: escape},
		&StrengthReduction{},
		ranges,
		&BoundsCheckElimination{Ranges: ranges},
		&PolymorphicICLowering{Feedback: feedback},
		&CodeMotion{},
	}
}
