package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	pkgerrors "github.com/pkg/errors"
)

// CompilerError is a single diagnostic raised by any pipeline stage (C1-C8).
// Unlike a source-language compiler's diagnostics, these have no source
// position: the unit of location is the phase that raised them and, where
// relevant, the node or block handle involved.
type CompilerError struct {
	Code    string // one of the codes in codes.go, e.g. C1002
	Phase   string // "builder", "domtree", "ssa", "optimize:dce", "regalloc", ...
	Message string
	NodeID  int32 // -1 if not applicable
	BlockID int32 // -1 if not applicable

	// cause carries the stack trace captured at the point the fatal
	// condition was discovered, for the C0xxx/C1xxx classes only.
	cause error
}

func (e *CompilerError) Error() string {
	var loc string
	switch {
	case e.NodeID >= 0 && e.BlockID >= 0:
		loc = fmt.Sprintf(" (n%d in b%d)", e.NodeID, e.BlockID)
	case e.NodeID >= 0:
		loc = fmt.Sprintf(" (n%d)", e.NodeID)
	case e.BlockID >= 0:
		loc = fmt.Sprintf(" (b%d)", e.BlockID)
	}
	return fmt.Sprintf("[%s] %s: %s%s", e.Code, e.Phase, e.Message, loc)
}

// Unwrap exposes the captured stack trace to errors.Is/As and pkg/errors'
// Cause, so a report of a malformed-IR bug keeps the call chain that found it.
func (e *CompilerError) Unwrap() error { return e.cause }

// Fatal reports whether this diagnostic aborts the enclosing compile.
func (e *CompilerError) Fatal() bool { return IsFatal(e.Code) }

// New builds a non-fatal diagnostic: informational, attached to the
// compile's report but never aborting it.
func New(code, phase, message string) *CompilerError {
	return &CompilerError{Code: code, Phase: phase, Message: message, NodeID: -1, BlockID: -1}
}

// Fatalf builds a fatal diagnostic (C0xxx/C1xxx) with a captured stack
// trace, for the driver to recognize and abort the compile on.
func Fatalf(code, phase, format string, args ...interface{}) *CompilerError {
	msg := fmt.Sprintf(format, args...)
	return &CompilerError{
		Code:    code,
		Phase:   phase,
		Message: msg,
		NodeID:  -1,
		BlockID: -1,
		cause:   pkgerrors.New(phase + ": " + msg),
	}
}

// AtNode attaches a node handle to the diagnostic for display.
func (e *CompilerError) AtNode(id int32) *CompilerError {
	e.NodeID = id
	return e
}

// AtBlock attaches a block handle to the diagnostic for display.
func (e *CompilerError) AtBlock(id int32) *CompilerError {
	e.BlockID = id
	return e
}

// Reporter accumulates diagnostics across a single compile and renders them.
// It never aborts anything itself — the driver decides what to do with a
// fatal diagnostic once Reporter has recorded it.
type Reporter struct {
	diagnostics []*CompilerError
}

// NewReporter creates an empty reporter for one compile.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Record appends a diagnostic to the report.
func (r *Reporter) Record(err *CompilerError) {
	r.diagnostics = append(r.diagnostics, err)
}

// HasFatal reports whether any recorded diagnostic belongs to a fatal class.
func (r *Reporter) HasFatal() bool {
	for _, d := range r.diagnostics {
		if d.Fatal() {
			return true
		}
	}
	return false
}

// Diagnostics returns every diagnostic recorded so far, in recording order.
func (r *Reporter) Diagnostics() []*CompilerError {
	return r.diagnostics
}

// Format renders the full report as colorized one-line-per-diagnostic text,
// in the teacher's "error[CODE]: message" register.
func (r *Reporter) Format() string {
	var b strings.Builder
	for _, d := range r.diagnostics {
		b.WriteString(formatOne(d))
		b.WriteString("\n")
	}
	return b.String()
}

func formatOne(d *CompilerError) string {
	label := "note"
	colorFn := color.New(color.FgBlue, color.Bold).SprintFunc()
	if d.Fatal() {
		label = "error"
		colorFn = color.New(color.FgRed, color.Bold).SprintFunc()
	} else if strings.HasPrefix(d.Code, "C2") {
		label = "warning"
		colorFn = color.New(color.FgYellow, color.Bold).SprintFunc()
	}

	loc := ""
	if d.NodeID >= 0 {
		loc = fmt.Sprintf(" n%d", d.NodeID)
	}
	if d.BlockID >= 0 {
		loc += fmt.Sprintf(" b%d", d.BlockID)
	}

	return fmt.Sprintf("%s[%s]: %s (%s%s)", colorFn(label), d.Code, d.Message, d.Phase, loc)
}
