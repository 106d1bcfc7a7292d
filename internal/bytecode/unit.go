// Package bytecode defines the read-only bytecode object the optimizing
// compiler consumes from the bytecode compiler (§6) — its internal shape is
// explicitly out of scope for this module, so Unit only carries what the IR
// builder needs to traverse linearly: a sequence of blocks, each a sequence
// of instructions over pre-SSA local slots, ending in a terminator.
//
// Because no real bytecode compiler ships alongside this module, this
// package also includes a small text assembly format and parser
// (grammar.go, lexer.go, parser.go) so tests and the jitc CLI can construct
// a Unit without depending on the rest of the runtime.
package bytecode

// Op identifies an instruction's operation.
type Op string

const (
	OpConst     Op = "const"
	OpParam     Op = "param"
	OpBinOp     Op = "binop"
	OpUnOp      Op = "unop"
	OpLoadProp  Op = "loadprop"
	OpStoreProp Op = "storeprop"
	OpCall      Op = "call"
	OpSetLocal  Op = "setlocal"
	OpGetLocal  Op = "getlocal"
)

// Instr is one instruction within a block. Dest is the SSA-style value name
// this instruction defines ("" for side-effecting instructions with no
// result, i.e. storeprop). Args reference prior Dest names or, for setlocal,
// the value being stored; Local names a pre-SSA local slot for
// setlocal/getlocal.
type Instr struct {
	Dest  string
	Op    Op
	Args  []string
	Extra string // binop/unop operator, loadprop/storeprop property, call callee
	Local string // setlocal/getlocal slot name
	Const interface{}
}

// TermKind identifies how a block ends.
type TermKind string

const (
	TermReturn TermKind = "return"
	TermBranch TermKind = "branch"
	TermJump   TermKind = "jump"
)

// Terminator is the control-transfer instruction ending a block.
type Terminator struct {
	Kind  TermKind
	Value string   // return: value name, "" for bare return
	Cond  string   // branch: condition value name
	True  string   // branch: block name taken when cond is truthy
	False string   // branch: block name taken otherwise
	Jump  string   // jump: target block name
}

// Block is one basic block's worth of pre-SSA instructions.
type Block struct {
	Name  string
	Instr []Instr
	Term  Terminator
}

// Unit is a whole function's worth of bytecode, ready for the IR builder to
// traverse. Entry is always Blocks[0].
type Unit struct {
	Blocks []Block
}

// Block looks up a block by name, or returns nil and false.
func (u *Unit) Block(name string) (*Block, bool) {
	for i := range u.Blocks {
		if u.Blocks[i].Name == name {
			return &u.Blocks[i], true
		}
	}
	return nil, false
}
