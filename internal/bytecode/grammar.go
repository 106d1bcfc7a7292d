package bytecode

// program is the participle AST for the text assembly format; convert()
// turns it into the Unit the rest of the compiler consumes. Keeping the
// grammar generic (op name + positional args) rather than one struct per
// opcode keeps the grammar small; convert() carries the opcode-specific
// meaning, mirroring how the teacher's own grammar keeps parsing generic
// and pushes semantic distinctions into a later pass.
type program struct {
	Blocks []*block `@@*`
}

type block struct {
	Name  string  `"block" @Ident ":"`
	Lines []*line `@@*`
}

type line struct {
	Assign *assignLine `  @@`
	Plain  *plainLine  `| @@`
}

type assignLine struct {
	Dest string `@Percent "="`
	Op   string `@Ident`
	Args []*arg `@@*`
}

type plainLine struct {
	Op   string `@Ident`
	Args []*arg `@@*`
}

type arg struct {
	Value string `@Percent | @Ident | @Float | @Int | @OpSym`
}
