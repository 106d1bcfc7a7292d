package bytecode

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// AssemblyLexer tokenizes the text bytecode-assembly format. Rule order
// matters: Comment/Whitespace/Newline are skipped first, Float before Int
// so a decimal isn't split, Int before OpSym so a leading "-" on a literal
// binds to the number rather than being lexed as a standalone operator.
var AssemblyLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `;[^\n]*`, nil},
		{"Whitespace", `[ \t]+`, nil},
		{"Newline", `[\r\n]+`, nil},
		{"Percent", `%[0-9]+`, nil},
		{"Float", `[0-9]+\.[0-9]+`, nil},
		{"Int", `-?[0-9]+`, nil},
		{"OpSym", `==|!=|<=|>=|[+\-*/%<>]`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Punct", `[:,\[\]=]`, nil},
	},
})
