package bytecode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

// Parse reads the text bytecode-assembly format (see unit.go) and returns
// the Unit it describes.
func Parse(name, source string) (*Unit, error) {
	parser, err := participle.Build[program](
		participle.Lexer(AssemblyLexer),
		participle.Elide("Whitespace", "Newline", "Comment"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("building bytecode assembler: %w", err)
	}

	ast, err := parser.ParseString(name, source)
	if err != nil {
		reportParseError(source, err)
		return nil, err
	}
	return convert(ast)
}

func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("unexpected assembler error: %s", err)
		return
	}
	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("syntax error at unknown location: %s", err)
		return
	}
	color.Red("syntax error in %s at line %d, column %d: %s", pos.Filename, pos.Line, pos.Column, pe.Message())
	fmt.Println(lines[pos.Line-1])
	color.HiRed(strings.Repeat(" ", pos.Column-1) + "^")
}

func convert(p *program) (*Unit, error) {
	u := &Unit{}
	for _, blk := range p.Blocks {
		b := Block{Name: blk.Name}
		for _, ln := range blk.Lines {
			switch {
			case ln.Assign != nil:
				instr, err := convertAssign(ln.Assign)
				if err != nil {
					return nil, err
				}
				b.Instr = append(b.Instr, instr)
			case ln.Plain != nil:
				if term, isTerm, err := convertTerminator(ln.Plain); err != nil {
					return nil, err
				} else if isTerm {
					b.Term = term
				} else {
					instr, err := convertPlainInstr(ln.Plain)
					if err != nil {
						return nil, err
					}
					b.Instr = append(b.Instr, instr)
				}
			}
		}
		u.Blocks = append(u.Blocks, b)
	}
	return u, nil
}

func argValues(args []*arg) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.Value
	}
	return out
}

func parseConst(raw string) (interface{}, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if strings.Contains(raw, ".") {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float constant %q: %w", raw, err)
		}
		return f, nil
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid int constant %q: %w", raw, err)
	}
	return i, nil
}

func convertAssign(a *assignLine) (Instr, error) {
	args := argValues(a.Args)
	switch Op(a.Op) {
	case OpConst:
		if len(args) != 1 {
			return Instr{}, fmt.Errorf("const expects 1 argument, got %d", len(args))
		}
		val, err := parseConst(args[0])
		if err != nil {
			return Instr{}, err
		}
		return Instr{Dest: a.Dest, Op: OpConst, Const: val}, nil
	case OpParam:
		if len(args) != 1 {
			return Instr{}, fmt.Errorf("param expects 1 argument, got %d", len(args))
		}
		return Instr{Dest: a.Dest, Op: OpParam, Args: args}, nil
	case OpBinOp:
		if len(args) != 3 {
			return Instr{}, fmt.Errorf("binop expects operator + 2 operands, got %d args", len(args))
		}
		return Instr{Dest: a.Dest, Op: OpBinOp, Extra: args[0], Args: args[1:]}, nil
	case OpUnOp:
		if len(args) != 2 {
			return Instr{}, fmt.Errorf("unop expects operator + 1 operand, got %d args", len(args))
		}
		return Instr{Dest: a.Dest, Op: OpUnOp, Extra: args[0], Args: args[1:]}, nil
	case OpLoadProp:
		if len(args) != 2 {
			return Instr{}, fmt.Errorf("loadprop expects object + property, got %d args", len(args))
		}
		return Instr{Dest: a.Dest, Op: OpLoadProp, Extra: args[1], Args: args[:1]}, nil
	case OpCall:
		if len(args) < 1 {
			return Instr{}, fmt.Errorf("call expects a callee name")
		}
		return Instr{Dest: a.Dest, Op: OpCall, Extra: args[0], Args: args[1:]}, nil
	case OpGetLocal:
		if len(args) != 1 {
			return Instr{}, fmt.Errorf("getlocal expects 1 argument, got %d", len(args))
		}
		return Instr{Dest: a.Dest, Op: OpGetLocal, Local: args[0]}, nil
	default:
		return Instr{}, fmt.Errorf("unimplemented opcode in assigning position: %q", a.Op)
	}
}

func convertPlainInstr(p *plainLine) (Instr, error) {
	args := argValues(p.Args)
	switch Op(p.Op) {
	case OpStoreProp:
		if len(args) != 3 {
			return Instr{}, fmt.Errorf("storeprop expects object + property + value, got %d args", len(args))
		}
		return Instr{Op: OpStoreProp, Extra: args[1], Args: []string{args[0], args[2]}}, nil
	case OpSetLocal:
		if len(args) != 2 {
			return Instr{}, fmt.Errorf("setlocal expects local name + value, got %d args", len(args))
		}
		return Instr{Op: OpSetLocal, Local: args[0], Args: args[1:]}, nil
	default:
		return Instr{}, fmt.Errorf("unimplemented opcode: %q", p.Op)
	}
}

func convertTerminator(p *plainLine) (Terminator, bool, error) {
	args := argValues(p.Args)
	switch p.Op {
	case "return":
		if len(args) == 0 {
			return Terminator{Kind: TermReturn}, true, nil
		}
		return Terminator{Kind: TermReturn, Value: args[0]}, true, nil
	case "branch":
		if len(args) != 3 {
			return Terminator{}, true, fmt.Errorf("branch expects cond + 2 block names, got %d args", len(args))
		}
		return Terminator{Kind: TermBranch, Cond: args[0], True: args[1], False: args[2]}, true, nil
	case "jump":
		if len(args) != 1 {
			return Terminator{}, true, fmt.Errorf("jump expects 1 block name, got %d args", len(args))
		}
		return Terminator{Kind: TermJump, Jump: args[0]}, true, nil
	default:
		return Terminator{}, false, nil
	}
}
