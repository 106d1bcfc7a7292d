package ir

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

// Printer renders a Graph as readable text: one line per block header, one
// line per node, indented under its block.
type Printer struct {
	output strings.Builder
}

// NewPrinter creates an empty printer.
func NewPrinter() *Printer {
	return &Printer{}
}

// Print renders g's blocks in arena order, each followed by its nodes.
func Print(g *Graph) string {
	p := NewPrinter()
	p.printGraph(g)
	return p.output.String()
}

func (p *Printer) printGraph(g *Graph) {
	reach := g.Reachable()
	for _, id := range g.Blocks() {
		b := g.Block(id)
		marker := ""
		if id == g.Entry() {
			marker = " entry"
		}
		if id == g.Exit() {
			marker += " exit"
		}
		if !reach[id] && g.Finalized() {
			marker += " unreachable"
		}
		p.output.WriteString(fmt.Sprintf("block %q (preds=%v succs=%v)%s\n", b.Name, b.Preds, b.Succs, marker))
		for _, nid := range b.Nodes {
			n := g.Node(nid)
			p.output.WriteString(fmt.Sprintf("  %s  ; %s\n", n.String(), mnemonic(n.Kind())))
		}
	}
}

// mnemonic maps a node kind to the printer's SCREAMING_SNAKE_CASE opcode
// name, purely cosmetic.
func mnemonic(k Kind) string {
	return strcase.ToScreamingSnake(k.String())
}
