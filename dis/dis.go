// Package dis renders compiled programs for humans: the optimized IR as an
// indented listing and the generated machine code as a table.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/deepnoodle-ai/brainmuck/arm64"
	"github.com/deepnoodle-ai/brainmuck/codegen"
	"github.com/deepnoodle-ai/brainmuck/internal/table"
	"github.com/deepnoodle-ai/brainmuck/ir"
	"github.com/fatih/color"
)

var (
	opcodeColor = color.New(color.FgCyan)
	labelColor  = color.New(color.FgYellow)
	loopColor   = color.New(color.FgMagenta)
)

// Instruction is one disassembled machine instruction.
type Instruction struct {
	Offset   int
	Word     uint32
	Opcode   string
	Operands string
	Labels   []arm64.Label
}

// Disassemble splits the code listing into instructions.
func Disassemble(code *codegen.Code) []Instruction {
	out := make([]Instruction, 0, len(code.Listing))
	for _, line := range code.Listing {
		opcode, operands, _ := strings.Cut(line.Text, " ")
		out = append(out, Instruction{
			Offset:   line.Offset,
			Word:     line.Word,
			Opcode:   opcode,
			Operands: operands,
			Labels:   line.Labels,
		})
	}
	return out
}

func labelList(labels []arm64.Label) string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.String()
	}
	return strings.Join(names, ",")
}

// Print writes the instructions as a table.
func Print(instructions []Instruction, writer io.Writer) error {
	t := table.NewTable(writer)
	t.WithHeader([]string{"Offset", "Word", "Label", "Opcode", "Operands"})
	t.WithHeaderAlignment([]table.Alignment{
		table.AlignCenter,
		table.AlignCenter,
		table.AlignCenter,
		table.AlignCenter,
		table.AlignCenter,
	})
	t.WithColumnAlignment([]table.Alignment{
		table.AlignRight,
		table.AlignLeft,
		table.AlignLeft,
		table.AlignLeft,
		table.AlignLeft,
	})
	for _, instr := range instructions {
		t.Append([]string{
			fmt.Sprintf("%d", instr.Offset),
			fmt.Sprintf("%08x", instr.Word),
			labelColor.Sprint(labelList(instr.Labels)),
			opcodeColor.Sprint(instr.Opcode),
			instr.Operands,
		})
	}
	return t.Render()
}

// PrintIR writes an indented listing of the IR, one node per line.
func PrintIR(nodes []ir.Node, writer io.Writer) error {
	var b strings.Builder
	printNodes(&b, nodes, 0)
	_, err := io.WriteString(writer, b.String())
	return err
}

func printNodes(b *strings.Builder, nodes []ir.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, node := range nodes {
		if loop, ok := node.(*ir.Loop); ok {
			fmt.Fprintf(b, "%s%s\n", indent, loopColor.Sprint("loop {"))
			printNodes(b, loop.Body, depth+1)
			fmt.Fprintf(b, "%s%s\n", indent, loopColor.Sprint("}"))
			continue
		}
		fmt.Fprintf(b, "%s%s\n", indent, node)
	}
}
