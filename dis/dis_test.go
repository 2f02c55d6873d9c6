package dis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/brainmuck/codegen"
	"github.com/deepnoodle-ai/brainmuck/ir"
	"github.com/deepnoodle-ai/brainmuck/optimizer"
	"github.com/deepnoodle-ai/brainmuck/parser"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) []ir.Node {
	t.Helper()
	prog, err := parser.Parse([]byte(src))
	require.Nil(t, err)
	return optimizer.Optimize(ir.Build(prog.Instructions()), optimizer.All)
}

func TestDisassemble(t *testing.T) {
	// Disable colors for consistent test output
	color.NoColor = true
	defer func() { color.NoColor = false }()

	code, err := codegen.Generate(compile(t, "[>]"), codegen.Options{})
	require.Nil(t, err)
	instructions := Disassemble(code)
	require.Len(t, instructions, len(code.Listing))

	var buf bytes.Buffer
	require.Nil(t, Print(instructions[13:], &buf))
	expected := strings.TrimSpace(`
+--------+----------+-------+--------+---------------------+
| Offset |   Word   | Label | Opcode |      Operands       |
+--------+----------+-------+--------+---------------------+
|     52 | 39400260 | L2    | ldrb   | w0, [x19]           |
|     56 | 34000060 |       | cbz    | w0, L3              |
|     60 | 91000673 |       | add    | x19, x19, #1        |
|     64 | 17fffffd |       | b      | L2                  |
|     68 | aa1303e0 | L0,L3 | mov    | x0, x19             |
|     72 | a9446bf9 |       | ldp    | x25, x26, [sp, #64] |
`)
	lines := strings.Split(buf.String(), "\n")
	require.Equal(t, strings.Split(expected, "\n"), lines[:9])
}

func TestPrintIR(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	require.Nil(t, PrintIR(compile(t, "++[>+<-]>[-]."), &buf))
	expected := strings.Join([]string{
		"cell[+0] +2",
		"loop {",
		"  cell[+1] +1",
		"  cell[+0] -1",
		"}",
		"cell[+1] = 0",
		"output cell[+1]",
		"ptr +1",
		"",
	}, "\n")
	require.Equal(t, expected, buf.String())
}
