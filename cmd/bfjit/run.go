package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/deepnoodle-ai/brainmuck"
	"github.com/deepnoodle-ai/brainmuck/dis"
	"github.com/deepnoodle-ai/brainmuck/hostio"
	"github.com/deepnoodle-ai/brainmuck/optimizer"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) readProgram(cmd *cobra.Command, args []string) ([]byte, string, error) {
	codeSet := cmd.Flags().Lookup("code").Changed
	switch {
	case codeSet && len(args) > 0:
		return nil, "", stderrors.New("multiple input sources specified")
	case codeSet:
		return []byte(a.v.GetString("code")), "", nil
	case len(args) == 0:
		return nil, "", stderrors.New("no program provided; pass a FILE or --code")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", err
	}
	return data, args[0], nil
}

func (a *app) options() ([]brainmuck.Option, error) {
	v := a.v
	eof, err := hostio.ParseEOF(v.GetString("eof"))
	if err != nil {
		return nil, err
	}
	passes := optimizer.All
	for _, name := range v.GetStringSlice("disable-pass") {
		p, err := optimizer.ParsePass(name)
		if err != nil {
			return nil, err
		}
		passes &^= p
	}
	logger, err := a.logger()
	if err != nil {
		return nil, err
	}
	return []brainmuck.Option{
		brainmuck.WithTapeSize(v.GetInt("tape-size")),
		brainmuck.WithBoundsCheck(!v.GetBool("no-bounds-check")),
		brainmuck.WithEOF(eof),
		brainmuck.WithPasses(passes),
		brainmuck.WithInterpreter(v.GetBool("no-jit")),
		brainmuck.WithFallback(v.GetBool("fallback")),
		brainmuck.WithLogger(logger),
		brainmuck.WithInput(a.stdin),
		brainmuck.WithOutput(a.stdout),
	}, nil
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	if a.v.GetInt("tape-size") <= 0 {
		return fmt.Errorf("tape size must be positive, got %d", a.v.GetInt("tape-size"))
	}
	color.NoColor = !a.useColor(a.stdout)

	source, filename, err := a.readProgram(cmd, args)
	if err != nil {
		return err
	}
	opts, err := a.options()
	if err != nil {
		return err
	}
	if filename != "" {
		opts = append(opts, brainmuck.WithFilename(filename))
	}
	prog, err := brainmuck.Compile(source, opts...)
	if err != nil {
		return err
	}

	switch dump := a.v.GetString("dump"); dump {
	case "":
	case "ir":
		return dis.PrintIR(prog.IR(), a.stdout)
	case "asm":
		code, err := prog.MachineCode(!a.v.GetBool("no-bounds-check"))
		if err != nil {
			return err
		}
		return dis.Print(dis.Disassemble(code), a.stdout)
	default:
		return fmt.Errorf("unknown dump format %q (expected ir or asm)", dump)
	}

	result, err := prog.Run(cmd.Context(), opts...)
	if a.v.GetBool("stats") {
		stats := prog.Stats()
		if result != nil {
			stats = result.Stats
		}
		if statsErr := a.printStats(a.stderr, stats); statsErr != nil && err == nil {
			err = statsErr
		}
	}
	return err
}

func (a *app) printStats(w io.Writer, stats brainmuck.Stats) error {
	data, err := marshalJSON(stats, a.useColor(w))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
