// Package brainmuck compiles programs in the eight-instruction tape language
// to native AArch64 code and runs them.
//
// Source is parsed and bracket-matched, translated to an intermediate
// representation, optimized, and then either executed by the interpreter or
// compiled to machine code in W^X executable memory and called directly:
//
//	result, err := brainmuck.Run(ctx, []byte(",[.,]"),
//		brainmuck.WithInput(os.Stdin),
//		brainmuck.WithOutput(os.Stdout))
package brainmuck

import (
	"context"
	"time"

	"github.com/deepnoodle-ai/brainmuck/codegen"
	"github.com/deepnoodle-ai/brainmuck/errors"
	"github.com/deepnoodle-ai/brainmuck/hostio"
	"github.com/deepnoodle-ai/brainmuck/interp"
	"github.com/deepnoodle-ai/brainmuck/ir"
	"github.com/deepnoodle-ai/brainmuck/jit"
	"github.com/deepnoodle-ai/brainmuck/optimizer"
	"github.com/deepnoodle-ai/brainmuck/parser"
	"github.com/deepnoodle-ai/brainmuck/tape"
)

// Engine names the component that executed a program.
type Engine string

const (
	EngineNative      Engine = "native"
	EngineInterpreter Engine = "interpreter"
)

// Stats describes the compilation and, after a run, the execution of a
// program.
type Stats struct {
	Instructions   int    `json:"instructions"`
	LiteralNodes   int    `json:"literal_nodes"`
	OptimizedNodes int    `json:"optimized_nodes"`
	LoopDepth      int    `json:"loop_depth"`
	Passes         string `json:"passes"`

	Engine       Engine `json:"engine,omitempty"`
	CodeBytes    int    `json:"code_bytes,omitempty"`
	BoundsChecks int    `json:"bounds_checks,omitempty"`
	Steps        int64  `json:"steps,omitempty"`
	BytesWritten int64  `json:"bytes_written"`
	BytesRead    int64  `json:"bytes_read"`

	CompileTime time.Duration `json:"compile_time_ns"`
	RunTime     time.Duration `json:"run_time_ns"`
}

// Result is the final state of a run.
type Result struct {
	Tape    []byte
	Pointer int
	Stats   Stats
}

// Program is parsed and optimized source, ready to run. It is immutable and
// may be run any number of times, concurrently.
type Program struct {
	parsed    *parser.Program
	literal   []ir.Node
	optimized []ir.Node
	stats     Stats
}

// Compile parses and optimizes source. A bracket mismatch is returned as an
// *errors.ParseError.
func Compile(source []byte, opts ...Option) (*Program, error) {
	o := collectOptions(opts...)
	start := time.Now()

	var parserOpts []parser.Option
	if o.filename != "" {
		parserOpts = append(parserOpts, parser.WithFilename(o.filename))
	}
	parsed, err := parser.Parse(source, parserOpts...)
	if err != nil {
		o.logger.Debug().Err(err).Str("file", o.filename).Msg("parse failed")
		return nil, err
	}
	literal := ir.Build(parsed.Instructions())
	optimized := optimizer.Optimize(literal, o.passes)

	p := &Program{
		parsed:    parsed,
		literal:   literal,
		optimized: optimized,
		stats: Stats{
			Instructions:   parsed.Len(),
			LiteralNodes:   ir.Count(literal),
			OptimizedNodes: ir.Count(optimized),
			LoopDepth:      ir.Depth(optimized),
			Passes:         o.passes.String(),
			CompileTime:    time.Since(start),
		},
	}
	o.logger.Debug().
		Str("file", o.filename).
		Int("instructions", p.stats.Instructions).
		Int("literal_nodes", p.stats.LiteralNodes).
		Int("optimized_nodes", p.stats.OptimizedNodes).
		Str("passes", p.stats.Passes).
		Msg("compiled")
	return p, nil
}

// Source returns the source the program was compiled from.
func (p *Program) Source() []byte {
	return p.parsed.Source()
}

// Filename returns the file name given at compile time, if any.
func (p *Program) Filename() string {
	return p.parsed.Filename()
}

// IR returns the optimized IR. The caller must not modify it.
func (p *Program) IR() []ir.Node {
	return p.optimized
}

// LiteralIR returns the unoptimized translation of the source.
func (p *Program) LiteralIR() []ir.Node {
	return p.literal
}

// Stats returns compile-time statistics.
func (p *Program) Stats() Stats {
	return p.stats
}

// MachineCode generates native code for the program without loading it.
func (p *Program) MachineCode(boundsCheck bool) (*codegen.Code, error) {
	return codegen.Generate(p.optimized, codegen.Options{BoundsCheck: boundsCheck})
}

// Run executes the program on a fresh tape. Runtime traps are returned as
// *errors.RuntimeTrap together with the result reached so far. Native code
// cannot be interrupted: ctx is only checked before it starts, while the
// interpreter checks it periodically.
func (p *Program) Run(ctx context.Context, opts ...Option) (*Result, error) {
	o := collectOptions(opts...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := tape.New(o.tapeSize)
	port := hostio.NewPort(o.input, o.output, o.eof)
	stats := p.stats

	engine := EngineNative
	if o.interpreter {
		engine = EngineInterpreter
	} else if !jit.Supported() {
		if !o.fallback {
			return nil, errors.NewEnvironmentError("run", errors.ErrUnsupportedPlatform)
		}
		o.logger.Warn().Msg("native code is not supported on this host; using the interpreter")
		engine = EngineInterpreter
	}
	stats.Engine = engine

	start := time.Now()
	var err error
	switch engine {
	case EngineInterpreter:
		var is interp.Stats
		is, err = interp.Run(ctx, p.optimized, t, port, o.interpOptions())
		stats.Steps = is.Steps
	default:
		err = p.runNative(t, port, o, &stats)
	}
	stats.RunTime = time.Since(start)
	stats.BytesWritten = port.Written()
	stats.BytesRead = port.Read()

	result := &Result{Tape: t.Snapshot(), Pointer: t.Pointer(), Stats: stats}
	event := o.logger.Debug()
	if err != nil {
		event = event.Err(err)
	}
	event.Str("engine", string(engine)).
		Int("pointer", result.Pointer).
		Dur("run_time", stats.RunTime).
		Msg("run finished")
	if errors.IsInternal(err) || errors.CategoryOf(err) == errors.CategoryEnvironment {
		return nil, err
	}
	return result, err
}

func (p *Program) runNative(t *tape.Tape, port *hostio.Port, o *options, stats *Stats) error {
	native, err := jit.Compile(p.optimized, jit.Options{
		BoundsCheck: o.boundsCheck,
		Logger:      o.logger,
	})
	if err != nil {
		return err
	}
	stats.CodeBytes = len(native.Code().Bytes)
	stats.BoundsChecks = native.Code().Checks
	return native.Run(t, port)
}

// Run compiles and runs source.
func Run(ctx context.Context, source []byte, opts ...Option) (*Result, error) {
	p, err := Compile(source, opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, opts...)
}
