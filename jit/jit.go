// Package jit compiles IR to native AArch64 code in executable memory and
// runs it against a tape.
package jit

import (
	stderrors "errors"
	"runtime"
	"sync"

	"github.com/deepnoodle-ai/brainmuck/codegen"
	"github.com/deepnoodle-ai/brainmuck/errors"
	"github.com/deepnoodle-ai/brainmuck/execmem"
	"github.com/deepnoodle-ai/brainmuck/hostio"
	"github.com/deepnoodle-ai/brainmuck/ir"
	"github.com/deepnoodle-ai/brainmuck/tape"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// ErrConsumed is returned by Run on a program that has already run or been
// closed.
var ErrConsumed = stderrors.New("jit: program already consumed")

// Supported returns true if generated code can run on this host.
func Supported() bool {
	return supported
}

// Options configures compilation.
type Options struct {
	// BoundsCheck traps on cell accesses outside the tape. Without it the
	// generated code reads and writes whatever memory the pointer names.
	BoundsCheck bool

	// Logger receives debug events. The zero value logs nothing.
	Logger zerolog.Logger
}

// Program is compiled code ready to run once.
type Program struct {
	code   *codegen.Code
	region *execmem.ExecutableRegion
	logger zerolog.Logger

	mu       sync.Mutex
	consumed bool
}

// Compile generates code for nodes and loads it into sealed executable
// memory. On hosts where the code cannot run, no memory is mapped and the
// program can still be inspected through Code.
func Compile(nodes []ir.Node, opts Options) (*Program, error) {
	code, err := codegen.Generate(nodes, codegen.Options{BoundsCheck: opts.BoundsCheck})
	if err != nil {
		return nil, err
	}
	p := &Program{code: code, logger: opts.Logger}
	if !supported {
		return p, nil
	}
	region, err := load(code.Bytes)
	if err != nil {
		return nil, err
	}
	p.region = region
	p.logger.Debug().
		Int("code_bytes", len(code.Bytes)).
		Int("bounds_checks", code.Checks).
		Msg("loaded native code")
	return p, nil
}

func load(code []byte) (*execmem.ExecutableRegion, error) {
	w, err := execmem.Allocate(len(code))
	if err != nil {
		return nil, err
	}
	if err := w.Write(code); err != nil {
		return nil, releaseAfter(err, w.Release())
	}
	x, err := w.Seal()
	if err != nil {
		return nil, releaseAfter(err, w.Release())
	}
	return x, nil
}

// releaseAfter combines err with a failure to release memory afterwards.
func releaseAfter(err, releaseErr error) error {
	if releaseErr == nil {
		return err
	}
	return multierror.Append(err, releaseErr)
}

// Code returns the generated machine code.
func (p *Program) Code() *codegen.Code {
	return p.code
}

func (p *Program) consume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.consumed {
		return false
	}
	p.consumed = true
	return true
}

// Run executes the program once against t, starting at the tape's pointer,
// and then releases its memory. I/O goes through port, which is flushed
// before Run returns. An access outside the tape returns an
// *errors.RuntimeTrap; the tape keeps the cells written before it.
func (p *Program) Run(t *tape.Tape, port *hostio.Port) (err error) {
	if !p.consume() {
		return ErrConsumed
	}
	if !supported {
		return errors.NewEnvironmentError("run", errors.ErrUnsupportedPlatform)
	}
	defer func() {
		err = releaseAfter(err, p.region.Release())
	}()
	entry, err := p.region.Addr()
	if err != nil {
		return err
	}

	s := &session{port: port, tapeSize: t.Len()}
	handle := register(s)
	defer unregister(handle)

	cells := t.Cells()
	final := execute(entry, cells, t.Pointer(), handle)
	runtime.KeepAlive(cells)
	t.SetPointer(final)

	p.logger.Debug().
		Int("pointer", final).
		Int64("written", port.Written()).
		Int64("read", port.Read()).
		Bool("trapped", s.trap != nil).
		Msg("native run finished")

	return s.finish(port.Flush())
}

// Close releases the program without running it.
func (p *Program) Close() error {
	if !p.consume() || p.region == nil {
		return nil
	}
	return p.region.Release()
}
