package brainmuck

import (
	"io"

	"github.com/deepnoodle-ai/brainmuck/hostio"
	"github.com/deepnoodle-ai/brainmuck/interp"
	"github.com/deepnoodle-ai/brainmuck/optimizer"
	"github.com/deepnoodle-ai/brainmuck/tape"
	"github.com/rs/zerolog"
)

// Option configures compilation or execution.
type Option func(*options)

type options struct {
	filename      string
	tapeSize      int
	boundsCheck   bool
	eof           hostio.EOFBehavior
	passes        optimizer.Pass
	input         io.Reader
	output        io.Writer
	logger        zerolog.Logger
	interpreter   bool
	fallback      bool
	checkInterval int
}

func collectOptions(opts ...Option) *options {
	o := &options{
		tapeSize:    tape.DefaultSize,
		boundsCheck: true,
		passes:      optimizer.All,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) interpOptions() interp.Options {
	return interp.Options{CheckInterval: o.checkInterval}
}

// WithFilename sets the file name used in error messages.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithTapeSize sets the number of cells. The default is 30000.
func WithTapeSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.tapeSize = size
		}
	}
}

// WithBoundsCheck enables or disables trapping on accesses outside the
// tape. It is enabled by default. Disabling it only affects native code:
// the interpreter always checks.
func WithBoundsCheck(enabled bool) Option {
	return func(o *options) {
		o.boundsCheck = enabled
	}
}

// WithEOF sets what an input instruction stores at end of input.
func WithEOF(eof hostio.EOFBehavior) Option {
	return func(o *options) {
		o.eof = eof
	}
}

// WithPasses sets the optimization passes to run. The default is all of
// them.
func WithPasses(passes optimizer.Pass) Option {
	return func(o *options) {
		o.passes = passes
	}
}

// WithoutPass disables a single optimization pass.
func WithoutPass(pass optimizer.Pass) Option {
	return func(o *options) {
		o.passes &^= pass
	}
}

// WithInput sets the stream input instructions read from.
func WithInput(r io.Reader) Option {
	return func(o *options) {
		o.input = r
	}
}

// WithOutput sets the stream output instructions write to.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithLogger sets the logger for compiler and runtime events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithInterpreter runs programs on the interpreter instead of native code.
func WithInterpreter(enabled bool) Option {
	return func(o *options) {
		o.interpreter = enabled
	}
}

// WithFallback runs programs on the interpreter when native code is not
// supported on this host, instead of failing with an environment error.
func WithFallback(enabled bool) Option {
	return func(o *options) {
		o.fallback = enabled
	}
}

// WithContextCheckInterval sets how many loop iterations the interpreter
// runs between checks for cancellation.
func WithContextCheckInterval(interval int) Option {
	return func(o *options) {
		o.checkInterval = interval
	}
}
