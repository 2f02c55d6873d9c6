// Package interp executes IR directly, without generating machine code. It
// is the reference the JIT is checked against, a fallback on hosts that
// cannot run generated code, and the engine behind --no-jit.
package interp

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/deepnoodle-ai/brainmuck/errors"
	"github.com/deepnoodle-ai/brainmuck/hostio"
	"github.com/deepnoodle-ai/brainmuck/ir"
	"github.com/deepnoodle-ai/brainmuck/tape"
)

// DefaultCheckInterval is the number of loop iterations between
// deterministic checks of ctx.Done().
const DefaultCheckInterval = 1000

// Options configures a run.
type Options struct {
	// CheckInterval is the number of loop iterations between checks of
	// ctx.Done(). Zero selects DefaultCheckInterval; a negative value
	// disables the deterministic check, leaving only the background
	// goroutine that watches the context.
	CheckInterval int
}

// Stats describes a completed run.
type Stats struct {
	// Steps is the number of nodes executed, loop tests included.
	Steps int64
	// Iterations is the number of loop bodies entered.
	Iterations int64
}

type machine struct {
	tape     *tape.Tape
	cells    []byte
	port     *hostio.Port
	ptr      int
	interval int
	halt     int32
	ctx      context.Context
	stats    Stats
}

// Run executes nodes against t, starting at the tape's current pointer. On
// return the tape holds the final cells and pointer, including when the run
// stops at a trap. Every cell access is bounds checked: an access outside the
// tape returns an *errors.RuntimeTrap.
func Run(ctx context.Context, nodes []ir.Node, t *tape.Tape, port *hostio.Port, opts Options) (stats Stats, err error) {
	m := &machine{
		tape:     t,
		cells:    t.Cells(),
		port:     port,
		ptr:      t.Pointer(),
		interval: opts.CheckInterval,
		ctx:      ctx,
	}
	if m.interval == 0 {
		m.interval = DefaultCheckInterval
	}
	if done := ctx.Done(); done != nil {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-done:
				atomic.StoreInt32(&m.halt, 1)
			case <-stop:
			}
		}()
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internalf("interp", "panic: %v", r)
		}
		t.SetPointer(m.ptr)
		if flushErr := port.Flush(); flushErr != nil && err == nil {
			err = fmt.Errorf("output: %w", flushErr)
		}
		stats = m.stats
	}()
	err = m.exec(nodes)
	return
}

func (m *machine) cell(offset int) (int, error) {
	addr := m.ptr + offset
	if addr < 0 || addr >= len(m.cells) {
		return 0, &errors.RuntimeTrap{Address: int64(addr), TapeSize: len(m.cells)}
	}
	return addr, nil
}

func (m *machine) exec(nodes []ir.Node) error {
	for _, node := range nodes {
		m.stats.Steps++
		switch n := node.(type) {
		case *ir.AdjustPointer:
			m.ptr += n.Delta
		case *ir.AdjustCell:
			addr, err := m.cell(n.Offset)
			if err != nil {
				return err
			}
			m.cells[addr] += byte(n.Delta)
		case *ir.SetCellZero:
			addr, err := m.cell(n.Offset)
			if err != nil {
				return err
			}
			m.cells[addr] = 0
		case *ir.Output:
			addr, err := m.cell(n.Offset)
			if err != nil {
				return err
			}
			m.port.Put(m.cells[addr])
		case *ir.Input:
			addr, err := m.cell(n.Offset)
			if err != nil {
				return err
			}
			if b, store := m.port.Get(); store {
				m.cells[addr] = b
			}
		case *ir.Loop:
			if err := m.loop(n); err != nil {
				return err
			}
		default:
			return errors.Internalf("interp", "unknown node type %T", node)
		}
	}
	return nil
}

func (m *machine) loop(n *ir.Loop) error {
	for {
		addr, err := m.cell(0)
		if err != nil {
			return err
		}
		if m.cells[addr] == 0 {
			return nil
		}
		m.stats.Iterations++
		if err := m.checkHalt(); err != nil {
			return err
		}
		if err := m.exec(n.Body); err != nil {
			return err
		}
	}
}

func (m *machine) checkHalt() error {
	if atomic.LoadInt32(&m.halt) == 1 {
		return m.ctx.Err()
	}
	if m.interval > 0 && m.stats.Iterations%int64(m.interval) == 0 {
		select {
		case <-m.ctx.Done():
			return m.ctx.Err()
		default:
		}
	}
	return nil
}
