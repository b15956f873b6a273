// Package cpu implements a cycle-accurate pin-level model of the MOS
// 6502: given a clock, an active-low reset, and a data bus value on each
// half-cycle, it drives an address bus, a read/write strobe, an optional
// outgoing data value, and a sync pin marking opcode-fetch cycles.
//
// The model is a pure function of its inputs over time. Correctness is
// defined by bit-identical pin behavior against traces captured from
// physical 6502 silicon; this package implements only the per-tick
// stepping contract a trace-comparison harness consumes, not the harness
// itself.
package cpu

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// InvalidCPUState represents a state this model asserts can never be
// reached (e.g. an unknown register id).
type InvalidCPUState struct {
	Reason string
}

// Error implements error.
func (e InvalidCPUState) Error() string {
	return fmt.Sprintf("invalid CPU state: %s", e.Reason)
}

// UnimplementedOpcode is returned by Tick when the decoder encounters an
// opcode byte with no entry in the table. It is a recoverable
// diagnostic: fatal to the current run, but it does not corrupt CPU
// state.
type UnimplementedOpcode struct {
	Opcode uint8
}

// Error implements error.
func (e UnimplementedOpcode) Error() string {
	return fmt.Sprintf("unimplemented opcode: 0x%.2X", e.Opcode)
}

// numPreVectorCycles is the number of unspecified-bus-content read
// cycles the reset preamble runs before reading the reset vector.
const numPreVectorCycles = 6

// CPU is a single 6502 core instance. The register file, micro-op queue,
// and pin state are owned exclusively by this instance; callers must not
// drive the same instance concurrently.
type CPU struct {
	// Registers. Persistent for the life of the CPU.
	PC uint16
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	P  uint8

	// Internal scratch, not observable on any pin.
	scratch1  uint8
	scratchHi uint8

	// Micro-op queue and dispatcher state.
	queue       []uop
	active      uop
	prevClk     bool
	fallingDone bool // whether active's falling-edge action already ran.

	out Outputs
}

// New returns a fresh CPU with registers set to unspecified non-zero
// sentinels and outputs indicating a read with address = 0xFFFF. The
// CPU never touches memory directly: it is a pure function of its
// input pins, and the caller is responsible for supplying Inputs.Data
// on each Tick based on whatever it previously observed on
// Outputs().Address(); memory.Bank exists for callers to use when
// building that glue, see cmd/w6502.
func New() *CPU {
	return &CPU{
		PC:  0xCAFE,
		A:   0xAA,
		X:   0xBC,
		Y:   0xCA,
		SP:  0xFD,
		P:   0xFF,
		out: Outputs{address: 0xFFFF, rwb: true},
	}
}

// Outputs returns a read-only snapshot of the current output pins.
func (c *CPU) Outputs() Outputs {
	return c.out
}

// String renders CPU state for debugging via go-spew, for dumping full
// chip state on test failure.
func (c *CPU) String() string {
	return spew.Sdump(*c)
}

// resetQueue clears the queue and prefills it with the canonical reset
// sequence: six Nop cycles followed by the two reset-vector reads.
func (c *CPU) resetQueue() {
	// Documented 6502 reset behavior forces I=1; applied directly here
	// rather than via a queued ResetRegs micro-op, since it has no
	// bus-visible effect and would otherwise cost a cycle the real
	// chip's 6-cycle preamble doesn't spend on it.
	c.P |= PInterrupt
	c.queue = c.queue[:0]
	for i := 0; i < numPreVectorCycles; i++ {
		c.queue = append(c.queue, uop{kind: uopNop})
	}
	c.queue = append(c.queue, uop{kind: uopReadPC, first: true, pcAddr: ResetVector})
	c.queue = append(c.queue, uop{kind: uopReadPC, first: false, pcAddr: ResetVector + 1})
}

// Tick advances the machine by one clock half-cycle. It must be called
// twice per bus cycle: once with Clk low, once with Clk high. The rising
// edge is detected from the previously stored clock level.
func (c *CPU) Tick(in Inputs) error {
	if !in.NReset {
		c.resetQueue()
		// The reset line is not an error, merely a normal control input
		// that suppresses dispatch while held.
		return nil
	}

	posedge := !c.prevClk && in.Clk
	if posedge {
		sync := false
		var next uop
		if len(c.queue) > 0 {
			next = c.queue[0]
			c.queue = c.queue[1:]
		} else {
			sync = true
			next = uop{kind: uopFetch}
		}
		// Every newly dispatched micro-op starts from read-mode; a
		// Write micro-op reasserts write mode itself below. This keeps
		// "rwb=1 whenever the active micro-op is not a write" true for
		// every op, not only the cycle right after a fetch.
		c.out.reset()
		c.out.sync = sync
		c.active = next
		c.fallingDone = false
	}

	// falling reports whether the active micro-op's falling-edge action
	// should run on this call: exactly once per dispatch, and only on a
	// call presenting a low level. A repeated call at an unchanged level
	// must be a no-op edge-wise, and must only perform the falling-phase
	// action when that level is low.
	falling := !in.Clk && !c.fallingDone
	if falling {
		c.fallingDone = true
	}

	var err error
	switch c.active.kind {
	case uopNop:
		c.out.setAddr(c.PC)
	case uopRegOp:
		c.out.setAddr(c.PC)
		if falling {
			c.active.fn(c)
		}
	case uopWrite:
		dst := c.resolve(c.active.dst)
		c.out.setWrite(dst, *c.regPtr(c.active.val))
	case uopFetch:
		if posedge {
			c.out.setAddr(c.PC)
		} else if falling {
			err = c.decode(in.Data)
		}
	case uopRead:
		if posedge {
			c.out.setAddr(c.resolve(c.active.src))
		} else if falling {
			reg := c.active.reg
			*c.regPtr(reg) = in.Data
			if isObservable(reg) {
				c.setNZ(in.Data)
			}
		}
	case uopReadPC:
		if posedge {
			c.out.setAddr(c.active.pcAddr)
		} else if falling {
			if c.active.first {
				c.PC = (c.PC & 0xFF00) | uint16(in.Data)
			} else {
				c.PC = (c.PC & 0x00FF) | (uint16(in.Data) << 8)
			}
		}
	default:
		err = InvalidCPUState{Reason: fmt.Sprintf("unknown uop kind: %d", c.active.kind)}
	}

	c.prevClk = in.Clk
	return err
}

// Cycle is a convenience that calls Tick twice, once with Clk low and
// once with Clk high, reusing the rest of in.
func (c *CPU) Cycle(in Inputs) error {
	in.Clk = false
	if err := c.Tick(in); err != nil {
		return err
	}
	in.Clk = true
	return c.Tick(in)
}
