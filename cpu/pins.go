package cpu

import "fmt"

// Inputs are the pins the external world drives on every half-cycle.
type Inputs struct {
	// Clk is the external clock level; transitions drive work.
	Clk bool
	// NReset is the active-low reset line.
	NReset bool
	// Data is the value presented on the data bus by the environment.
	Data uint8
}

// Outputs holds the pins the CPU drives, observable between ticks. It is
// mutated only by the dispatcher and the active micro-op; callers only
// ever see it through a read-only copy returned by (*CPU).Outputs.
type Outputs struct {
	address      uint16
	data         uint8
	dataPresent  bool // true only while the CPU is writing.
	rwb          bool // true = read, false = write.
	sync         bool // true exactly on the opcode-fetch cycle.
}

// Address returns the address currently being driven.
func (o Outputs) Address() uint16 { return o.address }

// Data returns the value being written and whether one is present. It is
// always (0, false) on a read cycle.
func (o Outputs) Data() (uint8, bool) { return o.data, o.dataPresent }

// RWB reports the read/write strobe; true means read.
func (o Outputs) RWB() bool { return o.rwb }

// Sync reports whether this is the opcode-fetch cycle.
func (o Outputs) Sync() bool { return o.sync }

// String renders the pin state for debugging.
func (o Outputs) String() string {
	rw := "R"
	d := "--"
	if !o.rwb {
		rw = "W"
	}
	if o.dataPresent {
		d = fmt.Sprintf("%.2X", o.data)
	}
	sy := " "
	if o.sync {
		sy = "*"
	}
	return fmt.Sprintf("addr=%.4X %s data=%s sync=%s", o.address, rw, d, sy)
}

// reset returns outputs to read-mode: no outgoing data, rwb asserted
// read. This happens at the start of every cycle, as each micro-op
// (including a fetch) is dispatched.
func (o *Outputs) reset() {
	o.data = 0
	o.dataPresent = false
	o.rwb = true
}

func (o *Outputs) setAddr(addr uint16) {
	o.address = addr
}

func (o *Outputs) setWrite(addr uint16, val uint8) {
	o.address = addr
	o.data = val
	o.dataPresent = true
	o.rwb = false
}
