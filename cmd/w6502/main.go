// Command w6502 drives the core over a flat memory image and prints its
// pin state cycle by cycle.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"

	"github.com/wdc65c/w6502core/cpu"
	"github.com/wdc65c/w6502core/memory"
)

var (
	image    = flag.String("image", "", "Path to a flat 64K memory image to load")
	cycles   = flag.Int("cycles", 0, "Number of half-cycles to run; 0 or less runs until an error stops the core")
	headless = flag.Bool("headless", false, "If true and -scope is set, write a PNG snapshot instead of opening a window")
	scale    = flag.Int("scale", 2, "Pixel scale factor for the scope window or snapshot")
	scope    = flag.Bool("scope", false, "If true, render a waveform of address/rwb/sync/data as the core runs")
)

func main() {
	flag.Parse()

	if *image == "" {
		log.Fatal("-image is required")
	}
	raw, err := ioutil.ReadFile(*image)
	if err != nil {
		log.Fatalf("can't load image: %v", err)
	}
	bank, err := memory.NewFlatBankFromImage(raw, 0xFF)
	if err != nil {
		log.Fatalf("can't build memory bank: %v", err)
	}

	c := cpu.New()
	var rec *recorder
	if *scope {
		rec = newRecorder()
	}

	in := cpu.Inputs{NReset: false}
	for i := 0; i < 4; i++ {
		step(c, bank, &in, rec)
	}
	in.NReset = true

	unbounded := *cycles <= 0
	for n := 0; unbounded || n < *cycles; n++ {
		if err := step(c, bank, &in, rec); err != nil {
			log.Printf("stopped after %d half-cycles: %v", n, err)
			break
		}
	}

	if rec != nil {
		if err := rec.render(*headless, *scale); err != nil {
			log.Fatalf("can't render scope: %v", err)
		}
	}
}

// step advances the core by one half-cycle, deriving Data from whatever
// address the previous half-cycle left on the bus and committing any
// write the core asserts back into bank. Errors are returned, not
// logged, so the caller decides whether to keep recording.
func step(c *cpu.CPU, bank memory.Bank, in *cpu.Inputs, rec *recorder) error {
	in.Clk = !in.Clk
	in.Data = bank.Read(c.Outputs().Address())
	err := c.Tick(*in)
	out := c.Outputs()
	if !out.RWB() {
		if val, present := out.Data(); present {
			bank.Write(out.Address(), val)
		}
	}
	if rec != nil {
		rec.sample(in.Clk, out)
	}
	fmt.Println(out.String())
	return err
}
