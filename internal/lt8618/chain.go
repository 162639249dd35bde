package lt8618

import (
	"github.com/micro-nova/hdmitx/internal/hardware"
)

// Step is one operation in a chained register sequence.
type Step func(bus hardware.Bus) error

// Run executes steps in order. It stops at the first failing step and
// returns that step's error unchanged; no later step reaches the bus.
func Run(bus hardware.Bus, steps ...Step) error {
	for _, step := range steps {
		if err := step(bus); err != nil {
			return err
		}
	}
	return nil
}

// Write returns a step that writes val to reg.
func Write(reg hardware.Register, val byte) Step {
	return func(bus hardware.Bus) error {
		return bus.WriteReg(reg, val)
	}
}

// Page returns a step that selects a register page.
func Page(page byte) Step {
	return Write(hardware.RegPage, page)
}

// Read returns a step that reads reg into *dst. dst is only written when
// the read succeeds.
func Read(reg hardware.Register, dst *byte) Step {
	return func(bus hardware.Bus) error {
		v, err := bus.ReadReg(reg)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

// ClearBits returns a read-modify-write step that clears mask in reg.
func ClearBits(reg hardware.Register, mask byte) Step {
	return func(bus hardware.Bus) error {
		v, err := bus.ReadReg(reg)
		if err != nil {
			return err
		}
		return bus.WriteReg(reg, v&^mask)
	}
}

// RegVal is a single register write in a configuration table.
// Writes to hardware.RegPage switch pages mid-table.
type RegVal struct {
	Reg hardware.Register
	Val byte
}

// Table is an ordered list of register writes applied as one chain.
type Table []RegVal

// Steps converts the table into chained write steps.
func (t Table) Steps() []Step {
	steps := make([]Step, len(t))
	for i, rv := range t {
		steps[i] = Write(rv.Reg, rv.Val)
	}
	return steps
}

// Apply writes the table to the bus, stopping at the first failure.
func (t Table) Apply(bus hardware.Bus) error {
	return Run(bus, t.Steps()...)
}
