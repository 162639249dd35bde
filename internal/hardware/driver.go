// Package hardware provides the register bus abstraction used to talk to the
// HDMI transmitter. It defines the Bus interface plus the real I2C backends
// and an in-memory mock used by tests and the -mock daemon mode.
package hardware

import (
	"fmt"
	"time"
)

// maxOpsPerSec caps the transaction rate of the real bus backends.
const maxOpsPerSec = 2000

// Register is an 8-bit register address on the chip.
type Register = byte

// Bus is a byte-addressed register channel to a single chip.
// Every call is one independent transaction; there is no batching.
type Bus interface {
	// ReadReg reads a single byte from a register.
	ReadReg(reg Register) (byte, error)

	// WriteReg writes a single byte to a register.
	WriteReg(reg Register, val byte) error

	// Sleep blocks the calling goroutine for d.
	Sleep(d time.Duration)
}

// Op identifies the direction of a bus transaction.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// BusError is returned when a bus transaction fails.
type BusError struct {
	Op  Op
	Reg Register
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus %s reg=0x%02x: %v", e.Op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }
