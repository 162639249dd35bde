package lt8618

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownChip matches UnknownChipError.
	ErrUnknownChip = errors.New("unknown chip variant")

	// ErrNotProductionDevice matches NotProductionError.
	ErrNotProductionDevice = errors.New("not a production device")

	// ErrUnsupportedMode matches UnsupportedModeError.
	ErrUnsupportedMode = errors.New("unsupported input mode")

	// ErrPLLLockTimeout is recorded as a warning when the TX PLL did not
	// report lock. PowerOn never returns it.
	ErrPLLLockTimeout = errors.New("TX PLL did not lock")
)

// UnknownChipError is returned when the variant byte of the identity is
// neither U2 nor U3.
type UnknownChipError struct {
	Identity ChipIdentity
}

func (e *UnknownChipError) Error() string {
	return fmt.Sprintf("unknown chip variant 0x%02x (chip id %s)", e.Identity.Variant(), e.Identity)
}

func (e *UnknownChipError) Is(target error) bool { return target == ErrUnknownChip }

// NotProductionError is returned at attach time when the identity fails the
// production-device check.
type NotProductionError struct {
	Identity ChipIdentity
}

func (e *NotProductionError) Error() string {
	return fmt.Sprintf("not a production device (chip id %s)", e.Identity)
}

func (e *NotProductionError) Is(target error) bool { return target == ErrNotProductionDevice }

// UnsupportedModeError is returned when no digital input table exists for
// the configured input mode.
type UnsupportedModeError struct {
	Mode InputMode
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("no digital input table for input mode %s", e.Mode)
}

func (e *UnsupportedModeError) Is(target error) bool { return target == ErrUnsupportedMode }
