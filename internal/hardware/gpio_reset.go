package hardware

import (
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const (
	// The LT8618SXB reset input is active-low. Holding it for a few
	// milliseconds is enough; the chip answers on I2C shortly after release.
	resetHold   = 10 * time.Millisecond
	resetSettle = 20 * time.Millisecond
)

// ResetChip pulses the chip's active-low reset line on the named GPIO pin
// (e.g. "GPIO17"). It must run before the identity registers are read.
//
// Reset sequence:
//  1. Initialize the periph.io host drivers
//  2. Drive the pin low to assert reset
//  3. Hold for resetHold
//  4. Drive the pin high to release reset
//  5. Wait resetSettle for the chip to come up
func ResetChip(pin string) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("gpio: host init failed: %w", err)
	}

	rst := gpioreg.ByName(pin)
	if rst == nil {
		return fmt.Errorf("gpio: failed to open %s (RST)", pin)
	}

	if err := rst.Out(gpio.Low); err != nil {
		return fmt.Errorf("gpio: failed to assert RST: %w", err)
	}
	time.Sleep(resetHold)

	if err := rst.Out(gpio.High); err != nil {
		return fmt.Errorf("gpio: failed to release RST: %w", err)
	}
	time.Sleep(resetSettle)

	slog.Debug("gpio: chip reset complete", "rst_pin", pin)
	return nil
}
