package hardware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// PeriphBus is a Bus backed by periph.io's I2C registry. It is used on
// hosts where the i2c-dev ioctl path is not available or when the bus is
// named ("I2C1") rather than addressed by device node.
type PeriphBus struct {
	ctx     context.Context
	bus     i2c.BusCloser
	dev     *i2c.Dev
	limiter *rate.Limiter
}

// OpenPeriph initialises the periph.io host drivers and opens the named bus.
// An empty name selects the first registered bus.
func OpenPeriph(ctx context.Context, name string, addr uint16) (*PeriphBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("i2c: periph host init: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("i2c: open bus %q: %w", name, err)
	}
	slog.Debug("i2c: opened periph bus", "bus", bus.String(), "addr", fmt.Sprintf("0x%02x", addr))
	return &PeriphBus{
		ctx:     ctx,
		bus:     bus,
		dev:     &i2c.Dev{Bus: bus, Addr: addr},
		limiter: rate.NewLimiter(rate.Limit(maxOpsPerSec), 16),
	}, nil
}

func (p *PeriphBus) ReadReg(reg Register) (byte, error) {
	if err := p.limiter.Wait(p.ctx); err != nil {
		return 0, &BusError{Op: OpRead, Reg: reg, Err: err}
	}
	var r [1]byte
	if err := p.dev.Tx([]byte{reg}, r[:]); err != nil {
		return 0, &BusError{Op: OpRead, Reg: reg, Err: err}
	}
	return r[0], nil
}

func (p *PeriphBus) WriteReg(reg Register, val byte) error {
	if err := p.limiter.Wait(p.ctx); err != nil {
		return &BusError{Op: OpWrite, Reg: reg, Err: err}
	}
	if err := p.dev.Tx([]byte{reg, val}, nil); err != nil {
		return &BusError{Op: OpWrite, Reg: reg, Err: err}
	}
	return nil
}

func (p *PeriphBus) Sleep(d time.Duration) { time.Sleep(d) }

// Close releases the underlying bus.
func (p *PeriphBus) Close() error {
	return p.bus.Close()
}
