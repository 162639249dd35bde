package lt8618

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/micro-nova/hdmitx/internal/hardware"
)

type options struct {
	logger *slog.Logger
	trace  bool
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
		trace:  true,
	}
}

// Option configures a Device at attach time.
type Option func(*options)

// WithLogger sets the logger used for bring-up progress and bus tracing.
//
// Example:
//
//	dev, err := lt8618.Attach(bus, cfg, lt8618.WithLogger(slog.Default().With("chip", "hdmi0")))
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBusTrace enables or disables debug logging of every bus transaction.
// Default is enabled; records are only emitted when the logger's level
// allows Debug.
func WithBusTrace(on bool) Option {
	return func(o *options) {
		o.trace = on
	}
}

// traceBus logs every transaction at debug level and failures at error level.
type traceBus struct {
	bus hardware.Bus
	log *slog.Logger
}

func (t traceBus) ReadReg(reg hardware.Register) (byte, error) {
	v, err := t.bus.ReadReg(reg)
	if err != nil {
		t.log.Error("lt8618: read fail", "reg", fmt.Sprintf("0x%02x", reg), "err", err)
		return v, err
	}
	t.log.Debug("lt8618: read", "reg", fmt.Sprintf("0x%02x", reg), "val", fmt.Sprintf("0x%02x", v))
	return v, nil
}

func (t traceBus) WriteReg(reg hardware.Register, val byte) error {
	t.log.Debug("lt8618: write", "reg", fmt.Sprintf("0x%02x", reg), "val", fmt.Sprintf("0x%02x", val))
	if err := t.bus.WriteReg(reg, val); err != nil {
		t.log.Error("lt8618: write fail", "reg", fmt.Sprintf("0x%02x", reg), "err", err)
		return err
	}
	return nil
}

func (t traceBus) Sleep(d time.Duration) { t.bus.Sleep(d) }
