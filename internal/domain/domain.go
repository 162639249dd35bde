// Package domain adapts an attached LT8618SXB to a power domain: it
// serialises power transitions, remembers whether the domain is on, and
// publishes a status snapshot after every transition.
package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/micro-nova/hdmitx/internal/hardware"
	"github.com/micro-nova/hdmitx/internal/lt8618"
)

// Status is a snapshot of the domain after its last transition.
type Status struct {
	Powered     bool                       `json:"powered"`
	Identity    string                     `json:"chip_id"`
	Variant     string                     `json:"variant"`
	Config      lt8618.DeviceConfiguration `json:"config"`
	PLL         lt8618.PLLResult           `json:"pll"`
	Warnings    []string                   `json:"warnings,omitempty"`
	LastError   string                     `json:"last_error,omitempty"`
	FailedStage string                     `json:"failed_stage,omitempty"`
	Attempt     string                     `json:"attempt,omitempty"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

func (s Status) clone() Status {
	s.Warnings = append([]string(nil), s.Warnings...)
	return s
}

// Publisher receives a status snapshot after every transition.
type Publisher interface {
	Publish(Status)
}

// Domain owns one attached chip. All methods are safe for concurrent use;
// transitions run one at a time.
type Domain struct {
	mu     sync.Mutex
	bus    hardware.Bus
	dev    *lt8618.Device
	opts   []lt8618.Option
	pub    Publisher
	status Status
}

// New attaches the chip on bus with cfg. pub may be nil.
func New(bus hardware.Bus, cfg lt8618.DeviceConfiguration, pub Publisher, opts ...lt8618.Option) (*Domain, error) {
	dev, err := lt8618.Attach(bus, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("domain: attach: %w", err)
	}
	d := &Domain{
		bus:  bus,
		dev:  dev,
		opts: opts,
		pub:  pub,
	}
	d.status = Status{
		Identity:  dev.Identity().String(),
		Variant:   variantName(dev.Identity().Variant()),
		Config:    cfg,
		UpdatedAt: time.Now(),
	}
	return d, nil
}

func variantName(v byte) string {
	switch v {
	case hardware.VariantU2:
		return "U2"
	case hardware.VariantU3:
		return "U3"
	default:
		return fmt.Sprintf("unknown(0x%02x)", v)
	}
}

// Status returns the current snapshot.
func (d *Domain) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status.clone()
}

// PowerOn brings the chip up. A transition already started is never
// interrupted; ctx is only checked before the bus is touched.
func (d *Domain) PowerOn(ctx context.Context) (Status, error) {
	if err := ctx.Err(); err != nil {
		return d.Status(), err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.powerOnLocked()
	return d.status.clone(), err
}

func (d *Domain) powerOnLocked() error {
	attempt := uuid.NewString()
	log := slog.With("attempt", attempt)
	log.Info("domain: power on", "chip_id", d.status.Identity)

	start := time.Now()
	res, err := d.dev.PowerOn(d.bus)

	d.status.Attempt = attempt
	d.status.PLL = res.PLL
	d.status.Warnings = nil
	for _, w := range res.Warnings {
		d.status.Warnings = append(d.status.Warnings, w.Error())
	}
	d.status.FailedStage = res.Stage
	d.status.LastError = ""
	if err != nil {
		d.status.Powered = false
		d.status.LastError = err.Error()
		log.Error("domain: power on failed", "stage", res.Stage, "err", err)
	} else {
		d.status.Powered = true
		log.Info("domain: powered on", "pll", res.PLL.State.String(), "took", time.Since(start))
	}
	d.publishLocked()
	return err
}

// PowerOff disables the HDMI output. Calling it while off is harmless.
func (d *Domain) PowerOff(ctx context.Context) (Status, error) {
	if err := ctx.Err(); err != nil {
		return d.Status(), err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.powerOffLocked()
	return d.status.clone(), err
}

func (d *Domain) powerOffLocked() error {
	attempt := uuid.NewString()
	log := slog.With("attempt", attempt)
	log.Info("domain: power off")

	err := d.dev.PowerOff(d.bus)
	d.status.Attempt = attempt
	d.status.FailedStage = ""
	d.status.LastError = ""
	if err != nil {
		d.status.LastError = err.Error()
		log.Error("domain: power off failed", "err", err)
	} else {
		d.status.Powered = false
	}
	d.publishLocked()
	return err
}

// Reconfigure attaches the chip again with cfg and restores the previous
// power state on the new attachment. The new attach happens before the old
// one is powered off, so a failed attach leaves the domain untouched.
func (d *Domain) Reconfigure(ctx context.Context, cfg lt8618.DeviceConfiguration) (Status, error) {
	if err := ctx.Err(); err != nil {
		return d.Status(), err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if cfg == d.dev.Config() {
		return d.status.clone(), nil
	}

	dev, err := lt8618.Attach(d.bus, cfg, d.opts...)
	if err != nil {
		slog.Error("domain: re-attach failed, keeping previous configuration", "err", err)
		return d.status.clone(), fmt.Errorf("domain: attach: %w", err)
	}

	wasOn := d.status.Powered
	if wasOn {
		if err := d.powerOffLocked(); err != nil {
			return d.status.clone(), err
		}
	}

	d.dev = dev
	d.status.Config = cfg
	d.status.Identity = dev.Identity().String()
	d.status.Variant = variantName(dev.Identity().Variant())
	slog.Info("domain: re-attached", "input_mode", cfg.InputMode.String(), "output_mode", cfg.OutputMode.String())

	if wasOn {
		err = d.powerOnLocked()
	} else {
		d.publishLocked()
	}
	return d.status.clone(), err
}

func (d *Domain) publishLocked() {
	d.status.UpdatedAt = time.Now()
	if d.pub != nil {
		d.pub.Publish(d.status.clone())
	}
}
