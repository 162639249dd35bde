// Package lt8618 brings up the Lontium LT8618SXB HDMI transmitter over its
// register bus: identity check at attach, then ordered register pipelines for
// power on and power off.
package lt8618

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/micro-nova/hdmitx/internal/hardware"
)

// Pipeline stage names reported in BringupResult.Stage and in logs.
const (
	StageHDMIOff      = "hdmi-off"
	StageAnalogInput  = "analog-input"
	StageResetInit    = "reset-init"
	StageDigitalInput = "digital-input"
	StageAudioI2S     = "audio-i2s"
	StagePLLControl   = "pll-control"
	StageVariant      = "variant"
	StagePLLSetup     = "pll-setup"
	StagePLLLock      = "pll-lock"
	StageCSC          = "csc"
	StageHDMIDigital  = "hdmi-digital"
	StageHDMIPHY      = "hdmi-phy"
)

// Device is an attached chip. Its identity and configuration are fixed at
// Attach and never change. A Device performs no locking: callers must not
// run two power transitions at once.
type Device struct {
	id   ChipIdentity
	cfg  DeviceConfiguration
	opts options
	log  *slog.Logger
}

// BringupResult describes one power-on attempt.
type BringupResult struct {
	Identity ChipIdentity
	PLL      PLLResult
	Stage    string  // stage that failed; empty on success
	Warnings []error // non-fatal conditions, e.g. ErrPLLLockTimeout
}

// Attach validates cfg, reads the chip identity and rejects parts that fail
// the production check. The bus is only used for the duration of the call.
func Attach(bus hardware.Bus, cfg DeviceConfiguration, opts ...Option) (*Device, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("lt8618: invalid configuration: %w", err)
	}

	d := &Device{cfg: cfg, opts: o, log: o.logger}

	id, err := ReadIdentity(d.wrap(bus))
	if err != nil {
		d.log.Error("lt8618: chip id read fail", "err", err)
		return nil, err
	}
	d.id = id
	d.log.Info("lt8618: chip id", "id", id.String())

	if err := id.Validate(); err != nil {
		d.log.Error("lt8618: not prod device", "id", id.String())
		return nil, err
	}
	if _, err := digitalInputTable(cfg.InputMode, cfg.DDRClock); err != nil {
		d.log.Warn("lt8618: power on will fail for this configuration", "err", err)
	}
	return d, nil
}

// Identity returns the identity read at attach time.
func (d *Device) Identity() ChipIdentity { return d.id }

// Config returns the configuration captured at attach time.
func (d *Device) Config() DeviceConfiguration { return d.cfg }

func (d *Device) wrap(bus hardware.Bus) hardware.Bus {
	if !d.opts.trace {
		return bus
	}
	return traceBus{bus: bus, log: d.log}
}

// PowerOff disables the HDMI output. It is safe to call when already off.
func (d *Device) PowerOff(bus hardware.Bus) error {
	d.log.Debug("lt8618: suspend")
	if err := hdmiOutputTable(false).Apply(d.wrap(bus)); err != nil {
		d.log.Error("lt8618: HDMI state set fail", "err", err)
		return err
	}
	return nil
}

// stage is one named step of the power-on pipeline.
type stage struct {
	name string
	run  func(bus hardware.Bus, res *BringupResult) error
}

// PowerOn runs the full bring-up pipeline. It returns the first fatal error
// unchanged. A PLL that never reports lock is not fatal: it is recorded as
// ErrPLLLockTimeout in the result's warnings and the pipeline continues.
func (d *Device) PowerOn(bus hardware.Bus) (BringupResult, error) {
	d.log.Debug("lt8618: resume")
	bus = d.wrap(bus)
	res := BringupResult{Identity: d.id}

	stages := []stage{
		{StageHDMIOff, applyTable(hdmiOutputTable(false))},
		{StageAnalogInput, applyTable(analogInputTable)},
		{StageResetInit, applyTable(resetInitTable)},
		{StageDigitalInput, func(bus hardware.Bus, _ *BringupResult) error {
			t, err := digitalInputTable(d.cfg.InputMode, d.cfg.DDRClock)
			if err != nil {
				return err
			}
			return t.Apply(bus)
		}},
		{StageAudioI2S, applyTable(audioI2STable(d.cfg))},
		{StagePLLControl, func(bus hardware.Bus, _ *BringupResult) error {
			return Run(bus,
				Page(hardware.PageTX),
				ClearBits(hardware.RegPLLCtrl0, 0x02),
				ClearBits(hardware.RegPLLCtrl1, 0x01),
			)
		}},
		{StageVariant, d.dispatch},
	}

	for _, st := range stages {
		if err := st.run(bus, &res); err != nil {
			if res.Stage == "" {
				res.Stage = st.name
			}
			d.log.Error("lt8618: power on fail", "stage", res.Stage, "err", err)
			return res, err
		}
	}
	d.log.Debug("lt8618: power on complete", "pll", res.PLL.State.String())
	return res, nil
}

func applyTable(t Table) func(hardware.Bus, *BringupResult) error {
	return func(bus hardware.Bus, _ *BringupResult) error {
		return t.Apply(bus)
	}
}

// dispatch selects the programming path for the chip variant.
func (d *Device) dispatch(bus hardware.Bus, res *BringupResult) error {
	switch d.id.Variant() {
	case hardware.VariantU2:
		d.log.Info("lt8618: chip is U2C, no need to take action")
		return nil
	case hardware.VariantU3:
		d.log.Info("lt8618: chip is U3C")
		return d.programU3(bus, res)
	default:
		d.log.Error("lt8618: unknown chip", "variant", fmt.Sprintf("0x%02x", d.id.Variant()))
		return &UnknownChipError{Identity: d.id}
	}
}

// programU3 runs the PLL, CSC and HDMI TX setup required by U3 silicon.
func (d *Device) programU3(bus hardware.Bus, res *BringupResult) error {
	fail := func(stage string, err error) error {
		res.Stage = stage
		return err
	}

	if err := pllSetupTable(d.cfg.InputMode).Apply(bus); err != nil {
		return fail(StagePLLSetup, err)
	}

	pll, err := pollPLLLock(bus)
	res.PLL = pll
	if err != nil {
		return fail(StagePLLLock, err)
	}
	if pll.State != PLLLocked {
		// The panel fed by this chip usually starts driving its signal only
		// after this domain is powered, so no lock here is expected.
		d.log.Warn("lt8618: failed to TXPLL lock; output may not work properly", "attempts", pll.Attempts)
		res.Warnings = append(res.Warnings, ErrPLLLockTimeout)
	}

	if err := cscTable(d.cfg.InputMode).Apply(bus); err != nil {
		return fail(StageCSC, err)
	}
	if err := hdmiDigitalTable.Apply(bus); err != nil {
		return fail(StageHDMIDigital, err)
	}
	if err := hdmiPHYTable.Apply(bus); err != nil {
		return fail(StageHDMIPHY, err)
	}
	return nil
}

// HasWarning reports whether target is among the result's warnings.
func (r BringupResult) HasWarning(target error) bool {
	for _, w := range r.Warnings {
		if errors.Is(w, target) {
			return true
		}
	}
	return false
}
