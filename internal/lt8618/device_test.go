package lt8618_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/micro-nova/hdmitx/internal/hardware"
	"github.com/micro-nova/hdmitx/internal/lt8618"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// attach attaches a device to m and clears the mock's log so tests only see
// power transition traffic.
func attach(t *testing.T, m *hardware.Mock, cfg lt8618.DeviceConfiguration) *lt8618.Device {
	t.Helper()
	dev, err := lt8618.Attach(m, cfg, lt8618.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	m.Reset()
	return dev
}

func writesTo(log []hardware.Txn, page byte, reg hardware.Register) []byte {
	var vals []byte
	for _, tx := range log {
		if tx.Op == hardware.OpWrite && tx.Page == page && tx.Reg == reg {
			vals = append(vals, tx.Val)
		}
	}
	return vals
}

func TestAttach_NotProduction(t *testing.T) {
	m := hardware.NewMockWithIdentity(0x01, 0x01, 0x02)
	dev, err := lt8618.Attach(m, lt8618.DefaultConfiguration(), lt8618.WithLogger(quietLogger()))
	if !errors.Is(err, lt8618.ErrNotProductionDevice) {
		t.Fatalf("err = %v, want ErrNotProductionDevice", err)
	}
	if dev != nil {
		t.Error("expected nil device")
	}
	var npe *lt8618.NotProductionError
	if !errors.As(err, &npe) || npe.Identity != (lt8618.ChipIdentity{0x01, 0x01, 0x02}) {
		t.Errorf("err = %#v, want NotProductionError with identity 01 01 02", err)
	}
}

func TestAttach_InvalidConfig(t *testing.T) {
	m := hardware.NewMock()
	cfg := lt8618.DefaultConfiguration()
	cfg.OutputMode = 0x42
	if _, err := lt8618.Attach(m, cfg, lt8618.WithLogger(quietLogger())); err == nil {
		t.Fatal("expected error for invalid output mode")
	}
	if n := m.Count(); n != 0 {
		t.Errorf("transactions = %d, want 0 before configuration is valid", n)
	}
}

func TestAttach_BusFailure(t *testing.T) {
	m := hardware.NewMock()
	m.FailAt(0)
	_, err := lt8618.Attach(m, lt8618.DefaultConfiguration(), lt8618.WithLogger(quietLogger()))
	var busErr *hardware.BusError
	if !errors.As(err, &busErr) {
		t.Fatalf("err = %v, want *hardware.BusError", err)
	}
}

func TestAttach_RecordsIdentityAndConfig(t *testing.T) {
	m := hardware.NewMockWithIdentity(0x17, 0x02, 0xe1)
	cfg := lt8618.DefaultConfiguration()
	cfg.DDRClock = true
	dev := attach(t, m, cfg)
	if dev.Identity() != (lt8618.ChipIdentity{0x17, 0x02, 0xe1}) {
		t.Errorf("Identity() = %s", dev.Identity())
	}
	if dev.Config() != cfg {
		t.Errorf("Config() = %+v, want %+v", dev.Config(), cfg)
	}
}

func TestPowerOff_Idempotent(t *testing.T) {
	m := hardware.NewMock()
	dev := attach(t, m, lt8618.DefaultConfiguration())

	if err := dev.PowerOff(m); err != nil {
		t.Fatalf("first PowerOff: %v", err)
	}
	first := m.Writes()
	m.Reset()
	if err := dev.PowerOff(m); err != nil {
		t.Fatalf("second PowerOff: %v", err)
	}
	second := m.Writes()

	want := []hardware.Txn{
		{Op: hardware.OpWrite, Page: hardware.PageTX, Reg: hardware.RegPage, Val: hardware.PageTX},
		{Op: hardware.OpWrite, Page: hardware.PageTX, Reg: hardware.RegHDMIOutput, Val: hardware.HDMIOutputOff},
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("writes = %v / %v, want two writes each", first, second)
	}
	if first[1] != want[1] || second[1] != want[1] {
		t.Errorf("HDMI off write = %+v / %+v, want %+v", first[1], second[1], want[1])
	}
	if first[0].Reg != hardware.RegPage || first[0].Val != hardware.PageTX || second[0] != want[0] {
		t.Errorf("page select = %+v / %+v", first[0], second[0])
	}
}

func TestPowerOff_BusError(t *testing.T) {
	m := hardware.NewMock()
	dev := attach(t, m, lt8618.DefaultConfiguration())
	m.FailOn(hardware.OpWrite, hardware.RegHDMIOutput)
	if err := dev.PowerOff(m); !errors.Is(err, hardware.ErrInjected) {
		t.Fatalf("err = %v, want ErrInjected", err)
	}
}

func TestPowerOn_U3Locked(t *testing.T) {
	m := hardware.NewMock()
	dev := attach(t, m, lt8618.DefaultConfiguration())

	res, err := dev.PowerOn(m)
	if err != nil {
		t.Fatalf("PowerOn: %v (stage %s)", err, res.Stage)
	}
	if res.PLL.State != lt8618.PLLLocked || res.PLL.Attempts != 1 {
		t.Errorf("PLL = %+v, want locked after 1 attempt", res.PLL)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", res.Warnings)
	}
	if res.Stage != "" {
		t.Errorf("Stage = %q, want empty", res.Stage)
	}

	log := m.Log()
	hdmi := writesTo(log, hardware.PageTX, hardware.RegHDMIOutput)
	if len(hdmi) != 2 || hdmi[0] != hardware.HDMIOutputOff || hdmi[1] != hardware.HDMIOutputOn {
		t.Errorf("HDMI output writes = %x, want [00 ea]", hdmi)
	}
	if csc := writesTo(log, hardware.PageVideo, hardware.RegCSC); len(csc) != 1 || csc[0] != 0x00 {
		t.Errorf("CSC writes = %x, want [00]", csc)
	}
	if got := m.GetReg(hardware.PageTX, hardware.RegPLLCtrl0); got&0x02 != 0 {
		t.Errorf("PLL ctrl 0x2b = 0x%02x, bit 1 should be clear", got)
	}
	if got := m.GetReg(hardware.PageAudio, 0x47); got != 0x04 {
		t.Errorf("VIC = 0x%02x, want 0x04", got)
	}
}

func TestPowerOn_FirstStageDisablesOutput(t *testing.T) {
	m := hardware.NewMock()
	dev := attach(t, m, lt8618.DefaultConfiguration())
	if _, err := dev.PowerOn(m); err != nil {
		t.Fatalf("PowerOn: %v", err)
	}
	w := m.Writes()
	if w[0].Reg != hardware.RegPage || w[0].Val != hardware.PageTX ||
		w[1].Reg != hardware.RegHDMIOutput || w[1].Val != hardware.HDMIOutputOff {
		t.Errorf("first writes = %+v %+v, want HDMI off", w[0], w[1])
	}
}

func TestPowerOn_PLLNeverLocks(t *testing.T) {
	m := hardware.NewMock()
	m.NeverLock()
	dev := attach(t, m, lt8618.DefaultConfiguration())

	res, err := dev.PowerOn(m)
	if err != nil {
		t.Fatalf("PowerOn returned fatal error %v, want success with warning", err)
	}
	if res.PLL.State != lt8618.PLLGaveUp || res.PLL.Attempts != 5 {
		t.Errorf("PLL = %+v, want gave-up after 5 attempts", res.PLL)
	}
	if !res.HasWarning(lt8618.ErrPLLLockTimeout) {
		t.Errorf("warnings = %v, want ErrPLLLockTimeout", res.Warnings)
	}

	sleeps := m.Sleeps()
	if len(sleeps) != 5 {
		t.Fatalf("sleeps = %v, want 5", sleeps)
	}
	for i, d := range sleeps {
		if d != 10*time.Millisecond {
			t.Errorf("sleep[%d] = %v, want 10ms", i, d)
		}
	}

	var statusReads int
	for _, tx := range m.Log() {
		if tx.Op == hardware.OpRead && tx.Page == hardware.PageVideo && tx.Reg == hardware.RegPLLStatus0 {
			statusReads++
		}
	}
	if statusReads != 5 {
		t.Errorf("status reads = %d, want 5", statusReads)
	}
	// Remaining stages still ran.
	if got := m.GetReg(hardware.PageTX, hardware.RegHDMIOutput); got != hardware.HDMIOutputOn {
		t.Errorf("HDMI output = 0x%02x, want on", got)
	}
}

func TestPowerOn_PLLLocksAfterRetries(t *testing.T) {
	m := hardware.NewMock()
	polls := 0
	m.SetReadHook(func(page byte, reg hardware.Register) (byte, bool) {
		if page != hardware.PageVideo {
			return 0, false
		}
		switch reg {
		case hardware.RegPLLStatus0:
			polls++
			return 0x80, true
		case hardware.RegPLLStatus1:
			if polls < 3 {
				return 0xff, true
			}
			return 0x00, true
		case hardware.RegPLLStatus2:
			return 0x80, true
		}
		return 0, false
	})
	dev := attach(t, m, lt8618.DefaultConfiguration())

	res, err := dev.PowerOn(m)
	if err != nil {
		t.Fatalf("PowerOn: %v", err)
	}
	if res.PLL.State != lt8618.PLLLocked || res.PLL.Attempts != 3 {
		t.Errorf("PLL = %+v, want locked after 3 attempts", res.PLL)
	}
	if len(m.Sleeps()) != 3 {
		t.Errorf("sleeps = %d, want 3", len(m.Sleeps()))
	}
}

func TestPowerOn_PLLStatusBit7Clear(t *testing.T) {
	m := hardware.NewMock()
	m.SetReg(hardware.PageVideo, hardware.RegPLLStatus2, 0x7f)
	dev := attach(t, m, lt8618.DefaultConfiguration())

	res, err := dev.PowerOn(m)
	if err != nil {
		t.Fatalf("PowerOn: %v", err)
	}
	if res.PLL.State != lt8618.PLLGaveUp {
		t.Errorf("PLL state = %v, want gave-up", res.PLL.State)
	}
}

func TestPowerOn_PLLBusFailureIsFatal(t *testing.T) {
	m := hardware.NewMock()
	m.FailOn(hardware.OpRead, hardware.RegPLLStatus1)
	dev := attach(t, m, lt8618.DefaultConfiguration())

	res, err := dev.PowerOn(m)
	var busErr *hardware.BusError
	if !errors.As(err, &busErr) || busErr.Reg != hardware.RegPLLStatus1 {
		t.Fatalf("err = %v, want bus error on 0xea", err)
	}
	if res.Stage != lt8618.StagePLLLock {
		t.Errorf("Stage = %q, want %q", res.Stage, lt8618.StagePLLLock)
	}
	if res.PLL.State != lt8618.PLLAborted || res.PLL.Attempts != 1 {
		t.Errorf("PLL = %+v, want aborted after 1 attempt (no retry after bus failure)", res.PLL)
	}
	if csc := writesTo(m.Log(), hardware.PageVideo, hardware.RegCSC); len(csc) != 0 {
		t.Errorf("CSC written after fatal PLL error: %x", csc)
	}
}

func TestPowerOn_UnknownVariant(t *testing.T) {
	m := hardware.NewMockWithIdentity(0x17, 0x02, 0x55)
	dev := attach(t, m, lt8618.DefaultConfiguration())

	res, err := dev.PowerOn(m)
	if !errors.Is(err, lt8618.ErrUnknownChip) {
		t.Fatalf("err = %v, want ErrUnknownChip", err)
	}
	if res.Stage != lt8618.StageVariant {
		t.Errorf("Stage = %q, want %q", res.Stage, lt8618.StageVariant)
	}
	w := m.Writes()
	last := w[len(w)-1]
	if last.Page != hardware.PageTX || last.Reg != hardware.RegPLLCtrl1 {
		t.Errorf("last write = %+v, want PLL ctrl 0x2e clear", last)
	}
	for _, reg := range []hardware.Register{0x4d, 0x27, 0x2a} {
		if v := writesTo(m.Log(), hardware.PageTX, reg); len(v) > 1 || (reg == 0x2a && len(v) > 0) {
			t.Errorf("PLL programming write to 0x%02x: %x", reg, v)
		}
	}
	if len(m.Sleeps()) != 0 {
		t.Errorf("sleeps = %v, want none", m.Sleeps())
	}
}

func TestPowerOn_U2NeedsNoPLL(t *testing.T) {
	m := hardware.NewMockWithIdentity(0x17, 0x02, hardware.VariantU2)
	dev := attach(t, m, lt8618.DefaultConfiguration())

	res, err := dev.PowerOn(m)
	if err != nil {
		t.Fatalf("PowerOn: %v", err)
	}
	if res.PLL.State != lt8618.PLLNotPolled {
		t.Errorf("PLL state = %v, want not-polled", res.PLL.State)
	}
	if len(m.Sleeps()) != 0 {
		t.Errorf("sleeps = %v, want none", m.Sleeps())
	}
	w := m.Writes()
	if last := w[len(w)-1]; last.Reg != hardware.RegPLLCtrl1 {
		t.Errorf("last write = %+v, want PLL ctrl 0x2e", last)
	}
}

func TestPowerOn_UnsupportedMode(t *testing.T) {
	for _, mode := range []lt8618.InputMode{
		lt8618.InputRGB565,
		lt8618.InputYCbCr422_20Bit,
		lt8618.InputYCbCr422_24Bit,
		lt8618.InputBT1120_20Bit,
		lt8618.InputBT1120_24Bit,
		lt8618.InputBT656_10Bit,
		lt8618.InputBT656_12Bit,
	} {
		m := hardware.NewMock()
		cfg := lt8618.DefaultConfiguration()
		cfg.InputMode = mode
		dev := attach(t, m, cfg)

		res, err := dev.PowerOn(m)
		var ume *lt8618.UnsupportedModeError
		if !errors.As(err, &ume) || ume.Mode != mode {
			t.Errorf("%s: err = %v, want UnsupportedModeError", mode, err)
			continue
		}
		if res.Stage != lt8618.StageDigitalInput {
			t.Errorf("%s: Stage = %q, want %q", mode, res.Stage, lt8618.StageDigitalInput)
		}
		for _, tx := range m.Log() {
			if tx.Page == hardware.PageAudio {
				t.Errorf("%s: audio page touched after unsupported mode: %+v", mode, tx)
				break
			}
		}
	}
}

func TestPowerOn_DDRClockOnlyChangesReg4F(t *testing.T) {
	run := func(ddr bool) []hardware.Txn {
		m := hardware.NewMock()
		cfg := lt8618.DefaultConfiguration()
		cfg.DDRClock = ddr
		dev := attach(t, m, cfg)
		if _, err := dev.PowerOn(m); err != nil {
			t.Fatalf("PowerOn(ddr=%v): %v", ddr, err)
		}
		return m.Writes()
	}
	sdr, ddr := run(false), run(true)
	if len(sdr) != len(ddr) {
		t.Fatalf("write counts differ: %d vs %d", len(sdr), len(ddr))
	}
	diffs := 0
	for i := range sdr {
		if sdr[i] == ddr[i] {
			continue
		}
		diffs++
		if sdr[i].Page != hardware.PageVideo || sdr[i].Reg != 0x4f || sdr[i].Val != 0x40 || ddr[i].Val != 0xc0 {
			t.Errorf("write %d: sdr %+v ddr %+v", i, sdr[i], ddr[i])
		}
	}
	if diffs != 1 {
		t.Errorf("differing writes = %d, want 1", diffs)
	}
}

func TestPowerOn_AudioAndOutputMode(t *testing.T) {
	m := hardware.NewMock()
	cfg := lt8618.DeviceConfiguration{
		InputMode:       lt8618.InputRGB888,
		OutputMode:      lt8618.OutputDVI,
		SampleFrequency: lt8618.Sample96K,
		AudioFormat:     0x123456,
	}
	dev := attach(t, m, cfg)
	if _, err := dev.PowerOn(m); err != nil {
		t.Fatalf("PowerOn: %v", err)
	}
	checks := []struct {
		page byte
		reg  hardware.Register
		want byte
	}{
		{hardware.PageVideo, 0xd6, 0x00},
		{hardware.PageAudio, 0x0f, 0xa0},
		{hardware.PageAudio, 0x35, 0x12},
		{hardware.PageAudio, 0x36, 0x34},
		{hardware.PageAudio, 0x37, 0x56},
	}
	for _, c := range checks {
		if got := m.GetReg(c.page, c.reg); got != c.want {
			t.Errorf("page 0x%02x reg 0x%02x = 0x%02x, want 0x%02x", c.page, c.reg, got, c.want)
		}
	}
}

func TestPowerOn_CSCByMode(t *testing.T) {
	tests := []struct {
		mode lt8618.InputMode
		want byte
	}{
		{lt8618.InputRGB888, 0x00},
		{lt8618.InputRGB12Bit, 0x00},
		{lt8618.InputYCbCr444, 0x08},
		{lt8618.InputYCbCr422_16Bit, 0x18},
		{lt8618.InputBT1120_16Bit, 0x18},
		{lt8618.InputBT656_8Bit, 0x18},
		{lt8618.InputBT601_8Bit, 0x18},
	}
	for _, tc := range tests {
		m := hardware.NewMock()
		cfg := lt8618.DefaultConfiguration()
		cfg.InputMode = tc.mode
		dev := attach(t, m, cfg)
		if _, err := dev.PowerOn(m); err != nil {
			t.Fatalf("%s: PowerOn: %v", tc.mode, err)
		}
		if got := m.GetReg(hardware.PageVideo, hardware.RegCSC); got != tc.want {
			t.Errorf("%s: CSC = 0x%02x, want 0x%02x", tc.mode, got, tc.want)
		}
	}
}

func TestPowerOn_ShortCircuitEverywhere(t *testing.T) {
	base := hardware.NewMock()
	dev := attach(t, base, lt8618.DefaultConfiguration())
	if _, err := dev.PowerOn(base); err != nil {
		t.Fatalf("baseline PowerOn: %v", err)
	}
	total := base.Count()

	for failAt := 0; failAt < total; failAt++ {
		m := hardware.NewMock()
		dev := attach(t, m, lt8618.DefaultConfiguration())
		m.FailAt(failAt)

		res, err := dev.PowerOn(m)
		if !errors.Is(err, hardware.ErrInjected) {
			t.Fatalf("failAt=%d: err = %v, want ErrInjected", failAt, err)
		}
		if res.Stage == "" {
			t.Errorf("failAt=%d: no stage recorded", failAt)
		}
		if n := m.Count(); n != failAt+1 {
			t.Errorf("failAt=%d: %d transactions reached the bus, want %d", failAt, n, failAt+1)
		}
	}
}

func TestPowerOn_Repeatable(t *testing.T) {
	m := hardware.NewMock()
	dev := attach(t, m, lt8618.DefaultConfiguration())
	if _, err := dev.PowerOn(m); err != nil {
		t.Fatalf("first PowerOn: %v", err)
	}
	first := m.Writes()
	m.Reset()
	if _, err := dev.PowerOn(m); err != nil {
		t.Fatalf("second PowerOn: %v", err)
	}
	second := m.Writes()
	if len(first) != len(second) {
		t.Fatalf("write counts differ: %d vs %d", len(first), len(second))
	}
	// Only the page of the very first write may differ (the bus starts on page 0x00).
	for i := 1; i < len(first); i++ {
		if first[i] != second[i] {
			t.Errorf("write %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
