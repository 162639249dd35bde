package lt8618

import (
	"github.com/micro-nova/hdmitx/internal/hardware"
)

// Register tables for the bring-up pipeline. Most values come from the
// vendor's MCU reference configuration and are undocumented; treat them as
// opaque and do not reorder.

const pageReg = hardware.RegPage

// hdmiOutputTable toggles the HDMI TX output.
func hdmiOutputTable(on bool) Table {
	val := hardware.HDMIOutputOff
	if on {
		val = hardware.HDMIOutputOn
	}
	return Table{
		{pageReg, hardware.PageTX},
		{hardware.RegHDMIOutput, val},
	}
}

// analogInputTable sets up the TTL input analog front end. Required for
// every input mode.
var analogInputTable = Table{
	{pageReg, hardware.PageTX},
	{0x02, 0x66},
	{0x0a, 0x06},
	{0x15, 0x06},
	{0x4e, 0xa8},
	{pageReg, hardware.PageVideo},
	{0x1b, 0x77},
	{0x1c, 0xec},
}

// resetInitTable releases the internal resets and power-down bits.
var resetInitTable = Table{
	{pageReg, hardware.PageSystem},
	{hardware.RegUnlock, 0x01},
	{0x11, 0x00},
	{0x13, 0xf1},
	{0x13, 0xf9},
	{0x0a, 0x80},
}

// ddr picks between the single and double data rate value of a register.
func ddr(on bool, sdr, ddr byte) byte {
	if on {
		return ddr
	}
	return sdr
}

// digitalInputTable returns the TTL digital input setup for mode. Modes the
// vendor configuration never defined return UnsupportedModeError.
func digitalInputTable(mode InputMode, ddrClock bool) (Table, error) {
	switch mode {
	case InputRGB888:
		return Table{
			{pageReg, hardware.PageVideo},
			{0x45, 0x70},
			{0x4f, ddr(ddrClock, 0x40, 0xc0)},
			{0x50, 0x00},
			{0x47, 0x07},
		}, nil

	case InputRGB12Bit:
		return Table{
			{pageReg, hardware.PageSystem},
			{0x0a, 0x80},
			{pageReg, hardware.PageVideo},
			{0x45, 0x70},
			{0x4f, 0x40},
			{0x50, 0x00},
			{0x51, 0x30},
			{0x40, 0x00},
			{0x41, 0xcd},
		}, nil

	case InputYCbCr444:
		return Table{
			{pageReg, hardware.PageVideo},
			{0x45, 0x70},
			{0x4f, 0x40},
		}, nil

	case InputYCbCr422_16Bit:
		return Table{
			{pageReg, hardware.PageVideo},
			{0x45, 0x00},
			{0x4f, ddr(ddrClock, 0x00, 0x40)},
		}, nil

	case InputBT1120_16Bit:
		return Table{
			{pageReg, hardware.PageVideo},
			{0x45, 0x70},
			{0x4f, 0x40},
			{0x48, 0x08},
			{0x51, 0x42},
			{0x47, 0x37},
		}, nil

	case InputBT656_8Bit:
		return Table{
			{pageReg, hardware.PageVideo},
			{0x45, 0x00},
			{0x4f, 0x40},
			{0x48, ddr(ddrClock, 0x48, 0x5c)},
			{0x51, 0x42},
			{0x47, 0x87},
		}, nil

	case InputBT601_8Bit:
		return Table{
			{pageReg, hardware.PageTX},
			{0x0a, 0x90},
			{pageReg, hardware.PageTX},
			{0x4e, 0x02},
			{pageReg, hardware.PageVideo},
			{0x45, 0x00},
			{0x4f, 0xc0},
			{0x48, ddr(ddrClock, 0x40, 0x5c)},
			{0x51, 0x00},
			{0x47, 0x87},
		}, nil
	}
	return nil, &UnsupportedModeError{Mode: mode}
}

// audioI2STable configures the I2S audio sideband and the TX output type.
func audioI2STable(cfg DeviceConfiguration) Table {
	hi, mid, lo := cfg.AudioFormat.Bytes()
	return Table{
		{pageReg, hardware.PageVideo},
		{0xd6, byte(cfg.OutputMode)},
		{0xd7, 0x04},

		{pageReg, hardware.PageAudio},
		{0x06, 0x08},
		{0x07, 0x10},
		{0x09, 0x00},
		{0x0f, byte(cfg.SampleFrequency)},
		{0x34, 0xd5},
		{0x35, hi},
		{0x36, mid},
		{0x37, lo},
		{0x3c, 0x21},

		{pageReg, hardware.PageVideo},
		{0xde, 0x00},
		{0xde, 0xc0},

		{pageReg, hardware.PageTX},
		{0x23, 0x40},
		{0x24, 0x64},
		{0x26, 0x55},
		{0x29, 0x04},
		{0x4d, 0x00},
		{0x27, 0x60},
		{0x28, 0x00},
		{0x25, 0x01},
		{0x2c, 0x94},
		{0x2d, 0x99},
	}
}

// pllSetupTable programs the U3 TX PLL dividers ahead of lock polling.
// Input modes with a full-rate pixel clock need the extra divider writes.
func pllSetupTable(mode InputMode) Table {
	t := Table{{pageReg, hardware.PageTX}}
	switch mode {
	case InputRGB888, InputRGB12Bit, InputYCbCr444, InputYCbCr422_16Bit, InputBT1120_16Bit:
		t = append(t, Table{
			{0x25, 0x00},
			{0x2c, 0x9e},
			{0x2d, 0x99},
			{0x28, 0x88},
		}...)
	}
	return append(t, Table{
		{0x4d, 0x09},
		{0x27, 0x66},
		{0x2a, 0x00},
		{0x2a, 0x20},
	}...)
}

// pllKickTable restarts PLL calibration and leaves the video page selected
// for the status reads.
var pllKickTable = Table{
	{pageReg, hardware.PageSystem},
	{0x16, 0xf1},
	{0x18, 0xdc},
	{0x18, 0xfc},
	{0x16, 0xf3},
	{0x16, 0xe3},
	{0x16, 0xf3},
	{pageReg, hardware.PageVideo},
}

// CSC select values for hardware.RegCSC.
const (
	cscBypass        byte = 0x00
	cscYCbCr444      byte = 0x08
	cscYCbCr422ToRGB byte = 0x18
)

// cscValue picks the color space conversion for the input mode.
func cscValue(mode InputMode) byte {
	switch mode {
	case InputYCbCr444:
		return cscYCbCr444
	case InputYCbCr422_16Bit,
		InputBT1120_16Bit, InputBT1120_20Bit, InputBT1120_24Bit,
		InputBT656_8Bit, InputBT656_10Bit, InputBT656_12Bit,
		InputBT601_8Bit:
		return cscYCbCr422ToRGB
	default:
		return cscBypass
	}
}

func cscTable(mode InputMode) Table {
	return Table{
		{pageReg, hardware.PageVideo},
		{hardware.RegCSC, cscValue(mode)},
	}
}

// hdmiVIC is the CEA-861 video identification code sent in the AVI
// infoframe (4 = 1280x720p60).
const hdmiVIC = 0x04

// hdmiDigitalTable sets up the HDMI TX packet engine and resets the TX.
var hdmiDigitalTable = Table{
	{pageReg, hardware.PageAudio},
	{0x43, 0x31},
	{0x44, 0x10},
	{0x45, 0x2a},
	{0x47, hdmiVIC},
	{0x10, 0x2c},
	{0x12, 0x64},
	{0x3d, 0x0a},

	{pageReg, hardware.PageSystem},
	{0x11, 0x00},
	{0x13, 0xf1},
	{0x13, 0xf9},
}

// hdmiPHYTable enables the HDMI output and programs the PHY drive strength.
var hdmiPHYTable = append(hdmiOutputTable(true), Table{
	{0x31, 0x44},
	{0x32, 0x4a},
	{0x33, 0x0b},
	{0x34, 0x00},
	{0x35, 0x00},
	{0x36, 0x00},
	{0x37, 0x44},
	{0x3f, 0x0f},
	{0x40, 0xa0},
	{0x41, 0xa0},
	{0x42, 0xa0},
	{0x43, 0xa0},
	{0x44, 0x0a},
}...)
