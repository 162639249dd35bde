package hardware

// LT8618SXB register map. Most of the chip is undocumented; names describe
// how the registers are used during bring-up rather than datasheet names.
//
// Register 0xff is a page selector: the value written there changes what
// every other address refers to. Pages seen during bring-up:
//
//	0x80  system / reset / identity
//	0x81  TX analog (HDMI output enable, PHY drive)
//	0x82  video input, CSC, PLL status
//	0x84  audio and HDMI packet setup
const (
	RegPage Register = 0xff

	RegChipID0 Register = 0x00 // page 0x80, valid only after unlock
	RegChipID1 Register = 0x01
	RegChipID2 Register = 0x02 // variant byte: 0xe1 = U2, 0xe2 = U3

	RegUnlock Register = 0xee // page 0x80, write 0x01 to expose the identity

	RegHDMIOutput Register = 0x30 // page 0x81, output toggle

	RegPLLCtrl0 Register = 0x2b // page 0x81, bit 1 cleared before PLL work
	RegPLLCtrl1 Register = 0x2e // bit 0 cleared before PLL work

	RegPLLStatus0 Register = 0x15 // page 0x82, bit 7 set when calibrated
	RegPLLStatus1 Register = 0xea // page 0x82, 0xff while unlocked
	RegPLLStatus2 Register = 0xeb // page 0x82, bit 7 set when locked

	RegCSC Register = 0xb9 // page 0x82, color space conversion select
)

// Page values for RegPage.
const (
	PageSystem byte = 0x80
	PageTX     byte = 0x81
	PageVideo  byte = 0x82
	PageAudio  byte = 0x84
)

// Chip variant identity bytes (RegChipID2).
const (
	VariantU2 byte = 0xe1
	VariantU3 byte = 0xe2
)

// HDMI output toggle values for RegHDMIOutput.
const (
	HDMIOutputOn  byte = 0xea
	HDMIOutputOff byte = 0x00
)
