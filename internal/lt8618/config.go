package lt8618

import (
	"fmt"
	"strings"
)

// InputMode is the video input format wired to the chip's TTL port.
// Values match the vendor's mode numbering.
type InputMode uint8

const (
	InputRGB888 InputMode = iota
	InputRGB12Bit
	InputRGB565
	InputYCbCr444
	InputYCbCr422_16Bit
	InputYCbCr422_20Bit
	InputYCbCr422_24Bit
	InputBT1120_16Bit
	InputBT1120_20Bit
	InputBT1120_24Bit
	InputBT656_8Bit
	InputBT656_10Bit
	InputBT656_12Bit
	InputBT601_8Bit
)

var inputModeNames = [...]string{
	InputRGB888:         "rgb888",
	InputRGB12Bit:       "rgb12",
	InputRGB565:         "rgb565",
	InputYCbCr444:       "ycbcr444",
	InputYCbCr422_16Bit: "ycbcr422-16",
	InputYCbCr422_20Bit: "ycbcr422-20",
	InputYCbCr422_24Bit: "ycbcr422-24",
	InputBT1120_16Bit:   "bt1120-16",
	InputBT1120_20Bit:   "bt1120-20",
	InputBT1120_24Bit:   "bt1120-24",
	InputBT656_8Bit:     "bt656-8",
	InputBT656_10Bit:    "bt656-10",
	InputBT656_12Bit:    "bt656-12",
	InputBT601_8Bit:     "bt601-8",
}

func (m InputMode) String() string {
	if int(m) < len(inputModeNames) {
		return inputModeNames[m]
	}
	return fmt.Sprintf("InputMode(%d)", uint8(m))
}

// Valid reports whether m is one of the known input modes.
func (m InputMode) Valid() bool { return int(m) < len(inputModeNames) }

func (m InputMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid input mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *InputMode) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for i, name := range inputModeNames {
		if name == s {
			*m = InputMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown input mode %q", s)
}

// OutputMode selects DVI or HDMI signalling. The value is the register byte.
type OutputMode uint8

const (
	OutputDVI  OutputMode = 0x00
	OutputHDMI OutputMode = 0x8e
)

func (o OutputMode) String() string {
	switch o {
	case OutputDVI:
		return "dvi"
	case OutputHDMI:
		return "hdmi"
	default:
		return fmt.Sprintf("OutputMode(0x%02x)", uint8(o))
	}
}

func (o OutputMode) Valid() bool { return o == OutputDVI || o == OutputHDMI }

func (o OutputMode) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid output mode 0x%02x", uint8(o))
	}
	return []byte(o.String()), nil
}

func (o *OutputMode) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "dvi":
		*o = OutputDVI
	case "hdmi":
		*o = OutputHDMI
	default:
		return fmt.Errorf("unknown output mode %q", string(b))
	}
	return nil
}

// SampleFrequency is the audio sample rate. The value is the register byte
// written to the audio page.
type SampleFrequency uint8

const (
	Sample44K1 SampleFrequency = 0x00
	Sample48K  SampleFrequency = 0x2b
	Sample32K  SampleFrequency = 0x30
	Sample88K2 SampleFrequency = 0x80
	Sample96K  SampleFrequency = 0xa0
	Sample176K SampleFrequency = 0xc0
	Sample196K SampleFrequency = 0xe0
)

var sampleFrequencies = []struct {
	freq SampleFrequency
	name string
	i2s  AudioFormat
}{
	{Sample44K1, "44.1khz", 0x1000},
	{Sample48K, "48khz", 0x1800},
	{Sample32K, "32khz", 0x1880},
	{Sample88K2, "88.2khz", 0x3000},
	{Sample96K, "96khz", 0x3100},
	{Sample176K, "176khz", 0x6000},
	{Sample196K, "196khz", 0x6200},
}

func (f SampleFrequency) String() string {
	for _, sf := range sampleFrequencies {
		if sf.freq == f {
			return sf.name
		}
	}
	return fmt.Sprintf("SampleFrequency(0x%02x)", uint8(f))
}

func (f SampleFrequency) Valid() bool {
	for _, sf := range sampleFrequencies {
		if sf.freq == f {
			return true
		}
	}
	return false
}

// DefaultAudioFormat returns the I2S format word conventionally paired with f.
func (f SampleFrequency) DefaultAudioFormat() AudioFormat {
	for _, sf := range sampleFrequencies {
		if sf.freq == f {
			return sf.i2s
		}
	}
	return 0
}

func (f SampleFrequency) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid sample frequency 0x%02x", uint8(f))
	}
	return []byte(f.String()), nil
}

func (f *SampleFrequency) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for _, sf := range sampleFrequencies {
		if sf.name == s {
			*f = sf.freq
			return nil
		}
	}
	return fmt.Errorf("unknown sample frequency %q", s)
}

// AudioFormat is the I2S format word. Only the low 24 bits are significant;
// they are written high byte first.
type AudioFormat uint32

// Bytes splits the format into the three register bytes, most significant first.
func (a AudioFormat) Bytes() (hi, mid, lo byte) {
	return byte(a >> 16), byte(a >> 8), byte(a)
}

// DeviceConfiguration is captured once when the chip is attached and is
// read-only for every power transition afterwards.
type DeviceConfiguration struct {
	InputMode       InputMode       `json:"input_mode"`
	OutputMode      OutputMode      `json:"output_mode"`
	SampleFrequency SampleFrequency `json:"sample_frequency"`
	AudioFormat     AudioFormat     `json:"audio_format"`
	DDRClock        bool            `json:"ddr_clock"`
}

// DefaultConfiguration is the configuration used by M5Stack boards:
// 24-bit RGB in, HDMI out, 48 kHz I2S audio.
func DefaultConfiguration() DeviceConfiguration {
	return DeviceConfiguration{
		InputMode:       InputRGB888,
		OutputMode:      OutputHDMI,
		SampleFrequency: Sample48K,
		AudioFormat:     Sample48K.DefaultAudioFormat(),
	}
}

// Validate checks that every enumerated field holds a known value and that
// the audio format fits in 24 bits.
func (c DeviceConfiguration) Validate() error {
	if !c.InputMode.Valid() {
		return fmt.Errorf("input mode: invalid value %d", uint8(c.InputMode))
	}
	if !c.OutputMode.Valid() {
		return fmt.Errorf("output mode: invalid value 0x%02x", uint8(c.OutputMode))
	}
	if !c.SampleFrequency.Valid() {
		return fmt.Errorf("sample frequency: invalid value 0x%02x", uint8(c.SampleFrequency))
	}
	if c.AudioFormat > 0xffffff {
		return fmt.Errorf("audio format: 0x%x exceeds 24 bits", uint32(c.AudioFormat))
	}
	return nil
}
