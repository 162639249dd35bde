package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/micro-nova/hdmitx/internal/lt8618"
)

// FileName is the configuration file name inside the config directory.
const FileName = "lt8618.json"

// JSONStore keeps the device configuration in a JSON file.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONStore creates a store for FileName in the given config directory.
func NewJSONStore(configDir string) *JSONStore {
	return &JSONStore{
		path: filepath.Join(configDir, FileName),
	}
}

// Path returns the file path used by this store.
func (s *JSONStore) Path() string { return s.path }

// fileConfig is the on-disk shape. Pointers distinguish absent fields.
type fileConfig struct {
	InputMode       *lt8618.InputMode       `json:"input_mode"`
	OutputMode      *lt8618.OutputMode      `json:"output_mode"`
	SampleFrequency *lt8618.SampleFrequency `json:"sample_frequency"`
	AudioFormat     *lt8618.AudioFormat     `json:"audio_format"`
	DDRClock        *bool                   `json:"ddr_clock"`
}

// Load reads the configuration from disk. A missing file yields the defaults;
// a file that does not parse or validate is an error.
func (s *JSONStore) Load() (lt8618.DeviceConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("config: no config file, using defaults", "path", s.path)
			return lt8618.DefaultConfiguration(), nil
		}
		return lt8618.DeviceConfiguration{}, err
	}

	cfg, err := Merge(lt8618.DefaultConfiguration(), data)
	if err != nil {
		return lt8618.DeviceConfiguration{}, fmt.Errorf("config: %s: %w", s.path, err)
	}
	return cfg, nil
}

// Merge overlays the JSON document in data onto base and validates the
// result. Absent fields keep their base value, except that a new sample
// frequency without an audio format selects that frequency's default format.
func Merge(base lt8618.DeviceConfiguration, data []byte) (lt8618.DeviceConfiguration, error) {
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return lt8618.DeviceConfiguration{}, fmt.Errorf("parse: %w", err)
	}
	cfg := fc.resolve(base)
	if err := cfg.Validate(); err != nil {
		return lt8618.DeviceConfiguration{}, err
	}
	return cfg, nil
}

func (fc fileConfig) resolve(cfg lt8618.DeviceConfiguration) lt8618.DeviceConfiguration {
	if fc.InputMode != nil {
		cfg.InputMode = *fc.InputMode
	}
	if fc.OutputMode != nil {
		cfg.OutputMode = *fc.OutputMode
	}
	if fc.SampleFrequency != nil {
		cfg.SampleFrequency = *fc.SampleFrequency
		cfg.AudioFormat = cfg.SampleFrequency.DefaultAudioFormat()
	}
	if fc.AudioFormat != nil {
		cfg.AudioFormat = *fc.AudioFormat
	}
	if fc.DDRClock != nil {
		cfg.DDRClock = *fc.DDRClock
	}
	return cfg
}

// Save validates and atomically writes the configuration.
func (s *JSONStore) Save(cfg lt8618.DeviceConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	// Write to temp file, then rename (atomic on Linux)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

var _ Store = (*JSONStore)(nil)
