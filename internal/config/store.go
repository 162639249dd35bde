// Package config loads and saves the transmitter's device configuration.
package config

import "github.com/micro-nova/hdmitx/internal/lt8618"

// Store is the interface for persisting the device configuration.
type Store interface {
	// Load returns the stored configuration, or the defaults if none exists.
	Load() (lt8618.DeviceConfiguration, error)

	// Save persists the configuration.
	Save(cfg lt8618.DeviceConfiguration) error

	// Path returns the file path used by this store.
	Path() string
}
