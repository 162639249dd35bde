package config

import (
	"sync"

	"github.com/micro-nova/hdmitx/internal/lt8618"
)

// MemStore is an in-memory Store for tests. It never touches disk.
type MemStore struct {
	mu  sync.Mutex
	cfg *lt8618.DeviceConfiguration
}

// NewMemStore returns an empty store; Load yields the defaults until Save is called.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) Load() (lt8618.DeviceConfiguration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg == nil {
		return lt8618.DefaultConfiguration(), nil
	}
	return *m.cfg, nil
}

func (m *MemStore) Save(cfg lt8618.DeviceConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = &cfg
	return nil
}

// Path returns ":memory:" to indicate this is an in-memory store.
func (m *MemStore) Path() string { return ":memory:" }

var _ Store = (*MemStore)(nil)
