// Package auth guards the mutating API routes with access keys read from
// keys.json in the config directory.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/micro-nova/hdmitx/internal/config"
)

// KeysFileName is the access key file inside the config directory.
const KeysFileName = "keys.json"

// Key is one named access key in keys.json.
type Key struct {
	AccessKey string `json:"access_key"`
	Updated   string `json:"updated,omitempty"`
}

// Service checks access keys. With no keys configured it runs in open mode
// and lets every request through.
type Service struct {
	mu     sync.RWMutex
	path   string
	keys   map[string]Key
	cancel context.CancelFunc
}

// NewService loads keys.json from configDir and reloads it whenever it
// changes on disk.
func NewService(configDir string) (*Service, error) {
	s := &Service{
		path: filepath.Join(configDir, KeysFileName),
		keys: make(map[string]Key),
	}

	// Load initial state (missing file means open mode)
	if err := s.Reload(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		err := config.Watch(ctx, s.path, func() {
			if err := s.Reload(); err != nil {
				slog.Warn("auth: failed to reload keys", "err", err)
			}
		})
		if err != nil {
			slog.Warn("auth: could not watch keys file", "path", s.path, "err", err)
		}
	}()
	return s, nil
}

// Reload re-reads keys.json. A missing file switches to open mode; a corrupt
// one is an error and the current keys stay in effect.
func (s *Service) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.mu.Lock()
			s.keys = make(map[string]Key)
			s.mu.Unlock()
			return nil
		}
		return err
	}

	var keys map[string]Key
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	s.mu.Lock()
	s.keys = keys
	s.mu.Unlock()
	slog.Debug("auth: reloaded keys", "count", len(keys))
	return nil
}

// IsOpenMode returns true if no non-empty access key is configured.
func (s *Service) IsOpenMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.keys {
		if k.AccessKey != "" {
			return false
		}
	}
	return true
}

// VerifyKey returns true if key matches any configured access key.
// Uses constant-time comparison to prevent timing attacks.
func (s *Service) VerifyKey(key string) bool {
	if key == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.keys {
		if k.AccessKey == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(k.AccessKey)) == 1 {
			return true
		}
	}
	return false
}

// Close stops the file watcher.
func (s *Service) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}
