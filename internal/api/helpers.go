// Package api implements the HTTP control surface for the HDMI transmitter.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/micro-nova/hdmitx/internal/domain"
	"github.com/micro-nova/hdmitx/internal/lt8618"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctrl   Controller
	store  ConfigStore
	events EventBus
}

// Controller is the interface the handlers use to drive the power domain.
type Controller interface {
	Status() domain.Status
	PowerOn(ctx context.Context) (domain.Status, error)
	PowerOff(ctx context.Context) (domain.Status, error)
	Reconfigure(ctx context.Context, cfg lt8618.DeviceConfiguration) (domain.Status, error)
}

// ConfigStore persists the device configuration.
type ConfigStore interface {
	Load() (lt8618.DeviceConfiguration, error)
	Save(cfg lt8618.DeviceConfiguration) error
}

// EventBus is the interface for subscribing to status change events.
type EventBus interface {
	Subscribe(id string) <-chan domain.Status
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as a JSON AppError response.
func writeError(w http.ResponseWriter, err error) {
	appErr := toAppError(err)
	writeJSON(w, appErr.Status, appErr)
}
