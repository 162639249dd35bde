package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/micro-nova/hdmitx/internal/domain"
)

// SSE event names. The first event on a stream is always "status".
const (
	eventStatus     = "status"
	eventPoweredOn  = "powered-on"
	eventPoweredOff = "powered-off"
	eventFailed     = "failed"
)

// transitionEvent names the transition that produced st.
func transitionEvent(st domain.Status) string {
	switch {
	case st.LastError != "":
		return eventFailed
	case st.Powered:
		return eventPoweredOn
	default:
		return eventPoweredOff
	}
}

// sseEvents streams the current status, then one named event per transition.
// Each transition event carries the attempt id so clients can match it to
// the POST that triggered it.
func (h *Handlers) sseEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	id := uuid.New().String()
	ch := h.events.Subscribe(id)
	defer h.events.Unsubscribe(id)

	if err := sendSSE(w, flusher, eventStatus, "", h.ctrl.Status()); err != nil {
		return
	}
	for {
		select {
		case st, ok := <-ch:
			if !ok {
				return
			}
			if err := sendSSE(w, flusher, transitionEvent(st), st.Attempt, st); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, event, id string, st domain.Status) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
