package api

import (
	"net/http"
)

func (h *Handlers) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

func (h *Handlers) powerOn(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctrl.PowerOn(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) powerOff(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctrl.PowerOff(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
