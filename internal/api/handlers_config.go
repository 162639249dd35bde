package api

import (
	"io"
	"net/http"

	"github.com/micro-nova/hdmitx/internal/config"
)

const maxConfigBody = 4 << 10

func (h *Handlers) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Status().Config)
}

// setConfig overlays the request body on the active configuration and
// re-attaches the chip with it. The store only ever receives a configuration
// the domain is actually running.
func (h *Handlers) setConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBody))
	if err != nil {
		writeError(w, ErrBadRequest("read body: "+err.Error()))
		return
	}
	cfg, err := config.Merge(h.ctrl.Status().Config, body)
	if err != nil {
		writeError(w, ErrBadRequest(err.Error()))
		return
	}
	st, rerr := h.ctrl.Reconfigure(r.Context(), cfg)
	if st.Config == cfg {
		// Attached, even if the power on that followed failed.
		if err := h.store.Save(cfg); err != nil {
			writeError(w, ErrInternal("save config: "+err.Error()))
			return
		}
	}
	if rerr != nil {
		writeError(w, rerr)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
