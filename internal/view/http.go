package view

import (
	"encoding/json"
	"net/http"

	"cleannav/internal/checklist"
	"cleannav/internal/session"
)

type Handler struct {
	store      *session.FileStore
	reg        *checklist.Registry
	roomID     string
	alertBelow int
}

func NewHandler(store *session.FileStore, reg *checklist.Registry, roomID string, alertBelow int) *Handler {
	return &Handler{store: store, reg: reg, roomID: roomID, alertBelow: alertBelow}
}

// State handles GET /api/view.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Get(h.roomID)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(Render(h.reg, s, h.alertBelow))
}
