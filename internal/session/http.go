package session

import (
	"encoding/json"
	"net/http"

	"cleannav/internal/checklist"
	"cleannav/internal/telemetry"
)

type Handler struct {
	store  *FileStore
	reg    *checklist.Registry
	roomID string
	events telemetry.Repository
}

func NewHandler(store *FileStore, reg *checklist.Registry, roomID string) *Handler {
	return &Handler{store: store, reg: reg, roomID: roomID}
}

func (h *Handler) SetEvents(repo telemetry.Repository) {
	h.events = repo
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// StateResponse is the session plus derived fields. activeTaskId is always
// recomputed, never read back from storage.
type StateResponse struct {
	Session
	ActiveTaskID *string `json:"activeTaskId"`
	TotalScore   int     `json:"totalScore"`
}

func (h *Handler) stateResponse(s Session) StateResponse {
	resp := StateResponse{Session: s, TotalScore: h.reg.TotalScore(s.Records())}
	if active := h.reg.ActiveTask(s.Records()); active != nil {
		id := active.ID
		resp.ActiveTaskID = &id
	}
	return resp
}

// State handles GET /api/session.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Get(h.roomID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(s))
}

// Reset handles POST /api/session/reset: drops the stored session and
// returns the freshly initialized one.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(h.roomID); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	s, err := h.store.Get(h.roomID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if h.events != nil {
		_ = h.events.RecordEvent(telemetry.EventSessionReset, telemetry.EventMetadata{"room_id": h.roomID})
	}
	writeJSON(w, http.StatusOK, h.stateResponse(s))
}
