package audit

import (
	"encoding/json"
	"net/http"
	"os"
)

type Handler struct {
	inbox *Inbox
}

func NewHandler(inbox *Inbox) *Handler {
	return &Handler{inbox: inbox}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

type receivePayload struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Receive handles POST /api/receive_report. A payload without a usable
// filename is still accepted, the inbox names it.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload receivePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	saved, err := h.inbox.Save(payload.Filename, payload.Content)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"saved_as": saved,
		"view_url": "/reports/" + saved,
	})
}

// List handles GET /api/reports.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.inbox.List()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": entries})
}

// View handles GET /reports/{filename}, serving the stored text.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	text, err := h.inbox.Read(r.PathValue("filename"))
	if err != nil {
		if os.IsNotExist(err) {
			writeErr(w, http.StatusNotFound, "report not found")
			return
		}
		writeErr(w, http.StatusBadRequest, "invalid report filename")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

// Download handles GET /download/{filename} as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	path, err := h.inbox.Path(filename)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid report filename")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	http.ServeFile(w, r, path)
}
