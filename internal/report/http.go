package report

import (
	"encoding/json"
	"net/http"
	"time"

	"cleannav/internal/checklist"
	"cleannav/internal/session"
	"cleannav/internal/telemetry"
)

type Handler struct {
	store     *session.FileStore
	reg       *checklist.Registry
	artifacts *Store
	forwarder *Forwarder
	events    telemetry.Repository
	roomID    string
	cleanerID string

	// Now is swappable in tests.
	Now func() time.Time
}

func NewHandler(store *session.FileStore, reg *checklist.Registry, artifacts *Store, forwarder *Forwarder, events telemetry.Repository, roomID, cleanerID string) *Handler {
	return &Handler{
		store:     store,
		reg:       reg,
		artifacts: artifacts,
		forwarder: forwarder,
		events:    events,
		roomID:    roomID,
		cleanerID: cleanerID,
		Now:       time.Now,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

type SubmitResponse struct {
	OK            bool   `json:"ok"`
	ReportID      string `json:"report_id"`
	Filename      string `json:"filename"`
	DownloadURL   string `json:"download_url"`
	SentToAuditor bool   `json:"sent_to_auditor"`
	SendError     string `json:"send_error,omitempty"`
	Report        Report `json:"report"`
}

// Submit handles POST /api/report. Every task must be status ok; a fix
// record does not pass the gate. After the artifact is written the session
// is cleared, whether or not the auditor forward succeeded.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Get(h.roomID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !s.AllDone(h.reg) {
		writeErr(w, http.StatusConflict, "not all tasks are done")
		return
	}

	rep := Build(h.reg, s, h.roomID, h.cleanerID, h.Now())
	reportID := NewID()
	filename := Filename(reportID)
	content := EncodeText(h.reg, rep, reportID)

	if err := h.artifacts.Save(filename, content); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := SubmitResponse{
		OK:          true,
		ReportID:    reportID,
		Filename:    filename,
		DownloadURL: "/reports/" + filename,
		Report:      rep,
	}
	if h.forwarder.Enabled() {
		if err := h.forwarder.Forward(r.Context(), filename, content); err != nil {
			resp.SendError = err.Error()
		} else {
			resp.SentToAuditor = true
		}
	}

	if err := h.store.Reset(h.roomID); err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	_ = h.events.RecordEvent(telemetry.EventReportSubmitted, telemetry.EventMetadata{
		"report_id":       reportID,
		"total_score":     rep.TotalScore,
		"sent_to_auditor": resp.SentToAuditor,
	})
	writeJSON(w, http.StatusOK, resp)
}

// Download handles GET /reports/{filename}.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	path, err := h.artifacts.Path(filename)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid report filename")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	http.ServeFile(w, r, path)
}
