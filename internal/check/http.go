package check

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
	"net/http"
	"strconv"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"cleannav/internal/checklist"
	"cleannav/internal/classify"
	"cleannav/internal/session"
	"cleannav/internal/telemetry"
)

const maxPhotoBytes = 10 << 20

// Classifier is the external image model as the check flow sees it.
type Classifier interface {
	Classify(ctx context.Context, image []byte, mime string) ([]classify.Prediction, error)
}

type Handler struct {
	store      *session.FileStore
	reg        *checklist.Registry
	classifier Classifier
	policies   classify.PolicyTable
	events     telemetry.Repository
	roomID     string
	timeout    time.Duration
	gens       *generations
}

func NewHandler(store *session.FileStore, reg *checklist.Registry, classifier Classifier,
	policies classify.PolicyTable, events telemetry.Repository, roomID string, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Handler{
		store:      store,
		reg:        reg,
		classifier: classifier,
		policies:   policies,
		events:     events,
		roomID:     roomID,
		timeout:    timeout,
		gens:       newGenerations(),
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

func (h *Handler) record(eventType telemetry.EventType, metadata telemetry.EventMetadata) {
	if h.events == nil {
		return
	}
	_ = h.events.RecordEvent(eventType, metadata)
}

func (h *Handler) task(w http.ResponseWriter, r *http.Request) (checklist.Task, bool) {
	id := r.PathValue("id")
	t, ok := h.reg.Get(id)
	if !ok {
		writeErr(w, http.StatusNotFound, "unknown task: "+id)
		return checklist.Task{}, false
	}
	return t, true
}

type openResponse struct {
	Generation int64              `json:"generation"`
	Task       checklist.Task     `json:"task"`
	Record     session.TaskRecord `json:"record"`
}

// Open handles POST /api/tasks/{id}/check/open.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	t, ok := h.task(w, r)
	if !ok {
		return
	}

	s, err := h.store.Get(h.roomID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	gen := h.gens.Open(t.ID)
	h.record(telemetry.EventCheckOpened, telemetry.EventMetadata{"task_id": t.ID})
	writeJSON(w, http.StatusOK, openResponse{
		Generation: gen,
		Task:       t,
		Record:     s.Tasks[t.ID],
	})
}

type photoResponse struct {
	Verdict        classify.Verdict    `json:"verdict"`
	Committed      bool                `json:"committed"`
	AutoCloseMS    int                 `json:"autoCloseMs,omitempty"`
	FixCommitScore int                 `json:"fixCommitScore,omitempty"`
	Record         *session.TaskRecord `json:"record,omitempty"`
}

// Photo handles POST /api/tasks/{id}/check/photo: multipart form with the
// captured image under "photo" and the dialog token under "generation".
// An accepted verdict commits immediately; any other verdict leaves the
// record untouched until the cleaner confirms the fix.
func (h *Handler) Photo(w http.ResponseWriter, r *http.Request) {
	t, ok := h.task(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		writeErr(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}
	gen, _ := strconv.ParseInt(r.FormValue("generation"), 10, 64)
	if !h.gens.Valid(t.ID, gen) {
		writeErr(w, http.StatusConflict, "check dialog is no longer open")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "photo is required")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "read photo: "+err.Error())
		return
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "photo is not a decodable image")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	preds, err := h.classifier.Classify(ctx, raw, "image/"+format)
	if err != nil {
		if errors.Is(err, classify.ErrUnavailable) {
			writeErr(w, http.StatusServiceUnavailable, "classifier not loaded; retry or record a fix manually")
			return
		}
		writeErr(w, http.StatusBadGateway, "classification failed: "+err.Error())
		return
	}

	// The dialog may have been closed while the model was working; a late
	// result must not commit anything.
	if !h.gens.Valid(t.ID, gen) {
		writeErr(w, http.StatusConflict, "check dialog closed during classification")
		return
	}

	verdict, err := h.policies.Evaluate(preds)
	if err != nil {
		writeErr(w, http.StatusBadGateway, err.Error())
		return
	}

	h.record(telemetry.EventPhotoClassified, telemetry.EventMetadata{
		"task_id":  t.ID,
		"label":    verdict.Label,
		"accepted": verdict.Accepted,
	})

	if !verdict.Accepted {
		writeJSON(w, http.StatusOK, photoResponse{
			Verdict:        verdict,
			FixCommitScore: h.policies.FixCommitScore(),
		})
		return
	}

	s, err := h.store.CommitOK(h.roomID, t.ID, verdict.Score)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.gens.Close(t.ID)
	h.record(telemetry.EventTaskPassed, telemetry.EventMetadata{
		"task_id": t.ID,
		"label":   verdict.Label,
		"score":   verdict.Score,
	})

	rec := s.Tasks[t.ID]
	writeJSON(w, http.StatusOK, photoResponse{
		Verdict:     verdict,
		Committed:   true,
		AutoCloseMS: 1000,
		Record:      &rec,
	})
}

type fixRequest struct {
	Generation int64  `json:"generation"`
	Note       string `json:"note"`
}

// Fix handles POST /api/tasks/{id}/check/fix: the cleaner confirms the fix,
// committing status=fix at the fixed score regardless of any provisional
// display value. The note may be empty.
func (h *Handler) Fix(w http.ResponseWriter, r *http.Request) {
	t, ok := h.task(w, r)
	if !ok {
		return
	}

	var req fixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad request body: "+err.Error())
		return
	}
	if !h.gens.Valid(t.ID, req.Generation) {
		writeErr(w, http.StatusConflict, "check dialog is no longer open")
		return
	}

	s, err := h.store.CommitFix(h.roomID, t.ID, h.policies.FixCommitScore(), req.Note)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.gens.Close(t.ID)
	h.record(telemetry.EventTaskFlagged, telemetry.EventMetadata{"task_id": t.ID})

	rec := s.Tasks[t.ID]
	writeJSON(w, http.StatusOK, photoResponse{Committed: true, Record: &rec})
}

// Close handles POST /api/tasks/{id}/check/close: the dialog is dismissed
// without confirmation and nothing is committed.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	t, ok := h.task(w, r)
	if !ok {
		return
	}
	h.gens.Close(t.ID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
