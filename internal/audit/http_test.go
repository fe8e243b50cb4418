package audit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newMux(t *testing.T) (*http.ServeMux, *Inbox) {
	t.Helper()
	in, err := NewInbox(t.TempDir())
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	in.Now = func() time.Time { return time.Date(2026, 3, 1, 9, 5, 12, 0, time.UTC) }
	h := NewHandler(in)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/receive_report", h.Receive)
	mux.HandleFunc("GET /api/reports", h.List)
	mux.HandleFunc("GET /reports/{filename}", h.View)
	mux.HandleFunc("GET /download/{filename}", h.Download)
	return mux, in
}

func TestReceiveAndView(t *testing.T) {
	mux, _ := newMux(t)

	body := `{"filename":"cleaning_report_abcdef012345.txt","content":"CLEANING_REPORT_V1\nroomId: 101\n"}`
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/receive_report", strings.NewReader(body)))
	if rr.Code != http.StatusOK {
		t.Fatalf("receive code = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		OK      bool   `json:"ok"`
		SavedAs string `json:"saved_as"`
		ViewURL string `json:"view_url"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.SavedAs != "cleaning_report_abcdef012345.txt" {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.ViewURL != "/reports/cleaning_report_abcdef012345.txt" {
		t.Fatalf("view_url = %q", resp.ViewURL)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, resp.ViewURL, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("view code = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "roomId: 101") {
		t.Fatalf("view body = %q", rr.Body.String())
	}
}

func TestReceiveRejectsBadJSON(t *testing.T) {
	mux, _ := newMux(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/receive_report", strings.NewReader("{nope")))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rr.Code)
	}
}

func TestListEndpoint(t *testing.T) {
	mux, in := newMux(t)
	if _, err := in.Save("cleaning_report_abcdef012345.txt", sampleReport); err != nil {
		t.Fatalf("save: %v", err)
	}

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	var resp struct {
		Reports []Entry `json:"reports"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Reports) != 1 || resp.Reports[0].RoomID != "101" {
		t.Fatalf("reports = %+v", resp.Reports)
	}
}

func TestViewMissingReport(t *testing.T) {
	mux, _ := newMux(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/cleaning_report_missing.txt", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", rr.Code)
	}
}

func TestDownloadSetsAttachment(t *testing.T) {
	mux, in := newMux(t)
	if _, err := in.Save("cleaning_report_abcdef012345.txt", sampleReport); err != nil {
		t.Fatalf("save: %v", err)
	}

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/download/cleaning_report_abcdef012345.txt", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
}
