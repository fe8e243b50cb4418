package main

import (
	"flag"
	"log"
	"net/http"

	"cleannav/internal/audit"
	"cleannav/internal/httpmw"
)

func main() {
	addr := flag.String("addr", ":5001", "listen address")
	inboxDir := flag.String("inbox-dir", "received_reports", "directory for received reports")
	flag.Parse()

	inbox, err := audit.NewInbox(*inboxDir)
	if err != nil {
		log.Fatalf("open inbox: %v", err)
	}
	h := audit.NewHandler(inbox)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/receive_report", h.Receive)
	mux.HandleFunc("GET /api/reports", h.List)
	mux.HandleFunc("GET /reports/{filename}", h.View)
	mux.HandleFunc("GET /download/{filename}", h.Download)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"ok":true,"service":"cleannav-auditor"}`))
	})

	handler := httpmw.Chain(
		mux,
		httpmw.WithAccessLog(log.Default()),
		httpmw.WithRequestID,
		httpmw.WithRecover(log.Default()),
	)

	log.Printf("auditor listening on http://localhost%s", *addr)
	log.Fatal(http.ListenAndServe(*addr, handler))
}
