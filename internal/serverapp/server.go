// Package serverapp assembles the cleaning server: storage, classifier
// client, all HTTP handlers, static assets, and the middleware chain.
package serverapp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/cors"

	"cleannav/internal/check"
	"cleannav/internal/checklist"
	"cleannav/internal/classify"
	"cleannav/internal/config"
	"cleannav/internal/httpmw"
	"cleannav/internal/report"
	"cleannav/internal/session"
	"cleannav/internal/telemetry"
	"cleannav/internal/view"
	staticfiles "cleannav/static"
)

type Options struct {
	Config        *config.Config
	UseDiskStatic bool
	Logger        *log.Logger
}

// App is the wired server. Handler serves; Sessions and Classifier are
// exposed so main can run the elapsed-time ticker and the async model load.
type App struct {
	Handler    http.Handler
	Sessions   *session.FileStore
	Classifier *classify.Client
	Registry   *checklist.Registry
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := opts.Config
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	reg, err := checklist.NewRegistry(registryTasks(cfg.Tasks))
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewFileStore(cfg.Server.DataDir, reg)
	if err != nil {
		return nil, err
	}
	artifacts, err := report.NewStore(cfg.Server.ReportsDir)
	if err != nil {
		return nil, err
	}

	classifier := classify.NewClient(cfg.Classifier.ModelURL, cfg.Classifier.MetadataURL,
		time.Duration(cfg.Classifier.TimeoutSeconds)*time.Second)
	policies := classify.NewPolicyTable(cfg.Scoring)
	events := telemetry.NewMemoryRepository()
	forwarder := report.NewForwarder(cfg.Report.AuditorEndpoint,
		time.Duration(cfg.Report.ForwardTimeout)*time.Second)

	mux := http.NewServeMux()

	staticHandler := http.FileServer(http.FS(staticfiles.EmbeddedFS()))
	if opts.UseDiskStatic {
		staticHandler = http.FileServer(http.Dir(cfg.Server.StaticDir))
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticHandler))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		serveIndex(w, r, opts)
	})

	sessionHandler := session.NewHandler(sessions, reg, cfg.Room.ID)
	sessionHandler.SetEvents(events)
	mux.HandleFunc("GET /api/session", sessionHandler.State)
	mux.HandleFunc("POST /api/session/reset", sessionHandler.Reset)

	checkHandler := check.NewHandler(sessions, reg, classifier, policies, events, cfg.Room.ID,
		time.Duration(cfg.Classifier.TimeoutSeconds)*time.Second)
	mux.HandleFunc("POST /api/tasks/{id}/check/open", checkHandler.Open)
	mux.HandleFunc("POST /api/tasks/{id}/check/photo", checkHandler.Photo)
	mux.HandleFunc("POST /api/tasks/{id}/check/fix", checkHandler.Fix)
	mux.HandleFunc("POST /api/tasks/{id}/check/close", checkHandler.Close)

	viewHandler := view.NewHandler(sessions, reg, cfg.Room.ID, cfg.Scoring.AlertBelow)
	mux.HandleFunc("GET /api/view", viewHandler.State)

	reportHandler := report.NewHandler(sessions, reg, artifacts, forwarder, events,
		cfg.Room.ID, cfg.Room.CleanerID)
	mux.HandleFunc("POST /api/report", reportHandler.Submit)
	mux.HandleFunc("GET /reports/{filename}", reportHandler.Download)

	statsHandler := telemetry.NewHandler(events)
	mux.HandleFunc("GET /api/stats", statsHandler.Stats)

	mux.HandleFunc("GET /api/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "cleannav",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "session storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":               true,
			"service":          "cleannav",
			"classifier_ready": classifier.Ready(),
			"time":             time.Now().UTC().Format(time.RFC3339),
		})
	})

	corsMW := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
	})

	handler := httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
		corsMW.Handler,
	)

	return &App{
		Handler:    handler,
		Sessions:   sessions,
		Classifier: classifier,
		Registry:   reg,
	}, nil
}

func registryTasks(defs []config.TaskDef) []checklist.Task {
	tasks := make([]checklist.Task, 0, len(defs))
	for _, d := range defs {
		tasks = append(tasks, checklist.Task{
			ID:     d.ID,
			Label:  d.Label,
			Order:  d.Order,
			Weight: d.Weight,
			Pin:    checklist.Pin{Left: d.Pin.Left, Top: d.Pin.Top},
			Advice: d.Advice,
		})
	}
	return tasks
}

func serveIndex(w http.ResponseWriter, r *http.Request, opts Options) {
	if opts.UseDiskStatic {
		http.ServeFile(w, r, opts.Config.Server.StaticDir+"/index.html")
		return
	}
	data, err := staticfiles.IndexHTML()
	if err != nil {
		http.Error(w, "index unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

// UseDiskStaticByEnv lets development serve assets from disk instead of the
// embedded copies.
func UseDiskStaticByEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("CLEANNAV_DEV_STATIC"))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
