package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/TobiSchelling/KPIMap/internal/database"
	"github.com/TobiSchelling/KPIMap/internal/document"
	"github.com/TobiSchelling/KPIMap/internal/summary"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Options configure a Server.
type Options struct {
	// DocPath is the canonical KPI map document.
	DocPath string
	// Version is reported by the health endpoint.
	Version string
	Logger  *zap.Logger
}

// Server is the local preview server for the KPI map.
type Server struct {
	db     *database.DB
	opts   Options
	logger *zap.Logger
	pages  map[string]*template.Template
	mux    *http.ServeMux

	registry *prometheus.Registry
	kpis     *prometheus.GaugeVec
	runs     prometheus.Gauge
}

// New creates a new Server. db may be nil, in which case the runs page is
// empty.
func New(db *database.DB, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	funcMap := template.FuncMap{
		"markdown":   renderMarkdown,
		"formatTime": database.FormatRunTime,
		"shortID":    database.ShortID,
		"verified": func(v *bool) string {
			switch {
			case v == nil:
				return "-"
			case *v:
				return "yes"
			default:
				return "no"
			}
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "runs.html", "run.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{
		db:       db,
		opts:     opts,
		logger:   logger,
		pages:    pages,
		mux:      http.NewServeMux(),
		registry: prometheus.NewRegistry(),
		kpis: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kpimap_kpis",
			Help: "Number of KPIs in the current document by pillar and RAG status.",
		}, []string{"pillar", "rag"}),
		runs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kpimap_ledger_runs",
			Help: "Number of runs recorded in the ledger.",
		}),
	}
	s.registry.MustRegister(s.kpis, s.runs)
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/runs", s.handleRuns)
	s.mux.HandleFunc("/runs/{id}", s.handleRun)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/kpi_map", s.handleKPIMap)
	s.mux.Handle("/metrics", s.metricsHandler())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	doc, err := document.Load(s.opts.DocPath)
	if err != nil {
		s.logger.Warn("loading document", zap.String("path", s.opts.DocPath), zap.Error(err))
		msg := "The KPI map could not be read."
		if errors.Is(err, document.ErrNotFound) {
			msg = "No KPI map has been generated yet."
		}
		s.render(w, "index.html", map[string]any{"Error": msg})
		return
	}

	s.render(w, "index.html", map[string]any{
		"Markdown": summary.Markdown(summary.Summarize(doc)),
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	var runs []database.Run
	if s.db != nil {
		var err error
		runs, err = s.db.GetRuns(50)
		if err != nil {
			s.logger.Error("listing runs", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}
	s.render(w, "runs.html", map[string]any{"Runs": runs})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.NotFound(w, r)
		return
	}

	run, err := s.db.GetRun(r.PathValue("id"))
	if err != nil {
		s.logger.Error("getting run", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.NotFound(w, r)
		return
	}

	pillars, err := s.db.GetRAGCounts(run.ID)
	if err != nil {
		s.logger.Error("counting statuses", zap.String("run", run.ID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	statuses, err := s.db.GetKPIStatuses(run.ID)
	if err != nil {
		s.logger.Error("listing statuses", zap.String("run", run.ID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "run.html", map[string]any{
		"Run":      run,
		"Pillars":  pillars,
		"Statuses": statuses,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.opts.Version,
		"service": "kpimap",
	})
}

// handleKPIMap serves the document bytes as written, without re-encoding.
func (s *Server) handleKPIMap(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.opts.DocPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "kpi map not generated"})
			return
		}
		s.logger.Error("reading document", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// metricsHandler refreshes the gauges from the document and ledger on every
// scrape.
func (s *Server) metricsHandler() http.Handler {
	inner := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.refreshMetrics()
		inner.ServeHTTP(w, r)
	})
}

func (s *Server) refreshMetrics() {
	s.kpis.Reset()
	if doc, err := document.Load(s.opts.DocPath); err == nil {
		for _, p := range summary.Summarize(doc).Pillars {
			s.kpis.WithLabelValues(p.Name, "green").Set(float64(p.Green))
			s.kpis.WithLabelValues(p.Name, "amber").Set(float64(p.Amber))
			s.kpis.WithLabelValues(p.Name, "red").Set(float64(p.Red))
		}
	}
	if s.db != nil {
		if stats, err := s.db.GetStats(); err == nil {
			s.runs.Set(float64(stats.TotalRuns))
		}
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.logger.Error("template not found", zap.String("template", name))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		s.logger.Error("rendering template", zap.String("template", name), zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port and shuts it down when ctx
// is cancelled.
func Serve(ctx context.Context, db *database.DB, opts Options, port int) error {
	srv, err := New(db, opts)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info("server listening", zap.String("url", "http://"+addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
