// Package web serves the interactive director finder and the spreadsheet
// upload page.
package web

import (
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tpgainz/nzbn-directors/batch"
	"github.com/tpgainz/nzbn-directors/nzbn"
	"github.com/tpgainz/nzbn-directors/workbook"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	// MinQueryLength is how many characters the typeahead waits for.
	MinQueryLength = 2

	maxUploadSize = 32 << 20
)

type LookupService interface {
	Lookup(ctx context.Context, companyName string) *nzbn.LookupResult
	Suggest(ctx context.Context, q string) ([]nzbn.Suggestion, error)
}

type BatchProcessor interface {
	Process(ctx context.Context, table *workbook.Table, profile *batch.Profile, progress batch.ProgressFunc) (*batch.Report, error)
}

var (
	_ LookupService  = (*nzbn.Service)(nil)
	_ BatchProcessor = (*batch.Processor)(nil)
)

type Server struct {
	service   LookupService
	processor BatchProcessor
	logger    *zap.Logger
	tmpl      *template.Template
}

func New(service LookupService, processor BatchProcessor, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Server{
		service:   service,
		processor: processor,
		logger:    logger,
		tmpl:      tmpl,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /{$}", s.handleLookup)
	mux.HandleFunc("GET /autocomplete", s.handleAutocomplete)
	mux.HandleFunc("GET /batch", s.handleBatchForm)
	mux.HandleFunc("POST /batch", s.handleBatchUpload)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withLogging(mux)
}

type indexPage struct {
	Title          string
	Query          string
	Error          string
	Result         *nzbn.LookupResult
	MinQueryLength int
}

func newIndexPage() indexPage {
	return indexPage{
		Title:          "NZ Company Director Finder",
		MinQueryLength: MinQueryLength,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "index.html", newIndexPage())
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	page := newIndexPage()

	if err := r.ParseForm(); err != nil {
		page.Error = "Request failed: " + err.Error()
		s.render(w, http.StatusBadRequest, "index.html", page)

		return
	}

	result := s.service.Lookup(r.Context(), r.PostFormValue("company_name"))

	page.Query = result.Query

	if result.Error != "" {
		page.Error = result.Error
	} else {
		page.Result = result
	}

	s.render(w, http.StatusOK, "index.html", page)
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.service.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.logger.Warn("autocomplete failed", zap.String("q", r.URL.Query().Get("q")), zap.Error(err))

		suggestions = []nzbn.Suggestion{}
	}

	if suggestions == nil {
		suggestions = []nzbn.Suggestion{}
	}

	writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type batchPage struct {
	Title    string
	Profiles []*batch.Profile
	Selected string
	Error    string
	Report   *batch.Report
	Progress []string
	Download template.URL
}

func newBatchPage() batchPage {
	page := batchPage{
		Title:    "Batch NZ Company Directors Lookup",
		Selected: batch.ProfileTitle,
	}

	for _, name := range batch.ProfileNames() {
		p, _ := batch.LookupProfile(name)
		page.Profiles = append(page.Profiles, p)
	}

	return page
}

func (s *Server) handleBatchForm(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "batch.html", newBatchPage())
}

func (s *Server) handleBatchUpload(w http.ResponseWriter, r *http.Request) {
	page := newBatchPage()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		page.Error = "Could not read the upload: " + err.Error()
		s.render(w, http.StatusBadRequest, "batch.html", page)

		return
	}

	profile, err := batch.LookupProfile(r.FormValue("profile"))
	if err != nil {
		page.Error = err.Error()
		s.render(w, http.StatusBadRequest, "batch.html", page)

		return
	}

	page.Selected = profile.Name

	file, header, err := r.FormFile("file")
	if err != nil {
		page.Error = "Please choose a spreadsheet to upload."
		s.render(w, http.StatusBadRequest, "batch.html", page)

		return
	}
	defer file.Close()

	table, err := workbook.Read(file, header.Filename)
	if err != nil {
		page.Error = "Could not read the spreadsheet: " + err.Error()
		s.render(w, http.StatusBadRequest, "batch.html", page)

		return
	}

	report, err := s.processor.Process(r.Context(), table, profile, func(_ int, _ batch.ResultRow, message string) {
		page.Progress = append(page.Progress, message)
	})

	switch {
	case errors.Is(err, batch.ErrMissingColumn):
		page.Error = "No '" + profile.Column + "' column found in the uploaded file."
		s.render(w, http.StatusOK, "batch.html", page)

		return
	case err != nil:
		s.logger.Error("batch upload failed", zap.String("file", header.Filename), zap.Error(err))
		page.Error = "Request failed: " + err.Error()
		s.render(w, http.StatusInternalServerError, "batch.html", page)

		return
	}

	data, err := report.CSV()
	if err != nil {
		page.Error = "Could not build the export: " + err.Error()
		s.render(w, http.StatusInternalServerError, "batch.html", page)

		return
	}

	page.Report = report
	page.Download = template.URL("data:text/csv;base64," + base64.StdEncoding.EncodeToString(data))

	s.render(w, http.StatusOK, "batch.html", page)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf strings.Builder

	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("rendering template", zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
