// Package web serves the taskflow board over HTTP: an HTML index and a JSON API.
package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/metalagman/taskflow/internal/board"
	"github.com/metalagman/taskflow/internal/task"
	"github.com/metalagman/taskflow/internal/view"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Server provides the web UI and API handlers.
type Server struct {
	board  *board.Board
	filter view.Filter
	tmpl   *template.Template
}

// NewServer creates a server over b. filter supplies the sort used when a request names none.
func NewServer(b *board.Board, filter view.Filter) (*Server, error) {
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"due":   task.FormatDue,
		"label": statusLabel,
	}).ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Server{board: b, filter: filter.WithDefaults(), tmpl: tmpl}, nil
}

// Routes returns the router for the web UI and API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/tasks", s.handleList)
	mux.HandleFunc("POST /api/tasks", s.handleCreate)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/tasks/{id}/status", s.handleStatus)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/insight", s.handleInsight)
	mux.HandleFunc("POST /api/enhance", s.handleEnhance)
	return logRequests(mux)
}

type indexData struct {
	Filter    view.Filter
	Tasks     []task.Task
	Stats     view.Stats
	AIEnabled bool
	Statuses  []task.Status
	Priority  []task.Priority
	// FlipDir links to the same view with the sort direction reversed.
	FlipDir template.URL
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	f := s.filterFrom(r)
	items, err := s.board.View(f)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	// The insight banner is filled in by the page from /api/insight so a slow model
	// never holds back the list.
	data := indexData{
		Filter:    f,
		Tasks:     items,
		Stats:     s.board.Stats(),
		AIEnabled: s.board.AdvisorEnabled(),
		Statuses:  task.Statuses,
		Priority:  task.Priorities,
		FlipDir:   flipDirURL(f),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("render index")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// filterFrom reads status, priority, search, sort and dir query parameters over the server default.
func (s *Server) filterFrom(r *http.Request) view.Filter {
	q := r.URL.Query()
	f := s.filter
	if v := q.Get("status"); v != "" {
		f.Status = v
	}
	if v := q.Get("priority"); v != "" {
		f.Priority = v
	}
	f.Search = q.Get("search")
	if v := q.Get("sort"); v != "" {
		f.SortBy = view.SortKey(v)
	}
	if v := q.Get("dir"); v != "" {
		f.SortDir = view.Direction(v)
	}
	return f
}

func flipDirURL(f view.Filter) template.URL {
	q := url.Values{}
	q.Set("status", f.Status)
	q.Set("priority", f.Priority)
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	q.Set("sort", string(f.SortBy))
	q.Set("dir", string(f.SortDir.Toggle()))
	return template.URL("/?" + q.Encode())
}

func statusLabel(s task.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func statusFor(err error) int {
	var advErr *advisorError
	switch {
	case errors.Is(err, task.ErrInvalid), errors.Is(err, view.ErrInvalidFilter), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, task.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &advErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Int("status", rec.status).Msg("http request")
	})
}
