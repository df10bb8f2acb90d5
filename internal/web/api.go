package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/metalagman/taskflow/internal/task"
	"github.com/rs/zerolog/log"
)

var errBadRequest = errors.New("bad request")

// advisorError marks failures of the AI advisor so they map to 502.
type advisorError struct{ err error }

func (e *advisorError) Error() string { return e.err.Error() }
func (e *advisorError) Unwrap() error { return e.err }

const maxBodyBytes = 1 << 20

// draftRequest is the JSON body for create and enhance.
type draftRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      task.Status   `json:"status,omitempty"`
	Priority    task.Priority `json:"priority,omitempty"`
	DueDate     string        `json:"due_date,omitempty"`
	Tags        []string      `json:"tags"`
}

func (d draftRequest) draft() (task.Draft, error) {
	due, err := task.ParseDue(d.DueDate)
	if err != nil {
		return task.Draft{}, err
	}
	return task.Draft{
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		Priority:    d.Priority,
		DueDate:     due,
		Tags:        d.Tags,
	}, nil
}

// patchRequest is the JSON body for partial updates. Absent fields are left unchanged;
// an empty due_date clears it.
type patchRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Status      *task.Status   `json:"status"`
	Priority    *task.Priority `json:"priority"`
	DueDate     *string        `json:"due_date"`
	Tags        *[]string      `json:"tags"`
}

func (p patchRequest) patch() (task.Patch, error) {
	out := task.Patch{
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		Priority:    p.Priority,
	}
	if p.DueDate != nil {
		due, err := task.ParseDue(*p.DueDate)
		if err != nil {
			return task.Patch{}, err
		}
		out.DueDate = due
		out.ClearDueDate = due == nil
	}
	if p.Tags != nil {
		out.Tags = *p.Tags
		out.SetTags = true
	}
	if out.Empty() {
		return task.Patch{}, fmt.Errorf("%w: no fields to update", errBadRequest)
	}
	return out, nil
}

type statusRequest struct {
	Status task.Status `json:"status"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := s.board.View(s.filterFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := req.draft()
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := s.board.Create(r.Context(), d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := req.patch()
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.board.Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.board.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.board.ChangeStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.board.Stats())
}

func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"insight":    s.board.Insight(r.Context()),
		"ai_enabled": s.board.AdvisorEnabled(),
	})
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := req.draft()
	if err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(d.Title) == "" {
		writeError(w, fmt.Errorf("%w: title is required", task.ErrInvalid))
		return
	}
	enhanced, err := s.board.Enhance(r.Context(), d)
	if err != nil {
		writeError(w, &advisorError{err: err})
		return
	}
	writeJSON(w, http.StatusOK, enhanced)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, task.ErrInvalid) {
			return err
		}
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
