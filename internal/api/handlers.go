package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/research-index/internal/export"
	"github.com/pdiddy/research-index/internal/generator"
	"github.com/pdiddy/research-index/internal/lifecycle"
	"github.com/pdiddy/research-index/internal/quality"
	"github.com/pdiddy/research-index/pkg/types"
)

const maxRequestBytes = 1 << 20

// indexView is the JSON shape of the lifecycle state.
type indexView struct {
	State    lifecycle.State      `json:"state"`
	Document *types.IndexDocument `json:"document,omitempty"`
	Scores   *scoresView          `json:"scores,omitempty"`
	Draft    *string              `json:"draft,omitempty"`
	Warning  string               `json:"warning,omitempty"`
}

type scoresView struct {
	types.QualityScores
	Grades map[string]quality.Grade `json:"grades"`
}

type textRequest struct {
	Text string `json:"text"`
}

func newScoresView(s types.QualityScores) *scoresView {
	return &scoresView{
		QualityScores: s,
		Grades: map[string]quality.Grade{
			"language_purity":        quality.GradeOf(s.LanguagePurity),
			"structural_conformance": quality.GradeOf(s.StructuralConformance),
			"academic_completeness":  quality.GradeOf(s.AcademicCompleteness),
		},
	}
}

func (s *Server) view() indexView {
	snap := s.controller.Snapshot()
	v := indexView{State: snap.State, Document: snap.Document}
	if snap.Document != nil {
		v.Scores = newScoresView(snap.Document.Scores)
	}
	if snap.State == lifecycle.Editing {
		draft := snap.Draft
		v.Draft = &draft
	}
	return v
}

func (s *Server) handleGetIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Load(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	params := types.DefaultGenerationParams()
	if err := decodeBody(w, r, &params); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.finishTransition(w, s.controller.Create(r.Context(), params))
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.BeginEdit(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleSetDraft(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.controller.SetDraft(req.Text); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.finishTransition(w, s.controller.Save(r.Context()))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Cancel(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	s.finishTransition(w, s.controller.Regenerate(r.Context()))
}

// handleDiscard unloads the active document. With ?purge=true the stored
// records are deleted too.
func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	discard := s.controller.Discard
	if r.URL.Query().Get("purge") == "true" {
		discard = func() error { return s.controller.Purge(r.Context()) }
	}
	if err := discard(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := export.Format(r.URL.Query().Get("format"))
	a, err := s.controller.Export(format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", a.MIMEType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(a.Filename))
	w.Write(a.Content)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, newScoresView(quality.Evaluate(req.Text)))
}

// finishTransition answers a committing transition. A persistence failure
// still reports the committed state, with a warning.
func (s *Server) finishTransition(w http.ResponseWriter, err error) {
	var pe *lifecycle.PersistError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.view())
	case errors.As(err, &pe):
		v := s.view()
		v.Warning = pe.Error()
		writeJSON(w, http.StatusOK, v)
	default:
		s.writeError(w, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err, "status", code)
	}
	jsonError(w, err.Error(), code)
}

// statusFor maps controller and generator errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrEmptyTitle),
		errors.Is(err, lifecycle.ErrEmptyDraft),
		errors.Is(err, types.ErrInvalidParams),
		errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrNoDocument):
		return http.StatusNotFound
	case errors.Is(err, lifecycle.ErrBusy),
		errors.Is(err, lifecycle.ErrEditing),
		errors.Is(err, lifecycle.ErrNotEditing),
		errors.Is(err, lifecycle.ErrUnpersisted):
		return http.StatusConflict
	case errors.Is(err, generator.ErrTransport),
		errors.Is(err, generator.ErrUpstreamUnavailable),
		errors.Is(err, generator.ErrMalformedPayload):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
