package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dgallion1/citegest/internal/drafts"
	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/modes"
	"github.com/dgallion1/citegest/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleGenerate runs a generation request. With ?async=true the job is
// queued and polled through /api/jobs; otherwise the result is returned
// inline. Content that failed validation is returned with status
// needs_review rather than as an error.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	var req modes.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.NewInvalidInput("api.generate", "invalid request body: "+err.Error()))
		return
	}

	job := pipeline.NewGenerateJob(req)
	if r.URL.Query().Get("async") == "true" {
		if err := s.deps.Orchestrator.Submit(job); err != nil {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{
			"job_id":   job.ID,
			"status":   pipeline.StatusQueued,
			"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
		})
		return
	}

	s.deps.Orchestrator.Run(r.Context(), job)
	out, err := job.Result()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.deps.Drafts.List(r.Context(), drafts.Filter{
		Status: modes.Status(q.Get("status")),
		Mode:   q.Get("mode"),
		Limit:  queryLimit(r, drafts.DefaultListLimit),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []*modes.GeneratedContent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"drafts": items})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Drafts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type reviseRequest struct {
	Content string `json:"content"`
}

// handleReviseDraft replaces a draft's text with an edit, re-validates it
// against the active document and saves it. Thread content uses the
// storage format, posts separated by "\n---POST---\n".
func (s *Server) handleReviseDraft(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	var req reviseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.NewInvalidInput("api.reviseDraft", "invalid request body: "+err.Error()))
		return
	}
	c, err := s.deps.Drafts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	snap := s.deps.Documents.Current()
	if snap == nil {
		writeError(w, errs.NewNotFound("document", "active"))
		return
	}
	if err := s.deps.Generator.Revise(snap.Retriever, c, req.Content); err != nil {
		writeError(w, err)
		return
	}
	if err := s.deps.Drafts.Save(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Drafts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
