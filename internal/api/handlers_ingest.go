package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/loader"
	"github.com/dgallion1/citegest/internal/parser"
	"github.com/dgallion1/citegest/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleIngest accepts a document upload and queues it for parsing. The
// parsed document replaces the active one once the job completes.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	strategyID := r.FormValue("strategy")
	if strategyID == "" {
		strategyID = s.cfg.DocumentStrategy
	}
	if _, err := s.deps.Loader.Strategy(strategyID); err != nil {
		writeError(w, err)
		return
	}

	// Read file data.
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	meta := loader.Metadata{
		Name:         r.FormValue("name"),
		ShortName:    r.FormValue("short_name"),
		Description:  r.FormValue("description"),
		SectionLabel: r.FormValue("section_label"),
	}
	if kw := r.FormValue("keywords"); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				meta.Keywords = append(meta.Keywords, k)
			}
		}
	}

	job := pipeline.NewIngestJob(filename, strategyID, meta, data)
	if err := s.deps.Orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

// handleJobStatus returns a job's state. With ?wait=<duration> it holds the
// request until the job finishes or the wait (capped at maxJobWait) ends.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.deps.Orchestrator.GetJob(jobID)
	if job == nil {
		writeError(w, errs.NewNotFound("job", jobID))
		return
	}
	if raw := r.URL.Query().Get("wait"); raw != "" {
		wait, err := time.ParseDuration(raw)
		if err != nil || wait < 0 {
			writeError(w, errs.NewInvalidInput("api.jobStatus", fmt.Sprintf("invalid wait %q", raw)))
			return
		}
		timer := time.NewTimer(min(wait, maxJobWait))
		select {
		case <-job.Done():
		case <-timer.C:
		case <-r.Context().Done():
		}
		timer.Stop()
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// maxJobWait caps the ?wait= long poll on job status.
const maxJobWait = time.Minute

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"strategies": s.deps.Loader.StrategyIDs()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError renders err with the status its kind maps to.
func writeError(w http.ResponseWriter, err error) {
	body := map[string]any{"error": err.Error()}
	var e *errs.Error
	if errors.As(err, &e) {
		body["kind"] = e.Kind
		if len(e.Details) > 0 {
			body["details"] = e.Details
		}
		if e.Retryable {
			body["retryable"] = true
		}
	}
	writeJSON(w, errs.StatusOf(err), body)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
