package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/citegest/internal/document"
	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/retriever"
	"github.com/go-chi/chi/v5"
)

// current returns the active retriever, or writes a 404 when no document
// has been published.
func (s *Server) current(w http.ResponseWriter) (*retriever.Retriever, bool) {
	snap := s.deps.Documents.Current()
	if snap == nil {
		writeError(w, errs.NewNotFound("document", "active"))
		return nil, false
	}
	return snap.Retriever, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, errs.NewInvalidInput("api", name+" must be an integer, got "+strconv.Quote(raw)))
		return 0, false
	}
	return n, true
}

func queryLimit(r *http.Request, fallback int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		return n
	}
	return fallback
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Documents.Current()
	if snap == nil {
		writeError(w, errs.NewNotFound("document", "active"))
		return
	}
	rt := snap.Retriever
	lo, hi := rt.Document().SectionRange()
	writeJSON(w, http.StatusOK, map[string]any{
		"context":       rt.Context(),
		"chapters":      rt.ChapterSummaries(),
		"first_section": lo,
		"last_section":  hi,
		"strategy":      snap.Strategy,
		"content_hash":  snap.ContentHash,
		"loaded_at":     snap.LoadedAt,
	})
}

func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.current(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(rt.TableOfContents()))
}

func (s *Server) handleChapter(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.current(w)
	if !ok {
		return
	}
	num, ok := intParam(w, r, "num")
	if !ok {
		return
	}
	ch, found := rt.Chapter(num)
	if !found {
		writeError(w, errs.NewNotFound("chapter", num))
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.current(w)
	if !ok {
		return
	}
	num, ok := intParam(w, r, "num")
	if !ok {
		return
	}
	sec, found := rt.Section(num)
	if !found {
		writeError(w, errs.NewNotFound(strings.ToLower(rt.Label()), num))
		return
	}
	ref, _ := rt.Citation(num)
	writeJSON(w, http.StatusOK, map[string]any{
		"section":  sec,
		"citation": ref,
		"display":  ref.Display(),
	})
}

func (s *Server) handleSectionContext(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.current(w)
	if !ok {
		return
	}
	num, ok := intParam(w, r, "num")
	if !ok {
		return
	}
	sc, found := rt.Neighbours(num)
	if !found {
		writeError(w, errs.NewNotFound(strings.ToLower(rt.Label()), num))
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// handleResolve maps a rendered citation such as "Section 9 (Equality)"
// back to its section.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.current(w)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, errs.NewInvalidInput("api.resolve", "q is required"))
		return
	}
	sec, found := rt.Resolve(q)
	if !found {
		writeError(w, errs.NewNotFound("citation", q))
		return
	}
	ref, _ := rt.Citation(sec.Num)
	writeJSON(w, http.StatusOK, ref)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.current(w)
	if !ok {
		return
	}
	secs := rt.Search(r.URL.Query().Get("q"), queryLimit(r, retriever.DefaultSearchLimit))
	writeJSON(w, http.StatusOK, map[string]any{"results": citations(rt, secs)})
}

func (s *Server) handleTopic(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.current(w)
	if !ok {
		return
	}
	secs := rt.SectionsForTopic(r.URL.Query().Get("topic"), queryLimit(r, 5))
	writeJSON(w, http.StatusOK, map[string]any{"results": citations(rt, secs)})
}

func citations(rt *retriever.Retriever, secs []*document.Section) []document.CitationReference {
	out := make([]document.CitationReference, 0, len(secs))
	for _, sec := range secs {
		if ref, ok := rt.Citation(sec.Num); ok {
			out = append(out, ref)
		}
	}
	return out
}

// handleEvents lists catalog events on ?date=MM-DD, or those in the next
// ?days (default 7).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	cat := s.deps.Generator.Events()
	if d := r.URL.Query().Get("date"); d != "" {
		t, err := time.Parse("01-02", d)
		if err != nil {
			writeError(w, errs.NewInvalidInput("api.events", "date must be MM-DD"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": cat.OnDate(t.Month(), t.Day())})
		return
	}
	days := 7
	if n, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && n > 0 {
		days = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": cat.Upcoming(time.Now(), days)})
}
