package api

import (
	"net/http"

	"github.com/dgallion1/citegest/internal/llm"
)

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	p := s.deps.Generator.Provider()
	writeJSON(w, http.StatusOK, map[string]any{
		"provider":  p.ProviderName(),
		"model":     p.ModelName(),
		"available": p.IsAvailable(r.Context()),
		"supported": llm.Providers(),
		"modes":     s.deps.Generator.Modes(),
	})
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	p := s.deps.Generator.Provider()
	writeJSON(w, http.StatusOK, map[string]any{
		"provider": p.ProviderName(),
		"model":    p.ModelName(),
		"stats":    s.deps.Stats.Snapshot(),
	})
}
