package api

import (
	"net/http"

	"github.com/dgallion1/firdesk/internal/llm"
)

type statsSource interface {
	Stats() llm.StatsSnapshot
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	src, ok := s.deps.LLM.(statsSource)
	if !ok {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.deps.LLM.Model(),
		"stats": src.Stats(),
	})
}
