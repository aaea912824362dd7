package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/firdesk/internal/llm"
	"github.com/dgallion1/firdesk/internal/places"
	"github.com/dgallion1/firdesk/internal/retry"
)

func (s *Server) handlePredictSection(w http.ResponseWriter, r *http.Request) {
	if s.deps.Classifier == nil {
		jsonError(w, "section classifier unavailable", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		FirstInformationContents any `json:"firstInformationContents"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	text, ok := req.FirstInformationContents.(string)
	if !ok || strings.TrimSpace(text) == "" {
		jsonError(w, "Missing or invalid firstInformationContents", http.StatusBadRequest)
		return
	}
	sections, err := s.deps.Classifier.Predict(r.Context(), text)
	if err != nil {
		s.log.Error("section prediction failed", "error", err)
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
}

func (s *Server) handleAskLLM(w http.ResponseWriter, r *http.Request) {
	if s.deps.LLM == nil {
		jsonError(w, "language model unavailable", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Prompt      any      `json:"prompt"`
		MaxTokens   int      `json:"max_tokens"`
		Temperature *float64 `json:"temperature"`
		Model       string   `json:"model"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	prompt, ok := req.Prompt.(string)
	if !ok || prompt == "" {
		jsonError(w, "Missing prompt string in request body", http.StatusBadRequest)
		return
	}
	temperature := llm.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	resp, err := s.deps.LLM.Generate(r.Context(), llm.Request{
		Prompt:      prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
		Model:       req.Model,
	})
	if err != nil {
		s.log.Error("inference failed", "model", s.deps.LLM.Model(), "error", err)
		if errors.Is(err, llm.ErrUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "ollama_unavailable", "detail": err.Error()})
			return
		}
		writeJSON(w, inferenceStatus(err), map[string]string{"error": "inference_failed", "detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "model": resp.Model, "text": resp.Text})
}

// inferenceStatus passes the model server's status through.
func inferenceStatus(err error) int {
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 {
		return statusErr.StatusCode
	}
	var retryErr *retry.RetryableError
	if errors.As(err, &retryErr) && retryErr.StatusCode >= 400 {
		return retryErr.StatusCode
	}
	return http.StatusInternalServerError
}

func (s *Server) handleNearestPolice(w http.ResponseWriter, r *http.Request) {
	if s.deps.Places == nil {
		jsonError(w, "places lookup unavailable", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		jsonError(w, "Missing latitude or longitude", http.StatusBadRequest)
		return
	}
	st, err := s.deps.Places.NearestPoliceStation(r.Context(), *req.Lat, *req.Lng)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, st)
	case errors.Is(err, places.ErrNoStations), errors.Is(err, places.ErrCoordinates):
		writeErr(w, err)
	default:
		s.log.Error("places lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch police station", "apiError": err.Error()})
	}
}
