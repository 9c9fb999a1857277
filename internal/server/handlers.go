package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/sozercan/idea-mapper/apimodels"
	"github.com/sozercan/idea-mapper/internal/analyzer"
	"github.com/sozercan/idea-mapper/internal/llm"
)

const (
	rateLimitMessage = "Rate limit exceeded. Please try again in a few minutes."
	malformedMessage = "Failed to parse LLM response as JSON"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req apimodels.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apimodels.ErrorResponse{Detail: fmt.Sprintf("Invalid request: %v", err)})
		return
	}
	defer r.Body.Close()

	slog.Debug("Received analysis request", "text_length", len(req.Text))

	result, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.writeAnalyzeError(w, r, err)
		return
	}

	slog.Debug("Analysis request completed successfully", "id", result.Metadata.ID)
	writeJSON(w, http.StatusOK, result)
}

// writeAnalyzeError maps analysis failures onto responses. Only an exhausted
// rate limit gets a structured payload; everything else is a 500.
func (s *Server) writeAnalyzeError(w http.ResponseWriter, r *http.Request, err error) {
	var exhausted *llm.RateLimitExhaustedError
	var malformed *analyzer.MalformedResponseError
	var upstream *llm.UpstreamError

	switch {
	case errors.As(err, &exhausted):
		retryAfter := int(math.Ceil(exhausted.RetryAfter.Seconds()))
		slog.Warn("Analysis rate limited", "attempts", exhausted.Attempts, "retry_after", retryAfter)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeJSON(w, http.StatusOK, apimodels.RateLimitResponse{
			Status:     "error",
			Error:      rateLimitMessage,
			RetryAfter: retryAfter,
		})
	case errors.As(err, &malformed):
		slog.Error("Failed to parse LLM response", "error", err, "raw", malformed.Raw)
		writeJSON(w, http.StatusInternalServerError, apimodels.ErrorResponse{Detail: malformedMessage})
	case r.Context().Err() != nil:
		slog.Warn("Client went away before analysis finished", "error", err)
	case errors.As(err, &upstream):
		slog.Error("Analysis request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, apimodels.ErrorResponse{Detail: fmt.Sprintf("API Error: %v", upstream.Err)})
	default:
		slog.Error("Analysis request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, apimodels.ErrorResponse{Detail: err.Error()})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
