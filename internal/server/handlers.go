package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/palilex/internal/embedding"
	"github.com/hyperjump/palilex/internal/models"
	"github.com/hyperjump/palilex/internal/search"
	"go.uber.org/zap"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cfg := s.engine.Config()
	q := r.URL.Query().Get("q")
	limit, err := intParam(r, cfg.DefaultLimit, "limit", "top_k")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cutoff, err := floatParam(r, "score_cutoff", cfg.DefaultScoreCutoff)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("lexical search request", zap.String("query", q), zap.Int("limit", limit))
	results, err := s.engine.LexicalSearch(q, limit, cutoff)
	if err != nil {
		s.respondEngineError(w, "lexical search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, searchResponse(q, models.SourceLexical, results, start))
}

func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query().Get("q")
	k, err := intParam(r, s.engine.Config().DefaultK, "limit", "k", "top_k")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("semantic search request", zap.String("query", q), zap.Int("k", k))
	results, err := s.engine.SemanticSearch(r.Context(), q, k)
	if err != nil {
		s.respondEngineError(w, "semantic search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, searchResponse(q, models.SourceSemantic, results, start))
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query().Get("q")
	limit, err := intParam(r, s.engine.Config().DefaultLimit, "limit")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	results, err := s.engine.LookupRoman(r.Context(), q, limit)
	if err != nil {
		s.respondEngineError(w, "lookup", err)
		return
	}
	s.respondJSON(w, http.StatusOK, searchResponse(q, models.SourceHeadword, results, start))
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	terms, err := s.engine.Enrich(r.Context(), q)
	if err != nil {
		s.respondEngineError(w, "enrich", err)
		return
	}
	s.respondJSON(w, http.StatusOK, &models.EnrichResponse{Term: q, Terms: terms})
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req models.PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.prompts.Build(r.Context(), &req)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBuildIndex(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("index build requested")
	resp, err := s.engine.BuildIndex(r.Context())
	if err != nil {
		s.respondEngineError(w, "index build", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil {
		s.respondError(w, http.StatusNotImplemented, "reload not enabled")
		return
	}
	if err := s.reloader.Reload(r.Context()); err != nil {
		s.respondEngineError(w, "reload", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":  "reloaded",
		"entries": s.engine.Table().Len(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func searchResponse(q, source string, results []*models.SearchResult, start time.Time) *models.SearchResponse {
	return &models.SearchResponse{
		Query:     q,
		Source:    source,
		Results:   results,
		QueryTime: time.Since(start).Milliseconds(),
	}
}

// intParam returns the first present query parameter among names, or def.
func intParam(r *http.Request, def int, names ...string) (int, error) {
	q := r.URL.Query()
	for _, name := range names {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return n, nil
	}
	return def, nil
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return f, nil
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, search.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, embedding.ErrProviderInit):
		return http.StatusServiceUnavailable
	case errors.Is(err, embedding.ErrProviderCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondEngineError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
