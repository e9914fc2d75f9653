// Package chi implements the HTTP API on top of the chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/talentwire/matchd/internal/domain"
	"github.com/talentwire/matchd/internal/domain/match"
	"github.com/talentwire/matchd/internal/domain/weights"
	logpkg "github.com/talentwire/matchd/internal/logger"
	healthuc "github.com/talentwire/matchd/internal/usecase/health"
	recommenduc "github.com/talentwire/matchd/internal/usecase/recommend"
	refreshuc "github.com/talentwire/matchd/internal/usecase/refresh"
	scoreuc "github.com/talentwire/matchd/internal/usecase/score"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the recommendation API. Handlers log
// through the request-scoped logger installed by the canonical-line
// middleware.
type Server struct {
	recommend       *recommenduc.Service
	score           *scoreuc.Service
	refresh         *refreshuc.Service
	health          *healthuc.Service
	weightTolerance float64
	errorHandlers   []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	recommend *recommenduc.Service,
	score *scoreuc.Service,
	refresh *refreshuc.Service,
	health *healthuc.Service,
	weightTolerance float64,
) *Server {
	s := &Server{
		recommend:       recommend,
		score:           score,
		refresh:         refresh,
		health:          health,
		weightTolerance: weightTolerance,
	}
	s.errorHandlers = []errorHandler{
		invalidWeightsHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrMissingEmbedding, http.StatusUnprocessableEntity, codeMissingEmbedding),
		sentinelHandler(domain.ErrUnknownFactor, http.StatusBadRequest, codeInvalidWeights),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, codeDimensionMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderErr),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeRecommendationFailure),
	}
	return s
}

// Routes mounts all API handlers on a router.
func (s *Server) Routes(r chirouter.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chirouter.Router) {
		r.Post("/collections/{collection}/recommendations", s.Recommendations)
		r.Post("/collections/{collection}/entities/{id}/refresh-embedding", s.RefreshEmbedding)
		r.Get("/collections/{collection}/embedding-stats", s.EmbeddingStats)
		r.Post("/score", s.ScorePair)
	})
}

// Recommendations handles POST /collections/{collection}/recommendations.
func (s *Server) Recommendations(w http.ResponseWriter, r *http.Request) {
	collection := chirouter.URLParam(r, "collection")

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := match.NewQuery(
		req.EntityID, collection, req.K, req.MinScore,
		weightsFromRequest(req.Weights), s.weightTolerance,
	)
	if err != nil {
		s.handleDomainErrorWithFallback(w, r, err, http.StatusBadRequest, codeValidationFailed)
		return
	}

	results, source, err := s.recommend.Recommend(r.Context(), &q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]recommendationItem, len(results))
	for i, res := range results {
		items[i] = recommendationItem{
			ID:    res.ID(),
			Title: res.Title(),
			Score: res.Score(),
		}
	}

	writeJSON(w, http.StatusOK, recommendResponse{
		Items:  items,
		Source: string(source),
		Total:  len(items),
	})
}

// ScorePair handles POST /score.
func (s *Server) ScorePair(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Collection == "" || req.EntityID == "" || req.TargetID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"collection, entity_id and target_id are required")
		return
	}
	if len(req.Weights) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "weights are required")
		return
	}

	score, err := s.score.ScorePair(
		r.Context(), req.Collection, req.EntityID, req.TargetID,
		weightsFromRequest(req.Weights),
	)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, scoreResponse{
		EntityID: req.EntityID,
		TargetID: req.TargetID,
		Score:    score,
	})
}

// RefreshEmbedding handles POST /collections/{collection}/entities/{id}/refresh-embedding.
func (s *Server) RefreshEmbedding(w http.ResponseWriter, r *http.Request) {
	collection := chirouter.URLParam(r, "collection")
	id := chirouter.URLParam(r, "id")

	outcome, err := s.refresh.Refresh(r.Context(), collection, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		ID:         id,
		Dimensions: outcome.Dimensions,
		Tokens:     outcome.TotalTokens,
	})
}

// EmbeddingStats handles GET /collections/{collection}/embedding-stats.
func (s *Server) EmbeddingStats(w http.ResponseWriter, r *http.Request) {
	collection := chirouter.URLParam(r, "collection")

	cov, err := s.health.EmbeddingCoverage(r.Context(), collection)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, embeddingStatsResponse{
		Collection:       cov.Collection,
		WithEmbedding:    cov.WithEmbedding,
		WithoutEmbedding: cov.WithoutEmbedding,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func weightsFromRequest(raw map[string]float64) weights.Set {
	if len(raw) == 0 {
		return nil
	}
	set := make(weights.Set, len(raw))
	for k, v := range raw {
		set[weights.Factor(k)] = v
	}
	return set
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrMissingEmbedding,
		domain.ErrInvalidWeights,
		domain.ErrUnknownFactor,
		domain.ErrDimensionMismatch,
		domain.ErrEmbeddingProviderError,
		domain.ErrIndexUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// invalidWeightsHandler handles ErrInvalidWeights, surfacing the offending sum.
func invalidWeightsHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInvalidWeights) {
		return false
	}
	var iwe *domain.InvalidWeightsError
	if errors.As(err, &iwe) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:      codeInvalidWeights,
			Message:   fmt.Sprintf("%s: %s", msg, iwe.Reason),
			WeightSum: &iwe.Sum,
		})
		return true
	}
	writeError(w, http.StatusBadRequest, codeInvalidWeights, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// handleDomainErrorWithFallback is handleDomainError with a non-500 default
// for errors raised during request validation.
func (s *Server) handleDomainErrorWithFallback(
	w http.ResponseWriter, r *http.Request, err error, status int, code errorCode,
) {
	logpkg.FromContext(r.Context()).Warn("request validation error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	writeError(w, status, code, err.Error())
}
