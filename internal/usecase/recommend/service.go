// Package recommend implements the per-request recommendation pipeline:
// Load -> TryManaged -> Fallback -> Filter -> Return.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/talentwire/matchd/internal/domain"
	"github.com/talentwire/matchd/internal/domain/match"
	"github.com/talentwire/matchd/internal/metrics"
)

// DefaultNumCandidates is the runtime candidate pool hint passed to the
// managed index when the config does not set one.
const DefaultNumCandidates = 50

// Service orchestrates a single recommendation request. Stateless between
// calls; every stage runs at most once per request and nothing here retries
// network calls.
type Service struct {
	entities      EntityReader
	index         IndexSearcher
	fallback      *Fallback
	scorer        Scorer
	numCandidates int
	logger        *zap.Logger
}

// New creates a recommendation service.
func New(
	entities EntityReader,
	index IndexSearcher,
	fallback *Fallback,
	scorer Scorer,
	logger *zap.Logger,
) *Service {
	return &Service{
		entities:      entities,
		index:         index,
		fallback:      fallback,
		scorer:        scorer,
		numCandidates: DefaultNumCandidates,
		logger:        logger,
	}
}

// WithNumCandidates overrides the managed index candidate pool hint.
func (s *Service) WithNumCandidates(n int) *Service {
	if n > 0 {
		s.numCandidates = n
	}
	return s
}

// Recommend returns up to q.K() entities from q.Collection() ranked by
// similarity to the query entity, highest score first, along with the search
// path that produced them. An empty result set is a valid outcome, distinct
// from any error.
func (s *Service) Recommend(ctx context.Context, q *match.Query) ([]match.Result, match.Source, error) {
	start := time.Now()

	results, source, err := s.recommend(ctx, q)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecommendRequestsTotal.WithLabelValues(q.Collection(), string(source), status).Inc()
	metrics.RecommendDuration.WithLabelValues(q.Collection(), string(source)).
		Observe(time.Since(start).Seconds())

	return results, source, err
}

func (s *Service) recommend(
	ctx context.Context, q *match.Query,
) ([]match.Result, match.Source, error) {
	// Load: the query entity must exist and carry a valid embedding.
	ent, err := s.entities.Get(ctx, q.Collection(), q.EntityID())
	if err != nil {
		return nil, match.SourceManaged, fmt.Errorf("load %s/%s: %w", q.Collection(), q.EntityID(), err)
	}
	if !ent.HasEmbedding(s.entities.Dimension()) {
		return nil, match.SourceManaged,
			fmt.Errorf("entity %s/%s: %w", q.Collection(), q.EntityID(), domain.ErrMissingEmbedding)
	}

	// TryManaged: ask for one extra hit since the index may return the
	// query entity itself.
	source := match.SourceManaged
	results, err := s.index.Search(ctx, q.Collection(), ent.Embedding, q.K()+1, s.numCandidates)
	switch {
	case err == nil && len(results) > 0:
		results = excludeSelf(results, q.EntityID())
		// The query carries no SORTBY; order by score here instead of
		// trusting provider ordering.
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score() > results[j].Score()
		})
	case err != nil && !errors.Is(err, domain.ErrIndexUnavailable):
		return nil, source, err
	default:
		// Fallback: unavailable index or empty managed answer.
		s.logger.Debug("managed index did not answer, falling back",
			zap.String("collection", q.Collection()),
		)
		source = match.SourceFallback
		results, err = s.fallback.Search(ctx, q.Collection(), ent.Embedding, q.K(), q.EntityID())
		if err != nil {
			return nil, source, err
		}
	}

	// Filter: drop everything under the normalized min_score threshold.
	if q.MinScore() > 0 {
		filtered := results[:0]
		for _, r := range results {
			if r.Score() >= q.MinScore() {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	// Weighted re-rank when the caller supplied factor weights.
	if len(q.Weights()) > 0 {
		results, err = s.rescore(ctx, q, ent, results)
		if err != nil {
			return nil, source, err
		}
	}

	if len(results) > q.K() {
		results = results[:q.K()]
	}
	return results, source, nil
}

// rescore replaces vector similarity with the weighted multi-factor
// composite for each candidate and re-sorts. Candidates that vanished from
// the store since the snapshot are dropped rather than failing the request.
func (s *Service) rescore(
	ctx context.Context, q *match.Query, target domain.Entity, results []match.Result,
) ([]match.Result, error) {
	rescored := make([]match.Result, 0, len(results))
	for _, r := range results {
		cand, err := s.entities.Get(ctx, q.Collection(), r.ID())
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load candidate %s: %w", r.ID(), err)
		}

		composite, err := s.scorer.Score(cand, target, q.Weights())
		if err != nil {
			return nil, fmt.Errorf("score candidate %s: %w", r.ID(), err)
		}
		rescored = append(rescored, r.WithScore(composite))
	}

	sort.SliceStable(rescored, func(i, j int) bool {
		return rescored[i].Score() > rescored[j].Score()
	})
	return rescored, nil
}

func excludeSelf(results []match.Result, id string) []match.Result {
	out := results[:0]
	for _, r := range results {
		if r.ID() != id {
			out = append(out, r)
		}
	}
	return out
}
