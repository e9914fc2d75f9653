// Package score implements the weighted multi-factor scoring model used to
// rank candidate/job/project pairs.
package score

import (
	"context"
	"fmt"

	"github.com/talentwire/matchd/internal/domain"
	"github.com/talentwire/matchd/internal/domain/weights"
)

// subScore computes one factor's contribution in [0, 1].
type subScore func(entity, target domain.Entity) float64

// subScores maps every known factor to its sub-score function. A weight
// naming a factor outside this table is a configuration error, never
// silently ignored.
var subScores = map[weights.Factor]subScore{
	weights.Skills:     skillsOverlap,
	weights.Experience: experienceProximity,
	weights.Education:  educationMatch,
	weights.Location:   locationMatch,
}

// EntityReader loads the two sides of a pair for ScorePair.
type EntityReader interface {
	Get(ctx context.Context, collection, id string) (domain.Entity, error)
}

// Service is the weighted scorer. Score itself is a pure function; the
// service only adds entity loading for the pairwise endpoint and carries the
// configured weight-sum tolerance.
type Service struct {
	entities  EntityReader
	tolerance float64
}

// New creates a scoring service. tolerance <= 0 falls back to the default
// ±0.01.
func New(entities EntityReader, tolerance float64) *Service {
	if tolerance <= 0 {
		tolerance = weights.DefaultSumTolerance
	}
	return &Service{entities: entities, tolerance: tolerance}
}

// Score validates w and returns the weighted composite of the named factor
// sub-scores: sum of weight_i * subscore_i, in [0, 1], higher is better.
// Deterministic given identical inputs; no side effects.
func (s *Service) Score(entity, target domain.Entity, w weights.Set) (float64, error) {
	if err := w.Validate(s.tolerance); err != nil {
		return 0, err
	}

	var composite float64
	for _, factor := range w.Factors() {
		fn, ok := subScores[factor]
		if !ok {
			return 0, fmt.Errorf("factor %q: %w", factor, domain.ErrUnknownFactor)
		}
		composite += w[factor] * fn(entity, target)
	}
	return composite, nil
}

// ScorePair loads both entities from collection and scores entityID against
// targetID.
func (s *Service) ScorePair(
	ctx context.Context, collection, entityID, targetID string, w weights.Set,
) (float64, error) {
	entity, err := s.entities.Get(ctx, collection, entityID)
	if err != nil {
		return 0, fmt.Errorf("load %s/%s: %w", collection, entityID, err)
	}
	target, err := s.entities.Get(ctx, collection, targetID)
	if err != nil {
		return 0, fmt.Errorf("load %s/%s: %w", collection, targetID, err)
	}
	return s.Score(entity, target, w)
}
