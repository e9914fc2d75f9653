// Package match holds the request and result value objects of the
// recommendation pipeline.
package match

import (
	"fmt"

	"github.com/talentwire/matchd/internal/domain"
	"github.com/talentwire/matchd/internal/domain/weights"
)

// Query limits.
const (
	DefaultK = domain.DefaultK
	MaxK     = 100
)

// Query is a validated recommendation request. It is created per request and
// never persisted.
type Query struct {
	entityID   string
	collection string
	k          int
	minScore   float64
	weights    weights.Set
}

// NewQuery validates and normalizes recommendation parameters.
// Defaults: k=5. k is clamped to MaxK. minScore applies to the normalized
// [0,1] similarity scale. weights may be nil (pure vector ranking); a
// non-nil set is validated with the given tolerance.
func NewQuery(
	entityID, collection string,
	k int,
	minScore float64,
	w weights.Set,
	weightTolerance float64,
) (Query, error) {
	if entityID == "" {
		return Query{}, fmt.Errorf("entity_id is required")
	}
	if collection == "" {
		return Query{}, fmt.Errorf("collection is required")
	}
	if k <= 0 {
		k = DefaultK
	}
	if k > MaxK {
		k = MaxK
	}
	if minScore < 0 || minScore > 1 {
		return Query{}, fmt.Errorf("min_score must be between 0 and 1")
	}
	if w != nil {
		if err := w.Validate(weightTolerance); err != nil {
			return Query{}, err
		}
	}

	return Query{
		entityID:   entityID,
		collection: collection,
		k:          k,
		minScore:   minScore,
		weights:    w,
	}, nil
}

// EntityID returns the query entity identifier.
func (q *Query) EntityID() string { return q.entityID }

// Collection returns the target collection name.
func (q *Query) Collection() string { return q.collection }

// K returns the number of results to return.
func (q *Query) K() int { return q.k }

// MinScore returns the minimum normalized similarity threshold (0 = off).
func (q *Query) MinScore() float64 { return q.minScore }

// Weights returns the optional factor weight set (nil = vector ranking only).
func (q *Query) Weights() weights.Set { return q.weights }
