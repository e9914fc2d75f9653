package recommend

import (
	"context"

	"github.com/talentwire/matchd/internal/domain"
	"github.com/talentwire/matchd/internal/domain/match"
	"github.com/talentwire/matchd/internal/domain/weights"
)

// EntityReader reads entity documents and embedding snapshots.
type EntityReader interface {
	Get(ctx context.Context, collection, id string) (domain.Entity, error)
	AllWithEmbedding(ctx context.Context, collection, excludeID string) ([]domain.Entity, error)
	Dimension() int
}

// IndexSearcher queries the provider-side ANN index. Returns
// domain.ErrIndexUnavailable when no query shape answers.
type IndexSearcher interface {
	Search(
		ctx context.Context, collection string,
		queryVector []float32, k, numCandidates int,
	) ([]match.Result, error)
}

// Scorer computes the weighted multi-factor composite for a candidate/target
// pair.
type Scorer interface {
	Score(entity, target domain.Entity, w weights.Set) (float64, error)
}
