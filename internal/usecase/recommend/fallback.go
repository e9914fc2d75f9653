package recommend

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/talentwire/matchd/internal/domain/match"
	"github.com/talentwire/matchd/internal/domain/vector"
	"github.com/talentwire/matchd/internal/metrics"
)

// cancelCheckStride bounds how often the scan loop looks at ctx.
const cancelCheckStride = 256

// Fallback is the brute-force similarity search used when the managed index
// is unavailable. O(n) comparisons over a single snapshot; it trades latency
// for availability and is always able to answer.
type Fallback struct {
	entities EntityReader
	logger   *zap.Logger
}

// NewFallback creates a brute-force searcher.
func NewFallback(entities EntityReader, logger *zap.Logger) *Fallback {
	return &Fallback{entities: entities, logger: logger}
}

// Search compares queryVector against every stored embedding in the
// collection (excluding excludeID) and returns the top k by normalized
// cosine similarity, highest first. Fewer than k candidates returns all of
// them. Ties keep the snapshot's fetch order: the sort is stable and no
// secondary key is defined, which makes the ordering deterministic for an
// unchanged store.
func (f *Fallback) Search(
	ctx context.Context, collection string,
	queryVector []float32, k int, excludeID string,
) ([]match.Result, error) {
	candidates, err := f.entities.AllWithEmbedding(ctx, collection, excludeID)
	if err != nil {
		return nil, fmt.Errorf("load candidates %s: %w", collection, err)
	}

	metrics.FallbackScanSize.WithLabelValues(collection).Observe(float64(len(candidates)))

	results := make([]match.Result, 0, len(candidates))
	for i := range candidates {
		if i%cancelCheckStride == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("fallback search cancelled: %w", err)
			}
		}

		cand := &candidates[i]
		cos, err := vector.CosineSimilarity(queryVector, cand.Embedding)
		if err != nil {
			// Wrong-length candidate: skip it, keep scanning.
			f.logger.Warn("skipping candidate with mismatched embedding",
				zap.String("collection", collection),
				zap.String("id", cand.ID),
				zap.Error(err),
			)
			continue
		}
		results = append(results, match.NewResult(cand.ID, vector.NormalizeCosine(cos), cand.Title))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
