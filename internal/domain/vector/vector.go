// Package vector implements the pure similarity math shared by the managed
// and fallback search paths.
package vector

import (
	"math"

	"github.com/talentwire/matchd/internal/domain"
)

// CosineSimilarity computes the cosine similarity of a and b in [-1, 1].
// Vectors of unequal length are a caller error and return
// domain.ErrDimensionMismatch. A zero-magnitude vector on either side yields
// 0 rather than dividing by zero.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimensionMismatch(len(b), len(a))
	}

	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}

// NormalizeCosine maps a raw cosine similarity from [-1, 1] onto the
// pipeline-wide [0, 1] ranking scale. The mapping is monotonic, so ordering
// is unchanged; every score leaving the core goes through it (or through the
// equivalent distance conversion in the managed path) so that min_score means
// the same thing on both paths.
func NormalizeCosine(cos float64) float64 {
	return clamp01((cos + 1) / 2)
}

// SimilarityFromDistance converts a cosine distance d in [0, 2], as reported
// by the managed index, onto the same [0, 1] scale as NormalizeCosine:
// 1 - d/2 == (cos+1)/2.
func SimilarityFromDistance(d float64) float64 {
	return clamp01(1 - d/2)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
