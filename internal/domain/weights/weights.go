// Package weights defines the caller-supplied factor weighting for
// multi-factor matching.
package weights

import (
	"fmt"
	"math"
	"sort"

	"github.com/talentwire/matchd/internal/domain"
)

// Factor names a scoring dimension a caller can weight.
type Factor string

const (
	// Skills weights the skills/requirements overlap ratio.
	Skills Factor = "skills"
	// Experience weights the experience-years proximity.
	Experience Factor = "experience"
	// Education weights the education-level match.
	Education Factor = "education"
	// Location weights the location match.
	Location Factor = "location"
)

// KnownFactors lists every factor a sub-score function exists for.
var KnownFactors = []Factor{Skills, Experience, Education, Location}

// DefaultSumTolerance is the allowed deviation of the weight sum from 1.0.
const DefaultSumTolerance = 0.01

// Set maps factors to non-negative weights. A well-formed set sums to 1.0
// within tolerance and every weight lies in [0, 1]. Weights are never
// auto-normalized: a silently-wrong set is rejected, not corrected.
type Set map[Factor]float64

// Validate checks the set against tolerance. Violations return
// domain.ErrInvalidWeights carrying the computed sum.
func (s Set) Validate(tolerance float64) error {
	if len(s) == 0 {
		return domain.NewInvalidWeights(0, "empty weight set")
	}
	if tolerance <= 0 {
		tolerance = DefaultSumTolerance
	}

	var sum float64
	for _, w := range s {
		sum += w
	}
	for factor, w := range s {
		if w < 0 || w > 1 {
			return domain.NewInvalidWeights(sum, fmt.Sprintf("weight %q = %g out of [0,1]", factor, w))
		}
	}
	if math.Abs(sum-1.0) > tolerance {
		return domain.NewInvalidWeights(sum, "weights must sum to 1.0")
	}
	return nil
}

// Factors returns the factors of the set in deterministic order.
func (s Set) Factors() []Factor {
	out := make([]Factor, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
