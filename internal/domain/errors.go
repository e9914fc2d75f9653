package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing entity.
	ErrNotFound = errors.New("entity not found")
	// ErrMissingEmbedding signals a query entity without a valid embedding.
	ErrMissingEmbedding = errors.New("entity has no embedding")
	// ErrDimensionMismatch signals vectors of unequal length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidWeights signals a malformed weight set.
	ErrInvalidWeights = errors.New("invalid weights")
	// ErrUnknownFactor signals a weight factor with no matching sub-score.
	ErrUnknownFactor = errors.New("unknown scoring factor")
	// ErrIndexUnavailable signals that the managed vector index answered no
	// query-shape variant. Absorbed by the recommender, never surfaced.
	ErrIndexUnavailable = errors.New("managed index unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// DimensionMismatchError wraps ErrDimensionMismatch with both lengths.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: got %d, want %d", ErrDimensionMismatch.Error(), e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(got, want int) error {
	return &DimensionMismatchError{Got: got, Want: want}
}

// InvalidWeightsError wraps ErrInvalidWeights with the computed sum so the
// caller can see how far off the request was.
type InvalidWeightsError struct {
	Sum    float64
	Reason string
}

func (e *InvalidWeightsError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (sum=%.4f)", ErrInvalidWeights.Error(), e.Reason, e.Sum)
	}
	return fmt.Sprintf("%s: sum=%.4f", ErrInvalidWeights.Error(), e.Sum)
}

func (e *InvalidWeightsError) Unwrap() error { return ErrInvalidWeights }

// NewInvalidWeights creates an invalid weights error carrying the actual sum.
func NewInvalidWeights(sum float64, reason string) error {
	return &InvalidWeightsError{Sum: sum, Reason: reason}
}
