package chi

// errorCode classifies API errors for clients.
type errorCode string

const (
	codeBadRequest            errorCode = "bad_request"
	codeValidationFailed      errorCode = "validation_failed"
	codeNotFound              errorCode = "entity_not_found"
	codeMissingEmbedding      errorCode = "missing_embedding"
	codeInvalidWeights        errorCode = "invalid_weights"
	codeDimensionMismatch     errorCode = "dimension_mismatch"
	codeEmbeddingProviderErr  errorCode = "embedding_provider_error"
	codeRecommendationFailure errorCode = "recommendation_failed"
	codeInternalError         errorCode = "internal_error"
)

// errorResponse is the error envelope returned by every endpoint.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
	// WeightSum is set for invalid_weights errors to help clients fix the request.
	WeightSum *float64 `json:"weight_sum,omitempty"`
}

// recommendRequest is the body of POST /collections/{collection}/recommendations.
type recommendRequest struct {
	EntityID string             `json:"entity_id"`
	K        int                `json:"k,omitempty"`
	MinScore float64            `json:"min_score,omitempty"`
	Weights  map[string]float64 `json:"weights,omitempty"`
}

// recommendationItem is a single scored recommendation.
type recommendationItem struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty"`
	Score float64 `json:"score"`
}

// recommendResponse is the body returned by the recommendations endpoint.
type recommendResponse struct {
	Items  []recommendationItem `json:"items"`
	Source string               `json:"source"`
	Total  int                  `json:"total"`
}

// scoreRequest is the body of POST /score.
type scoreRequest struct {
	Collection string             `json:"collection"`
	EntityID   string             `json:"entity_id"`
	TargetID   string             `json:"target_id"`
	Weights    map[string]float64 `json:"weights"`
}

// scoreResponse is the body returned by the pairwise score endpoint.
type scoreResponse struct {
	EntityID string  `json:"entity_id"`
	TargetID string  `json:"target_id"`
	Score    float64 `json:"score"`
}

// refreshResponse is the body returned by the refresh-embedding endpoint.
type refreshResponse struct {
	ID         string `json:"id"`
	Dimensions int    `json:"dimensions"`
	Tokens     int    `json:"tokens,omitempty"`
}

// embeddingStatsResponse is the body returned by the embedding-stats endpoint.
type embeddingStatsResponse struct {
	Collection       string `json:"collection"`
	WithEmbedding    int    `json:"with_embedding"`
	WithoutEmbedding int    `json:"without_embedding"`
}

// healthResponse is the body returned by GET /health.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
