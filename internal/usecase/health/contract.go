package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CoverageReader reports embedding coverage per collection. Off the hot
// path: both counts walk the whole collection.
type CoverageReader interface {
	CountWithEmbedding(ctx context.Context, collection string) (int, error)
	CountWithoutEmbedding(ctx context.Context, collection string) (int, error)
}
