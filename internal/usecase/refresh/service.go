// Package refresh rebuilds entity embeddings after their descriptive text
// changes.
package refresh

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/talentwire/matchd/internal/domain"
)

// EntityStore is the entity access the refresher needs: read the document,
// replace the whole embedding vector.
type EntityStore interface {
	Get(ctx context.Context, collection, id string) (domain.Entity, error)
	SetEmbedding(ctx context.Context, collection, id string, vec []float32) error
}

// Outcome reports what a refresh produced.
type Outcome struct {
	Dimensions  int
	TotalTokens int
}

// Service regenerates an entity's embedding from its current text. The
// write is replace-whole-vector: partial updates do not exist.
type Service struct {
	entities EntityStore
	embedder domain.Embedder
	logger   *zap.Logger
}

// New creates a refresh service.
func New(entities EntityStore, embedder domain.Embedder, logger *zap.Logger) *Service {
	return &Service{entities: entities, embedder: embedder, logger: logger}
}

// Refresh embeds the entity's descriptive text and stores the new vector.
// Provider failures surface wrapped in domain.ErrEmbeddingProviderError; no
// retries happen here.
func (s *Service) Refresh(ctx context.Context, collection, id string) (Outcome, error) {
	ent, err := s.entities.Get(ctx, collection, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("load %s/%s: %w", collection, id, err)
	}

	text := ent.EmbeddingText()
	if text == "" {
		return Outcome{}, fmt.Errorf("entity %s/%s has no text to embed", collection, id)
	}

	result, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return Outcome{}, fmt.Errorf("embed %s/%s: %w", collection, id, err)
	}

	if err := s.entities.SetEmbedding(ctx, collection, id, result.Embedding); err != nil {
		return Outcome{}, fmt.Errorf("store embedding %s/%s: %w", collection, id, err)
	}

	s.logger.Info("embedding refreshed",
		zap.String("collection", collection),
		zap.String("id", id),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return Outcome{Dimensions: len(result.Embedding), TotalTokens: result.TotalTokens}, nil
}
