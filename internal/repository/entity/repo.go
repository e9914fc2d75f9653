// Package entity implements the embedding store over the JSON document
// collections.
package entity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/talentwire/matchd/internal/db"
	"github.com/talentwire/matchd/internal/domain"
)

// jsonGetBatchSize bounds a single pipelined JSON.GET round-trip.
const jsonGetBatchSize = 64

// store is the consumer interface for entity documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo is the read-mostly entity store. dim is the configured embedding
// dimension; any stored vector of a different length is treated as absent.
type Repo struct {
	store store
	dim   int
}

// New creates an entity repository.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim}
}

// Dimension returns the configured embedding dimension.
func (r *Repo) Dimension() int { return r.dim }

// Get returns an entity by collection and id.
func (r *Repo) Get(ctx context.Context, collection, id string) (domain.Entity, error) {
	key := entityKey(collection, id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Entity{}, domain.ErrNotFound
		}
		return domain.Entity{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseJSONGetResult(id, raw)
}

// Exists reports whether an entity document is present.
func (r *Repo) Exists(ctx context.Context, collection, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, entityKey(collection, id))
	if err != nil {
		return false, fmt.Errorf("exists %s/%s: %w", collection, id, err)
	}
	return ok, nil
}

// AllWithEmbedding returns every non-archived entity in the collection that
// carries a valid embedding, excluding excludeID. Single pass over a SCAN
// snapshot, batched pipelined fetches; order follows the snapshot and is the
// tie-break order for the fallback ranking.
func (r *Repo) AllWithEmbedding(
	ctx context.Context, collection, excludeID string,
) ([]domain.Entity, error) {
	keys, err := r.store.Scan(ctx, collectionPattern(collection))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}

	prefix := collectionPrefix(collection)
	out := make([]domain.Entity, 0, len(keys))

	for start := 0; start < len(keys); start += jsonGetBatchSize {
		end := min(start+jsonGetBatchSize, len(keys))
		batch := keys[start:end]

		raws, err := r.store.JSONGetMulti(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("json.get batch %s: %w", collection, err)
		}

		for i, raw := range raws {
			if raw == nil {
				continue
			}
			id := strings.TrimPrefix(batch[i], prefix)
			if id == excludeID {
				continue
			}
			ent, err := parseJSONGetResult(id, raw)
			if err != nil {
				continue
			}
			if ent.Archived || !ent.HasEmbedding(r.dim) {
				continue
			}
			out = append(out, ent)
		}
	}

	return out, nil
}

// CountWithEmbedding returns the number of entities carrying a valid
// embedding. Health reporting only, not on the recommendation path.
func (r *Repo) CountWithEmbedding(ctx context.Context, collection string) (int, error) {
	with, _, err := r.counts(ctx, collection)
	return with, err
}

// CountWithoutEmbedding returns the number of entities with no valid
// embedding (absent, empty, or wrong length).
func (r *Repo) CountWithoutEmbedding(ctx context.Context, collection string) (int, error) {
	_, without, err := r.counts(ctx, collection)
	return without, err
}

// SetEmbedding replaces the whole embedding vector of an entity.
// Replace-whole-vector semantics: no partial updates, no other fields touched.
func (r *Repo) SetEmbedding(ctx context.Context, collection, id string, vec []float32) error {
	if len(vec) != r.dim {
		return domain.NewDimensionMismatch(len(vec), r.dim)
	}

	key := entityKey(collection, id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$.embedding", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

func (r *Repo) counts(ctx context.Context, collection string) (with, without int, err error) {
	keys, err := r.store.Scan(ctx, collectionPattern(collection))
	if err != nil {
		return 0, 0, fmt.Errorf("scan %s: %w", collection, err)
	}

	prefix := collectionPrefix(collection)

	for start := 0; start < len(keys); start += jsonGetBatchSize {
		end := min(start+jsonGetBatchSize, len(keys))
		batch := keys[start:end]

		raws, err := r.store.JSONGetMulti(ctx, batch)
		if err != nil {
			return 0, 0, fmt.Errorf("json.get batch %s: %w", collection, err)
		}

		for i, raw := range raws {
			if raw == nil {
				continue
			}
			id := strings.TrimPrefix(batch[i], prefix)
			ent, err := parseJSONGetResult(id, raw)
			if err != nil || ent.Archived {
				continue
			}
			if ent.HasEmbedding(r.dim) {
				with++
			} else {
				without++
			}
		}
	}

	return with, without, nil
}

func entityKey(collection, id string) string {
	return fmt.Sprintf("%s%s:%s", domain.KeyPrefix, collection, id)
}

func collectionPrefix(collection string) string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, collection)
}

func collectionPattern(collection string) string {
	return collectionPrefix(collection) + "*"
}
