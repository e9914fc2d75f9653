// Package index implements similarity search through the provider-side ANN
// index, probing the known query-shape variants in order.
package index

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/talentwire/matchd/internal/db"
	"github.com/talentwire/matchd/internal/domain"
	"github.com/talentwire/matchd/internal/domain/match"
	"github.com/talentwire/matchd/internal/domain/vector"
	"github.com/talentwire/matchd/internal/metrics"
)

// DefaultNameTemplate is the deployment's index naming convention.
const DefaultNameTemplate = "%s_vector_index"

// store is the consumer interface for managed index operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig carries index build parameters for Ensure.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo probes the managed ANN index. A probe is a capability check, not a
// transient-fault path: per-variant errors mean "try the next shape", and
// exhausting the table yields domain.ErrIndexUnavailable, which callers
// absorb by falling back.
type Repo struct {
	store        store
	dim          int
	nameTemplate string
	hnsw         HNSWConfig
	logger       *zap.Logger
}

// New creates a managed index searcher.
func New(s store, dim int, nameTemplate string, logger *zap.Logger) *Repo {
	if nameTemplate == "" {
		nameTemplate = DefaultNameTemplate
	}
	return &Repo{store: s, dim: dim, nameTemplate: nameTemplate, logger: logger}
}

// WithHNSW sets index build parameters used by Ensure.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// Search runs a KNN query for queryVector against the collection's index,
// trying each query shape in order and stopping at the first non-empty
// result set. Exhausting all shapes returns domain.ErrIndexUnavailable.
func (r *Repo) Search(
	ctx context.Context, collection string,
	queryVector []float32, k, numCandidates int,
) ([]match.Result, error) {
	if len(queryVector) != r.dim {
		return nil, domain.NewDimensionMismatch(len(queryVector), r.dim)
	}
	if numCandidates < k {
		numCandidates = k
	}

	indexName := r.indexName(collection)
	blob := vectorToBytes(queryVector)

	for _, shape := range shapes {
		queryStr, extra := shape.build(k, numCandidates)

		params := map[string]string{shape.blobParam: blob}
		for name, value := range extra {
			params[name] = value
		}

		q := &db.KNNQuery{
			IndexName:    indexName,
			Query:        queryStr,
			Params:       params,
			K:            k,
			ScoreField:   shape.scoreField,
			ReturnFields: []string{"title", shape.scoreField},
			Dialect:      shape.dialect,
		}

		sr, err := r.store.SearchKNN(ctx, q)
		if err != nil {
			// Environment-dependent shape rejection, not a request failure.
			metrics.IndexProbeTotal.WithLabelValues(shape.name, "error").Inc()
			r.logger.Debug("index query shape rejected",
				zap.String("index", indexName),
				zap.String("shape", shape.name),
				zap.Error(err),
			)
			continue
		}
		if sr == nil || len(sr.Entries) == 0 {
			metrics.IndexProbeTotal.WithLabelValues(shape.name, "empty").Inc()
			continue
		}

		metrics.IndexProbeTotal.WithLabelValues(shape.name, "hit").Inc()
		return parseResults(sr, collection), nil
	}

	return nil, domain.ErrIndexUnavailable
}

// Ensure creates the collection's vector index when it does not exist yet.
// Provisioning is environment-dependent; callers treat a failure here as
// advisory and rely on the fallback path.
func (r *Repo) Ensure(ctx context.Context, collection string) error {
	name := r.indexName(collection)

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("probe index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:        name,
		StorageType: db.StorageJSON,
		Prefixes:    []string{fmt.Sprintf("%s%s:", domain.KeyPrefix, collection)},
		Fields: []db.IndexField{
			{
				Name:              "$.embedding",
				Alias:             "embedding",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
			{Name: "$.kind", Alias: "kind", Type: db.IndexFieldTag},
			{Name: "$.experience_years", Alias: "experience_years", Type: db.IndexFieldNumeric},
		},
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("index definition %s: %w", name, err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

func (r *Repo) indexName(collection string) string {
	return fmt.Sprintf(r.nameTemplate, collection)
}

// parseResults converts index hits into match results, mapping the raw
// cosine distance onto the pipeline's normalized [0,1] scale.
func parseResults(sr *db.SearchResult, collection string) []match.Result {
	prefix := fmt.Sprintf("%s%s:", domain.KeyPrefix, collection)
	results := make([]match.Result, 0, len(sr.Entries))

	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, prefix)
		score := vector.SimilarityFromDistance(entry.Score)
		results = append(results, match.NewResult(id, score, entry.Fields["title"]))
	}

	return results
}

// vectorToBytes serializes a []float32 to the little-endian binary blob the
// index expects.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
