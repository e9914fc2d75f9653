package recommend

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/talentwire/matchd/internal/domain"
	"github.com/talentwire/matchd/internal/domain/match"
	"github.com/talentwire/matchd/internal/domain/weights"
)

// --- Mocks ---

type mockIndex struct {
	results []match.Result
	err     error
	called  bool
	lastK   int
}

func (m *mockIndex) Search(
	_ context.Context, _ string, _ []float32, k, _ int,
) ([]match.Result, error) {
	m.called = true
	m.lastK = k
	// Fresh slice per call, like a real index answer.
	return append([]match.Result(nil), m.results...), m.err
}

type mockScorer struct {
	scores map[string]float64
	err    error
}

func (m *mockScorer) Score(entity, _ domain.Entity, _ weights.Set) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.scores[entity.ID], nil
}

func queryEntity() domain.Entity {
	return domain.Entity{ID: "cand-1", Embedding: []float32{1, 0}}
}

func newTestService(repo *mockEntities, index *mockIndex, scorer Scorer) *Service {
	return New(repo, index, NewFallback(repo, zap.NewNop()), scorer, zap.NewNop())
}

func mustQuery(t *testing.T, k int, minScore float64, w weights.Set) *match.Query {
	t.Helper()
	q, err := match.NewQuery("cand-1", "jobs", k, minScore, w, 0)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	return &q
}

// --- Tests ---

func TestRecommend_ManagedPath(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{
		"cand-1": queryEntity(),
	}}
	index := &mockIndex{results: []match.Result{
		match.NewResult("job-1", 0.95, "Backend Engineer"),
		match.NewResult("job-2", 0.80, "SRE"),
	}}
	svc := newTestService(repo, index, &mockScorer{})

	results, source, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != match.SourceManaged {
		t.Errorf("source = %q, want managed", source)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if repo.allCalled {
		t.Error("fallback scan must not run when the index answers")
	}
	// The index is asked for one extra hit to cover self-exclusion.
	if index.lastK != 6 {
		t.Errorf("index k = %d, want 6", index.lastK)
	}
}

func TestRecommend_ExcludesSelfFromManagedResults(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{
		"cand-1": queryEntity(),
	}}
	index := &mockIndex{results: []match.Result{
		match.NewResult("cand-1", 1.0, "Self"),
		match.NewResult("job-1", 0.9, "Backend Engineer"),
	}}
	svc := newTestService(repo, index, &mockScorer{})

	results, _, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range results {
		if r.ID() == "cand-1" {
			t.Error("query entity leaked into its own recommendations")
		}
	}
}

func TestRecommend_FallsBackWhenIndexUnavailable(t *testing.T) {
	repo := &mockEntities{
		dim:      2,
		entities: map[string]domain.Entity{"cand-1": queryEntity()},
		all: []domain.Entity{
			{ID: "job-1", Title: "Backend Engineer", Embedding: []float32{1, 0.1}},
			{ID: "job-2", Title: "SRE", Embedding: []float32{0, 1}},
		},
	}
	index := &mockIndex{err: domain.ErrIndexUnavailable}
	svc := newTestService(repo, index, &mockScorer{})

	results, source, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != match.SourceFallback {
		t.Errorf("source = %q, want fallback", source)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID() != "job-1" {
		t.Errorf("best match = %q, want job-1", results[0].ID())
	}
}

func TestRecommend_FallsBackOnEmptyManagedAnswer(t *testing.T) {
	repo := &mockEntities{
		dim:      2,
		entities: map[string]domain.Entity{"cand-1": queryEntity()},
		all: []domain.Entity{
			{ID: "job-1", Embedding: []float32{1, 0}},
		},
	}
	index := &mockIndex{results: nil}
	svc := newTestService(repo, index, &mockScorer{})

	results, source, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != match.SourceFallback {
		t.Errorf("source = %q, want fallback", source)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestRecommend_NonIndexErrorsPropagate(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{
		"cand-1": queryEntity(),
	}}
	boom := errors.New("network down")
	index := &mockIndex{err: boom}
	svc := newTestService(repo, index, &mockScorer{})

	_, _, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, nil))
	if !errors.Is(err, boom) {
		t.Fatalf("expected the index error to propagate, got %v", err)
	}
	if repo.allCalled {
		t.Error("fallback must not mask non-availability errors")
	}
}

func TestRecommend_EntityNotFound(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{}}
	svc := newTestService(repo, &mockIndex{}, &mockScorer{})

	_, _, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, nil))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecommend_MissingEmbedding(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{
		"cand-1": {ID: "cand-1"},
	}}
	svc := newTestService(repo, &mockIndex{}, &mockScorer{})

	_, _, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, nil))
	if !errors.Is(err, domain.ErrMissingEmbedding) {
		t.Fatalf("expected ErrMissingEmbedding, got %v", err)
	}
}

func TestRecommend_WrongLengthEmbeddingIsMissing(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{
		"cand-1": {ID: "cand-1", Embedding: []float32{1, 0, 0}},
	}}
	svc := newTestService(repo, &mockIndex{}, &mockScorer{})

	_, _, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, nil))
	if !errors.Is(err, domain.ErrMissingEmbedding) {
		t.Fatalf("expected ErrMissingEmbedding, got %v", err)
	}
}

func TestRecommend_MinScoreFilter(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{
		"cand-1": queryEntity(),
	}}
	index := &mockIndex{results: []match.Result{
		match.NewResult("job-1", 0.9, ""),
		match.NewResult("job-2", 0.6, ""),
		match.NewResult("job-3", 0.3, ""),
	}}
	svc := newTestService(repo, index, &mockScorer{})

	results, _, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0.5, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results above 0.5, got %d", len(results))
	}
	for _, r := range results {
		if r.Score() < 0.5 {
			t.Errorf("result %q below threshold: %v", r.ID(), r.Score())
		}
	}
}

func TestRecommend_MinScoreCanEmptyTheResult(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{
		"cand-1": queryEntity(),
	}}
	index := &mockIndex{results: []match.Result{
		match.NewResult("job-1", 0.2, ""),
	}}
	svc := newTestService(repo, index, &mockScorer{})

	results, _, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0.9, nil))
	if err != nil {
		t.Fatalf("an empty result set is a valid outcome, got error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %d", len(results))
	}
}

func TestRecommend_WeightedRescore(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{
		"cand-1": queryEntity(),
		"job-1":  {ID: "job-1"},
		"job-2":  {ID: "job-2"},
	}}
	// Vector ranking says job-1 first; the composite flips the order.
	index := &mockIndex{results: []match.Result{
		match.NewResult("job-1", 0.9, ""),
		match.NewResult("job-2", 0.8, ""),
	}}
	scorer := &mockScorer{scores: map[string]float64{"job-1": 0.3, "job-2": 0.7}}
	svc := newTestService(repo, index, scorer)

	w := weights.Set{weights.Skills: 1.0}
	results, _, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, w))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID() != "job-2" {
		t.Errorf("best match = %q, want job-2 after re-rank", results[0].ID())
	}
	if math.Abs(results[0].Score()-0.7) > 1e-9 {
		t.Errorf("score = %v, want composite 0.7", results[0].Score())
	}
}

func TestRecommend_RescoreDropsVanishedCandidates(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{
		"cand-1": queryEntity(),
		"job-1":  {ID: "job-1"},
	}}
	index := &mockIndex{results: []match.Result{
		match.NewResult("job-1", 0.9, ""),
		match.NewResult("gone", 0.8, ""),
	}}
	scorer := &mockScorer{scores: map[string]float64{"job-1": 0.5}}
	svc := newTestService(repo, index, scorer)

	w := weights.Set{weights.Skills: 1.0}
	results, _, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, w))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ID() != "job-1" {
		t.Fatalf("expected only job-1, got %v", results)
	}
}

func TestRecommend_InvalidWeightsSurface(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{
		"cand-1": queryEntity(),
		"job-1":  {ID: "job-1"},
	}}
	index := &mockIndex{results: []match.Result{match.NewResult("job-1", 0.9, "")}}
	scorer := &mockScorer{err: domain.NewInvalidWeights(1.4, "weights must sum to 1.0")}
	svc := newTestService(repo, index, scorer)

	// Bypass query-level validation with a loose tolerance to prove the
	// scorer's own rejection still surfaces.
	q, err := match.NewQuery("cand-1", "jobs", 5, 0,
		weights.Set{weights.Skills: 0.7, weights.Experience: 0.7}, 0.5)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}

	_, _, err = svc.Recommend(context.Background(), &q)
	if !errors.Is(err, domain.ErrInvalidWeights) {
		t.Fatalf("expected ErrInvalidWeights, got %v", err)
	}
}

func TestRecommend_ManagedResultsOrderedByScore(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{
		"cand-1": queryEntity(),
	}}
	index := &mockIndex{results: []match.Result{
		match.NewResult("job-low", 0.3, ""),
		match.NewResult("job-high", 0.9, ""),
		match.NewResult("job-mid", 0.6, ""),
	}}
	svc := newTestService(repo, index, &mockScorer{})

	results, _, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"job-high", "job-mid", "job-low"}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for i, id := range want {
		if results[i].ID() != id {
			t.Errorf("result %d: got %s, want %s", i, results[i].ID(), id)
		}
	}
}

func TestRecommend_Idempotent_ManagedPath(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{
		"cand-1": queryEntity(),
	}}
	index := &mockIndex{results: []match.Result{
		match.NewResult("job-1", 0.95, "Backend Engineer"),
		match.NewResult("job-2", 0.95, "SRE"),
		match.NewResult("job-3", 0.80, "DBA"),
	}}
	svc := newTestService(repo, index, &mockScorer{})

	first, firstSource, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, nil))
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, secondSource, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, nil))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if firstSource != secondSource {
		t.Errorf("sources differ: %q vs %q", firstSource, secondSource)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different results:\nfirst:  %v\nsecond: %v", first, second)
	}
}

func TestRecommend_Idempotent_FallbackPath(t *testing.T) {
	repo := &mockEntities{
		dim: 2,
		entities: map[string]domain.Entity{
			"cand-1": queryEntity(),
		},
		all: []domain.Entity{
			{ID: "job-1", Title: "Backend Engineer", Embedding: []float32{1, 0.1}},
			{ID: "job-2", Title: "SRE", Embedding: []float32{1, 1}},
			{ID: "job-3", Title: "DBA", Embedding: []float32{0, 1}},
		},
	}
	index := &mockIndex{err: domain.ErrIndexUnavailable}
	svc := newTestService(repo, index, &mockScorer{})

	first, firstSource, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, nil))
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, secondSource, err := svc.Recommend(context.Background(), mustQuery(t, 5, 0, nil))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if firstSource != match.SourceFallback || secondSource != match.SourceFallback {
		t.Fatalf("expected fallback on both calls, got %q and %q", firstSource, secondSource)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different results:\nfirst:  %v\nsecond: %v", first, second)
	}
}

func TestRecommend_TrimsToK(t *testing.T) {
	repo := &mockEntities{dim: 2, entities: map[string]domain.Entity{
		"cand-1": queryEntity(),
	}}
	index := &mockIndex{results: []match.Result{
		match.NewResult("job-1", 0.9, ""),
		match.NewResult("job-2", 0.8, ""),
		match.NewResult("job-3", 0.7, ""),
	}}
	svc := newTestService(repo, index, &mockScorer{})

	results, _, err := svc.Recommend(context.Background(), mustQuery(t, 2, 0, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}
