// Package health aggregates component health checks and embedding coverage
// reporting.
package health

import (
	"context"
	"fmt"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Coverage is the embedding coverage of one collection.
type Coverage struct {
	Collection       string
	WithEmbedding    int
	WithoutEmbedding int
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	coverage  CoverageReader
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker, coverage CoverageReader) *Service {
	return &Service{db: db, embedding: embedding, coverage: coverage}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

// EmbeddingCoverage reports how many entities of a collection carry a valid
// embedding and how many are missing one.
func (s *Service) EmbeddingCoverage(ctx context.Context, collection string) (Coverage, error) {
	with, err := s.coverage.CountWithEmbedding(ctx, collection)
	if err != nil {
		return Coverage{}, fmt.Errorf("count with embedding %s: %w", collection, err)
	}
	without, err := s.coverage.CountWithoutEmbedding(ctx, collection)
	if err != nil {
		return Coverage{}, fmt.Errorf("count without embedding %s: %w", collection, err)
	}
	return Coverage{
		Collection:       collection,
		WithEmbedding:    with,
		WithoutEmbedding: without,
	}, nil
}
