package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/talentwire/matchd/internal/db"
)

// SearchKNN runs a prebuilt vector similarity query via FT.SEARCH.
// The query text and parameter table come from the caller: different index
// deployments accept different query shapes, so the db layer stays agnostic
// and just executes what it is handed.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	args := []string{q.IndexName, q.Query}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	args = append(args, "LIMIT", "0", strconv.Itoa(q.K))

	if len(q.Params) > 0 {
		args = append(args, "PARAMS", strconv.Itoa(len(q.Params)*2))
		for name, value := range q.Params {
			args = append(args, name, value)
		}
	}

	if q.Dialect > 0 {
		args = append(args, "DIALECT", strconv.Itoa(q.Dialect))
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseSearchResult(raw, q.ScoreField)
}

// parseSearchResult decodes the RESP2 FT.SEARCH reply:
// [total, key1, fields1, key2, fields2, ...]. The scoreField value, when
// present, is lifted into SearchEntry.Score as-is (a raw distance).
func parseSearchResult(raw []rueidis.RedisMessage, scoreField string) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		}

		if scoreField != "" {
			if scoreStr, ok := entry.Fields[scoreField]; ok {
				if v, err := strconv.ParseFloat(scoreStr, 64); err == nil {
					entry.Score = v
				}
				delete(entry.Fields, scoreField)
			}
		}

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
