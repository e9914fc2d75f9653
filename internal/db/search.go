package db

// KNNQuery carries a fully-built FT.SEARCH vector query. The query text,
// parameter table, and score field come from the query-shape variant that
// built it, because the index query surface is not stable across deployments.
type KNNQuery struct {
	IndexName    string
	Query        string            // complete query text including the KNN clause
	Params       map[string]string // PARAMS name -> value (vector blob etc.)
	K            int
	ScoreField   string // returned field holding the vector distance
	ReturnFields []string
	Dialect      int // 0 = omit DIALECT
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit. Score carries the raw value of the
// query's ScoreField (a distance for vector queries); converting it to a
// similarity is the repository's job.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
