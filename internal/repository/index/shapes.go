package index

import (
	"fmt"
	"strconv"
)

// queryShape is one known way of phrasing a KNN query against the managed
// index. The query surface differs across index versions and provisioning
// styles, so the searcher walks an ordered table of shapes and stops at the
// first one that produces hits. Each shape is a pure function of (k,
// numCandidates); the vector blob itself is bound by the caller under the
// shape's blob parameter name.
type queryShape struct {
	name       string
	scoreField string
	blobParam  string
	dialect    int
	// build returns the query text and any extra PARAMS beyond the blob.
	build func(k, numCandidates int) (query string, extraParams map[string]string)
}

// shapes is the ordered probe table. Newer shapes first: the runtime-tuned
// HNSW form, the plain scored form accepted by FLAT indexes, and the legacy
// field naming used by older deployments.
var shapes = []queryShape{
	{
		name:       "knn-ef-runtime",
		scoreField: "__embedding_score",
		blobParam:  "BLOB",
		dialect:    2,
		build: func(k, numCandidates int) (string, map[string]string) {
			q := fmt.Sprintf("*=>[KNN %d @embedding $BLOB EF_RUNTIME $EF AS __embedding_score]", k)
			return q, map[string]string{"EF": strconv.Itoa(numCandidates)}
		},
	},
	{
		name:       "knn-scored",
		scoreField: "__embedding_score",
		blobParam:  "BLOB",
		dialect:    2,
		build: func(k, _ int) (string, map[string]string) {
			return fmt.Sprintf("*=>[KNN %d @embedding $BLOB AS __embedding_score]", k), nil
		},
	},
	{
		name:       "knn-legacy-vector",
		scoreField: "__vector_score",
		blobParam:  "BLOB",
		dialect:    2,
		build: func(k, _ int) (string, map[string]string) {
			return fmt.Sprintf("*=>[KNN %d @vector $BLOB]", k), nil
		},
	},
}
