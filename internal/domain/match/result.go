package match

// Source identifies which search path produced a result set.
type Source string

const (
	// SourceManaged means the provider-side ANN index answered.
	SourceManaged Source = "managed"
	// SourceFallback means the brute-force cosine scan answered.
	SourceFallback Source = "fallback"
)

// Result is a single recommendation hit. Ephemeral, never persisted.
type Result struct {
	id    string
	score float64
	title string
}

// NewResult creates a recommendation result.
func NewResult(id string, score float64, title string) Result {
	return Result{id: id, score: score, title: title}
}

// ID returns the matched entity identifier.
func (r *Result) ID() string { return r.id }

// Score returns the normalized [0,1] ranking score, higher is better.
func (r *Result) Score() float64 { return r.score }

// Title returns the matched entity title.
func (r *Result) Title() string { return r.title }

// WithScore returns a copy of the result carrying a different score.
// Used by the weighted re-rank stage.
func (r *Result) WithScore(score float64) Result {
	return Result{id: r.id, score: score, title: r.title}
}
