package domain

// Kind is the semantic type of an entity.
type Kind string

const (
	// KindCandidate is a person looking for work.
	KindCandidate Kind = "candidate"
	// KindJob is a posted job opening.
	KindJob Kind = "job"
	// KindProject is a posted project engagement.
	KindProject Kind = "project"
)

// IsValid reports whether k is a known entity kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindCandidate, KindJob, KindProject:
		return true
	}
	return false
}

// Entity is a stored candidate, job, or project together with its embedding.
// Entities are soft-archived, never deleted; the embedding is replaced as a
// whole whenever the descriptive text changes.
type Entity struct {
	ID              string
	Kind            Kind
	Title           string
	Summary         string
	Skills          []string // requirements for jobs/projects
	ExperienceYears float64
	Education       string
	Location        string
	Embedding       []float32
	UpdatedAt       int64 // unix millis
	Archived        bool
}

// HasEmbedding reports whether the entity carries a usable embedding: present,
// non-empty, and exactly dim long. A wrong-length vector is a data-integrity
// problem and counts as absent rather than as a valid-but-wrong embedding.
func (e *Entity) HasEmbedding(dim int) bool {
	return len(e.Embedding) > 0 && len(e.Embedding) == dim
}

// EmbeddingText is the descriptive text the embedding is derived from.
func (e *Entity) EmbeddingText() string {
	text := e.Title
	if e.Summary != "" {
		text += "\n" + e.Summary
	}
	for _, s := range e.Skills {
		text += "\n" + s
	}
	if e.Location != "" {
		text += "\n" + e.Location
	}
	return text
}
