package entity

import (
	"encoding/json"
	"fmt"

	"github.com/talentwire/matchd/internal/domain"
)

// entityDoc is the JSON shape of an entity document in the store. The
// embedding field is additive: writing it never requires touching the other
// fields.
type entityDoc struct {
	Kind            string    `json:"kind"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary,omitempty"`
	Skills          []string  `json:"skills,omitempty"`
	ExperienceYears float64   `json:"experience_years,omitempty"`
	Education       string    `json:"education,omitempty"`
	Location        string    `json:"location,omitempty"`
	Embedding       []float32 `json:"embedding,omitempty"`
	UpdatedAt       int64     `json:"updated_at,omitempty"`
	Archived        bool      `json:"archived,omitempty"`
}

func (d *entityDoc) toEntity(id string) domain.Entity {
	return domain.Entity{
		ID:              id,
		Kind:            domain.Kind(d.Kind),
		Title:           d.Title,
		Summary:         d.Summary,
		Skills:          d.Skills,
		ExperienceYears: d.ExperienceYears,
		Education:       d.Education,
		Location:        d.Location,
		Embedding:       d.Embedding,
		UpdatedAt:       d.UpdatedAt,
		Archived:        d.Archived,
	}
}

// parseJSONGetResult decodes a JSON.GET "$" reply, which wraps the document
// in a one-element array.
func parseJSONGetResult(id string, raw []byte) (domain.Entity, error) {
	var docs []entityDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return domain.Entity{}, fmt.Errorf("unmarshal entity %s: %w", id, err)
	}
	if len(docs) == 0 {
		return domain.Entity{}, domain.ErrNotFound
	}
	return docs[0].toEntity(id), nil
}
