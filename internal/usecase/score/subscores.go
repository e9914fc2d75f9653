package score

import (
	"math"
	"strings"

	"github.com/talentwire/matchd/internal/domain"
)

// Every sub-score maps an entity/target pair onto [0, 1]; 1 is a perfect
// match. All of them are pure and deterministic.

// skillsOverlap is the fraction of the target's skills/requirements covered
// by the entity, after case/whitespace normalization. A target with no
// requirements scores 0: there is nothing to match against.
func skillsOverlap(entity, target domain.Entity) float64 {
	want := normalizeSkills(target.Skills)
	if len(want) == 0 {
		return 0
	}
	have := normalizeSkills(entity.Skills)

	matched := 0
	for skill := range want {
		if _, ok := have[skill]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(want))
}

// experienceProximity is min/max of the two experience figures: identical
// years score 1, and the score decays as they diverge. Two zero-experience
// records are a perfect match.
func experienceProximity(entity, target domain.Entity) float64 {
	a, b := entity.ExperienceYears, target.ExperienceYears
	if a < 0 {
		a = 0
	}
	if b < 0 {
		b = 0
	}
	if a == 0 && b == 0 {
		return 1
	}
	return math.Min(a, b) / math.Max(a, b)
}

// educationLadder orders the recognized education levels. Unknown strings
// rank at the bottom.
var educationLadder = map[string]int{
	"":            0,
	"none":        0,
	"high_school": 1,
	"associate":   2,
	"vocational":  2,
	"bachelor":    3,
	"master":      4,
	"doctorate":   5,
	"phd":         5,
}

// educationMatch scores 1 when the entity meets or exceeds the target's
// level, shedding 0.25 per missing rung below it.
func educationMatch(entity, target domain.Entity) float64 {
	have := educationLadder[normalizeToken(entity.Education)]
	want := educationLadder[normalizeToken(target.Education)]
	if have >= want {
		return 1
	}
	gap := float64(want - have)
	s := 1 - 0.25*gap
	if s < 0 {
		return 0
	}
	return s
}

// locationMatch scores exact locations 1, same trailing region (the part
// after the last comma, typically the country) 0.5, anything else 0.
// "remote" on either side always matches.
func locationMatch(entity, target domain.Entity) float64 {
	a := normalizeToken(entity.Location)
	b := normalizeToken(target.Location)
	if a == "remote" || b == "remote" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if region(a) == region(b) {
		return 0.5
	}
	return 0
}

func region(location string) string {
	if idx := strings.LastIndex(location, ","); idx >= 0 {
		return strings.TrimSpace(location[idx+1:])
	}
	return location
}

func normalizeSkills(skills []string) map[string]struct{} {
	out := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		if n := normalizeToken(s); n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
