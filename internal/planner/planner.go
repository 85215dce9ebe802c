// Package planner генерирует кандидатов-активности для маршрута.
package planner

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/Leganyst/travel-core/internal/model"
)

// MaxCandidates — сколько кандидатов генератор возвращает за один вызов.
const MaxCandidates = 7

// Preferences — предпочтения путешественника.
type Preferences struct {
	UserID      uuid.UUID
	Interests   []string
	Constraints map[string]any
	TravelPace  string
	TravelStyle string
}

// Constraints — ограничения, которые вызывающий добавляет к предпочтениям (например, при сбое).
type Constraints struct {
	ExcludeTypes []model.ActivityType
	PreferTypes  []model.ActivityType
}

func (c Constraints) excludes(t model.ActivityType) bool { return slices.Contains(c.ExcludeTypes, t) }
func (c Constraints) prefers(t model.ActivityType) bool  { return slices.Contains(c.PreferTypes, t) }

// CandidateActivity — предложение генератора. Место ещё не проверено по реестру.
type CandidateActivity struct {
	Type             model.ActivityType
	PlaceName        string
	SuggestedPlaceID *uuid.UUID
}

// Generator возвращает конечный упорядоченный список кандидатов.
type Generator interface {
	Generate(ctx context.Context, prefs Preferences, c Constraints) ([]CandidateActivity, error)
}

// mealCategories — категории мест, посещение которых планируется как приём пищи.
var mealCategories = []string{"restaurant", "seafood", "cafe", "food"}

// ActivityTypeFor выводит тип активности из места.
func ActivityTypeFor(p model.Place) model.ActivityType {
	switch {
	case slices.Contains(mealCategories, p.Category):
		return model.ActivityTypeMeal
	case p.Indoor:
		return model.ActivityTypeIndoor
	default:
		return model.ActivityTypeVisitPOI
	}
}

// applyConstraints убирает исключённые типы и поднимает предпочтительные вперёд, сохраняя порядок.
func applyConstraints(in []CandidateActivity, c Constraints) []CandidateActivity {
	out := make([]CandidateActivity, 0, len(in))
	for _, cand := range in {
		if !c.excludes(cand.Type) {
			out = append(out, cand)
		}
	}
	if len(c.PreferTypes) > 0 {
		slices.SortStableFunc(out, func(a, b CandidateActivity) int {
			pa, pb := c.prefers(a.Type), c.prefers(b.Type)
			switch {
			case pa && !pb:
				return -1
			case pb && !pa:
				return 1
			default:
				return 0
			}
		})
	}
	if len(out) > MaxCandidates {
		out = out[:MaxCandidates]
	}
	return out
}
