package replan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"gorm.io/gorm"

	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/planner"
	"github.com/Leganyst/travel-core/internal/repository"
)

const (
	scoreInterestMatch = 10
	scoreGeneric       = 1
)

// ScoredCandidate — кандидат, прошедший проверку по реестру мест.
type ScoredCandidate struct {
	Type  model.ActivityType
	Place model.Place
	Score int
}

// validateAndScore отбрасывает кандидатов без места в реестре и сортирует остальных
// по убыванию оценки; равные сохраняют исходный порядок. Тип активности берётся
// из места в реестре, а не из ответа генератора; исключённые типы отбрасываются.
func validateAndScore(
	ctx context.Context,
	log *slog.Logger,
	places repository.PlaceRepository,
	candidates []planner.CandidateActivity,
	interests []string,
	exclude []model.ActivityType,
) ([]ScoredCandidate, error) {
	out := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.SuggestedPlaceID == nil {
			log.WarnContext(ctx, "candidate skipped: no place id", "place_name", c.PlaceName)
			continue
		}
		p, err := places.GetByID(ctx, *c.SuggestedPlaceID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.WarnContext(ctx, "candidate skipped: unknown place", "place_id", *c.SuggestedPlaceID, "place_name", c.PlaceName)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("validate candidate: %w", err)
		}

		typ := planner.ActivityTypeFor(*p)
		if slices.Contains(exclude, typ) {
			log.WarnContext(ctx, "candidate skipped: place type excluded",
				"place_id", p.ID, "place_name", p.Name, "claimed_type", c.Type, "type", typ)
			continue
		}

		score := scoreGeneric
		if slices.Contains(interests, p.Category) {
			score = scoreInterestMatch
		}
		out = append(out, ScoredCandidate{Type: typ, Place: *p, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}
