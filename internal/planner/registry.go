package planner

import (
	"context"
	"fmt"

	"github.com/Leganyst/travel-core/internal/repository"
)

// RegistryGenerator предлагает места из реестра, подходящие под интересы.
type RegistryGenerator struct {
	places repository.PlaceRepository
}

func NewRegistryGenerator(places repository.PlaceRepository) *RegistryGenerator {
	return &RegistryGenerator{places: places}
}

func (g *RegistryGenerator) Generate(ctx context.Context, prefs Preferences, c Constraints) ([]CandidateActivity, error) {
	places, err := g.places.FindByInterests(ctx, prefs.Interests)
	if err != nil {
		return nil, fmt.Errorf("find places: %w", err)
	}

	out := make([]CandidateActivity, 0, len(places))
	for _, p := range places {
		id := p.ID
		out = append(out, CandidateActivity{
			Type:             ActivityTypeFor(p),
			PlaceName:        p.Name,
			SuggestedPlaceID: &id,
		})
	}
	return applyConstraints(out, c), nil
}
