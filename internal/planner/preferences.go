package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/repository"
)

// PreferenceStore читает и сохраняет предпочтения пользователей.
type PreferenceStore struct {
	itineraries repository.ItineraryRepository
	prefs       repository.PreferencesRepository
}

func NewPreferenceStore(itineraries repository.ItineraryRepository, prefs repository.PreferencesRepository) *PreferenceStore {
	return &PreferenceStore{itineraries: itineraries, prefs: prefs}
}

// ForUser возвращает сохранённые предпочтения. Если их нет — пустые предпочтения пользователя.
func (s *PreferenceStore) ForUser(ctx context.Context, userID uuid.UUID) (Preferences, error) {
	m, err := s.prefs.GetByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Preferences{UserID: userID}, nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	return FromModel(m)
}

// ForItinerary — предпочтения владельца маршрута.
func (s *PreferenceStore) ForItinerary(ctx context.Context, itineraryID uuid.UUID) (Preferences, error) {
	it, err := s.itineraries.GetByID(ctx, itineraryID)
	if err != nil {
		return Preferences{}, fmt.Errorf("load itinerary: %w", err)
	}
	return s.ForUser(ctx, it.UserID)
}

func (s *PreferenceStore) Save(ctx context.Context, p Preferences) error {
	m, err := p.ToModel()
	if err != nil {
		return err
	}
	return s.prefs.Upsert(ctx, m)
}

// FromModel разворачивает сохранённые предпочтения.
func FromModel(m *model.Preferences) (Preferences, error) {
	p := Preferences{UserID: m.UserID, TravelPace: m.TravelPace, TravelStyle: m.TravelStyle}
	if len(m.Interests) > 0 {
		if err := json.Unmarshal(m.Interests, &p.Interests); err != nil {
			return Preferences{}, fmt.Errorf("interests: %w", err)
		}
	}
	if len(m.Constraints) > 0 {
		if err := json.Unmarshal(m.Constraints, &p.Constraints); err != nil {
			return Preferences{}, fmt.Errorf("constraints: %w", err)
		}
	}
	return p, nil
}

// ToModel готовит предпочтения к сохранению.
func (p Preferences) ToModel() (*model.Preferences, error) {
	interests, err := json.Marshal(orEmpty(p.Interests))
	if err != nil {
		return nil, fmt.Errorf("interests: %w", err)
	}
	constraints := p.Constraints
	if constraints == nil {
		constraints = map[string]any{}
	}
	cons, err := json.Marshal(constraints)
	if err != nil {
		return nil, fmt.Errorf("constraints: %w", err)
	}

	m := &model.Preferences{
		UserID:      p.UserID,
		Interests:   datatypes.JSON(interests),
		Constraints: datatypes.JSON(cons),
		TravelPace:  p.TravelPace,
		TravelStyle: p.TravelStyle,
	}
	if m.TravelPace == "" {
		m.TravelPace = "normal"
	}
	if m.TravelStyle == "" {
		m.TravelStyle = "Comfort"
	}
	return m, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
