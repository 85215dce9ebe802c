package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	travelv1 "github.com/Leganyst/travel-core/internal/api/travel/v1"
	"github.com/Leganyst/travel-core/internal/budget"
	"github.com/Leganyst/travel-core/internal/planner"
	"github.com/Leganyst/travel-core/internal/replan"
)

type Replanner interface {
	ReplanForDisruption(ctx context.Context, itineraryID uuid.UUID, prefs planner.Preferences, d replan.Disruption) (*replan.Result, error)
}

// PreferenceSource — сохранённые предпочтения, когда вызывающий их не передал.
type PreferenceSource interface {
	ForUser(ctx context.Context, userID uuid.UUID) (planner.Preferences, error)
	ForItinerary(ctx context.Context, itineraryID uuid.UUID) (planner.Preferences, error)
}

// BudgetEvaluator — бюджетная рекомендация без создания бронирования.
type BudgetEvaluator interface {
	EvaluateBudget(ctx context.Context, itineraryID uuid.UUID, proposed float64) (budget.Advisory, budget.Advisory, error)
}

type ReplanService struct {
	travelv1.UnimplementedReplanServiceServer

	replanner Replanner
	prefs     PreferenceSource
	budget    BudgetEvaluator
	log       *slog.Logger
}

func NewReplanService(replanner Replanner, prefs PreferenceSource, budget BudgetEvaluator, log *slog.Logger) *ReplanService {
	return &ReplanService{replanner: replanner, prefs: prefs, budget: budget, log: log}
}

// ReplanForDisruption: NoChange и Rejected — обычные ответы, Error — статус с результатом в деталях.
func (s *ReplanService) ReplanForDisruption(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	itineraryID, err := requireUUID(req, "itinerary_id")
	if err != nil {
		return nil, err
	}
	d, err := disruptionFrom(req.GetFields()["disruption"].GetStructValue())
	if err != nil {
		return nil, err
	}
	prefs, err := s.preferences(ctx, itineraryID, req.GetFields()["preferences"].GetStructValue())
	if err != nil {
		return nil, err
	}

	res, err := s.replanner.ReplanForDisruption(ctx, itineraryID, prefs, d)
	if err != nil {
		s.log.ErrorContext(ctx, "replan failed", "itinerary_id", itineraryID, "error", err)
		return nil, statusError(err, presentReplanResult(res))
	}
	return newStruct(presentReplanResult(res))
}

func (s *ReplanService) EvaluateBudget(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	itineraryID, err := requireUUID(req, "itinerary_id")
	if err != nil {
		return nil, err
	}
	proposed, err := requireNumber(req, "proposed")
	if err != nil {
		return nil, err
	}
	total, daily, err := s.budget.EvaluateBudget(ctx, itineraryID, proposed)
	if err != nil {
		return nil, statusError(err, nil)
	}
	return newStruct(map[string]any{
		"advisory":       presentAdvisory(total),
		"daily_advisory": presentAdvisory(daily),
	})
}

func disruptionFrom(s *structpb.Struct) (replan.Disruption, error) {
	d := replan.Disruption{
		Type:   strings.TrimSpace(s.GetFields()["type"].GetStringValue()),
		Detail: strings.TrimSpace(s.GetFields()["detail"].GetStringValue()),
	}
	if d.Type == "" || d.Detail == "" {
		return replan.Disruption{}, status.Error(codes.InvalidArgument, "disruption.type and disruption.detail are required")
	}
	return d, nil
}

// preferences берёт интересы из запроса, а если их нет — сохранённые предпочтения
// указанного пользователя или владельца маршрута.
func (s *ReplanService) preferences(ctx context.Context, itineraryID uuid.UUID, in *structpb.Struct) (planner.Preferences, error) {
	userID, err := optionalUUID(in, "user_id")
	if err != nil {
		return planner.Preferences{}, err
	}

	fields := in.GetFields()
	if interests, ok := fields["interests"]; ok {
		return planner.Preferences{
			UserID:      userID,
			Interests:   stringList(interests),
			Constraints: fields["constraints"].GetStructValue().AsMap(),
			TravelPace:  fields["travel_pace"].GetStringValue(),
			TravelStyle: fields["travel_style"].GetStringValue(),
		}, nil
	}

	var prefs planner.Preferences
	if userID != uuid.Nil {
		prefs, err = s.prefs.ForUser(ctx, userID)
	} else {
		prefs, err = s.prefs.ForItinerary(ctx, itineraryID)
	}
	if err != nil {
		return planner.Preferences{}, statusError(err, nil)
	}
	return prefs, nil
}
