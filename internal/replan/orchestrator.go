// Package replan перестраивает маршрут при сбое: отменяет бронирования затронутых
// активностей и заменяет их кандидатами планировщика.
package replan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Leganyst/travel-core/internal/booking"
	"github.com/Leganyst/travel-core/internal/calendar"
	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/observe"
	"github.com/Leganyst/travel-core/internal/planner"
	"github.com/Leganyst/travel-core/internal/repository"
)

var ErrItineraryNotFound = errors.New("itinerary not found")

// errLateBookings — на заменяемые активности появились бронирования после загрузки маршрута.
var errLateBookings = errors.New("bookings created on replaced activities")

const applyAttempts = 3

type Status string

const (
	StatusNoChange  Status = "NoChange"
	StatusReplanned Status = "Replanned"
	StatusRejected  Status = "Rejected"
	StatusError     Status = "Error"
)

// ActivitySummary — активность маршрута в ответе вызывающему.
type ActivitySummary struct {
	ID            uuid.UUID
	Type          model.ActivityType
	Name          string
	PlaceID       *uuid.UUID
	StartTime     time.Time
	EndTime       time.Time
	Score         int
	BookingID     *uuid.UUID
	BookingStatus string
}

type Result struct {
	Status Status
	// Маршрут до перепланирования (NoChange, Rejected, Error).
	Itinerary []ActivitySummary
	// Маршрут после применения (Replanned).
	NewPlan []ActivitySummary
	// Затронутые сбоем активности.
	Affected []uuid.UUID
	// Отменённые бронирования. При Error остаются отменёнными и требуют ручного разбора.
	CancelledBookings []uuid.UUID
	// Проверенные кандидаты, которым не хватило слотов.
	Alternatives []ScoredCandidate
	Message      string
}

// Canceller — отмена бронирований. Маршрут меняет бронирования только через неё.
type Canceller interface {
	CancelBooking(ctx context.Context, bookingID uuid.UUID) (*booking.CancelResult, error)
}

type Orchestrator struct {
	store     *repository.Store
	canceller Canceller
	generator planner.Generator
	policy    *Policy
	gate      Gate
	locks     *keyedMutex
	timeout   time.Duration
	log       *slog.Logger
}

type Option func(*Orchestrator)

func WithPolicy(p *Policy) Option { return func(o *Orchestrator) { o.policy = p } }
func WithGate(g Gate) Option      { return func(o *Orchestrator) { o.gate = g } }

// WithGeneratorTimeout ограничивает один вызов генератора кандидатов.
func WithGeneratorTimeout(d time.Duration) Option { return func(o *Orchestrator) { o.timeout = d } }

func NewOrchestrator(
	store *repository.Store,
	canceller Canceller,
	generator planner.Generator,
	log *slog.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		canceller: canceller,
		generator: generator,
		policy:    DefaultPolicy(),
		gate:      AutoAccept,
		locks:     newKeyedMutex(),
		timeout:   30 * time.Second,
		log:       log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ReplanForDisruption заменяет затронутые сбоем активности маршрута.
// Бизнес-исходы (NoChange, Rejected) возвращаются без ошибки. При Error ошибка
// возвращается вместе с Result, где перечислены уже отменённые бронирования.
func (o *Orchestrator) ReplanForDisruption(
	ctx context.Context,
	itineraryID uuid.UUID,
	prefs planner.Preferences,
	d Disruption,
) (*Result, error) {
	ctx, span := observe.Tracer().Start(ctx, "replan.ReplanForDisruption", trace.WithAttributes(
		attribute.String("itinerary_id", itineraryID.String()),
		attribute.String("disruption", d.Type+"/"+d.Detail),
	))
	defer span.End()
	log := o.log.With("itinerary_id", itineraryID, "disruption_type", d.Type, "disruption_detail", d.Detail)

	unlock := o.locks.Lock(itineraryID)
	defer unlock()

	// 1. Текущие активности с живыми бронированиями.
	current, err := o.load(ctx, itineraryID)
	if err != nil {
		return &Result{Status: StatusError, Message: publicMessage(err)}, err
	}
	currentSummary := summarize(current)

	// 2-3. Анализ влияния.
	affectedIDs := o.policy.ImpactAnalysis(current, d)
	if len(affectedIDs) == 0 {
		log.InfoContext(ctx, "no replanning needed")
		return &Result{Status: StatusNoChange, Itinerary: currentSummary}, nil
	}
	affected, kept := split(current, affectedIDs)
	log.InfoContext(ctx, "activities affected by disruption", "count", len(affected))

	// 4. Кандидаты с ограничениями, выведенными из правила.
	rule, _ := o.policy.Rule(d)
	candidates, err := o.generate(ctx, prefs, planner.Constraints{
		ExcludeTypes: rule.Affects,
		PreferTypes:  rule.Prefer,
	})
	if err != nil {
		log.ErrorContext(ctx, "candidate generation failed", "error", err)
		return &Result{Status: StatusError, Itinerary: currentSummary, Affected: affectedIDs, Message: "candidate generation failed"}, err
	}

	// 5. Проверка по реестру и оценка.
	scored, err := validateAndScore(ctx, log, o.store.Places, candidates, prefs.Interests, rule.Affects)
	if err != nil {
		return &Result{Status: StatusError, Itinerary: currentSummary, Affected: affectedIDs, Message: "candidate validation failed"}, err
	}
	replacements, alternatives := o.fill(ctx, log, affected, kept, scored)

	// 6. Решение о принятии плана до любых изменений.
	accepted, err := o.gate.Accept(ctx, Proposal{
		Disruption:   d,
		Affected:     summarize(affected),
		Replacements: summarizeNew(replacements),
		Alternatives: alternatives,
	})
	if err != nil {
		return &Result{Status: StatusError, Itinerary: currentSummary, Affected: affectedIDs, Message: "acceptance check failed"},
			fmt.Errorf("acceptance gate: %w", err)
	}
	if !accepted {
		log.InfoContext(ctx, "replan rejected by gate")
		return &Result{Status: StatusRejected, Itinerary: currentSummary, Affected: affectedIDs}, nil
	}

	// 7. Отмена бронирований затронутых активностей до удаления самих активностей.
	cancelled, err := o.cancelBookings(ctx, log, affected)
	if err != nil {
		return &Result{
			Status:            StatusError,
			Itinerary:         o.reloadOr(ctx, itineraryID, currentSummary),
			Affected:          affectedIDs,
			CancelledBookings: cancelled,
			Message:           "booking cancellation failed",
		}, err
	}

	// 8. Замена активностей одной транзакцией. Отмены из шага 7 при сбое не откатываются.
	cancelled, err = o.apply(ctx, log, itineraryID, d, affectedIDs, replacements, cancelled)
	if err != nil {
		log.ErrorContext(ctx, "apply new plan failed, bookings stay cancelled",
			"error", err, "cancelled_bookings", cancelled)
		return &Result{
			Status:            StatusError,
			Itinerary:         o.reloadOr(ctx, itineraryID, currentSummary),
			Affected:          affectedIDs,
			CancelledBookings: cancelled,
			Message:           "applying new plan failed; cancelled bookings need follow-up",
		}, fmt.Errorf("apply new plan: %w", err)
	}

	log.InfoContext(ctx, "itinerary replanned",
		"replaced", len(affectedIDs), "inserted", len(replacements), "cancelled_bookings", len(cancelled))

	return &Result{
		Status:            StatusReplanned,
		NewPlan:           o.reloadOr(ctx, itineraryID, nil),
		Affected:          affectedIDs,
		CancelledBookings: cancelled,
		Alternatives:      alternatives,
	}, nil
}

func (o *Orchestrator) load(ctx context.Context, itineraryID uuid.UUID) ([]repository.ActivityView, error) {
	if _, err := o.store.Itineraries.GetByID(ctx, itineraryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItineraryNotFound
		}
		return nil, fmt.Errorf("load itinerary: %w", err)
	}
	current, err := o.store.Activities.ListWithBookings(ctx, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	return current, nil
}

func (o *Orchestrator) reloadOr(ctx context.Context, itineraryID uuid.UUID, fallback []ActivitySummary) []ActivitySummary {
	views, err := o.store.Activities.ListWithBookings(ctx, itineraryID)
	if err != nil {
		o.log.WarnContext(ctx, "reload itinerary", "itinerary_id", itineraryID, "error", err)
		return fallback
	}
	return summarize(views)
}

func (o *Orchestrator) generate(ctx context.Context, prefs planner.Preferences, c planner.Constraints) ([]planner.CandidateActivity, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	ctx, span := observe.Tracer().Start(ctx, "planner.Generate")
	defer span.End()

	return o.generator.Generate(ctx, prefs, c)
}

// fill раскладывает кандидатов по освободившимся слотам в порядке оценки.
// Лишние кандидаты возвращаются как альтернативы, слоты без кандидата остаются пустыми.
func (o *Orchestrator) fill(
	ctx context.Context,
	log *slog.Logger,
	affected, kept []repository.ActivityView,
	scored []ScoredCandidate,
) ([]model.Activity, []ScoredCandidate) {
	keptRanges := make([]calendar.TimeRange, 0, len(kept))
	for _, k := range kept {
		keptRanges = append(keptRanges, calendar.TimeRange{Start: k.StartTime, End: k.EndTime})
	}

	n := min(len(affected), len(scored))
	out := make([]model.Activity, 0, n)
	for i := 0; i < n; i++ {
		slot, cand := affected[i], scored[i]
		placeID := cand.Place.ID

		if overlap, _ := calendar.HasOverlap(calendar.TimeRange{Start: slot.StartTime, End: slot.EndTime}, keptRanges, false); overlap {
			log.WarnContext(ctx, "replacement overlaps a kept activity", "slot_start", slot.StartTime, "place", cand.Place.Name)
		}
		out = append(out, model.Activity{
			DayID:     slot.DayID,
			Type:      cand.Type,
			PlaceID:   &placeID,
			Name:      cand.Place.Name,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Score:     cand.Score,
		})
	}
	return out, scored[n:]
}

// cancelBookings отменяет живые бронирования затронутых активностей.
// Первая неудачная отмена останавливает перепланирование.
func (o *Orchestrator) cancelBookings(ctx context.Context, log *slog.Logger, affected []repository.ActivityView) ([]uuid.UUID, error) {
	var cancelled []uuid.UUID
	for _, a := range affected {
		if a.BookingID == nil || a.BookingStatus == nil || !a.BookingStatus.IsLive() {
			continue
		}
		if err := o.cancel(ctx, log, *a.BookingID, a.ActivityID); err != nil {
			return cancelled, err
		}
		cancelled = append(cancelled, *a.BookingID)
	}
	return cancelled, nil
}

func (o *Orchestrator) cancel(ctx context.Context, log *slog.Logger, bookingID, activityID uuid.UUID) error {
	res, err := o.canceller.CancelBooking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}
	if res.Status != booking.CancelSuccess {
		return fmt.Errorf("cancel booking %s: %s", bookingID, res.Status)
	}
	log.InfoContext(ctx, "booking cancelled for replan", "booking_id", bookingID, "activity_id", activityID)
	return nil
}

// apply удаляет затронутые активности и вставляет замены. Строки активностей блокируются,
// и живые бронирования на них перепроверяются внутри транзакции: бронирование, созданное
// после загрузки маршрута, отменяется, и попытка повторяется.
// Возвращает полный список отменённых бронирований, включая поздние.
func (o *Orchestrator) apply(
	ctx context.Context,
	log *slog.Logger,
	itineraryID uuid.UUID,
	d Disruption,
	removed []uuid.UUID,
	inserted []model.Activity,
	cancelled []uuid.UUID,
) ([]uuid.UUID, error) {
	for attempt := 1; ; attempt++ {
		var late []model.Booking
		err := o.store.Transaction(ctx, func(tx *repository.Store) error {
			if _, err := tx.Activities.LockByIDs(ctx, removed); err != nil {
				return fmt.Errorf("lock activities: %w", err)
			}
			var err error
			late, err = tx.Bookings.ListLiveByActivities(ctx, removed)
			if err != nil {
				return fmt.Errorf("recheck bookings: %w", err)
			}
			if len(late) > 0 {
				return errLateBookings
			}

			if err := tx.Activities.DeleteByIDs(ctx, removed); err != nil {
				return fmt.Errorf("delete activities: %w", err)
			}
			if err := tx.Activities.CreateBatch(ctx, inserted); err != nil {
				return fmt.Errorf("insert activities: %w", err)
			}
			return tx.Events.Append(ctx, &model.Event{
				EventType:   model.EventTypeItineraryReplanned,
				ItineraryID: &itineraryID,
				Details: fmt.Sprintf("disruption=%s/%s removed=%d inserted=%d cancelled=%s",
					d.Type, d.Detail, len(removed), len(inserted), joinIDs(cancelled)),
			})
		})
		if !errors.Is(err, errLateBookings) {
			return cancelled, err
		}
		if attempt == applyAttempts {
			return cancelled, fmt.Errorf("%w: %d attempts", errLateBookings, attempt)
		}

		log.WarnContext(ctx, "bookings appeared on replaced activities", "count", len(late), "attempt", attempt)
		for _, b := range late {
			if err := o.cancel(ctx, log, b.ID, b.ActivityID); err != nil {
				return cancelled, err
			}
			cancelled = append(cancelled, b.ID)
		}
	}
}

func split(all []repository.ActivityView, ids []uuid.UUID) (affected, kept []repository.ActivityView) {
	for _, a := range all {
		if slices.Contains(ids, a.ActivityID) {
			affected = append(affected, a)
		} else {
			kept = append(kept, a)
		}
	}
	return affected, kept
}

func summarize(views []repository.ActivityView) []ActivitySummary {
	out := make([]ActivitySummary, 0, len(views))
	for _, v := range views {
		s := ActivitySummary{
			ID:        v.ActivityID,
			Type:      v.Type,
			Name:      v.Title(),
			PlaceID:   v.PlaceID,
			StartTime: v.StartTime,
			EndTime:   v.EndTime,
			Score:     v.Score,
			BookingID: v.BookingID,
		}
		if v.BookingStatus != nil {
			s.BookingStatus = v.BookingStatus.String()
		}
		out = append(out, s)
	}
	return out
}

func summarizeNew(acts []model.Activity) []ActivitySummary {
	out := make([]ActivitySummary, 0, len(acts))
	for _, a := range acts {
		out = append(out, ActivitySummary{
			Type:      a.Type,
			Name:      a.Name,
			PlaceID:   a.PlaceID,
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
			Score:     a.Score,
		})
	}
	return out
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

func publicMessage(err error) string {
	if errors.Is(err, ErrItineraryNotFound) {
		return ErrItineraryNotFound.Error()
	}
	return "internal error"
}
