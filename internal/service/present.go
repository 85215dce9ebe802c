package service

import (
	"github.com/google/uuid"

	"github.com/Leganyst/travel-core/internal/booking"
	"github.com/Leganyst/travel-core/internal/budget"
	"github.com/Leganyst/travel-core/internal/calendar"
	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/replan"
)

func presentBookingResult(res *booking.Result) map[string]any {
	if res == nil {
		return nil
	}
	out := map[string]any{
		"outcome":           string(res.Outcome),
		"booking_id":        res.BookingID.String(),
		"confirmation_code": res.ConfirmationCode,
		"message":           res.Message,
	}
	if res.Advisory != nil {
		out["advisory"] = presentAdvisory(*res.Advisory)
	}
	if res.DailyAdvisory != nil {
		out["daily_advisory"] = presentAdvisory(*res.DailyAdvisory)
	}
	if res.CalendarEvent != nil {
		out["calendar_event"] = presentCalendarEvent(*res.CalendarEvent)
	}
	return out
}

func presentCancelResult(res *booking.CancelResult) map[string]any {
	if res == nil {
		return nil
	}
	return map[string]any{
		"status":     string(res.Status),
		"booking_id": res.BookingID.String(),
		"changed":    res.Changed,
		"message":    res.Message,
	}
}

func presentAdvisory(a budget.Advisory) map[string]any {
	return map[string]any{
		"level":     string(a.Level),
		"projected": a.Projected,
		"percent":   a.Percent,
		"message":   a.Message,
	}
}

func presentBooking(b model.Booking) map[string]any {
	return map[string]any{
		"id":                b.ID.String(),
		"activity_id":       b.ActivityID.String(),
		"provider_id":       b.ProviderID.String(),
		"status":            b.Status.String(),
		"price":             b.Price,
		"confirmation_code": optString(b.ConfirmationCode),
		"version":           b.Version,
		"cancelled_at":      optTime(b.CancelledAt),
		"created_at":        timeString(b.CreatedAt),
		"updated_at":        timeString(b.UpdatedAt),
	}
}

func presentCalendarEvent(e model.CalendarEvent) map[string]any {
	return map[string]any{
		"id":          e.ID.String(),
		"booking_id":  e.BookingID.String(),
		"title":       e.Title,
		"start_time":  timeString(e.StartTime),
		"end_time":    timeString(e.EndTime),
		"sync_status": string(e.SyncStatus),
		"external_id": optString(e.ExternalID),
		"last_synced": optTime(e.LastSynced),
	}
}

func presentDetails(d *booking.Details) map[string]any {
	events := make([]any, 0, len(d.CalendarEvents))
	for _, e := range d.CalendarEvents {
		events = append(events, presentCalendarEvent(e))
	}
	return map[string]any{
		"booking":         presentBooking(d.Booking),
		"calendar_events": events,
	}
}

func presentBookingPage(p calendar.Page[model.Booking]) map[string]any {
	items := make([]any, 0, len(p.Items))
	for _, b := range p.Items {
		items = append(items, presentBooking(b))
	}
	return map[string]any{
		"bookings":  items,
		"page":      p.Page,
		"page_size": p.PageSize,
		"total":     p.Total,
		"pages":     p.Pages,
		"has_next":  p.HasNext,
		"has_prev":  p.HasPrev,
	}
}

func presentActivities(acts []replan.ActivitySummary) []any {
	out := make([]any, 0, len(acts))
	for _, a := range acts {
		m := map[string]any{
			"type":       string(a.Type),
			"name":       a.Name,
			"place_id":   optUUID(a.PlaceID),
			"start_time": timeString(a.StartTime),
			"end_time":   timeString(a.EndTime),
			"score":      a.Score,
			"booking_id": optUUID(a.BookingID),
		}
		if a.ID != uuid.Nil {
			m["id"] = a.ID.String()
		}
		if a.BookingStatus != "" {
			m["booking_status"] = a.BookingStatus
		}
		out = append(out, m)
	}
	return out
}

func presentReplanResult(res *replan.Result) map[string]any {
	if res == nil {
		return nil
	}
	alts := make([]any, 0, len(res.Alternatives))
	for _, c := range res.Alternatives {
		alts = append(alts, map[string]any{
			"type":       string(c.Type),
			"place_id":   c.Place.ID.String(),
			"place_name": c.Place.Name,
			"category":   c.Place.Category,
			"score":      c.Score,
		})
	}
	return map[string]any{
		"status":             string(res.Status),
		"itinerary":          presentActivities(res.Itinerary),
		"new_plan":           presentActivities(res.NewPlan),
		"affected":           uuidList(res.Affected),
		"cancelled_bookings": uuidList(res.CancelledBookings),
		"alternatives":       alts,
		"message":            res.Message,
	}
}
