package httpgw

import (
	"context"
	"net/http"
	"time"

	"github.com/Leganyst/travel-core/internal/config"
	"github.com/Leganyst/travel-core/internal/gateway"
)

type Calendar struct {
	c client
}

func NewCalendar(cfg config.GatewayConfig, hc *http.Client) *Calendar {
	return &Calendar{c: newClient(cfg, hc)}
}

type eventRequest struct {
	BookingID string    `json:"booking_id"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type eventResponse struct {
	ID string `json:"id"`
}

func (c *Calendar) Create(ctx context.Context, req gateway.CalendarEventRequest) (gateway.CalendarResult, error) {
	var resp eventResponse
	if err := c.c.postJSON(ctx, "calendar.create", "/events", eventRequest{
		BookingID: req.BookingID.String(),
		Title:     req.Title,
		Start:     req.Start.UTC(),
		End:       req.End.UTC(),
	}, &resp); err != nil {
		return gateway.CalendarResult{}, err
	}
	return gateway.CalendarResult{OK: resp.ID != "", ExternalID: resp.ID}, nil
}
