package httpgw

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Leganyst/travel-core/internal/config"
	"github.com/Leganyst/travel-core/internal/gateway"
)

type Payment struct {
	c client
}

func NewPayment(cfg config.GatewayConfig, hc *http.Client) *Payment {
	return &Payment{c: newClient(cfg, hc)}
}

type chargeRequest struct {
	BookingID      string  `json:"booking_id"`
	IdempotencyKey string  `json:"idempotency_key"`
	Amount         float64 `json:"amount"`
}

type chargeResponse struct {
	OK            bool   `json:"ok"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

// Charge: 402 или ok=false от шлюза трактуются как отказ в оплате (gateway.ErrDeclined), а не как сбой.
func (p *Payment) Charge(ctx context.Context, req gateway.ChargeRequest) (gateway.PaymentResult, error) {
	var resp chargeResponse
	err := p.c.postJSON(ctx, "payment.charge", "/charges", chargeRequest{
		BookingID:      req.BookingID.String(),
		IdempotencyKey: req.IdempotencyKey,
		Amount:         req.Amount,
	}, &resp)

	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusPaymentRequired {
		return gateway.PaymentResult{}, fmt.Errorf("%w: %s", gateway.ErrDeclined, se.Body)
	}
	if err != nil {
		return gateway.PaymentResult{}, err
	}
	if !resp.OK {
		return gateway.PaymentResult{}, fmt.Errorf("%w: %s", gateway.ErrDeclined, resp.Reason)
	}
	return gateway.PaymentResult{TransactionID: resp.TransactionID}, nil
}
