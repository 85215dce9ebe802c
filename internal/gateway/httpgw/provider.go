package httpgw

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Leganyst/travel-core/internal/config"
	"github.com/Leganyst/travel-core/internal/gateway"
)

type Provider struct {
	c client
}

func NewProvider(cfg config.GatewayConfig, hc *http.Client) *Provider {
	return &Provider{c: newClient(cfg, hc)}
}

type confirmRequest struct {
	Provider       string `json:"provider"`
	IdempotencyKey string `json:"idempotency_key"`
}

type confirmResponse struct {
	Status           string `json:"status"`
	ConfirmationCode string `json:"confirmation_code"`
	Reason           string `json:"reason"`
}

func (p *Provider) Confirm(ctx context.Context, providerRef, key string) (gateway.ProviderOutcome, error) {
	var resp confirmResponse
	if err := p.c.postJSON(ctx, "provider.confirm", "/confirmations", confirmRequest{
		Provider:       providerRef,
		IdempotencyKey: key,
	}, &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case "Confirmed":
		return gateway.Confirmed{Code: resp.ConfirmationCode}, nil
	case "PendingConfirmation", "Pending":
		return gateway.PendingConfirmation{}, nil
	case "Rejected":
		return gateway.Rejected{Reason: resp.Reason}, nil
	default:
		return nil, fmt.Errorf("provider: unknown status %q", resp.Status)
	}
}
