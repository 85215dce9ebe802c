package sim

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/travel-core/internal/gateway"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestProvider_SameKeySameOutcome(t *testing.T) {
	p := NewProvider(discard(), 42)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		key := uuid.NewString()
		first, err := p.Confirm(ctx, "ref", key)
		require.NoError(t, err)
		again, err := p.Confirm(ctx, "ref", key)
		require.NoError(t, err)
		assert.Equal(t, first, again)

		switch out := first.(type) {
		case gateway.Confirmed:
			assert.NotEmpty(t, out.Code)
		case gateway.PendingConfirmation:
		default:
			t.Fatalf("unexpected outcome %T", first)
		}
	}
}

func TestPayment_Limit(t *testing.T) {
	p := NewPayment(discard(), 500)
	ctx := context.Background()

	res, err := p.Charge(ctx, gateway.ChargeRequest{Amount: 100})
	require.NoError(t, err)
	assert.NotEmpty(t, res.TransactionID)

	_, err = p.Charge(ctx, gateway.ChargeRequest{Amount: 900})
	require.ErrorIs(t, err, gateway.ErrDeclined)
}
