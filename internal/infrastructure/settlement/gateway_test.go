package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleApprovesAtFullSuccessRate(t *testing.T) {
	g := NewGateway(1.0, time.Millisecond)

	approved, err := g.Settle(context.Background(), "pay-1", "10.00")
	require.NoError(t, err)
	assert.True(t, approved)
}

func TestSettleHonorsDeadline(t *testing.T) {
	g := NewGateway(1.0, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := g.Settle(ctx, "pay-1", "10.00")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSettleHonorsCancellation(t *testing.T) {
	g := NewGateway(1.0, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Settle(ctx, "pay-1", "10.00")
	assert.ErrorIs(t, err, context.Canceled)
}
