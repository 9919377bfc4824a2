package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p, err := New("pay1", "c1", "o1", decimal.RequireFromString("120.00"), MethodCreditCard)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)

	t.Run("negative amount", func(t *testing.T) {
		_, err := New("pay1", "c1", "o1", decimal.RequireFromString("-1"), MethodCash)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := New("pay1", "c1", "o1", decimal.Zero, Method("BARTER"))
		assert.ErrorIs(t, err, ErrInvalidMethod)
	})

	t.Run("zero amount allowed", func(t *testing.T) {
		_, err := New("pay1", "c1", "o1", decimal.Zero, MethodCash)
		assert.NoError(t, err)
	})
}

func TestTransitionTable(t *testing.T) {
	t.Run("pending settles", func(t *testing.T) {
		p := &Payment{Status: StatusPending}
		require.NoError(t, p.TransitionTo(StatusCompleted))
		assert.Equal(t, StatusCompleted, p.Status)
	})

	t.Run("refund only from completed", func(t *testing.T) {
		p := &Payment{Status: StatusCompleted}
		require.NoError(t, p.TransitionTo(StatusRefunded))

		for _, from := range []Status{StatusPending, StatusFailed, StatusCancelled} {
			p := &Payment{Status: from}
			assert.ErrorIs(t, p.TransitionTo(StatusRefunded), ErrInvalidTransition)
			assert.Equal(t, from, p.Status)
		}
	})

	t.Run("terminal statuses stay put", func(t *testing.T) {
		for _, from := range []Status{StatusFailed, StatusRefunded, StatusCancelled} {
			p := &Payment{Status: from}
			assert.True(t, p.IsTerminal())
			assert.ErrorIs(t, p.TransitionTo(StatusCompleted), ErrInvalidTransition)
		}
	})
}
