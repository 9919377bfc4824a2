package stats

import (
	"testing"

	dominvoice "github.com/emartlabs/fulfillment/internal/domain/invoice"
	domorder "github.com/emartlabs/fulfillment/internal/domain/order"
	dompayment "github.com/emartlabs/fulfillment/internal/domain/payment"
	domuser "github.com/emartlabs/fulfillment/internal/domain/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAggregateOrders(t *testing.T) {
	t.Run("empty input yields zero values", func(t *testing.T) {
		s := AggregateOrders(nil)
		assert.Equal(t, 0, s.Total)
		assert.True(t, s.TotalAmount.IsZero())
		assert.Equal(t, 0, s.Pending)
	})

	t.Run("counts by status and sums amounts", func(t *testing.T) {
		orders := []*domorder.Order{
			{Status: domorder.StatusPending, TotalAmount: decimal.RequireFromString("10.50")},
			{Status: domorder.StatusPending, TotalAmount: decimal.RequireFromString("20.00")},
			{Status: domorder.StatusDelivered, TotalAmount: decimal.RequireFromString("99.99")},
			{Status: domorder.StatusCancelled, TotalAmount: decimal.RequireFromString("5.01")},
		}
		s := AggregateOrders(orders)

		assert.Equal(t, 4, s.Total)
		assert.True(t, s.TotalAmount.Equal(decimal.RequireFromString("135.50")),
			"got %s", s.TotalAmount)
		assert.Equal(t, 2, s.Pending)
		assert.Equal(t, 1, s.Delivered)
		assert.Equal(t, 1, s.Cancelled)
		assert.Equal(t, 0, s.Shipped)
	})
}

func TestAggregatePayments(t *testing.T) {
	payments := []*dompayment.Payment{
		{Status: dompayment.StatusCompleted, Amount: decimal.RequireFromString("100")},
		{Status: dompayment.StatusFailed, Amount: decimal.RequireFromString("50")},
		{Status: dompayment.StatusRefunded, Amount: decimal.RequireFromString("25")},
	}
	s := AggregatePayments(payments)

	assert.Equal(t, 3, s.Total)
	assert.True(t, s.TotalAmount.Equal(decimal.RequireFromString("175")))
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Refunded)
	assert.Equal(t, 0, s.Pending)
}

func TestAggregateInvoices(t *testing.T) {
	invoices := []*dominvoice.Invoice{
		{Status: dominvoice.StatusDraft, TotalAmount: decimal.RequireFromString("10")},
		{Status: dominvoice.StatusSent, TotalAmount: decimal.RequireFromString("20")},
		{Status: dominvoice.StatusSent, TotalAmount: decimal.RequireFromString("30")},
		{Status: dominvoice.StatusOverdue, TotalAmount: decimal.RequireFromString("40")},
	}
	s := AggregateInvoices(invoices)

	assert.Equal(t, 4, s.Total)
	assert.True(t, s.TotalAmount.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, 1, s.Draft)
	assert.Equal(t, 2, s.Sent)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 0, s.Paid)
}

func TestAggregateUsers(t *testing.T) {
	users := []*domuser.User{
		{Role: domuser.RoleAdmin},
		{Role: domuser.RoleCustomer},
		{Role: domuser.RoleCustomer},
		{Role: domuser.RoleSupplier},
	}
	s := AggregateUsers(users)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Admins)
	assert.Equal(t, 1, s.Suppliers)
	assert.Equal(t, 2, s.Customers)
}
