package stats

import (
	"context"
	"time"

	dominvoice "github.com/emartlabs/fulfillment/internal/domain/invoice"
	domorder "github.com/emartlabs/fulfillment/internal/domain/order"
	dompayment "github.com/emartlabs/fulfillment/internal/domain/payment"
	domuser "github.com/emartlabs/fulfillment/internal/domain/user"
)

// Service fetches record snapshots and hands them to the pure aggregators.
type Service struct {
	orders   domorder.Repository
	payments dompayment.Repository
	invoices dominvoice.Repository
	users    domuser.Repository
	timeout  time.Duration
}

func NewService(
	orders domorder.Repository,
	payments dompayment.Repository,
	invoices dominvoice.Repository,
	users domuser.Repository,
	timeout time.Duration,
) *Service {
	return &Service{
		orders:   orders,
		payments: payments,
		invoices: invoices,
		users:    users,
		timeout:  timeout,
	}
}

// OrderStatistics aggregates all orders, or one customer's when customerID
// is non-empty.
func (s *Service) OrderStatistics(ctx context.Context, customerID string) (OrderStatistics, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	orders, err := s.orders.List(ctx, domorder.Filter{CustomerID: customerID})
	if err != nil {
		return OrderStatistics{}, err
	}
	return AggregateOrders(orders), nil
}

func (s *Service) PaymentStatistics(ctx context.Context, customerID string) (PaymentStatistics, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	payments, err := s.payments.List(ctx, dompayment.Filter{CustomerID: customerID})
	if err != nil {
		return PaymentStatistics{}, err
	}
	return AggregatePayments(payments), nil
}

func (s *Service) InvoiceStatistics(ctx context.Context, customerID string) (InvoiceStatistics, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	invoices, err := s.invoices.List(ctx, dominvoice.Filter{CustomerID: customerID})
	if err != nil {
		return InvoiceStatistics{}, err
	}
	return AggregateInvoices(invoices), nil
}

func (s *Service) UserStatistics(ctx context.Context) (UserStatistics, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	users, err := s.users.ListAll(ctx)
	if err != nil {
		return UserStatistics{}, err
	}
	return AggregateUsers(users), nil
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
