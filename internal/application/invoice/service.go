package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emartlabs/fulfillment/internal/domain/event"
	domain "github.com/emartlabs/fulfillment/internal/domain/invoice"
	"github.com/emartlabs/fulfillment/internal/observability"
	"github.com/emartlabs/fulfillment/internal/pkg/logging"
	"go.uber.org/zap"
)

const workflowName = "invoice"

var ErrRepository = errors.New("invoice: repository failure")

type IDGenerator interface {
	NewID() string
}

type CreateInvoiceInput struct {
	CustomerID string
	OrderID    string
	Items      []domain.LineItem
	DueDate    time.Time
}

type Service struct {
	invoices    domain.Repository
	idGenerator IDGenerator
	publisher   event.Publisher
	metrics     *observability.Metrics
	timeout     time.Duration
}

func NewService(
	invoices domain.Repository,
	idGen IDGenerator,
	publisher event.Publisher,
	metrics *observability.Metrics,
	timeout time.Duration,
) *Service {
	return &Service{
		invoices:    invoices,
		idGenerator: idGen,
		publisher:   publisher,
		metrics:     metrics,
		timeout:     timeout,
	}
}

func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (inv *domain.Invoice, err error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		s.metrics.ObserveWorkflow(workflowName, "create", outcomeOf(err), time.Since(start))
	}()

	if input.CustomerID == "" {
		return nil, errors.New("invoice: customer id is required")
	}

	entity, err := domain.New(s.idGenerator.NewID(), input.CustomerID, input.OrderID,
		input.Items, input.DueDate)
	if err != nil {
		return nil, err
	}
	if err := s.invoices.Insert(ctx, entity); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	logging.FromContext(ctx).Info("invoice_created",
		zap.String("invoice_id", entity.ID),
		zap.String("total_amount", entity.TotalAmount.String()),
	)
	return entity, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.invoices.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f domain.Filter) ([]*domain.Invoice, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.invoices.List(ctx, f)
}

// SendInvoice moves a DRAFT invoice to SENT. Sending an already-SENT invoice
// is rejected with ErrInvalidTransition.
func (s *Service) SendInvoice(ctx context.Context, id string) error {
	inv, err := s.transition(ctx, id, domain.StatusSent, "send")
	if err != nil {
		return err
	}
	s.publish(ctx, domain.NewInvoiceSentEvent(inv))
	return nil
}

// MarkInvoiceAsPaid moves a SENT or OVERDUE invoice to PAID.
func (s *Service) MarkInvoiceAsPaid(ctx context.Context, id string) error {
	_, err := s.transition(ctx, id, domain.StatusPaid, "mark_paid")
	return err
}

// CancelInvoice cancels any non-terminal invoice.
func (s *Service) CancelInvoice(ctx context.Context, id string) error {
	_, err := s.transition(ctx, id, domain.StatusCancelled, "cancel")
	return err
}

func (s *Service) transition(ctx context.Context, id string, next domain.Status, op string) (inv *domain.Invoice, err error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		s.metrics.ObserveWorkflow(workflowName, op, outcomeOf(err), time.Since(start))
	}()

	entity, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entity.TransitionTo(next); err != nil {
		return nil, err
	}
	if err := s.invoices.Update(ctx, entity); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	logging.FromContext(ctx).Info("invoice_status_updated",
		zap.String("invoice_id", id),
		zap.String("status", string(next)),
	)
	return entity, nil
}

func (s *Service) publish(ctx context.Context, e event.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed",
			zap.String("event", e.EventName()),
			zap.Error(err),
		)
	}
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
