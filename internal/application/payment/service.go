package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emartlabs/fulfillment/internal/domain/event"
	domorder "github.com/emartlabs/fulfillment/internal/domain/order"
	domain "github.com/emartlabs/fulfillment/internal/domain/payment"
	"github.com/emartlabs/fulfillment/internal/observability"
	"github.com/emartlabs/fulfillment/internal/pkg/logging"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const workflowName = "payment"

var ErrRepository = errors.New("payment: repository failure")

type CreatePaymentInput struct {
	CustomerID string
	OrderID    string
	Amount     decimal.Decimal
	Method     domain.Method
}

type Service struct {
	payments          domain.Repository
	settler           Settler
	orders            OrderPaymentSetter
	idGenerator       IDGenerator
	publisher         event.Publisher
	metrics           *observability.Metrics
	storeTimeout      time.Duration
	settlementTimeout time.Duration
}

func NewService(
	payments domain.Repository,
	settler Settler,
	orders OrderPaymentSetter,
	idGen IDGenerator,
	publisher event.Publisher,
	metrics *observability.Metrics,
	storeTimeout, settlementTimeout time.Duration,
) *Service {
	return &Service{
		payments:          payments,
		settler:           settler,
		orders:            orders,
		idGenerator:       idGen,
		publisher:         publisher,
		metrics:           metrics,
		storeTimeout:      storeTimeout,
		settlementTimeout: settlementTimeout,
	}
}

func (s *Service) CreatePayment(ctx context.Context, input CreatePaymentInput) (p *domain.Payment, err error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		s.metrics.ObserveWorkflow(workflowName, "create", outcomeOf(err), time.Since(start))
	}()

	if input.CustomerID == "" {
		return nil, errors.New("payment: customer id is required")
	}

	entity, err := domain.New(s.idGenerator.NewID(), input.CustomerID, input.OrderID,
		input.Amount, input.Method)
	if err != nil {
		return nil, err
	}
	if err := s.payments.Insert(ctx, entity); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	logging.FromContext(ctx).Info("payment_created",
		zap.String("payment_id", entity.ID),
		zap.String("order_id", entity.OrderID),
		zap.String("amount", entity.Amount.String()),
	)
	return entity, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Payment, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.payments.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f domain.Filter) ([]*domain.Payment, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.payments.List(ctx, f)
}

// ProcessPayment runs the settlement call under a bounded timeout and moves
// the payment to COMPLETED or FAILED. On completion of an order-linked
// payment the order's denormalized payment status is set to PAID; that write
// is best-effort and never rolls the settled payment back. There is no
// automatic retry; the caller decides whether to re-invoke after a failure.
func (s *Service) ProcessPayment(ctx context.Context, id string) (p *domain.Payment, err error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "payment_service"))

	ctx, span := otel.Tracer(workflowName).Start(ctx, "PaymentWorkflow.ProcessPayment",
		trace.WithAttributes(attribute.String("payment.id", id)))
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.ObserveWorkflow(workflowName, "process", outcome, time.Since(start))
	}()

	entity, err := s.getBounded(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: %s -> %s",
			domain.ErrInvalidTransition, entity.Status, domain.StatusCompleted)
	}

	settleCtx, cancel := context.WithTimeout(ctx, s.settlementTimeout)
	approved, serr := s.settler.Settle(settleCtx, entity.ID, entity.Amount.String())
	cancel()
	if serr != nil {
		logger.Error("settlement_unreachable",
			zap.String("payment_id", entity.ID),
			zap.Error(serr),
		)
		return nil, fmt.Errorf("payment: settlement: %w", serr)
	}

	next := domain.StatusCompleted
	if !approved {
		next = domain.StatusFailed
	}
	if err := entity.TransitionTo(next); err != nil {
		return nil, err
	}
	if err := s.updateBounded(ctx, entity); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	if approved {
		s.syncOrder(ctx, entity)
		s.publish(ctx, domain.NewPaymentCompletedEvent(entity))
		logger.Info("payment_completed", zap.String("payment_id", entity.ID))
	} else {
		logger.Info("payment_declined", zap.String("payment_id", entity.ID))
	}
	return entity, nil
}

// UpdatePaymentStatus performs a direct transition write, validated against
// the payment status machine. REFUNDED is only reachable from COMPLETED.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id string, next domain.Status) (err error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		s.metrics.ObserveWorkflow(workflowName, "update_status", outcomeOf(err), time.Since(start))
	}()

	entity, err := s.payments.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := entity.TransitionTo(next); err != nil {
		return err
	}
	if err := s.payments.Update(ctx, entity); err != nil {
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}

	logging.FromContext(ctx).Info("payment_status_updated",
		zap.String("payment_id", id),
		zap.String("status", string(next)),
	)
	return nil
}

// RefundPayment moves a COMPLETED payment to REFUNDED.
func (s *Service) RefundPayment(ctx context.Context, id string) error {
	return s.UpdatePaymentStatus(ctx, id, domain.StatusRefunded)
}

// syncOrder writes PAID onto the linked order's denormalized payment status.
// A failure is logged, not propagated: the settled payment stands.
func (s *Service) syncOrder(ctx context.Context, p *domain.Payment) {
	if s.orders == nil || p.OrderID == "" {
		return
	}
	if err := s.orders.UpdatePaymentStatus(ctx, p.OrderID, domorder.PaymentPaid); err != nil {
		logging.FromContext(ctx).Warn("order_payment_status_sync_failed",
			zap.String("payment_id", p.ID),
			zap.String("order_id", p.OrderID),
			zap.Error(err),
		)
	}
}

func (s *Service) getBounded(ctx context.Context, id string) (*domain.Payment, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.payments.Get(ctx, id)
}

func (s *Service) updateBounded(ctx context.Context, p *domain.Payment) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.payments.Update(ctx, p)
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
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
