package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emartlabs/fulfillment/internal/application/stock"
	"github.com/emartlabs/fulfillment/internal/domain/event"
	domain "github.com/emartlabs/fulfillment/internal/domain/order"
	domprod "github.com/emartlabs/fulfillment/internal/domain/product"
	"github.com/emartlabs/fulfillment/internal/observability"
	"github.com/emartlabs/fulfillment/internal/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const workflowName = "order"

var ErrRepository = errors.New("order: repository failure")

// ItemInput is one requested product-quantity pair of a cart.
type ItemInput struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	CustomerID      string
	Items           []ItemInput
	ShippingAddress string
	PaymentMethod   string
}

type Service struct {
	orders      domain.Repository
	products    domprod.Repository
	ledger      StockLedger
	idGenerator IDGenerator
	publisher   event.Publisher
	metrics     *observability.Metrics
	timeout     time.Duration
}

func NewService(
	orders domain.Repository,
	products domprod.Repository,
	ledger StockLedger,
	idGen IDGenerator,
	publisher event.Publisher,
	metrics *observability.Metrics,
	timeout time.Duration,
) *Service {
	return &Service{
		orders:      orders,
		products:    products,
		ledger:      ledger,
		idGenerator: idGen,
		publisher:   publisher,
		metrics:     metrics,
		timeout:     timeout,
	}
}

// CreateOrder validates the cart against live products, snapshots prices,
// reserves stock atomically and persists the order. Either the order is
// persisted and stock is reserved, or neither: a failed reservation writes
// nothing, and a failed persist triggers a compensating restore.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (o *domain.Order, err error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	logger := logging.FromContext(ctx).With(zap.String("component", "order_service"))

	ctx, span := otel.Tracer(workflowName).Start(ctx, "OrderWorkflow.CreateOrder")
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.ObserveWorkflow(workflowName, "create", outcome, time.Since(start))
	}()

	logger.Info("create_order_start",
		zap.String("customer_id", input.CustomerID),
		zap.Int("item_count", len(input.Items)),
	)

	if input.CustomerID == "" {
		return nil, fmt.Errorf("order: %w", errors.New("customer id is required"))
	}
	if len(input.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	// Resolve and snapshot every product before touching stock.
	lineItems := make([]domain.LineItem, 0, len(input.Items))
	reservations := make([]stock.Reservation, 0, len(input.Items))
	for _, it := range input.Items {
		if it.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		p, perr := s.products.Get(ctx, it.ProductID)
		if perr != nil {
			return nil, perr
		}
		if p.Stock < it.Quantity {
			return nil, &domprod.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   p.Stock,
				Requested:   it.Quantity,
			}
		}
		lineItems = append(lineItems, domain.LineItem{
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductPrice: p.Price,
			Quantity:     it.Quantity,
		})
		reservations = append(reservations, stock.Reservation{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	entity, err := domain.New(s.idGenerator.NewID(), input.CustomerID, lineItems,
		input.ShippingAddress, input.PaymentMethod)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", entity.ID))

	// Reserve first: the conditional batch is the authoritative stock check.
	if err := s.ledger.Reserve(ctx, reservations); err != nil {
		logger.Info("create_order_reserve_failed",
			zap.String("order_id", entity.ID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.orders.Insert(ctx, entity); err != nil {
		logger.Error("order_insert_failed",
			zap.String("order_id", entity.ID),
			zap.Error(err),
		)
		// Hand the reserved stock back; the order never existed.
		if _, rerr := s.ledger.Restore(ctx, reservations); rerr != nil {
			logger.Error("create_order_compensation_failed",
				zap.String("order_id", entity.ID),
				zap.Error(rerr),
			)
		}
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	s.publish(ctx, domain.NewOrderCreatedEvent(entity))

	logger.Info("create_order_success",
		zap.String("order_id", entity.ID),
		zap.String("total_amount", entity.TotalAmount.String()),
	)
	return entity, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.orders.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f domain.Filter) ([]*domain.Order, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.orders.List(ctx, f)
}

// UpdateOrderStatus moves an order along the status machine. Illegal edges
// are rejected, never written.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, next domain.Status) (err error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		s.metrics.ObserveWorkflow(workflowName, "update_status", outcomeOf(err), time.Since(start))
	}()

	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := o.TransitionTo(next); err != nil {
		return err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}

	logging.FromContext(ctx).Info("order_status_updated",
		zap.String("order_id", id),
		zap.String("status", string(next)),
	)
	return nil
}

// UpdatePaymentStatus writes the denormalized payment status field on the
// order. The payment workflow calls this when a settlement completes.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id string, ps domain.PaymentStatus) (err error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		s.metrics.ObserveWorkflow(workflowName, "update_payment_status", outcomeOf(err), time.Since(start))
	}()

	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := o.SetPaymentStatus(ps); err != nil {
		return err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
	return nil
}

// CancelOrder cancels a non-terminal order and returns its reserved stock.
// Stock was reserved at creation, so restitution runs for every cancellation
// regardless of the order's current status.
func (s *Service) CancelOrder(ctx context.Context, id string) (err error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	logger := logging.FromContext(ctx).With(zap.String("component", "order_service"))

	start := time.Now()
	defer func() {
		s.metrics.ObserveWorkflow(workflowName, "cancel", outcomeOf(err), time.Since(start))
	}()

	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	prior := o.Status
	if err := o.Cancel(); err != nil {
		return err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}

	reservations := make([]stock.Reservation, 0, len(o.Items))
	for _, li := range o.Items {
		reservations = append(reservations, stock.Reservation{
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
		})
	}

	skipped, rerr := s.ledger.Restore(ctx, reservations)
	if rerr != nil {
		// The order is already cancelled; restitution failure is surfaced
		// but does not undo the cancellation.
		logger.Error("cancel_order_restore_failed",
			zap.String("order_id", id),
			zap.Error(rerr),
		)
		return rerr
	}

	restored := make([]string, 0, len(reservations))
	for _, r := range reservations {
		if !contains(skipped, r.ProductID) {
			restored = append(restored, r.ProductID)
		}
	}
	s.publish(ctx, domain.NewOrderCancelledEvent(o, prior, restored))

	logger.Info("order_cancelled",
		zap.String("order_id", id),
		zap.String("prior_status", string(prior)),
		zap.Strings("restore_skipped", skipped),
	)
	return nil
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

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
