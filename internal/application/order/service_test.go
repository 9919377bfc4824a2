package order

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emartlabs/fulfillment/internal/application/stock"
	domain "github.com/emartlabs/fulfillment/internal/domain/order"
	domprod "github.com/emartlabs/fulfillment/internal/domain/product"
	"github.com/emartlabs/fulfillment/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqIDGenerator struct{ n atomic.Int64 }

func (g *seqIDGenerator) NewID() string {
	return fmt.Sprintf("order-%d", g.n.Add(1))
}

type fixture struct {
	service  *Service
	orders   *memory.OrderRepository
	products *memory.ProductRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	orders := memory.NewOrderRepository()
	products := memory.NewProductRepository()
	ledger := stock.NewLedger(products, nil)
	svc := NewService(orders, products, ledger, &seqIDGenerator{}, nil, nil, 2*time.Second)
	return &fixture{service: svc, orders: orders, products: products}
}

func (f *fixture) seedProduct(t *testing.T, id, name, price string, stockLevel int) {
	t.Helper()
	p, err := domprod.New(id, name, decimal.RequireFromString(price), stockLevel, "s1")
	require.NoError(t, err)
	require.NoError(t, f.products.Save(context.Background(), p))
}

func (f *fixture) stockOf(t *testing.T, id string) int {
	t.Helper()
	p, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots prices and reserves stock", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "p1", "Keyboard", "49.90", 10)
		f.seedProduct(t, "p2", "Monitor", "289.50", 5)

		o, err := f.service.CreateOrder(ctx, CreateOrderInput{
			CustomerID: "c1",
			Items: []ItemInput{
				{ProductID: "p1", Quantity: 2},
				{ProductID: "p2", Quantity: 1},
			},
			ShippingAddress: "1 Main St",
			PaymentMethod:   "CREDIT_CARD",
		})
		require.NoError(t, err)

		assert.Equal(t, domain.StatusPending, o.Status)
		assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
		assert.Equal(t, "Keyboard", o.Items[0].ProductName)
		assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("389.30")),
			"got total %s", o.TotalAmount)

		assert.Equal(t, 8, f.stockOf(t, "p1"))
		assert.Equal(t, 4, f.stockOf(t, "p2"))

		stored, err := f.orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.True(t, stored.TotalAmount.Equal(o.TotalAmount))
	})

	t.Run("stored total survives a later price change", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "p1", "Keyboard", "49.90", 10)

		o, err := f.service.CreateOrder(ctx, CreateOrderInput{
			CustomerID: "c1",
			Items:      []ItemInput{{ProductID: "p1", Quantity: 1}},
		})
		require.NoError(t, err)

		f.seedProduct(t, "p1", "Keyboard", "99.90", 9)

		stored, err := f.orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("49.90")))
		assert.True(t, stored.Items[0].ProductPrice.Equal(decimal.RequireFromString("49.90")))
	})

	t.Run("insufficient stock writes nothing", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "p1", "Keyboard", "49.90", 3)

		_, err := f.service.CreateOrder(ctx, CreateOrderInput{
			CustomerID: "c1",
			Items:      []ItemInput{{ProductID: "p1", Quantity: 4}},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domprod.ErrInsufficientStock)

		var ise *domprod.InsufficientStockError
		require.ErrorAs(t, err, &ise)
		assert.Equal(t, "Keyboard", ise.ProductName)
		assert.Equal(t, 3, ise.Available)
		assert.Equal(t, 4, ise.Requested)

		assert.Equal(t, 3, f.stockOf(t, "p1"))
		listed, err := f.orders.List(ctx, domain.Filter{})
		require.NoError(t, err)
		assert.Empty(t, listed)
	})

	t.Run("duplicate cart lines reserve their sum", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "p1", "Keyboard", "49.90", 6)

		o, err := f.service.CreateOrder(ctx, CreateOrderInput{
			CustomerID: "c1",
			Items: []ItemInput{
				{ProductID: "p1", Quantity: 3},
				{ProductID: "p1", Quantity: 3},
			},
		})
		require.NoError(t, err)
		assert.Len(t, o.Items, 2)
		assert.Equal(t, 0, f.stockOf(t, "p1"))
	})

	t.Run("duplicate cart lines cannot jointly overdraw", func(t *testing.T) {
		// Each line passes the per-line check on its own; the reservation
		// batch still has to fail on their sum.
		f := newFixture(t)
		f.seedProduct(t, "p1", "Keyboard", "49.90", 5)

		_, err := f.service.CreateOrder(ctx, CreateOrderInput{
			CustomerID: "c1",
			Items: []ItemInput{
				{ProductID: "p1", Quantity: 3},
				{ProductID: "p1", Quantity: 3},
			},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domprod.ErrInsufficientStock)

		assert.Equal(t, 5, f.stockOf(t, "p1"), "stock never goes negative")
		listed, err := f.orders.List(ctx, domain.Filter{})
		require.NoError(t, err)
		assert.Empty(t, listed, "no order may be persisted")
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.CreateOrder(ctx, CreateOrderInput{
			CustomerID: "c1",
			Items:      []ItemInput{{ProductID: "ghost", Quantity: 1}},
		})
		assert.ErrorIs(t, err, domprod.ErrNotFound)
	})

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.CreateOrder(ctx, CreateOrderInput{CustomerID: "c1"})
		assert.ErrorIs(t, err, domain.ErrEmptyOrder)
	})

	t.Run("zero quantity", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "p1", "Keyboard", "49.90", 3)
		_, err := f.service.CreateOrder(ctx, CreateOrderInput{
			CustomerID: "c1",
			Items:      []ItemInput{{ProductID: "p1", Quantity: 0}},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})
}

func TestCreateOrderConcurrent(t *testing.T) {
	// Two orders race for the last five units of the same product. The
	// reservation is conditioned at commit time, so at most one can win.
	f := newFixture(t)
	f.seedProduct(t, "p1", "Keyboard", "49.90", 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.CreateOrder(context.Background(), CreateOrderInput{
				CustomerID: fmt.Sprintf("c%d", i),
				Items:      []ItemInput{{ProductID: "p1", Quantity: 5}},
			})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, domprod.ErrInsufficientStock)
		}
	}
	assert.LessOrEqual(t, ok, 1, "at most one order may win the last units")
	assert.GreaterOrEqual(t, f.stockOf(t, "p1"), 0, "stock never goes negative")

	listed, err := f.orders.List(context.Background(), domain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, ok, len(listed), "persisted orders match successful reservations")
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedProduct(t, "p1", "Keyboard", "49.90", 10)

	o, err := f.service.CreateOrder(ctx, CreateOrderInput{
		CustomerID: "c1",
		Items:      []ItemInput{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.UpdateOrderStatus(ctx, o.ID, domain.StatusConfirmed))
	require.NoError(t, f.service.UpdateOrderStatus(ctx, o.ID, domain.StatusProcessing))

	t.Run("illegal edge is rejected and not written", func(t *testing.T) {
		err := f.service.UpdateOrderStatus(ctx, o.ID, domain.StatusDelivered)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		stored, err := f.orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusProcessing, stored.Status)
	})

	t.Run("unknown order", func(t *testing.T) {
		err := f.service.UpdateOrderStatus(ctx, "ghost", domain.StatusConfirmed)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("restores stock for a pending order", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "p1", "Keyboard", "49.90", 10)

		o, err := f.service.CreateOrder(ctx, CreateOrderInput{
			CustomerID: "c1",
			Items:      []ItemInput{{ProductID: "p1", Quantity: 4}},
		})
		require.NoError(t, err)
		require.Equal(t, 6, f.stockOf(t, "p1"))

		require.NoError(t, f.service.CancelOrder(ctx, o.ID))

		stored, err := f.orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, stored.Status)
		assert.Equal(t, 10, f.stockOf(t, "p1"))
	})

	t.Run("restores stock for a shipped order too", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "p1", "Keyboard", "49.90", 10)

		o, err := f.service.CreateOrder(ctx, CreateOrderInput{
			CustomerID: "c1",
			Items:      []ItemInput{{ProductID: "p1", Quantity: 2}},
		})
		require.NoError(t, err)
		for _, next := range []domain.Status{domain.StatusConfirmed, domain.StatusProcessing, domain.StatusShipped} {
			require.NoError(t, f.service.UpdateOrderStatus(ctx, o.ID, next))
		}

		require.NoError(t, f.service.CancelOrder(ctx, o.ID))
		assert.Equal(t, 10, f.stockOf(t, "p1"))
	})

	t.Run("terminal order cannot be cancelled", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, "p1", "Keyboard", "49.90", 10)

		o, err := f.service.CreateOrder(ctx, CreateOrderInput{
			CustomerID: "c1",
			Items:      []ItemInput{{ProductID: "p1", Quantity: 2}},
		})
		require.NoError(t, err)
		require.NoError(t, f.service.CancelOrder(ctx, o.ID))
		require.Equal(t, 10, f.stockOf(t, "p1"))

		err = f.service.CancelOrder(ctx, o.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyTerminal)
		assert.Equal(t, 10, f.stockOf(t, "p1"), "stock must not be restored twice")
	})
}

func TestUpdatePaymentStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedProduct(t, "p1", "Keyboard", "49.90", 10)

	o, err := f.service.CreateOrder(ctx, CreateOrderInput{
		CustomerID: "c1",
		Items:      []ItemInput{{ProductID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.UpdatePaymentStatus(ctx, o.ID, domain.PaymentPaid))

	stored, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, domain.StatusPending, stored.Status, "order status is untouched")

	err = f.service.UpdatePaymentStatus(ctx, o.ID, domain.PaymentStatus("WIRED"))
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentStatus)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedProduct(t, "p1", "Keyboard", "49.90", 100)

	for _, customer := range []string{"c1", "c1", "c2"} {
		_, err := f.service.CreateOrder(ctx, CreateOrderInput{
			CustomerID: customer,
			Items:      []ItemInput{{ProductID: "p1", Quantity: 1}},
		})
		require.NoError(t, err)
	}

	all, err := f.service.List(ctx, domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := f.service.List(ctx, domain.Filter{CustomerID: "c1"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	limited, err := f.service.List(ctx, domain.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
