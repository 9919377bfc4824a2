package stock

import (
	"context"
	"sync"
	"testing"

	domain "github.com/emartlabs/fulfillment/internal/domain/product"
	"github.com/emartlabs/fulfillment/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, repo *memory.ProductRepository, id string, stock int) {
	t.Helper()
	p, err := domain.New(id, "Product "+id, decimal.RequireFromString("10.00"), stock, "s1")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))
}

func stockOf(t *testing.T, repo *memory.ProductRepository, id string) int {
	t.Helper()
	p, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements every item", func(t *testing.T) {
		repo := memory.NewProductRepository()
		seedProduct(t, repo, "p1", 10)
		seedProduct(t, repo, "p2", 4)
		ledger := NewLedger(repo, nil)

		err := ledger.Reserve(ctx, []Reservation{
			{ProductID: "p1", Quantity: 3},
			{ProductID: "p2", Quantity: 4},
		})
		require.NoError(t, err)

		assert.Equal(t, 7, stockOf(t, repo, "p1"))
		assert.Equal(t, 0, stockOf(t, repo, "p2"))
	})

	t.Run("flips status at zero", func(t *testing.T) {
		repo := memory.NewProductRepository()
		seedProduct(t, repo, "p1", 2)
		ledger := NewLedger(repo, nil)

		require.NoError(t, ledger.Reserve(ctx, []Reservation{{ProductID: "p1", Quantity: 2}}))

		p, err := repo.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusOutOfStock, p.Status)
	})

	t.Run("insufficient stock leaves the batch untouched", func(t *testing.T) {
		repo := memory.NewProductRepository()
		seedProduct(t, repo, "p1", 10)
		seedProduct(t, repo, "p2", 1)
		ledger := NewLedger(repo, nil)

		err := ledger.Reserve(ctx, []Reservation{
			{ProductID: "p1", Quantity: 3},
			{ProductID: "p2", Quantity: 2},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)

		var ise *domain.InsufficientStockError
		require.ErrorAs(t, err, &ise)
		assert.Equal(t, "p2", ise.ProductID)
		assert.Equal(t, 1, ise.Available)
		assert.Equal(t, 2, ise.Requested)

		assert.Equal(t, 10, stockOf(t, repo, "p1"), "first item must not be decremented")
		assert.Equal(t, 1, stockOf(t, repo, "p2"))
	})

	t.Run("duplicate product ids accumulate", func(t *testing.T) {
		repo := memory.NewProductRepository()
		seedProduct(t, repo, "p1", 6)
		ledger := NewLedger(repo, nil)

		err := ledger.Reserve(ctx, []Reservation{
			{ProductID: "p1", Quantity: 3},
			{ProductID: "p1", Quantity: 3},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, stockOf(t, repo, "p1"))
	})

	t.Run("duplicate product ids cannot overdraw", func(t *testing.T) {
		// Each delta is checked against the running level, so two entries
		// that individually fit but jointly exceed the stock fail the batch.
		repo := memory.NewProductRepository()
		seedProduct(t, repo, "p1", 5)
		ledger := NewLedger(repo, nil)

		err := ledger.Reserve(ctx, []Reservation{
			{ProductID: "p1", Quantity: 3},
			{ProductID: "p1", Quantity: 3},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)

		var ise *domain.InsufficientStockError
		require.ErrorAs(t, err, &ise)
		assert.Equal(t, 2, ise.Available, "second entry sees the running level")
		assert.Equal(t, 3, ise.Requested)

		assert.Equal(t, 5, stockOf(t, repo, "p1"), "stock never goes negative")
	})

	t.Run("unknown product fails the batch", func(t *testing.T) {
		repo := memory.NewProductRepository()
		seedProduct(t, repo, "p1", 10)
		ledger := NewLedger(repo, nil)

		err := ledger.Reserve(ctx, []Reservation{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "ghost", Quantity: 1},
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, 10, stockOf(t, repo, "p1"))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		ledger := NewLedger(memory.NewProductRepository(), nil)
		err := ledger.Reserve(ctx, []Reservation{{ProductID: "p1", Quantity: 0}})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestReserveConcurrent(t *testing.T) {
	// Two reservations race for the last five units. The conditional batch
	// must let exactly one of them through.
	repo := memory.NewProductRepository()
	seedProduct(t, repo, "p1", 5)
	ledger := NewLedger(repo, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ledger.Reserve(context.Background(), []Reservation{{ProductID: "p1", Quantity: 5}})
		}(i)
	}
	wg.Wait()

	var ok, failed int
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			failed++
		}
	}
	assert.Equal(t, 1, ok, "exactly one reservation wins")
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0, stockOf(t, repo, "p1"), "stock never goes negative")
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip is a no-op", func(t *testing.T) {
		repo := memory.NewProductRepository()
		seedProduct(t, repo, "p1", 8)
		ledger := NewLedger(repo, nil)
		items := []Reservation{{ProductID: "p1", Quantity: 3}}

		require.NoError(t, ledger.Reserve(ctx, items))
		skipped, err := ledger.Restore(ctx, items)
		require.NoError(t, err)
		assert.Empty(t, skipped)
		assert.Equal(t, 8, stockOf(t, repo, "p1"))
	})

	t.Run("restoring past zero revives availability", func(t *testing.T) {
		repo := memory.NewProductRepository()
		seedProduct(t, repo, "p1", 1)
		ledger := NewLedger(repo, nil)

		require.NoError(t, ledger.Reserve(ctx, []Reservation{{ProductID: "p1", Quantity: 1}}))
		_, err := ledger.Restore(ctx, []Reservation{{ProductID: "p1", Quantity: 1}})
		require.NoError(t, err)

		p, err := repo.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusActive, p.Status)
	})

	t.Run("skips vanished products and commits the rest", func(t *testing.T) {
		repo := memory.NewProductRepository()
		seedProduct(t, repo, "p1", 5)
		ledger := NewLedger(repo, nil)

		skipped, err := ledger.Restore(ctx, []Reservation{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "ghost", Quantity: 4},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"ghost"}, skipped)
		assert.Equal(t, 7, stockOf(t, repo, "p1"))
	})
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProductRepository()
	seedProduct(t, repo, "p1", 3)
	ledger := NewLedger(repo, nil)

	av, err := ledger.CheckAvailability(ctx, "p1", 3)
	require.NoError(t, err)
	assert.True(t, av.Available)
	assert.Equal(t, 3, av.Stock)

	av, err = ledger.CheckAvailability(ctx, "p1", 4)
	require.NoError(t, err)
	assert.False(t, av.Available)

	_, err = ledger.CheckAvailability(ctx, "ghost", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = ledger.CheckAvailability(ctx, "p1", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
