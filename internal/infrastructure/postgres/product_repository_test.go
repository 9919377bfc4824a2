package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	domain "github.com/emartlabs/fulfillment/internal/domain/product"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*ProductRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProductRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestProductGet(t *testing.T) {
	t.Run("unknown id maps to not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT id, name, price, stock").
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), "ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdjustStockCommitsBatch(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products").
		WithArgs(-3, "OUT_OF_STOCK", "ACTIVE", sqlmock.AnyArg(), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products").
		WithArgs(-1, "OUT_OF_STOCK", "ACTIVE", sqlmock.AnyArg(), "p2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.AdjustStock(context.Background(), []domain.StockDelta{
		{ProductID: "p1", Delta: -3},
		{ProductID: "p2", Delta: -1},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStockRollsBackOnInsufficientStock(t *testing.T) {
	// The conditional update matches no row when the stock is too low; the
	// repository classifies the miss and rolls the whole batch back.
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products").
		WithArgs(-2, "OUT_OF_STOCK", "ACTIVE", sqlmock.AnyArg(), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products").
		WithArgs(-5, "OUT_OF_STOCK", "ACTIVE", sqlmock.AnyArg(), "p2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name, stock FROM products").
		WithArgs("p2").
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock"}).AddRow("Monitor", 1))
	mock.ExpectRollback()

	err := repo.AdjustStock(context.Background(), []domain.StockDelta{
		{ProductID: "p1", Delta: -2},
		{ProductID: "p2", Delta: -5},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "p2", ise.ProductID)
	assert.Equal(t, "Monitor", ise.ProductName)
	assert.Equal(t, 1, ise.Available)
	assert.Equal(t, 5, ise.Requested)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStockRollsBackOnMissingProduct(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products").
		WithArgs(1, "OUT_OF_STOCK", "ACTIVE", sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name, stock FROM products").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.AdjustStock(context.Background(), []domain.StockDelta{
		{ProductID: "ghost", Delta: 1},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStockEmptyBatchIsNoop(t *testing.T) {
	repo, mock := newMockRepo(t)
	require.NoError(t, repo.AdjustStock(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
