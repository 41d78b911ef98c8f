package catalog

import (
	"context"
	"errors"
	"testing"

	"cafe-be/internal/apperr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetMenuItem(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	cols := []string{"id", "cafe_id", "name", "price", "available"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, cafe_id, name, price, available FROM menu_items WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, 1, "Flat White", "3.50", true))

		item, err := repo.GetMenuItem(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, "Flat White", item.Name)
		assert.True(t, item.Price.Equal(decimal.RequireFromString("3.50")))
		assert.True(t, item.Available)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM menu_items`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.GetMenuItem(ctx, 99)
		assert.ErrorIs(t, err, ErrMenuItemNotFound)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM menu_items`).
			WillReturnError(errors.New("db error"))

		_, err := repo.GetMenuItem(ctx, 1)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestRepository_GetTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	cols := []string{"id", "cafe_id", "table_number", "capacity", "status", "active"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, cafe_id, table_number, capacity, status, active FROM cafe_tables WHERE id = \$1`).
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(4, 1, "T4", 4, "MAINTENANCE", true))

		table, err := repo.GetTable(ctx, 4)
		assert.NoError(t, err)
		assert.Equal(t, TableMaintenance, table.Status)
		assert.False(t, table.Bookable())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM cafe_tables`).
			WithArgs(int64(8)).
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.GetTable(ctx, 8)
		assert.ErrorIs(t, err, ErrTableNotFound)
	})
}

func TestRepository_GetCafe(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	cols := []string{"id", "name", "owner_id", "active"}

	mock.ExpectQuery(`SELECT id, name, owner_id, active FROM cafes WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "Corner Cafe", 2, true))

	cafe, err := repo.GetCafe(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), cafe.OwnerID)

	mock.ExpectQuery(`SELECT .* FROM cafes`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(cols))

	_, err = repo.GetCafe(context.Background(), 2)
	assert.ErrorIs(t, err, ErrCafeNotFound)
}

func TestTable_Bookable(t *testing.T) {
	assert.True(t, (&Table{Active: true, Status: TableAvailable}).Bookable())
	assert.False(t, (&Table{Active: false, Status: TableAvailable}).Bookable())
	assert.False(t, (&Table{Active: true, Status: TableReserved}).Bookable())
}
