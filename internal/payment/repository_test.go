package payment

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"cafe-be/internal/apperr"
	"cafe-be/internal/order"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paymentRowColumns = []string{
	"id", "order_id", "booking_id", "customer_id", "amount", "payment_method", "status",
	"transaction_id", "gateway", "payment_date", "created_at", "updated_at",
}

func paymentRow(id int64, status Status) []driver.Value {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, int64(100), nil, int64(20), "13.50", "UPI", string(status),
		"TXN_0000000000000001", "RAZORPAY", nil, now, now,
	}
}

func newTestRepository(t *testing.T) (*repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	n := 0
	repo := &repository{
		db: db,
		newTxnID: func() string {
			n++
			return fmt.Sprintf("TXN_%016d", n)
		},
	}
	return repo, mock
}

// expectOrderLock queues the row lock and paid check that precede every insert.
func expectOrderLock(mock sqlmock.Sqlmock, status string, version int, paid bool) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, version FROM orders WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "version"}).AddRow(status, version))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM payments WHERE order_id = $1 AND status = $2)`)).
		WithArgs(int64(100), StatusSuccess).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(paid))
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	newPayment := func() *Payment {
		return &Payment{
			OrderID:    100,
			CustomerID: 20,
			Amount:     decimal.RequireFromString("13.50"),
			Method:     MethodUPI,
			Status:     StatusPending,
			Gateway:    GatewayRazorpay,
		}
	}

	t.Run("ConfirmsPlacedOrder", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		p := newPayment()

		mock.ExpectBegin()
		expectOrderLock(mock, "PLACED", 3, false)
		mock.ExpectQuery(`INSERT INTO payments`).
			WithArgs(int64(100), sqlmock.AnyArg(), int64(20), sqlmock.AnyArg(), MethodUPI,
				StatusPending, "TXN_0000000000000001", GatewayRazorpay, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))
		mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $2 AND status = $3 AND version = $4`)).
			WithArgs("CONFIRMED", int64(100), "PLACED", 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		confirmed, err := repo.Create(ctx, p)
		require.NoError(t, err)
		assert.True(t, confirmed)
		assert.Equal(t, int64(7), p.ID)
		assert.Equal(t, "TXN_0000000000000001", p.TransactionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("LeavesLaterStatusAlone", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectBegin()
		expectOrderLock(mock, "PREPARING", 5, false)
		mock.ExpectQuery(`INSERT INTO payments`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))
		mock.ExpectCommit()

		confirmed, err := repo.Create(ctx, newPayment())
		require.NoError(t, err)
		assert.False(t, confirmed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyPaid", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectBegin()
		expectOrderLock(mock, "CONFIRMED", 4, true)
		mock.ExpectRollback()

		_, err := repo.Create(ctx, newPayment())
		assert.ErrorIs(t, err, ErrAlreadyPaid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CancelledOrder", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"status", "version"}).AddRow("CANCELLED", 2))
		mock.ExpectRollback()

		_, err := repo.Create(ctx, newPayment())
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingOrder", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"status", "version"}))
		mock.ExpectRollback()

		_, err := repo.Create(ctx, newPayment())
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("StaleConfirmRollsBack", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectBegin()
		expectOrderLock(mock, "PLACED", 3, false)
		mock.ExpectQuery(`INSERT INTO payments`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))
		mock.ExpectExec(`UPDATE orders SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.Create(ctx, newPayment())
		assert.ErrorIs(t, err, order.ErrStaleOrder)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RetriesOnTransactionIDCollision", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		p := newPayment()

		mock.ExpectBegin()
		expectOrderLock(mock, "CONFIRMED", 4, false)
		mock.ExpectQuery(`INSERT INTO payments`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: transactionIDConstraint})
		mock.ExpectRollback()
		mock.ExpectBegin()
		expectOrderLock(mock, "CONFIRMED", 4, false)
		mock.ExpectQuery(`INSERT INTO payments`).
			WithArgs(int64(100), sqlmock.AnyArg(), int64(20), sqlmock.AnyArg(), MethodUPI,
				StatusPending, "TXN_0000000000000002", GatewayRazorpay, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(8, now, now))
		mock.ExpectCommit()

		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "TXN_0000000000000002", p.TransactionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GivesUpAfterMaxAttempts", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		for i := 0; i < maxTransactionAttempts; i++ {
			mock.ExpectBegin()
			expectOrderLock(mock, "CONFIRMED", 4, false)
			mock.ExpectQuery(`INSERT INTO payments`).
				WillReturnError(&pq.Error{Code: "23505", Constraint: transactionIDConstraint})
			mock.ExpectRollback()
		}

		_, err := repo.Create(ctx, newPayment())
		assert.ErrorIs(t, err, ErrTransactionIDExhausted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("OtherErrorsAreNotRetried", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectBegin()
		expectOrderLock(mock, "CONFIRMED", 4, false)
		mock.ExpectQuery(`INSERT INTO payments`).
			WillReturnError(&pq.Error{Code: "23503", Constraint: "fk_payments_order"})
		mock.ExpectRollback()

		_, err := repo.Create(ctx, newPayment())
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrTransactionIDExhausted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_Lookups(t *testing.T) {
	ctx := context.Background()

	t.Run("GetByID", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM payments WHERE id = $1`)).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(paymentRowColumns).AddRow(paymentRow(1, StatusPending)...))

		p, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, MethodUPI, p.Method)
		assert.True(t, p.Amount.Equal(decimal.RequireFromString("13.5")))
		assert.Nil(t, p.BookingID)
		assert.Nil(t, p.PaymentDate)
	})

	t.Run("GetByTransactionID", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM payments WHERE transaction_id = $1`)).
			WithArgs("TXN_0000000000000001").
			WillReturnRows(sqlmock.NewRows(paymentRowColumns).AddRow(paymentRow(1, StatusSuccess)...))

		p, err := repo.GetByTransactionID(ctx, "TXN_0000000000000001")
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, p.Status)
	})

	t.Run("GetByOrderIDReturnsLatest", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM payments WHERE order_id = $1 ORDER BY id DESC LIMIT 1`)).
			WithArgs(int64(100)).
			WillReturnRows(sqlmock.NewRows(paymentRowColumns).AddRow(paymentRow(3, StatusFailed)...))

		p, err := repo.GetByOrderID(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(3), p.ID)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectQuery(`FROM payments WHERE id`).
			WillReturnRows(sqlmock.NewRows(paymentRowColumns))

		_, err := repo.GetByID(ctx, 99)
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}

func TestRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	paidAt := time.Date(2024, 1, 1, 12, 5, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		row := paymentRow(1, StatusSuccess)
		row[9] = paidAt

		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE payments SET`)).
			WithArgs(StatusSuccess, &paidAt, int64(1), StatusPending).
			WillReturnRows(sqlmock.NewRows(paymentRowColumns).AddRow(row...))

		p, err := repo.UpdateStatus(ctx, 1, StatusPending, StatusSuccess, &paidAt)
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, p.Status)
		require.NotNil(t, p.PaymentDate)
		assert.True(t, p.PaymentDate.Equal(paidAt))
	})

	t.Run("StaleWhenStatusMoved", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $3 AND status = $4`)).
			WillReturnRows(sqlmock.NewRows(paymentRowColumns))

		_, err := repo.UpdateStatus(ctx, 1, StatusPending, StatusFailed, nil)
		assert.ErrorIs(t, err, ErrStalePayment)
	})
}

func TestRepository_Refund(t *testing.T) {
	ctx := context.Background()

	t.Run("RefundsAndCancelsOrder", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`)).
			WithArgs(StatusRefunded, int64(1), StatusSuccess).
			WillReturnRows(sqlmock.NewRows(paymentRowColumns).AddRow(paymentRow(1, StatusRefunded)...))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $1`)).
			WithArgs("CANCELLED", refundNote, int64(100)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		var settled *Payment
		p, err := repo.Refund(ctx, 1, func(p *Payment) error {
			settled = p
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, StatusRefunded, p.Status)
		assert.Equal(t, p, settled)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotSuccessIsStale", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE payments SET status`).
			WillReturnRows(sqlmock.NewRows(paymentRowColumns))
		mock.ExpectRollback()

		called := false
		_, err := repo.Refund(ctx, 1, func(*Payment) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, ErrStalePayment)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GatewayFailureRollsBack", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		gatewayErr := errors.New("razorpay refund error")

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE payments SET status`).
			WillReturnRows(sqlmock.NewRows(paymentRowColumns).AddRow(paymentRow(1, StatusRefunded)...))
		mock.ExpectExec(`UPDATE orders SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		_, err := repo.Refund(ctx, 1, func(*Payment) error { return gatewayErr })
		assert.ErrorIs(t, err, gatewayErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewTransactionID(t *testing.T) {
	id := NewTransactionID()
	assert.Regexp(t, `^TXN_[0-9A-F]{16}$`, id)
	assert.NotEqual(t, id, NewTransactionID())
}
