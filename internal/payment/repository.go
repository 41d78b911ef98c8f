package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafe-be/internal/db"
	"cafe-be/internal/logger"
	"cafe-be/internal/order"

	"go.uber.org/zap"
)

const (
	transactionIDConstraint = "uq_payments_transaction_id"
	maxTransactionAttempts  = 5
	refundNote              = "Cancelled: payment refunded"
)

type Repository interface {
	// Create inserts p and fills in ID, TransactionID and the timestamps. A
	// PLACED order is moved to CONFIRMED in the same transaction, which the
	// returned bool reports. An order that already has a SUCCESS payment
	// yields ErrAlreadyPaid.
	Create(ctx context.Context, p *Payment) (bool, error)
	GetByID(ctx context.Context, id int64) (*Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	// GetByOrderID returns the most recent payment for the order.
	GetByOrderID(ctx context.Context, orderID int64) (*Payment, error)
	// UpdateStatus moves the payment from one status to another, returning
	// ErrStalePayment if it is no longer in from.
	UpdateStatus(ctx context.Context, id int64, from, to Status, paidAt *time.Time) (*Payment, error)
	// Refund marks a SUCCESS payment REFUNDED and cancels its order in one
	// transaction. settle runs inside the transaction; an error from it rolls
	// both changes back.
	Refund(ctx context.Context, id int64, settle func(p *Payment) error) (*Payment, error)
}

type repository struct {
	db       *sql.DB
	newTxnID func() string
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db, newTxnID: NewTransactionID}
}

const paymentColumns = `
	id, order_id, booking_id, customer_id, amount, payment_method, status,
	transaction_id, gateway, payment_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*Payment, error) {
	var (
		p           Payment
		bookingID   sql.NullInt64
		paymentDate sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.OrderID, &bookingID, &p.CustomerID, &p.Amount, &p.Method, &p.Status,
		&p.TransactionID, &p.Gateway, &paymentDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if bookingID.Valid {
		p.BookingID = &bookingID.Int64
	}
	if paymentDate.Valid {
		p.PaymentDate = &paymentDate.Time
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p *Payment) (bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.Int64("order_id", p.OrderID),
	)

	for attempt := 1; attempt <= maxTransactionAttempts; attempt++ {
		p.TransactionID = r.newTxnID()

		var confirmed bool
		err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
			var err error
			confirmed, err = createInTx(ctx, tx, p)
			return err
		})
		if err == nil {
			return confirmed, nil
		}
		if !db.IsUniqueViolation(err, transactionIDConstraint) {
			log.Error("failed to insert payment", zap.Error(err))
			return false, err
		}

		log.Warn("transaction id collision, retrying",
			zap.String("transaction_id", p.TransactionID),
			zap.Int("attempt", attempt),
		)
	}

	return false, ErrTransactionIDExhausted
}

// createInTx locks the order row so concurrent payments for one order are
// serialized, then inserts p and confirms a PLACED order.
func createInTx(ctx context.Context, tx *sql.Tx, p *Payment) (bool, error) {
	var (
		status  order.Status
		version int
	)
	err := tx.QueryRowContext(ctx,
		`SELECT status, version FROM orders WHERE id = $1 FOR UPDATE`, p.OrderID,
	).Scan(&status, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: %d", order.ErrOrderNotFound, p.OrderID)
	}
	if err != nil {
		return false, err
	}
	if !payable(status) {
		return false, unpayable(p.OrderID, status)
	}

	var paid bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE order_id = $1 AND status = $2)`,
		p.OrderID, StatusSuccess,
	).Scan(&paid)
	if err != nil {
		return false, err
	}
	if paid {
		return false, ErrAlreadyPaid
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO payments (
			order_id, booking_id, customer_id, amount, payment_method,
			status, transaction_id, gateway, payment_date
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at, updated_at
	`,
		p.OrderID,
		p.BookingID,
		p.CustomerID,
		p.Amount,
		p.Method,
		p.Status,
		p.TransactionID,
		p.Gateway,
		p.PaymentDate,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return false, err
	}

	if status != order.StatusPlaced {
		return false, nil
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET
			status = $1,
			confirmed_at = COALESCE(confirmed_at, NOW()),
			updated_at = NOW(),
			version = version + 1
		WHERE id = $2 AND status = $3 AND version = $4
	`, order.StatusConfirmed, p.OrderID, order.StatusPlaced, version)
	if err != nil {
		return false, fmt.Errorf("confirm order %d: %w", p.OrderID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n == 0 {
		return false, order.ErrStaleOrder
	}
	return true, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Payment, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *repository) GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error) {
	return r.getOne(ctx, "transaction_id = $1", transactionID)
}

func (r *repository) GetByOrderID(ctx context.Context, orderID int64) (*Payment, error) {
	return r.getOne(ctx, "order_id = $1 ORDER BY id DESC LIMIT 1", orderID)
}

func (r *repository) getOne(ctx context.Context, where string, arg any) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE "+where, arg,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", ErrPaymentNotFound, arg)
	}
	return p, err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status, paidAt *time.Time) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `
		UPDATE payments SET
			status = $1,
			payment_date = COALESCE($2, payment_date),
			updated_at = NOW()
		WHERE id = $3 AND status = $4
		RETURNING `+paymentColumns,
		to, paidAt, id, from,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStalePayment
	}
	return p, err
}

func (r *repository) Refund(ctx context.Context, id int64, settle func(p *Payment) error) (*Payment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Refund"),
		zap.Int64("payment_id", id),
	)

	var refunded *Payment
	err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		p, err := scanPayment(tx.QueryRowContext(ctx, `
			UPDATE payments SET status = $1, updated_at = NOW()
			WHERE id = $2 AND status = $3
			RETURNING `+paymentColumns,
			StatusRefunded, id, StatusSuccess,
		))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStalePayment
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE orders SET
				status = $1,
				special_instructions = CASE
					WHEN special_instructions = '' THEN $2
					ELSE special_instructions || ' | ' || $2
				END,
				cancelled_at = COALESCE(cancelled_at, NOW()),
				updated_at = NOW(),
				version = version + 1
			WHERE id = $3
		`, order.StatusCancelled, refundNote, p.OrderID)
		if err != nil {
			return fmt.Errorf("cancel order %d: %w", p.OrderID, err)
		}

		if err := settle(p); err != nil {
			return err
		}

		refunded = p
		return nil
	})
	if err != nil {
		log.Error("refund rolled back", zap.Error(err))
		return nil, err
	}

	return refunded, nil
}
