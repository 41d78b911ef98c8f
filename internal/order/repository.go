package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafe-be/internal/db"
	"cafe-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	orderNumberConstraint = "uq_orders_order_number"
	// payments keep their order row; a paid order cannot be deleted.
	paymentOrderConstraint = "fk_payments_order"
	maxNumberAttempts      = 5
	defaultListLimit       = 50
	maxListLimit           = 200
)

type Repository interface {
	// Create inserts the order and its items in one transaction and fills in
	// ID, OrderNumber, Version and the item IDs.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
	// UpdateTransition persists the mutable columns of o if the stored version
	// still equals o.Version, returning ErrStaleOrder otherwise.
	UpdateTransition(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id int64, version int) error
}

type repository struct {
	db        *sql.DB
	newNumber func(time.Time) string
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db, newNumber: NewOrderNumber}
}

const orderColumns = `
	o.id, o.order_number, o.customer_id, o.cafe_id, o.order_type, o.status,
	o.total_amount, o.booking_id,
	(SELECT p.id FROM payments p WHERE p.order_id = o.id ORDER BY p.id DESC LIMIT 1),
	o.special_instructions, o.prepared_by, o.served_by,
	o.placed_at, o.confirmed_at, o.preparing_started_at, o.ready_at,
	o.served_at, o.completed_at, o.cancelled_at, o.updated_at, o.version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o                                           Order
		bookingID, paymentID, preparedBy, servedBy  sql.NullInt64
		confirmedAt, preparingAt, readyAt, servedAt sql.NullTime
		completedAt, cancelledAt                    sql.NullTime
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.CafeID, &o.Type, &o.Status,
		&o.TotalAmount, &bookingID, &paymentID,
		&o.SpecialInstructions, &preparedBy, &servedBy,
		&o.PlacedAt, &confirmedAt, &preparingAt, &readyAt,
		&servedAt, &completedAt, &cancelledAt, &o.UpdatedAt, &o.Version,
	)
	if err != nil {
		return nil, err
	}

	o.BookingID = int64Ptr(bookingID)
	o.PaymentID = int64Ptr(paymentID)
	o.PreparedBy = int64Ptr(preparedBy)
	o.ServedBy = int64Ptr(servedBy)
	o.ConfirmedAt = timePtr(confirmedAt)
	o.PreparingStartedAt = timePtr(preparingAt)
	o.ReadyAt = timePtr(readyAt)
	o.ServedAt = timePtr(servedAt)
	o.CompletedAt = timePtr(completedAt)
	o.CancelledAt = timePtr(cancelledAt)
	return &o, nil
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.Int64("customer_id", o.CustomerID),
		zap.Int64("cafe_id", o.CafeID),
	)

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		o.OrderNumber = r.newNumber(o.PlacedAt)

		err := db.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
			return insertOrder(ctx, tx, o)
		})
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, orderNumberConstraint) {
			log.Error("failed to insert order", zap.Error(err))
			return err
		}

		log.Warn("order number collision, retrying",
			zap.String("order_number", o.OrderNumber),
			zap.Int("attempt", attempt),
		)
	}

	return ErrOrderNumberExhausted
}

func insertOrder(ctx context.Context, tx *sql.Tx, o *Order) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			order_number, customer_id, cafe_id, order_type, status,
			total_amount, booking_id, special_instructions, placed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, updated_at, version
	`,
		o.OrderNumber,
		o.CustomerID,
		o.CafeID,
		o.Type,
		o.Status,
		o.TotalAmount,
		o.BookingID,
		o.SpecialInstructions,
		o.PlacedAt,
	).Scan(&o.ID, &o.UpdatedAt, &o.Version)
	if err != nil {
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID

		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (
				order_id, menu_item_id, item_name, quantity,
				unit_price, subtotal, note
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id
		`,
			item.OrderID,
			item.MenuItemID,
			item.Name,
			item.Quantity,
			item.UnitPrice,
			item.Subtotal,
			item.Note,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item %d: %w", item.MenuItemID, err)
		}
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	return r.getOne(ctx, "o.id = $1", id)
}

func (r *repository) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return r.getOne(ctx, "o.order_number = $1", number)
}

func (r *repository) getOne(ctx context.Context, where string, arg any) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders o WHERE "+where, arg,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", ErrOrderNotFound, arg)
	}
	if err != nil {
		return nil, err
	}

	items, err := r.fetchItems(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *repository) fetchItems(ctx context.Context, orderIDs []int64) (map[int64][]OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, menu_item_id, item_name, quantity, unit_price, subtotal, note
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]OrderItem, len(orderIDs))
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.MenuItemID, &it.Name,
			&it.Quantity, &it.UnitPrice, &it.Subtotal, &it.Note,
		); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
		zap.Int("limit", limit),
		zap.Int("offset", offset),
	)

	query := "SELECT " + orderColumns + " FROM orders o WHERE 1=1"
	args := []any{}
	argIndex := 1

	if filter.CustomerID != 0 {
		query += fmt.Sprintf(" AND o.customer_id = $%d", argIndex)
		args = append(args, filter.CustomerID)
		argIndex++
	}
	if filter.CafeID != 0 {
		query += fmt.Sprintf(" AND o.cafe_id = $%d", argIndex)
		args = append(args, filter.CafeID)
		argIndex++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND o.status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY o.placed_at DESC, o.id DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	log.Debug("executing list orders query", zap.Any("args", args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var (
		orders []*Order
		ids    []int64
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.fetchItems(ctx, ids)
	if err != nil {
		log.Error("failed to fetch order items", zap.Error(err))
		return nil, err
	}
	for _, o := range orders {
		o.Items = items[o.ID]
	}

	return orders, nil
}

func (r *repository) UpdateTransition(ctx context.Context, o *Order) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders SET
			status = $1,
			special_instructions = $2,
			prepared_by = $3,
			served_by = $4,
			confirmed_at = $5,
			preparing_started_at = $6,
			ready_at = $7,
			served_at = $8,
			completed_at = $9,
			cancelled_at = $10,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $11 AND version = $12
		RETURNING version, updated_at
	`,
		o.Status,
		o.SpecialInstructions,
		o.PreparedBy,
		o.ServedBy,
		o.ConfirmedAt,
		o.PreparingStartedAt,
		o.ReadyAt,
		o.ServedAt,
		o.CompletedAt,
		o.CancelledAt,
		o.ID,
		o.Version,
	).Scan(&o.Version, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStaleOrder
	}
	return err
}

func (r *repository) Delete(ctx context.Context, id int64, version int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM orders WHERE id = $1 AND version = $2`, id, version,
	)
	if db.IsForeignKeyViolation(err, paymentOrderConstraint) {
		return fmt.Errorf("%w: order %d", ErrOrderHasPayment, id)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleOrder
	}
	return nil
}
