package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafe-be/internal/db"
	"cafe-be/internal/logger"

	"go.uber.org/zap"
)

const activeSlotConstraint = "uq_active_booking_slot"

type Repository interface {
	// HasConflict is the fast pre-check; Create is the authoritative one.
	HasConflict(ctx context.Context, tableID int64, slot Slot, policy ConflictPolicy) (bool, error)
	// Create inserts b as PENDING, returning ErrSlotTaken when the slot is held.
	Create(ctx context.Context, b *Booking, policy ConflictPolicy) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	// UpdateStatus moves the booking to `to` only if it is still in `from`.
	UpdateStatus(ctx context.Context, id int64, from, to Status) (*Booking, error)
	List(ctx context.Context, filter ListFilter) ([]*Booking, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const bookingColumns = `
	id, customer_id, cafe_id, table_id, booking_date, booking_time,
	party_size, special_requests, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*Booking, error) {
	var (
		b     Booking
		date  time.Time
		clock time.Time
	)
	err := row.Scan(
		&b.ID, &b.CustomerID, &b.CafeID, &b.TableID, &date, &clock,
		&b.PartySize, &b.SpecialRequests, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Slot = slotOf(date, clock)
	return &b, nil
}

// slotOf normalises driver values so they compare equal to ParseSlot output.
func slotOf(date, clock time.Time) Slot {
	return Slot{
		Date: time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Time: time.Date(0, 1, 1, clock.Hour(), clock.Minute(), 0, 0, time.UTC),
	}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// heldTimes lists the times already held on a table for the slot's date.
func heldTimes(ctx context.Context, q queryer, tableID int64, slot Slot) ([]Slot, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT booking_time
		FROM table_bookings
		WHERE table_id = $1
		  AND booking_date = $2
		  AND status IN ('PENDING', 'CONFIRMED')
	`, tableID, slot.DateString())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var held []Slot
	for rows.Next() {
		var clock time.Time
		if err := rows.Scan(&clock); err != nil {
			return nil, err
		}
		held = append(held, slotOf(slot.Date, clock))
	}
	return held, rows.Err()
}

func collides(policy ConflictPolicy, slot Slot, held []Slot) bool {
	for _, h := range held {
		if policy.Collides(slot, h) {
			return true
		}
	}
	return false
}

func (r *repository) HasConflict(ctx context.Context, tableID int64, slot Slot, policy ConflictPolicy) (bool, error) {
	held, err := heldTimes(ctx, r.db, tableID, slot)
	if err != nil {
		return false, err
	}
	return collides(policy, slot, held), nil
}

func (r *repository) Create(ctx context.Context, b *Booking, policy ConflictPolicy) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.Int64("table_id", b.TableID),
		zap.String("slot", b.Slot.String()),
	)

	var err error
	if policy.Mode == ConflictOverlap {
		err = db.WithTx(ctx, r.db, db.Serializable, func(tx *sql.Tx) error {
			// serialise bookings per table
			var locked int64
			if err := tx.QueryRowContext(ctx,
				`SELECT id FROM cafe_tables WHERE id = $1 FOR UPDATE`, b.TableID,
			).Scan(&locked); err != nil {
				return err
			}

			held, err := heldTimes(ctx, tx, b.TableID, b.Slot)
			if err != nil {
				return err
			}
			if collides(policy, b.Slot, held) {
				return ErrSlotTaken
			}
			return insertBooking(ctx, tx, b)
		})
	} else {
		err = insertBooking(ctx, r.db, b)
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSlotTaken),
		db.IsUniqueViolation(err, activeSlotConstraint),
		db.IsSerializationFailure(err):
		log.Info("booking slot already held", zap.Error(err))
		return ErrSlotTaken
	default:
		log.Error("failed to insert booking", zap.Error(err))
		return err
	}
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertBooking(ctx context.Context, q rowQueryer, b *Booking) error {
	return q.QueryRowContext(ctx, `
		INSERT INTO table_bookings (
			customer_id, cafe_id, table_id, booking_date, booking_time,
			party_size, special_requests, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at
	`,
		b.CustomerID,
		b.CafeID,
		b.TableID,
		b.Slot.DateString(),
		b.Slot.TimeString(),
		b.PartySize,
		b.SpecialRequests,
		b.Status,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM table_bookings WHERE id = $1", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrBookingNotFound, id)
	}
	return b, err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status) (*Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `
		UPDATE table_bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING `+bookingColumns,
		to, id, from,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaleBooking
	}
	return b, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Booking, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	query := "SELECT " + bookingColumns + " FROM table_bookings WHERE 1=1"
	args := []any{}
	argIndex := 1

	if filter.CustomerID != 0 {
		query += fmt.Sprintf(" AND customer_id = $%d", argIndex)
		args = append(args, filter.CustomerID)
		argIndex++
	}
	if filter.TableID != 0 {
		query += fmt.Sprintf(" AND table_id = $%d", argIndex)
		args = append(args, filter.TableID)
		argIndex++
	}
	if filter.CafeID != 0 {
		query += fmt.Sprintf(" AND cafe_id = $%d", argIndex)
		args = append(args, filter.CafeID)
		argIndex++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.Date != nil {
		query += fmt.Sprintf(" AND booking_date = $%d", argIndex)
		args = append(args, filter.Date.Format(DateLayout))
	}
	query += " ORDER BY booking_date, booking_time, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query bookings", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			log.Error("failed to scan booking row", zap.Error(err))
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
