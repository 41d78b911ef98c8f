package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafe-be/internal/apperr"
	"cafe-be/internal/booking"
	"cafe-be/internal/catalog"
	"cafe-be/internal/logger"
	"cafe-be/internal/metrics"
	"cafe-be/internal/notification"
	"cafe-be/internal/user"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	Place(ctx context.Context, actor user.Actor, in PlaceInput) (*Order, error)
	Confirm(ctx context.Context, actor user.Actor, orderID int64) (*Order, error)
	StartPreparing(ctx context.Context, actor user.Actor, orderID int64) (*Order, error)
	MarkReady(ctx context.Context, actor user.Actor, orderID int64) (*Order, error)
	MarkServed(ctx context.Context, actor user.Actor, orderID int64) (*Order, error)
	Complete(ctx context.Context, actor user.Actor, orderID int64) (*Order, error)
	Cancel(ctx context.Context, actor user.Actor, orderID int64, reason string) (*Order, error)
	// UpdateStatus sets any known status without transition guards. Admin only.
	// It records no chef, so an order forced into PREPARING cannot be marked
	// ready by any chef; an admin has to move it on with another override.
	UpdateStatus(ctx context.Context, actor user.Actor, orderID int64, status Status) (*Order, error)
	Delete(ctx context.Context, actor user.Actor, orderID int64) error
	Get(ctx context.Context, actor user.Actor, orderID int64) (*Order, error)
	GetByNumber(ctx context.Context, actor user.Actor, number string) (*Order, error)
	List(ctx context.Context, actor user.Actor, filter ListFilter) ([]*Order, error)
}

// CustomerDirectory answers whether a customer account exists.
type CustomerDirectory interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

// BookingReader loads the booking an order is placed against.
type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*booking.Booking, error)
}

type service struct {
	repo      Repository
	catalog   catalog.Store
	customers CustomerDirectory
	bookings  BookingReader
	notifier  notification.Dispatcher
	now       func() time.Time
}

func NewService(
	repo Repository,
	store catalog.Store,
	customers CustomerDirectory,
	bookings BookingReader,
	notifier notification.Dispatcher,
) Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &service{
		repo:      repo,
		catalog:   store,
		customers: customers,
		bookings:  bookings,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Place(ctx context.Context, actor user.Actor, in PlaceInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Place"),
		zap.Int64("cafe_id", in.CafeID),
	)

	if !permits(actor.Role, actionPlace) {
		return nil, apperr.Forbidden("%s may not place orders", actor.Role)
	}

	customerID := actor.UserID
	if actor.Role == user.RoleAdmin && in.CustomerID != 0 {
		customerID = in.CustomerID
	}

	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w %q", ErrInvalidType, in.Type)
	}
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: menu item %d has quantity %d", ErrInvalidQty, it.MenuItemID, it.Quantity)
		}
	}

	exists, err := s.customers.Exists(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: id=%d", user.ErrUserNotFound, customerID)
	}

	cafe, err := s.catalog.GetCafe(ctx, in.CafeID)
	if err != nil {
		return nil, err
	}
	if !cafe.Active {
		return nil, fmt.Errorf("%w: cafe %d is not accepting orders", apperr.ErrInvalidState, cafe.ID)
	}

	if in.BookingID != nil {
		if err := s.checkBooking(ctx, *in.BookingID, customerID, cafe.ID); err != nil {
			return nil, err
		}
	}

	total := decimal.Zero
	items := make([]OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		m, err := s.catalog.GetMenuItem(ctx, it.MenuItemID)
		if err != nil {
			return nil, err
		}
		if m.CafeID != cafe.ID {
			return nil, apperr.InvalidInput("menu item %d is not served by cafe %d", m.ID, cafe.ID)
		}
		if !m.Available {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, m.Name)
		}

		subtotal := m.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(subtotal)
		items = append(items, OrderItem{
			MenuItemID: m.ID,
			Name:       m.Name,
			Quantity:   it.Quantity,
			UnitPrice:  m.Price,
			Subtotal:   subtotal,
			Note:       it.Note,
		})
	}

	o := &Order{
		CustomerID:          customerID,
		CafeID:              cafe.ID,
		Type:                in.Type,
		Status:              StatusPlaced,
		TotalAmount:         total,
		BookingID:           in.BookingID,
		SpecialInstructions: in.Instructions,
		PlacedAt:            s.now(),
		Items:               items,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error("failed to create order", zap.Error(err))
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	log.Info("order placed",
		zap.Int64("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("total", o.TotalAmount.StringFixed(2)),
	)

	s.notifier.NotifyOrderStatus(ctx, o.ID, string(o.Status))
	return o, nil
}

func (s *service) checkBooking(ctx context.Context, bookingID, customerID, cafeID int64) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.CustomerID != customerID || b.CafeID != cafeID {
		return apperr.InvalidInput("booking %d does not belong to this customer and cafe", bookingID)
	}
	if !b.Status.Holds() {
		return &apperr.StateError{
			Entity:   "booking",
			ID:       b.ID,
			Action:   "order against",
			Expected: []string{string(booking.StatusPending), string(booking.StatusConfirmed)},
			Actual:   string(b.Status),
		}
	}
	return nil
}

// step describes one guarded transition. guard runs before the state check so
// that identity violations are reported as Forbidden whatever the status is.
type step struct {
	act   action
	guard func(ctx context.Context, o *Order) error
	apply func(o *Order, now time.Time)
}

func (s *service) advance(ctx context.Context, actor user.Actor, orderID int64, st step) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", string(st.act)),
		zap.Int64("order_id", orderID),
	)

	if !permits(actor.Role, st.act) {
		return nil, apperr.Forbidden("%s may not %s orders", actor.Role, st.act)
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if st.guard != nil {
		if err := st.guard(ctx, o); err != nil {
			log.Warn("transition rejected", zap.Error(err))
			return nil, err
		}
	}

	t := transitions[st.act]
	if !t.allows(o.Status) {
		return nil, &apperr.StateError{
			Entity:   "order",
			ID:       o.ID,
			Action:   string(st.act),
			Expected: t.expected(),
			Actual:   string(o.Status),
		}
	}

	from := o.Status
	o.Status = t.to
	if st.apply != nil {
		st.apply(o, s.now())
	}

	if err := s.repo.UpdateTransition(ctx, o); err != nil {
		if errors.Is(err, ErrStaleOrder) {
			return nil, s.staleError(ctx, orderID, st.act, t.expected())
		}
		log.Error("failed to persist transition", zap.Error(err))
		return nil, err
	}

	metrics.OrderTransitions.Inc()
	log.Info("order transitioned",
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
	)

	s.notifier.NotifyOrderStatus(ctx, o.ID, string(o.Status))
	return o, nil
}

// staleError re-reads an order that lost an optimistic write so the caller
// sees the state the winner left behind.
func (s *service) staleError(ctx context.Context, orderID int64, act action, expected []string) error {
	metrics.OrderStaleWrites.Inc()

	current, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	return &apperr.StateError{
		Entity:   "order",
		ID:       orderID,
		Action:   string(act),
		Expected: expected,
		Actual:   string(current.Status),
	}
}

func (s *service) ownsCafe(ctx context.Context, actor user.Actor, cafeID int64) error {
	cafe, err := s.catalog.GetCafe(ctx, cafeID)
	if err != nil {
		return err
	}
	if cafe.OwnerID != actor.UserID {
		return ErrNotYourCafe
	}
	return nil
}

// ownerGuard restricts cafe owners to orders of their own cafe.
func (s *service) ownerGuard(actor user.Actor) func(context.Context, *Order) error {
	return func(ctx context.Context, o *Order) error {
		if actor.Role != user.RoleCafeOwner {
			return nil
		}
		return s.ownsCafe(ctx, actor, o.CafeID)
	}
}

func (s *service) Confirm(ctx context.Context, actor user.Actor, orderID int64) (*Order, error) {
	return s.advance(ctx, actor, orderID, step{
		act:   actionConfirm,
		guard: s.ownerGuard(actor),
		apply: func(o *Order, now time.Time) {
			o.ConfirmedAt = &now
		},
	})
}

func (s *service) StartPreparing(ctx context.Context, actor user.Actor, orderID int64) (*Order, error) {
	return s.advance(ctx, actor, orderID, step{
		act: actionStartPreparing,
		apply: func(o *Order, now time.Time) {
			chef := actor.UserID
			o.PreparedBy = &chef
			o.PreparingStartedAt = &now
		},
	})
}

func (s *service) MarkReady(ctx context.Context, actor user.Actor, orderID int64) (*Order, error) {
	return s.advance(ctx, actor, orderID, step{
		act: actionMarkReady,
		guard: func(_ context.Context, o *Order) error {
			if o.PreparedBy != nil && *o.PreparedBy != actor.UserID {
				return ErrWrongChef
			}
			if o.PreparedBy == nil && o.Status == StatusPreparing {
				return ErrWrongChef
			}
			return nil
		},
		apply: func(o *Order, now time.Time) {
			o.ReadyAt = &now
		},
	})
}

func (s *service) MarkServed(ctx context.Context, actor user.Actor, orderID int64) (*Order, error) {
	return s.advance(ctx, actor, orderID, step{
		act: actionMarkServed,
		apply: func(o *Order, now time.Time) {
			waiter := actor.UserID
			o.ServedBy = &waiter
			o.ServedAt = &now
		},
	})
}

func (s *service) Complete(ctx context.Context, actor user.Actor, orderID int64) (*Order, error) {
	return s.advance(ctx, actor, orderID, step{
		act:   actionComplete,
		guard: s.ownerGuard(actor),
		apply: func(o *Order, now time.Time) {
			o.CompletedAt = &now
		},
	})
}

func (s *service) Cancel(ctx context.Context, actor user.Actor, orderID int64, reason string) (*Order, error) {
	owner := s.ownerGuard(actor)
	return s.advance(ctx, actor, orderID, step{
		act: actionCancel,
		guard: func(ctx context.Context, o *Order) error {
			if actor.Role == user.RoleCustomer && o.CustomerID != actor.UserID {
				return ErrNotYourOrder
			}
			return owner(ctx, o)
		},
		apply: func(o *Order, now time.Time) {
			o.SpecialInstructions = appendCancelNote(o.SpecialInstructions, reason)
			o.CancelledAt = &now
		},
	})
}

func appendCancelNote(instructions, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "no reason given"
	}
	note := "Cancelled: " + reason
	if instructions == "" {
		return note
	}
	return instructions + " | " + note
}

func (s *service) UpdateStatus(ctx context.Context, actor user.Actor, orderID int64, status Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
		zap.Int64("order_id", orderID),
	)

	if !permits(actor.Role, actionUpdateStatus) {
		return nil, apperr.Forbidden("%s may not override order status", actor.Role)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := o.Status
	o.Status = status
	stampStage(o, status, s.now())

	if err := s.repo.UpdateTransition(ctx, o); err != nil {
		if errors.Is(err, ErrStaleOrder) {
			return nil, s.staleError(ctx, orderID, actionUpdateStatus, []string{string(from)})
		}
		return nil, err
	}

	log.Warn("order status overridden",
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)

	s.notifier.NotifyOrderStatus(ctx, o.ID, string(o.Status))
	return o, nil
}

// stampStage fills the timestamp for status if it was never reached.
func stampStage(o *Order, status Status, now time.Time) {
	var target **time.Time
	switch status {
	case StatusConfirmed:
		target = &o.ConfirmedAt
	case StatusPreparing:
		target = &o.PreparingStartedAt
	case StatusReady:
		target = &o.ReadyAt
	case StatusServed:
		target = &o.ServedAt
	case StatusCompleted:
		target = &o.CompletedAt
	case StatusCancelled:
		target = &o.CancelledAt
	case StatusPlaced:
		return
	}
	if target != nil && *target == nil {
		*target = &now
	}
}

// neverConfirmed reports whether deleting o loses no audit trail.
func neverConfirmed(o *Order) bool {
	if o.PaymentID != nil {
		return false
	}
	switch o.Status {
	case StatusPlaced:
		return true
	case StatusCancelled:
		return o.ConfirmedAt == nil && o.PreparedBy == nil
	}
	return false
}

func (s *service) Delete(ctx context.Context, actor user.Actor, orderID int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Delete"),
		zap.Int64("order_id", orderID),
	)

	if !permits(actor.Role, actionDelete) {
		return apperr.Forbidden("%s may not delete orders", actor.Role)
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !neverConfirmed(o) {
		if o.PaymentID != nil {
			return fmt.Errorf("%w: order %d", ErrOrderHasPayment, o.ID)
		}
		if o.Status == StatusCancelled {
			return fmt.Errorf("%w: order %d was confirmed before it was cancelled", apperr.ErrInvalidState, o.ID)
		}
		return &apperr.StateError{
			Entity:   "order",
			ID:       o.ID,
			Action:   string(actionDelete),
			Expected: []string{string(StatusPlaced), string(StatusCancelled)},
			Actual:   string(o.Status),
		}
	}

	if err := s.repo.Delete(ctx, o.ID, o.Version); err != nil {
		if errors.Is(err, ErrStaleOrder) {
			return s.staleError(ctx, orderID, actionDelete, []string{string(o.Status)})
		}
		return err
	}

	log.Warn("order deleted", zap.String("order_number", o.OrderNumber))
	return nil
}

func (s *service) canRead(ctx context.Context, actor user.Actor, o *Order) error {
	switch actor.Role {
	case user.RoleAdmin, user.RoleChef, user.RoleWaiter:
		return nil
	case user.RoleCafeOwner:
		return s.ownsCafe(ctx, actor, o.CafeID)
	case user.RoleCustomer:
		if o.CustomerID != actor.UserID {
			return ErrNotYourOrder
		}
		return nil
	case user.RoleUnknown:
	}
	return apperr.Forbidden("unknown role")
}

func (s *service) Get(ctx context.Context, actor user.Actor, orderID int64) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, actor, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) GetByNumber(ctx context.Context, actor user.Actor, number string) (*Order, error) {
	o, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, actor, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) List(ctx context.Context, actor user.Actor, filter ListFilter) ([]*Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w %q", ErrInvalidStatus, filter.Status)
	}

	switch actor.Role {
	case user.RoleAdmin, user.RoleChef, user.RoleWaiter:
	case user.RoleCafeOwner:
		if filter.CafeID == 0 {
			return nil, apperr.InvalidInput("cafe id is required")
		}
		if err := s.ownsCafe(ctx, actor, filter.CafeID); err != nil {
			return nil, err
		}
	case user.RoleCustomer:
		filter.CustomerID = actor.UserID
	case user.RoleUnknown:
		return nil, apperr.Forbidden("unknown role")
	}

	return s.repo.List(ctx, filter)
}
