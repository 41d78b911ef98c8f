package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cafe-be/internal/apperr"
	"cafe-be/internal/catalog"
	"cafe-be/internal/logger"
	"cafe-be/internal/metrics"
	"cafe-be/internal/notification"
	"cafe-be/internal/user"

	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, actor user.Actor, in CreateInput) (*Booking, error)
	Confirm(ctx context.Context, actor user.Actor, bookingID int64) (*Booking, error)
	Cancel(ctx context.Context, actor user.Actor, bookingID int64) (*Booking, error)
	Complete(ctx context.Context, actor user.Actor, bookingID int64) (*Booking, error)
	Get(ctx context.Context, actor user.Actor, bookingID int64) (*Booking, error)
	ListByCustomer(ctx context.Context, actor user.Actor, customerID int64) ([]*Booking, error)
	ListByTable(ctx context.Context, actor user.Actor, tableID int64) ([]*Booking, error)
	ListByCafe(ctx context.Context, actor user.Actor, cafeID int64) ([]*Booking, error)
	// ListByDate lists one day's bookings; cafeID 0 means every cafe and is
	// not available to cafe owners.
	ListByDate(ctx context.Context, actor user.Actor, cafeID int64, date string) ([]*Booking, error)
}

// AccountChecks are the account prerequisites for reserving a table.
type AccountChecks interface {
	IsEmailVerified(ctx context.Context, userID int64) (bool, error)
	IsProfileComplete(ctx context.Context, userID int64) (bool, error)
}

type service struct {
	repo     Repository
	catalog  catalog.Store
	accounts AccountChecks
	notifier notification.Dispatcher
	policy   ConflictPolicy
}

func NewService(
	repo Repository,
	store catalog.Store,
	accounts AccountChecks,
	notifier notification.Dispatcher,
	policy ConflictPolicy,
) Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if policy.Mode == "" {
		policy.Mode = ConflictExact
	}
	return &service{
		repo:     repo,
		catalog:  store,
		accounts: accounts,
		notifier: notifier,
		policy:   policy,
	}
}

func (s *service) Create(ctx context.Context, actor user.Actor, in CreateInput) (*Booking, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
		zap.Int64("table_id", in.TableID),
	)

	if !permits(actor.Role, actionCreate) {
		return nil, apperr.Forbidden("%s may not book tables", actor.Role)
	}

	slot, err := ParseSlot(in.Date, in.Time)
	if err != nil {
		return nil, apperr.InvalidInput("%v", err)
	}
	if in.PartySize < 1 {
		return nil, ErrInvalidPartySize
	}

	verified, err := s.accounts.IsEmailVerified(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, ErrEmailNotVerified
	}
	complete, err := s.accounts.IsProfileComplete(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, ErrProfileIncomplete
	}

	table, err := s.catalog.GetTable(ctx, in.TableID)
	if err != nil {
		return nil, err
	}
	if !table.Bookable() {
		return nil, fmt.Errorf("%w: table %d is %s (active=%t)", ErrTableUnavailable, table.ID, table.Status, table.Active)
	}
	if in.PartySize > table.Capacity {
		return nil, fmt.Errorf("%w: %d guests, table seats %d", ErrOverCapacity, in.PartySize, table.Capacity)
	}

	taken, err := s.repo.HasConflict(ctx, table.ID, slot, s.policy)
	if err != nil {
		return nil, err
	}
	if taken {
		metrics.BookingConflicts.Inc()
		return nil, fmt.Errorf("%w: table %d at %s", ErrSlotTaken, table.ID, slot)
	}

	b := &Booking{
		CustomerID:      actor.UserID,
		CafeID:          table.CafeID,
		TableID:         table.ID,
		Slot:            slot,
		PartySize:       in.PartySize,
		SpecialRequests: in.SpecialRequests,
		Status:          StatusPending,
	}
	if err := s.repo.Create(ctx, b, s.policy); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			metrics.BookingConflicts.Inc()
			return nil, fmt.Errorf("%w: table %d at %s", err, table.ID, slot)
		}
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	log.Info("booking created",
		zap.Int64("booking_id", b.ID),
		zap.String("slot", slot.String()),
		zap.Int("party_size", b.PartySize),
	)
	return b, nil
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

// canAccess decides whether actor may see or act on b.
func (s *service) canAccess(ctx context.Context, actor user.Actor, b *Booking) error {
	switch actor.Role {
	case user.RoleAdmin, user.RoleWaiter, user.RoleChef:
		return nil
	case user.RoleCafeOwner:
		return s.ownsCafe(ctx, actor, b.CafeID)
	case user.RoleCustomer:
		if b.CustomerID != actor.UserID {
			return ErrNotYourBooking
		}
		return nil
	case user.RoleUnknown:
	}
	return apperr.Forbidden("unknown role")
}

func (s *service) transition(ctx context.Context, actor user.Actor, bookingID int64, act action) (*Booking, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", string(act)),
		zap.Int64("booking_id", bookingID),
	)

	if !permits(actor.Role, act) {
		return nil, apperr.Forbidden("%s may not %s bookings", actor.Role, act)
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.canAccess(ctx, actor, b); err != nil {
		return nil, err
	}

	t := transitions[act]
	if !t.allows(b.Status) {
		return nil, &apperr.StateError{
			Entity:   "booking",
			ID:       b.ID,
			Action:   string(act),
			Expected: t.expected(),
			Actual:   string(b.Status),
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, t.to)
	if errors.Is(err, ErrStaleBooking) {
		current, gerr := s.repo.GetByID(ctx, b.ID)
		if gerr != nil {
			return nil, gerr
		}
		return nil, &apperr.StateError{
			Entity:   "booking",
			ID:       b.ID,
			Action:   string(act),
			Expected: t.expected(),
			Actual:   string(current.Status),
		}
	}
	if err != nil {
		log.Error("failed to update booking status", zap.Error(err))
		return nil, err
	}

	log.Info("booking transitioned",
		zap.String("from", string(b.Status)),
		zap.String("to", string(updated.Status)),
	)
	return updated, nil
}

func (s *service) Confirm(ctx context.Context, actor user.Actor, bookingID int64) (*Booking, error) {
	b, err := s.transition(ctx, actor, bookingID, actionConfirm)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyBookingConfirmed(ctx, b.ID)
	return b, nil
}

func (s *service) Cancel(ctx context.Context, actor user.Actor, bookingID int64) (*Booking, error) {
	return s.transition(ctx, actor, bookingID, actionCancel)
}

func (s *service) Complete(ctx context.Context, actor user.Actor, bookingID int64) (*Booking, error) {
	return s.transition(ctx, actor, bookingID, actionComplete)
}

func (s *service) Get(ctx context.Context, actor user.Actor, bookingID int64) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.canAccess(ctx, actor, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) ListByCustomer(ctx context.Context, actor user.Actor, customerID int64) ([]*Booking, error) {
	switch actor.Role {
	case user.RoleCustomer:
		if customerID != actor.UserID {
			return nil, ErrNotYourBooking
		}
	case user.RoleAdmin, user.RoleWaiter, user.RoleChef:
	case user.RoleCafeOwner, user.RoleUnknown:
		return nil, apperr.Forbidden("%s may not list bookings by customer", actor.Role)
	}
	return s.repo.List(ctx, ListFilter{CustomerID: customerID})
}

// staffScope allows staff to read a cafe's bookings; owners only their own cafe.
func (s *service) staffScope(ctx context.Context, actor user.Actor, cafeID int64) error {
	switch actor.Role {
	case user.RoleAdmin, user.RoleWaiter, user.RoleChef:
		return nil
	case user.RoleCafeOwner:
		if cafeID == 0 {
			return apperr.InvalidInput("cafe id is required")
		}
		return s.ownsCafe(ctx, actor, cafeID)
	case user.RoleCustomer, user.RoleUnknown:
	}
	return apperr.Forbidden("%s may not list cafe bookings", actor.Role)
}

func (s *service) ListByTable(ctx context.Context, actor user.Actor, tableID int64) ([]*Booking, error) {
	table, err := s.catalog.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if err := s.staffScope(ctx, actor, table.CafeID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, ListFilter{TableID: tableID})
}

func (s *service) ListByCafe(ctx context.Context, actor user.Actor, cafeID int64) ([]*Booking, error) {
	if err := s.staffScope(ctx, actor, cafeID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, ListFilter{CafeID: cafeID})
}

func (s *service) ListByDate(ctx context.Context, actor user.Actor, cafeID int64, date string) ([]*Booking, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, apperr.InvalidInput("booking date %q: %v", date, err)
	}
	if err := s.staffScope(ctx, actor, cafeID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, ListFilter{CafeID: cafeID, Date: &day})
}
