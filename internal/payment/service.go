package payment

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
	"cafe-be/internal/order"
	"cafe-be/internal/user"

	"go.uber.org/zap"
)

// StatusPaymentConfirmed is the notification status sent when a payment succeeds.
const StatusPaymentConfirmed = "PAYMENT_CONFIRMED"

type Service interface {
	// Create records a payment for the customer's own order and confirms the
	// order if it is still PLACED.
	Create(ctx context.Context, actor user.Actor, in CreateInput) (*Payment, error)
	// Verify settles a PENDING payment from the gateway callback.
	Verify(ctx context.Context, transactionID, signature string) (*Payment, error)
	Refund(ctx context.Context, actor user.Actor, paymentID int64) (*Payment, error)
	Get(ctx context.Context, actor user.Actor, paymentID int64) (*Payment, error)
	GetByTransactionID(ctx context.Context, actor user.Actor, transactionID string) (*Payment, error)
	GetByOrderID(ctx context.Context, actor user.Actor, orderID int64) (*Payment, error)
}

// OrderReader loads the order a payment is made for.
type OrderReader interface {
	GetByID(ctx context.Context, id int64) (*order.Order, error)
}

type service struct {
	repo     Repository
	orders   OrderReader
	catalog  catalog.Store
	gateway  Gateway
	notifier notification.Dispatcher
	now      func() time.Time
}

func NewService(
	repo Repository,
	orders OrderReader,
	store catalog.Store,
	gateway Gateway,
	notifier notification.Dispatcher,
) Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &service{
		repo:     repo,
		orders:   orders,
		catalog:  store,
		gateway:  gateway,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, actor user.Actor, in CreateInput) (*Payment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
		zap.Int64("order_id", in.OrderID),
	)

	if actor.Role != user.RoleCustomer {
		return nil, apperr.Forbidden("%s may not pay for orders", actor.Role)
	}
	if !in.Method.Valid() {
		return nil, fmt.Errorf("%w %q", ErrInvalidMethod, in.Method)
	}

	o, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != actor.UserID {
		return nil, ErrNotYourOrder
	}
	if !in.Amount.Equal(o.TotalAmount) {
		return nil, fmt.Errorf("%w: got %s, order total is %s",
			ErrAmountMismatch, in.Amount.StringFixed(2), o.TotalAmount.StringFixed(2))
	}
	if !payable(o.Status) {
		return nil, unpayable(o.ID, o.Status)
	}

	latest, err := s.repo.GetByOrderID(ctx, o.ID)
	switch {
	case err == nil && latest.Status == StatusSuccess:
		return nil, ErrAlreadyPaid
	case err != nil && !errors.Is(err, ErrPaymentNotFound):
		return nil, err
	}

	p := &Payment{
		OrderID:    o.ID,
		BookingID:  o.BookingID,
		CustomerID: o.CustomerID,
		Amount:     o.TotalAmount,
		Method:     in.Method,
		Status:     StatusPending,
		Gateway:    s.gateway.Name(),
	}
	if s.gateway.AutoCapture() {
		now := s.now()
		p.Status = StatusSuccess
		p.PaymentDate = &now
	}

	confirmed, err := s.repo.Create(ctx, p)
	if err != nil {
		log.Error("failed to create payment", zap.Error(err))
		return nil, err
	}

	log.Info("payment created",
		zap.Int64("payment_id", p.ID),
		zap.String("transaction_id", p.TransactionID),
		zap.String("status", string(p.Status)),
		zap.Bool("order_confirmed", confirmed),
	)

	if confirmed {
		metrics.OrderTransitions.Inc()
		s.notifier.NotifyOrderStatus(ctx, p.OrderID, string(order.StatusConfirmed))
	}
	if p.Status == StatusSuccess {
		metrics.PaymentsVerified.Inc()
		s.notifier.NotifyOrderStatus(ctx, p.OrderID, StatusPaymentConfirmed)
	}
	return p, nil
}

func (s *service) Verify(ctx context.Context, transactionID, signature string) (*Payment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Verify"),
		zap.String("transaction_id", transactionID),
	)

	p, err := s.repo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		return nil, pendingOnly(p, "verify")
	}

	if !s.gateway.Verify(transactionID, signature) {
		if _, err := s.repo.UpdateStatus(ctx, p.ID, StatusPending, StatusFailed, nil); err != nil {
			return nil, s.resolveStale(ctx, err, p.ID, "verify")
		}
		log.Warn("payment signature rejected", zap.Int64("payment_id", p.ID))
		return nil, ErrVerificationFailed
	}

	now := s.now()
	updated, err := s.repo.UpdateStatus(ctx, p.ID, StatusPending, StatusSuccess, &now)
	if err != nil {
		return nil, s.resolveStale(ctx, err, p.ID, "verify")
	}

	metrics.PaymentsVerified.Inc()
	log.Info("payment verified", zap.Int64("payment_id", p.ID))

	s.notifier.NotifyOrderStatus(ctx, updated.OrderID, StatusPaymentConfirmed)
	return updated, nil
}

// payable reports whether an order in status may still take a payment.
func payable(status order.Status) bool {
	return status != order.StatusCancelled && status != order.StatusCompleted
}

func unpayable(orderID int64, status order.Status) error {
	return &apperr.StateError{
		Entity: "order",
		ID:     orderID,
		Action: "pay for",
		Actual: string(status),
	}
}

func pendingOnly(p *Payment, action string) error {
	return &apperr.StateError{
		Entity:   "payment",
		ID:       p.ID,
		Action:   action,
		Expected: []string{string(StatusPending)},
		Actual:   string(p.Status),
	}
}

// resolveStale turns ErrStalePayment into a state error carrying the status
// that won the race.
func (s *service) resolveStale(ctx context.Context, err error, paymentID int64, action string) error {
	if !errors.Is(err, ErrStalePayment) {
		return err
	}
	current, getErr := s.repo.GetByID(ctx, paymentID)
	if getErr != nil {
		return getErr
	}
	expected := StatusPending
	if action == "refund" {
		expected = StatusSuccess
	}
	return &apperr.StateError{
		Entity:   "payment",
		ID:       paymentID,
		Action:   action,
		Expected: []string{string(expected)},
		Actual:   string(current.Status),
	}
}

func (s *service) Refund(ctx context.Context, actor user.Actor, paymentID int64) (*Payment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Refund"),
		zap.Int64("payment_id", paymentID),
	)

	if actor.Role != user.RoleAdmin && actor.Role != user.RoleCafeOwner {
		return nil, apperr.Forbidden("%s may not refund payments", actor.Role)
	}

	p, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if actor.Role == user.RoleCafeOwner {
		if err := s.ownsOrderCafe(ctx, actor, p.OrderID); err != nil {
			return nil, err
		}
	}
	if p.Status != StatusSuccess {
		return nil, &apperr.StateError{
			Entity:   "payment",
			ID:       p.ID,
			Action:   "refund",
			Expected: []string{string(StatusSuccess)},
			Actual:   string(p.Status),
		}
	}

	refunded, err := s.repo.Refund(ctx, p.ID, func(p *Payment) error {
		return s.gateway.Refund(ctx, p.TransactionID, p.Amount)
	})
	if err != nil {
		return nil, s.resolveStale(ctx, err, p.ID, "refund")
	}

	metrics.PaymentsRefunded.Inc()
	log.Info("payment refunded, order cancelled",
		zap.Int64("order_id", refunded.OrderID),
		zap.String("amount", refunded.Amount.StringFixed(2)),
	)

	s.notifier.NotifyOrderStatus(ctx, refunded.OrderID, string(order.StatusCancelled))
	return refunded, nil
}

func (s *service) ownsOrderCafe(ctx context.Context, actor user.Actor, orderID int64) error {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	cafe, err := s.catalog.GetCafe(ctx, o.CafeID)
	if err != nil {
		return err
	}
	if cafe.OwnerID != actor.UserID {
		return ErrNotYourCafe
	}
	return nil
}

func (s *service) canRead(ctx context.Context, actor user.Actor, p *Payment) error {
	switch actor.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleCafeOwner:
		return s.ownsOrderCafe(ctx, actor, p.OrderID)
	case user.RoleCustomer:
		if p.CustomerID != actor.UserID {
			return ErrNotYourPayment
		}
		return nil
	}
	return apperr.Forbidden("%s may not view payments", actor.Role)
}

func (s *service) read(ctx context.Context, actor user.Actor, p *Payment, err error) (*Payment, error) {
	if err != nil {
		return nil, err
	}
	if err := s.canRead(ctx, actor, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, actor user.Actor, paymentID int64) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, paymentID)
	return s.read(ctx, actor, p, err)
}

func (s *service) GetByTransactionID(ctx context.Context, actor user.Actor, transactionID string) (*Payment, error) {
	p, err := s.repo.GetByTransactionID(ctx, transactionID)
	return s.read(ctx, actor, p, err)
}

func (s *service) GetByOrderID(ctx context.Context, actor user.Actor, orderID int64) (*Payment, error) {
	p, err := s.repo.GetByOrderID(ctx, orderID)
	return s.read(ctx, actor, p, err)
}
