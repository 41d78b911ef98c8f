package httpapi

import (
	"context"

	"cafe-be/internal/booking"
	"cafe-be/internal/order"
	"cafe-be/internal/payment"
	"cafe-be/internal/user"

	"github.com/stretchr/testify/mock"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*order.Order, error) {
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) Place(ctx context.Context, actor user.Actor, in order.PlaceInput) (*order.Order, error) {
	return m.order(m.Called(ctx, actor, in))
}

func (m *MockOrderService) Confirm(ctx context.Context, actor user.Actor, id int64) (*order.Order, error) {
	return m.order(m.Called(ctx, actor, id))
}

func (m *MockOrderService) StartPreparing(ctx context.Context, actor user.Actor, id int64) (*order.Order, error) {
	return m.order(m.Called(ctx, actor, id))
}

func (m *MockOrderService) MarkReady(ctx context.Context, actor user.Actor, id int64) (*order.Order, error) {
	return m.order(m.Called(ctx, actor, id))
}

func (m *MockOrderService) MarkServed(ctx context.Context, actor user.Actor, id int64) (*order.Order, error) {
	return m.order(m.Called(ctx, actor, id))
}

func (m *MockOrderService) Complete(ctx context.Context, actor user.Actor, id int64) (*order.Order, error) {
	return m.order(m.Called(ctx, actor, id))
}

func (m *MockOrderService) Cancel(ctx context.Context, actor user.Actor, id int64, reason string) (*order.Order, error) {
	return m.order(m.Called(ctx, actor, id, reason))
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, actor user.Actor, id int64, status order.Status) (*order.Order, error) {
	return m.order(m.Called(ctx, actor, id, status))
}

func (m *MockOrderService) Delete(ctx context.Context, actor user.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockOrderService) Get(ctx context.Context, actor user.Actor, id int64) (*order.Order, error) {
	return m.order(m.Called(ctx, actor, id))
}

func (m *MockOrderService) GetByNumber(ctx context.Context, actor user.Actor, number string) (*order.Order, error) {
	return m.order(m.Called(ctx, actor, number))
}

func (m *MockOrderService) List(ctx context.Context, actor user.Actor, filter order.ListFilter) ([]*order.Order, error) {
	args := m.Called(ctx, actor, filter)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) booking(args mock.Arguments) (*booking.Booking, error) {
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Error(1)
}

func (m *MockBookingService) list(args mock.Arguments) ([]*booking.Booking, error) {
	b, _ := args.Get(0).([]*booking.Booking)
	return b, args.Error(1)
}

func (m *MockBookingService) Create(ctx context.Context, actor user.Actor, in booking.CreateInput) (*booking.Booking, error) {
	return m.booking(m.Called(ctx, actor, in))
}

func (m *MockBookingService) Confirm(ctx context.Context, actor user.Actor, id int64) (*booking.Booking, error) {
	return m.booking(m.Called(ctx, actor, id))
}

func (m *MockBookingService) Cancel(ctx context.Context, actor user.Actor, id int64) (*booking.Booking, error) {
	return m.booking(m.Called(ctx, actor, id))
}

func (m *MockBookingService) Complete(ctx context.Context, actor user.Actor, id int64) (*booking.Booking, error) {
	return m.booking(m.Called(ctx, actor, id))
}

func (m *MockBookingService) Get(ctx context.Context, actor user.Actor, id int64) (*booking.Booking, error) {
	return m.booking(m.Called(ctx, actor, id))
}

func (m *MockBookingService) ListByCustomer(ctx context.Context, actor user.Actor, customerID int64) ([]*booking.Booking, error) {
	return m.list(m.Called(ctx, actor, customerID))
}

func (m *MockBookingService) ListByTable(ctx context.Context, actor user.Actor, tableID int64) ([]*booking.Booking, error) {
	return m.list(m.Called(ctx, actor, tableID))
}

func (m *MockBookingService) ListByCafe(ctx context.Context, actor user.Actor, cafeID int64) ([]*booking.Booking, error) {
	return m.list(m.Called(ctx, actor, cafeID))
}

func (m *MockBookingService) ListByDate(ctx context.Context, actor user.Actor, cafeID int64, date string) ([]*booking.Booking, error) {
	return m.list(m.Called(ctx, actor, cafeID, date))
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) payment(args mock.Arguments) (*payment.Payment, error) {
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func (m *MockPaymentService) Create(ctx context.Context, actor user.Actor, in payment.CreateInput) (*payment.Payment, error) {
	return m.payment(m.Called(ctx, actor, in))
}

func (m *MockPaymentService) Verify(ctx context.Context, txn, signature string) (*payment.Payment, error) {
	return m.payment(m.Called(ctx, txn, signature))
}

func (m *MockPaymentService) Refund(ctx context.Context, actor user.Actor, id int64) (*payment.Payment, error) {
	return m.payment(m.Called(ctx, actor, id))
}

func (m *MockPaymentService) Get(ctx context.Context, actor user.Actor, id int64) (*payment.Payment, error) {
	return m.payment(m.Called(ctx, actor, id))
}

func (m *MockPaymentService) GetByTransactionID(ctx context.Context, actor user.Actor, txn string) (*payment.Payment, error) {
	return m.payment(m.Called(ctx, actor, txn))
}

func (m *MockPaymentService) GetByOrderID(ctx context.Context, actor user.Actor, orderID int64) (*payment.Payment, error) {
	return m.payment(m.Called(ctx, actor, orderID))
}
