package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusConfirmed Status = "CONFIRMED"
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusServed    Status = "SERVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var allStatuses = []Status{
	StatusPlaced,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusServed,
	StatusCompleted,
	StatusCancelled,
}

func (s Status) Valid() bool {
	for _, v := range allStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Type string

const (
	TypePreOrder Type = "PRE_ORDER"
	TypeDineIn   Type = "DINE_IN"
	TypeTakeaway Type = "TAKEAWAY"
)

func (t Type) Valid() bool {
	switch t {
	case TypePreOrder, TypeDineIn, TypeTakeaway:
		return true
	}
	return false
}

type Order struct {
	ID                  int64
	OrderNumber         string
	CustomerID          int64
	CafeID              int64
	Type                Type
	Status              Status
	TotalAmount         decimal.Decimal
	BookingID           *int64
	PaymentID           *int64
	SpecialInstructions string
	PreparedBy          *int64
	ServedBy            *int64
	PlacedAt            time.Time
	ConfirmedAt         *time.Time
	PreparingStartedAt  *time.Time
	ReadyAt             *time.Time
	ServedAt            *time.Time
	CompletedAt         *time.Time
	CancelledAt         *time.Time
	UpdatedAt           time.Time
	Version             int
	Items               []OrderItem
}

// OrderItem is a line of an order. Price and quantity are frozen at placement.
type OrderItem struct {
	ID         int64
	OrderID    int64
	MenuItemID int64
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	Subtotal   decimal.Decimal
	Note       string
}

type ItemInput struct {
	MenuItemID int64
	Quantity   int
	Note       string
}

type PlaceInput struct {
	// CustomerID is only honoured for admins placing on someone's behalf.
	CustomerID   int64
	CafeID       int64
	Type         Type
	Items        []ItemInput
	Instructions string
	BookingID    *int64
}

// ListFilter selects orders; zero fields are ignored.
type ListFilter struct {
	CustomerID int64
	CafeID     int64
	Status     Status
	Limit      int
	Offset     int
}
