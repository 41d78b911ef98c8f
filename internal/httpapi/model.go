package httpapi

import "github.com/shopspring/decimal"

type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Actual string `json:"actual_status,omitempty"`
}

type OrderItemRequest struct {
	MenuItemID int64  `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note,omitempty"`
}

type PlaceOrderRequest struct {
	CustomerID   int64              `json:"customer_id,omitempty"`
	CafeID       int64              `json:"cafe_id"`
	Type         string             `json:"order_type"`
	Items        []OrderItemRequest `json:"items"`
	Instructions string             `json:"special_instructions,omitempty"`
	BookingID    *int64             `json:"booking_id,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type OrderItemResponse struct {
	ID         int64  `json:"id"`
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	Subtotal   string `json:"subtotal"`
	Note       string `json:"note,omitempty"`
}

type OrderResponse struct {
	ID                  int64               `json:"id"`
	OrderNumber         string              `json:"order_number"`
	CustomerID          int64               `json:"customer_id"`
	CafeID              int64               `json:"cafe_id"`
	Type                string              `json:"order_type"`
	Status              string              `json:"status"`
	TotalAmount         string              `json:"total_amount"`
	BookingID           *int64              `json:"booking_id,omitempty"`
	PaymentID           *int64              `json:"payment_id,omitempty"`
	SpecialInstructions string              `json:"special_instructions,omitempty"`
	PreparedBy          *int64              `json:"prepared_by,omitempty"`
	ServedBy            *int64              `json:"served_by,omitempty"`
	PlacedAt            string              `json:"placed_at"`
	ConfirmedAt         *string             `json:"confirmed_at,omitempty"`
	PreparingStartedAt  *string             `json:"preparing_started_at,omitempty"`
	ReadyAt             *string             `json:"ready_at,omitempty"`
	ServedAt            *string             `json:"served_at,omitempty"`
	CompletedAt         *string             `json:"completed_at,omitempty"`
	CancelledAt         *string             `json:"cancelled_at,omitempty"`
	Items               []OrderItemResponse `json:"items"`
}

type CreateBookingRequest struct {
	TableID         int64  `json:"table_id"`
	Date            string `json:"booking_date"`
	Time            string `json:"booking_time"`
	PartySize       int    `json:"party_size"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

type BookingResponse struct {
	ID              int64  `json:"id"`
	CustomerID      int64  `json:"customer_id"`
	CafeID          int64  `json:"cafe_id"`
	TableID         int64  `json:"table_id"`
	Date            string `json:"booking_date"`
	Time            string `json:"booking_time"`
	PartySize       int    `json:"party_size"`
	SpecialRequests string `json:"special_requests,omitempty"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
}

type CreatePaymentRequest struct {
	OrderID int64           `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"payment_method"`
}

type PaymentResponse struct {
	ID            int64    `json:"id"`
	OrderID       int64    `json:"order_id"`
	BookingID     *int64   `json:"booking_id,omitempty"`
	CustomerID    int64    `json:"customer_id"`
	Amount        string   `json:"amount"`
	Method        string   `json:"payment_method"`
	Status        string   `json:"status"`
	TransactionID string   `json:"transaction_id"`
	Gateway       string   `json:"gateway"`
	PaymentDate   *string  `json:"payment_date,omitempty"`
	Instructions  []string `json:"instructions,omitempty"`
}
