package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodCard       Method = "CARD"
	MethodUPI        Method = "UPI"
	MethodNetBanking Method = "NET_BANKING"
	MethodWallet     Method = "WALLET"
	MethodCash       Method = "CASH"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodUPI, MethodNetBanking, MethodWallet, MethodCash:
		return true
	}
	return false
}

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSuccess  Status = "SUCCESS"
	StatusFailed   Status = "FAILED"
	StatusRefunded Status = "REFUNDED"
)

type Payment struct {
	ID            int64
	OrderID       int64
	BookingID     *int64
	CustomerID    int64
	Amount        decimal.Decimal
	Method        Method
	Status        Status
	TransactionID string
	Gateway       string
	PaymentDate   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CreateInput struct {
	OrderID int64
	Amount  decimal.Decimal
	Method  Method
}
