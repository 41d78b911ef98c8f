package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	GatewayTest     = "TEST"
	GatewayRazorpay = "RAZORPAY"
)

// Gateway is the external payment provider.
type Gateway interface {
	Name() string
	// Verify reports whether signature was produced by the provider for transactionID.
	Verify(transactionID, signature string) bool
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal) error
	// AutoCapture reports whether new payments succeed without a verification callback.
	AutoCapture() bool
}

func NewGateway(name, keyID, keySecret string) (Gateway, error) {
	switch strings.ToUpper(name) {
	case GatewayTest:
		return testGateway{}, nil
	case GatewayRazorpay:
		return NewRazorpayGateway(keyID, keySecret), nil
	}
	return nil, fmt.Errorf("unknown payment gateway %q", name)
}

// testGateway accepts every payment. Used in development and tests.
type testGateway struct{}

func (testGateway) Name() string                                          { return GatewayTest }
func (testGateway) Verify(_, _ string) bool                               { return true }
func (testGateway) AutoCapture() bool                                     { return true }
func (testGateway) Refund(context.Context, string, decimal.Decimal) error { return nil }
