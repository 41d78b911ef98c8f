package payment

import (
	"strings"

	"github.com/google/uuid"
)

// NewTransactionID returns "TXN_" followed by 16 upper-case hex characters.
func NewTransactionID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TXN_" + strings.ToUpper(hex[:16])
}
