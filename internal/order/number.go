package order

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

const numberTimeLayout = "20060102150405"

// NewOrderNumber builds ORD-<yyyyMMddHHmmss>-<8 hex>. The suffix is random,
// so uniqueness is still confirmed by the orders.order_number constraint.
func NewOrderNumber(now time.Time) string {
	id := uuid.New()
	return "ORD-" + now.UTC().Format(numberTimeLayout) + "-" + strings.ToUpper(hex.EncodeToString(id[:4]))
}
