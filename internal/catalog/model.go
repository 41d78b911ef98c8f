package catalog

import "github.com/shopspring/decimal"

type TableStatus string

const (
	TableAvailable   TableStatus = "AVAILABLE"
	TableOccupied    TableStatus = "OCCUPIED"
	TableReserved    TableStatus = "RESERVED"
	TableMaintenance TableStatus = "MAINTENANCE"
)

type Cafe struct {
	ID      int64
	Name    string
	OwnerID int64
	Active  bool
}

type MenuItem struct {
	ID        int64
	CafeID    int64
	Name      string
	Price     decimal.Decimal
	Available bool
}

type Table struct {
	ID          int64
	CafeID      int64
	TableNumber string
	Capacity    int
	Status      TableStatus
	Active      bool
}

// Bookable reports whether a new reservation may be taken against the table.
func (t *Table) Bookable() bool {
	return t.Active && t.Status == TableAvailable
}
