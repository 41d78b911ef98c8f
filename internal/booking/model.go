package booking

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Holds reports whether a booking in this status occupies its slot.
func (s Status) Holds() bool {
	return s == StatusPending || s == StatusConfirmed
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Slot is the calendar date and time of day a table is reserved for. Both
// parts are kept in UTC with the other part zeroed.
type Slot struct {
	Date time.Time
	Time time.Time
}

func ParseSlot(date, clock string) (Slot, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return Slot{}, fmt.Errorf("booking date %q: %w", date, err)
	}
	t, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return Slot{}, fmt.Errorf("booking time %q: %w", clock, err)
	}
	return Slot{Date: d, Time: t}, nil
}

func (s Slot) DateString() string { return s.Date.Format(DateLayout) }
func (s Slot) TimeString() string { return s.Time.Format(TimeLayout) }

func (s Slot) String() string {
	return s.DateString() + " " + s.TimeString()
}

// minuteOfDay is the offset of the slot time from midnight.
func (s Slot) minuteOfDay() int {
	return s.Time.Hour()*60 + s.Time.Minute()
}

// ConflictMode selects how two bookings on the same table and date collide.
type ConflictMode string

const (
	// ConflictExact treats only identical times as colliding.
	ConflictExact ConflictMode = "exact"
	// ConflictOverlap treats times closer than the slot duration as colliding.
	ConflictOverlap ConflictMode = "overlap"
)

type ConflictPolicy struct {
	Mode         ConflictMode
	SlotDuration time.Duration
}

func ParseConflictMode(s string) (ConflictMode, error) {
	switch ConflictMode(s) {
	case ConflictExact, ConflictOverlap:
		return ConflictMode(s), nil
	}
	return "", fmt.Errorf("unknown booking conflict mode %q", s)
}

// Collides reports whether a and b, already known to share table and date,
// cannot both be held.
func (p ConflictPolicy) Collides(a, b Slot) bool {
	if p.Mode != ConflictOverlap || p.SlotDuration <= 0 {
		return a.minuteOfDay() == b.minuteOfDay()
	}
	diff := a.minuteOfDay() - b.minuteOfDay()
	if diff < 0 {
		diff = -diff
	}
	return time.Duration(diff)*time.Minute < p.SlotDuration
}

type Booking struct {
	ID              int64
	CustomerID      int64
	CafeID          int64
	TableID         int64
	Slot            Slot
	PartySize       int
	SpecialRequests string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateInput struct {
	TableID         int64
	Date            string
	Time            string
	PartySize       int
	SpecialRequests string
}

// ListFilter selects bookings; zero fields are ignored.
type ListFilter struct {
	CustomerID int64
	TableID    int64
	CafeID     int64
	Status     Status
	Date       *time.Time
}
