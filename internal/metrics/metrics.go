// Package metrics keeps process-wide workflow counters. They are exposed as a
// flat snapshot on the internal metrics endpoint.
package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	n atomic.Uint64
}

func (c *Counter) Inc()         { c.n.Add(1) }
func (c *Counter) Add(n uint64) { c.n.Add(n) }
func (c *Counter) Load() uint64 { return c.n.Load() }

// Timer measures one operation and can fold its elapsed time into a counter
// of milliseconds.
type Timer struct {
	start time.Time
}

func StartTimer() Timer {
	return Timer{start: time.Now()}
}

func (t Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// ObserveMillis adds the elapsed time to c and returns it.
func (t Timer) ObserveMillis(c *Counter) time.Duration {
	d := t.Elapsed()
	c.Add(uint64(d.Milliseconds()))
	return d
}

var (
	OrdersPlaced         Counter
	OrderTransitions     Counter
	OrderStaleWrites     Counter
	BookingsCreated      Counter
	BookingConflicts     Counter
	PaymentsVerified     Counter
	PaymentsRefunded     Counter
	NotificationsSent    Counter
	NotificationsFailed  Counter
	NotificationsDropped Counter
	// NotificationPublishMillis is the total time spent in sink publishes.
	NotificationPublishMillis Counter
)

func Snapshot() map[string]uint64 {
	return map[string]uint64{
		"orders_placed":               OrdersPlaced.Load(),
		"order_transitions":           OrderTransitions.Load(),
		"order_stale_writes":          OrderStaleWrites.Load(),
		"bookings_created":            BookingsCreated.Load(),
		"booking_conflicts":           BookingConflicts.Load(),
		"payments_verified":           PaymentsVerified.Load(),
		"payments_refunded":           PaymentsRefunded.Load(),
		"notifications_sent":          NotificationsSent.Load(),
		"notifications_failed":        NotificationsFailed.Load(),
		"notifications_dropped":       NotificationsDropped.Load(),
		"notification_publish_millis": NotificationPublishMillis.Load(),
	}
}
