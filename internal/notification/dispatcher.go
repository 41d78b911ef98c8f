// Package notification fans order and booking events out to external
// channels. Dispatch never blocks the caller and never reports failure back
// to it: a full queue or a failing sink only produces a log line.
package notification

import (
	"context"
	"sync"
	"time"

	"cafe-be/internal/logger"
	"cafe-be/internal/metrics"

	"go.uber.org/zap"
)

type EventType string

const (
	EventOrderStatus      EventType = "ORDER_STATUS"
	EventBookingConfirmed EventType = "BOOKING_CONFIRMED"
)

type Event struct {
	Type       EventType `json:"type"`
	OrderID    int64     `json:"order_id,omitempty"`
	BookingID  int64     `json:"booking_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Dispatcher is informed of state changes after they are committed.
type Dispatcher interface {
	NotifyOrderStatus(ctx context.Context, orderID int64, status string)
	NotifyBookingConfirmed(ctx context.Context, bookingID int64)
}

// Sink delivers a single event to an external channel.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

type AsyncDispatcher struct {
	sink    Sink
	queue   chan Event
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncDispatcher(sink Sink, queueSize int) *AsyncDispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	d := &AsyncDispatcher{
		sink:    sink,
		queue:   make(chan Event, queueSize),
		timeout: 5 * time.Second,
	}

	d.wg.Add(1)
	go d.run()
	return d
}

func (d *AsyncDispatcher) NotifyOrderStatus(ctx context.Context, orderID int64, status string) {
	d.enqueue(ctx, Event{Type: EventOrderStatus, OrderID: orderID, Status: status})
}

func (d *AsyncDispatcher) NotifyBookingConfirmed(ctx context.Context, bookingID int64) {
	d.enqueue(ctx, Event{Type: EventBookingConfirmed, BookingID: bookingID})
}

func (d *AsyncDispatcher) enqueue(ctx context.Context, e Event) {
	e.RequestID = logger.RequestIDFrom(ctx)
	e.OccurredAt = time.Now().UTC()

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		logger.FromCtx(ctx).Warn("notification dropped: dispatcher closed", zap.String("type", string(e.Type)))
		metrics.NotificationsDropped.Inc()
		return
	}

	select {
	case d.queue <- e:
	default:
		logger.FromCtx(ctx).Warn("notification dropped: queue full",
			zap.String("type", string(e.Type)),
			zap.Int64("order_id", e.OrderID),
			zap.Int64("booking_id", e.BookingID),
		)
		metrics.NotificationsDropped.Inc()
	}
}

func (d *AsyncDispatcher) run() {
	defer d.wg.Done()

	for e := range d.queue {
		d.deliver(e)
	}
}

func (d *AsyncDispatcher) deliver(e Event) {
	ctx := context.Background()
	if e.RequestID != "" {
		ctx = logger.WithRequestID(ctx, e.RequestID)
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	timer := metrics.StartTimer()
	log := logger.FromCtx(ctx).With(zap.String("type", string(e.Type)))

	if err := d.sink.Publish(ctx, e); err != nil {
		timer.ObserveMillis(&metrics.NotificationPublishMillis)
		log.Error("notification delivery failed", zap.Error(err))
		metrics.NotificationsFailed.Inc()
		return
	}

	took := timer.ObserveMillis(&metrics.NotificationPublishMillis)
	metrics.NotificationsSent.Inc()
	log.Debug("notification delivered", zap.Duration("took", took))
}

// Close stops accepting events and waits for the queue to drain.
func (d *AsyncDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

// Nop discards every notification.
type Nop struct{}

func (Nop) NotifyOrderStatus(context.Context, int64, string) {}
func (Nop) NotifyBookingConfirmed(context.Context, int64)    {}
