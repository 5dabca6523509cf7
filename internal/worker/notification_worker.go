package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/service"
)

// NotificationWorker moves notification delivery off the request path:
// dispatcher handlers only enqueue, and one goroutine drains the queue.
type NotificationWorker struct {
	notifier *service.NotificationService
	queue    chan queuedEvent
	logger   *zap.Logger
	metrics  *observability.Metrics
	done     chan struct{}
}

type queuedEvent struct {
	ctx   context.Context
	event events.Event
}

// NewNotificationWorker buffers up to size events.
func NewNotificationWorker(notifier *service.NotificationService, size int, logger *zap.Logger, metrics *observability.Metrics) *NotificationWorker {
	if size <= 0 {
		size = 128
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		notifier: notifier,
		queue:    make(chan queuedEvent, size),
		logger:   logger,
		metrics:  metrics,
		done:     make(chan struct{}),
	}
}

// Subscribe registers the enqueueing handler for every notified event type.
func (w *NotificationWorker) Subscribe(dispatcher events.Dispatcher) {
	for _, eventType := range w.notifier.EventTypes() {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
}

// enqueue never blocks; a full queue drops the event.
func (w *NotificationWorker) enqueue(ctx context.Context, event events.Event) error {
	select {
	case w.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		w.metrics.RecordDroppedEvent()
		w.logger.Warn("notification queue full; dropping event",
			zap.String("event_type", string(event.Type)),
			zap.Int("ticket_id", event.TicketID))
	}
	return nil
}

// Start drains the queue until ctx is done, then delivers what is left.
func (w *NotificationWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		for {
			select {
			case item := <-w.queue:
				w.deliver(item)
			case <-ctx.Done():
				w.drain()
				return
			}
		}
	}()
}

// Wait blocks until the worker has stopped.
func (w *NotificationWorker) Wait() {
	<-w.done
}

func (w *NotificationWorker) drain() {
	for {
		select {
		case item := <-w.queue:
			w.deliver(item)
		default:
			return
		}
	}
}

func (w *NotificationWorker) deliver(item queuedEvent) {
	if err := w.notifier.Handle(item.ctx, item.event); err != nil {
		w.logger.Warn("notification failed",
			zap.String("event_type", string(item.event.Type)),
			zap.Error(err))
	}
}
