package events

import (
	"context"
	"errors"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// ErrQueueFull is returned when the dispatch buffer is saturated. Callers
// treat delivery as best-effort and log instead of failing their operation.
var ErrQueueFull = errors.New("event queue full")

// asyncDispatcher buffers published events and delivers them from a single
// consumer goroutine, decoupling side effects from the publishing request.
type asyncDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	queue     chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewAsyncDispatcher creates a dispatcher with the given buffer size.
func NewAsyncDispatcher(buffer int) *asyncDispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &asyncDispatcher{
		listeners: make(map[EventType][]EventHandler),
		queue:     make(chan Event, buffer),
		done:      make(chan struct{}),
	}
}

// Publish enqueues the event without blocking. A full queue drops the event.
func (d *asyncDispatcher) Publish(ctx context.Context, event Event) error {
	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe registers a handler for the given event type.
func (d *asyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Run consumes the queue until the context is cancelled or Close is called,
// then drains remaining buffered events. Handler errors are ignored here;
// handlers own their logging.
func (d *asyncDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case <-d.done:
			d.drain()
			return
		case event := <-d.queue:
			d.deliver(ctx, event)
		}
	}
}

// Close stops Run after the buffer drains.
func (d *asyncDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.done)
	})
}

func (d *asyncDispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.deliver(context.Background(), event)
		default:
			return
		}
	}
}

func (d *asyncDispatcher) deliver(ctx context.Context, event Event) {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		// continue processing other handlers despite errors
		_ = handler(ctx, event)
	}
}
