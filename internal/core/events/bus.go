package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (e BaseEvent) Payload() interface{} {
	return e.Data
}

type Handler func(ctx context.Context, event Event) error

type subscription struct {
	handler Handler
	async   bool
}

// Publisher is what command handlers depend on to dispatch the events their mutations return.
type Publisher interface {
	PublishAll(ctx context.Context, evts []Event) error
}

type EventBus struct {
	handlers map[string][]subscription
	logger   *slog.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]subscription),
		logger:   logger,
	}
}

// Subscribe registers a handler that runs inline; its error is returned to the publisher.
func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.subscribe(eventType, subscription{handler: handler})
}

// SubscribeAsync registers a fire-and-forget handler; failures are only logged.
func (eb *EventBus) SubscribeAsync(eventType string, handler Handler) {
	eb.subscribe(eventType, subscription{handler: handler, async: true})
}

func (eb *EventBus) subscribe(eventType string, sub subscription) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], sub)
	eb.logger.Debug("event handler registered",
		"event_type", eventType,
		"async", sub.async,
		"total_handlers", len(eb.handlers[eventType]))
}

// PublishSync runs every inline handler before returning, even when one fails.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	eb.mu.RLock()
	subs := append([]subscription(nil), eb.handlers[event.EventType()]...)
	eb.mu.RUnlock()

	if len(subs) == 0 {
		eb.logger.Debug("no handlers for event type", "event_type", event.EventType())
		return nil
	}

	eb.logger.Debug("publishing event",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"handlers_count", len(subs))

	var errs []error
	for _, sub := range subs {
		if sub.async {
			eb.wg.Add(1)
			go func(h Handler) {
				defer eb.wg.Done()
				// detached: the request context may be cancelled before the handler runs
				if err := h(context.WithoutCancel(ctx), event); err != nil {
					eb.logger.Error("async event handler failed",
						"event_type", event.EventType(),
						"event_id", event.EventID(),
						"error", err)
				}
			}(sub.handler)
			continue
		}

		if err := sub.handler(ctx, event); err != nil {
			eb.logger.Error("event handler failed",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("handlers failed for event %s: %w", event.EventType(), errors.Join(errs...))
	}
	return nil
}

// PublishAll dispatches events in order and reports every failure.
func (eb *EventBus) PublishAll(ctx context.Context, evts []Event) error {
	var errs []error
	for _, evt := range evts {
		if err := eb.PublishSync(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until in-flight async handlers finish; used on shutdown and in tests.
func (eb *EventBus) Wait() {
	eb.wg.Wait()
}
