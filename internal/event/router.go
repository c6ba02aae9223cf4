package event

import (
	"context"
	"errors"
	"fmt"

	"propertyops/internal/model"
)

// ErrUnknownEventType is returned by Dispatch when no handler is registered
// for the event's type.
var ErrUnknownEventType = errors.New("unknown event type")

// HandlerFailedError wraps a handler failure with the event type that
// triggered it. The router never retries; retry policy belongs to the
// caller (see internal/relay).
type HandlerFailedError struct {
	EventType string
	Cause     error
}

func (e *HandlerFailedError) Error() string {
	return fmt.Sprintf("handler for %q failed: %v", e.EventType, e.Cause)
}

func (e *HandlerFailedError) Unwrap() error {
	return e.Cause
}

// HandlerFunc processes one domain event. Handlers compose store and
// notifier calls; the event itself is never mutated.
type HandlerFunc func(ctx context.Context, ev model.DomainEvent) error

// Router maps event types to handlers. Register is called during startup
// wiring only; Dispatch is safe for concurrent use afterwards.
type Router struct {
	handlers map[string]HandlerFunc
}

func NewRouter() *Router {
	return &Router{handlers: make(map[string]HandlerFunc)}
}

func (r *Router) Register(eventType string, h HandlerFunc) {
	r.handlers[eventType] = h
}

// Knows reports whether a handler is registered for the event type.
func (r *Router) Knows(eventType string) bool {
	_, ok := r.handlers[eventType]
	return ok
}

func (r *Router) Dispatch(ctx context.Context, ev model.DomainEvent) error {
	h, ok := r.handlers[ev.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEventType, ev.EventType)
	}
	if err := h(ctx, ev); err != nil {
		return &HandlerFailedError{EventType: ev.EventType, Cause: err}
	}
	return nil
}
