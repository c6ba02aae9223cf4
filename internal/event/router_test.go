package event

import (
	"context"
	"errors"
	"testing"

	"propertyops/internal/model"
)

func TestRouterDispatchUnknownType(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	err := r.Dispatch(context.Background(), model.DomainEvent{EventType: "no_such_event"})
	if !errors.Is(err, ErrUnknownEventType) {
		t.Fatalf("expected ErrUnknownEventType, got %v", err)
	}
}

func TestRouterDispatchSuccess(t *testing.T) {
	t.Parallel()

	var got model.DomainEvent
	r := NewRouter()
	r.Register(model.EventTenantPaymentMade, func(ctx context.Context, ev model.DomainEvent) error {
		got = ev
		return nil
	})

	ev := model.DomainEvent{EventType: model.EventTenantPaymentMade}
	if err := r.Dispatch(context.Background(), ev); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if got.EventType != model.EventTenantPaymentMade {
		t.Fatalf("handler saw wrong event type %q", got.EventType)
	}
}

func TestRouterDispatchWrapsHandlerError(t *testing.T) {
	t.Parallel()

	cause := errors.New("downstream down")
	r := NewRouter()
	r.Register(model.EventManagerActionTaken, func(ctx context.Context, ev model.DomainEvent) error {
		return cause
	})

	err := r.Dispatch(context.Background(), model.DomainEvent{EventType: model.EventManagerActionTaken})
	var handlerErr *HandlerFailedError
	if !errors.As(err, &handlerErr) {
		t.Fatalf("expected *HandlerFailedError, got %T", err)
	}
	if handlerErr.EventType != model.EventManagerActionTaken {
		t.Errorf("wrong event type in error: %q", handlerErr.EventType)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to the handler cause")
	}
}

func TestRouterKnows(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.Register(model.EventTenantIssueReported, func(ctx context.Context, ev model.DomainEvent) error { return nil })

	if !r.Knows(model.EventTenantIssueReported) {
		t.Error("registered type should be known")
	}
	if r.Knows("bogus") {
		t.Error("unregistered type should not be known")
	}
}
