package event

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"propertyops/internal/model"
	"propertyops/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SubmitEventRequest is the inbound envelope. Payload is stored verbatim;
// handlers decode it per event type.
type SubmitEventRequest struct {
	EventType   string                 `json:"event_type" binding:"required"`
	Payload     map[string]interface{} `json:"payload" binding:"required"`
	SubmittedBy string                 `json:"submitted_by"`
}

type EventResponse struct {
	ID        string     `json:"id"`
	EventType string     `json:"event_type"`
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"last_error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	NextRetry *time.Time `json:"next_retry,omitempty"`
}

// Ingestor persists incoming events and pushes them through the router.
// An event is accepted (persisted RECEIVED) before dispatch runs, so a
// handler crash never loses the envelope; failed dispatches are retried by
// the relay until maxAttempts, then parked DEAD.
type Ingestor struct {
	events          repository.EventRepository
	audits          repository.AuditRepository
	txManager       repository.TransactionManager
	router          *Router
	dispatchTimeout time.Duration
	retryBackoff    time.Duration
}

func NewIngestor(
	events repository.EventRepository,
	audits repository.AuditRepository,
	txManager repository.TransactionManager,
	router *Router,
	dispatchTimeout time.Duration,
	retryBackoff time.Duration,
) *Ingestor {
	if dispatchTimeout <= 0 {
		dispatchTimeout = 10 * time.Second
	}
	if retryBackoff <= 0 {
		retryBackoff = 30 * time.Second
	}
	return &Ingestor{
		events:          events,
		audits:          audits,
		txManager:       txManager,
		router:          router,
		dispatchTimeout: dispatchTimeout,
		retryBackoff:    retryBackoff,
	}
}

// Submit validates the type, persists the event, and dispatches it inline.
// Unknown event types are rejected without persisting anything. A handler
// failure leaves the event FAILED for the relay and surfaces the wrapped
// error to the caller.
func (ing *Ingestor) Submit(ctx context.Context, req SubmitEventRequest) (*model.DomainEvent, error) {
	if !ing.router.Knows(req.EventType) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, req.EventType)
	}

	ev := &model.DomainEvent{
		EventType: req.EventType,
		Payload:   datatypes.JSONMap(req.Payload),
		Status:    model.EventStatusReceived,
	}
	if req.SubmittedBy != "" {
		submitter, err := uuid.Parse(req.SubmittedBy)
		if err != nil {
			return nil, fmt.Errorf("invalid submitted_by: %w", err)
		}
		ev.SubmittedBy = &submitter
	}

	err := ing.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := ing.events.Create(txCtx, ev); err != nil {
			return fmt.Errorf("failed to persist event: %w", err)
		}
		return ing.audits.Log(txCtx, &model.AuditLog{
			UserID:     ev.SubmittedBy,
			Action:     model.ActionSubmitEvent,
			EntityID:   ev.ID.String(),
			EntityName: ev.EventType,
		})
	})
	if err != nil {
		return nil, err
	}

	if dispatchErr := ing.dispatch(ctx, *ev); dispatchErr != nil {
		return ev, dispatchErr
	}

	ev.Status = model.EventStatusProcessed
	return ev, nil
}

// dispatch runs the handler with a bounded deadline and records the
// outcome on the envelope.
func (ing *Ingestor) dispatch(ctx context.Context, ev model.DomainEvent) error {
	dispatchCtx, cancel := context.WithTimeout(ctx, ing.dispatchTimeout)
	defer cancel()

	err := ing.router.Dispatch(dispatchCtx, ev)
	if err == nil {
		if markErr := ing.events.MarkProcessed(ctx, ev.ID); markErr != nil {
			log.Printf("event %s processed but status update failed: %v", ev.ID, markErr)
		}
		return nil
	}

	// A type unknown at dispatch time means the registration set changed
	// under us; the event can never succeed, park it.
	if errors.Is(err, ErrUnknownEventType) {
		if markErr := ing.events.MarkDead(ctx, ev.ID, err.Error()); markErr != nil {
			log.Printf("event %s: failed to mark dead: %v", ev.ID, markErr)
		}
		return err
	}

	nextAttempt := time.Now().Add(ing.retryBackoff)
	markErr := ing.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := ing.events.MarkFailed(txCtx, ev.ID, err.Error(), nextAttempt); err != nil {
			return err
		}
		return ing.audits.Log(txCtx, &model.AuditLog{
			Action:     model.ActionDispatchFailed,
			EntityID:   ev.ID.String(),
			EntityName: ev.EventType,
			Details:    fmt.Sprintf(`{"error":%q}`, err.Error()),
		})
	})
	if markErr != nil {
		log.Printf("event %s: failed to record dispatch failure: %v", ev.ID, markErr)
	}
	return err
}

// Get returns a single event by id.
func (ing *Ingestor) Get(ctx context.Context, id string) (*model.DomainEvent, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid event id: %w", err)
	}
	return ing.events.FindByID(ctx, parsed)
}

// List pages through stored events, optionally filtered by status.
func (ing *Ingestor) List(ctx context.Context, status string, page, limit int) ([]model.DomainEvent, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return ing.events.List(ctx, status, page, limit)
}

// ToEventResponse shapes an envelope for the HTTP layer.
func ToEventResponse(ev model.DomainEvent) EventResponse {
	return EventResponse{
		ID:        ev.ID.String(),
		EventType: ev.EventType,
		Status:    ev.Status,
		Attempts:  ev.Attempts,
		LastError: ev.LastError,
		CreatedAt: ev.CreatedAt,
		UpdatedAt: ev.UpdatedAt,
		NextRetry: ev.NextAttemptAt,
	}
}
