package event

import (
	"context"
	"testing"

	"propertyops/internal/model"
	"propertyops/internal/service"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type fakeApprovals struct {
	enqueued []service.EnqueueApprovalRequest
	err      error
}

func (f *fakeApprovals) Enqueue(ctx context.Context, req service.EnqueueApprovalRequest) (service.ApprovalEntryResponse, error) {
	f.enqueued = append(f.enqueued, req)
	return service.ApprovalEntryResponse{ID: uuid.NewString()}, f.err
}

func (f *fakeApprovals) Approve(ctx context.Context, id, userID, note string) (service.ApprovalEntryResponse, error) {
	return service.ApprovalEntryResponse{}, nil
}

func (f *fakeApprovals) Deny(ctx context.Context, id, userID, note string) (service.ApprovalEntryResponse, error) {
	return service.ApprovalEntryResponse{}, nil
}

func (f *fakeApprovals) ListPending(ctx context.Context, ownerID string) ([]service.ApprovalEntryResponse, error) {
	return nil, nil
}

func (f *fakeApprovals) List(ctx context.Context, ownerID, status string, page, limit int) ([]service.ApprovalEntryResponse, int64, error) {
	return nil, 0, nil
}

type fakeTracking struct {
	upserts []service.UpsertTrackingRequest
	err     error
}

func (f *fakeTracking) Upsert(ctx context.Context, req service.UpsertTrackingRequest) (service.TrackingResponse, error) {
	f.upserts = append(f.upserts, req)
	return service.TrackingResponse{}, f.err
}

func (f *fakeTracking) Get(ctx context.Context, subjectType, subjectID string) (service.TrackingResponse, error) {
	return service.TrackingResponse{}, nil
}

func (f *fakeTracking) ListByOwner(ctx context.Context, ownerID, subjectType string) ([]service.TrackingResponse, error) {
	return nil, nil
}

type fakeNotifier struct {
	sent []service.NotifyRequest
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, req service.NotifyRequest) (service.NotificationResponse, error) {
	f.sent = append(f.sent, req)
	return service.NotificationResponse{}, f.err
}

func (f *fakeNotifier) ListForOwner(ctx context.Context, ownerID string, unreadOnly bool, page, limit int) ([]service.NotificationResponse, int64, error) {
	return nil, 0, nil
}

func (f *fakeNotifier) MarkRead(ctx context.Context, id string) error { return nil }

func newTestHandlers() (*Handlers, *fakeApprovals, *fakeTracking, *fakeNotifier) {
	approvals := &fakeApprovals{}
	tracking := &fakeTracking{}
	notifier := &fakeNotifier{}
	return NewHandlers(approvals, tracking, notifier), approvals, tracking, notifier
}

func eventWith(eventType string, payload map[string]interface{}) model.DomainEvent {
	return model.DomainEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   datatypes.JSONMap(payload),
	}
}

func TestTenantIssueReportedTracksAndEnqueues(t *testing.T) {
	t.Parallel()

	h, approvals, tracking, _ := newTestHandlers()
	ownerID := uuid.NewString()
	issueID := uuid.NewString()

	ev := eventWith(model.EventTenantIssueReported, map[string]interface{}{
		"owner_id":    ownerID,
		"tenant_id":   uuid.NewString(),
		"issue_id":    issueID,
		"description": "broken heater",
		"urgency":     model.UrgencyHigh,
	})
	if err := h.TenantIssueReported(context.Background(), ev); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if len(tracking.upserts) != 1 {
		t.Fatalf("expected 1 tracking upsert, got %d", len(tracking.upserts))
	}
	up := tracking.upserts[0]
	if up.SubjectType != model.SubjectMaintenance || up.Status != model.TrackReported {
		t.Errorf("unexpected upsert: %+v", up)
	}

	if len(approvals.enqueued) != 1 {
		t.Fatalf("expected 1 approval enqueue, got %d", len(approvals.enqueued))
	}
	if approvals.enqueued[0].Urgency != model.UrgencyHigh {
		t.Errorf("urgency not carried through: %q", approvals.enqueued[0].Urgency)
	}
	if approvals.enqueued[0].SubjectID != issueID {
		t.Errorf("wrong subject id: %q", approvals.enqueued[0].SubjectID)
	}
}

func TestTenantPaymentMadeRecordsAndNotifies(t *testing.T) {
	t.Parallel()

	h, _, tracking, notifier := newTestHandlers()
	ev := eventWith(model.EventTenantPaymentMade, map[string]interface{}{
		"owner_id":   uuid.NewString(),
		"tenant_id":  uuid.NewString(),
		"payment_id": uuid.NewString(),
		"amount":     "1250.00",
	})
	if err := h.TenantPaymentMade(context.Background(), ev); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if len(tracking.upserts) != 1 {
		t.Fatalf("expected 1 tracking upsert, got %d", len(tracking.upserts))
	}
	up := tracking.upserts[0]
	if up.SubjectType != model.SubjectFinancial || up.Status != model.TrackPaid {
		t.Errorf("unexpected upsert: %+v", up)
	}
	if up.Amount == nil || up.Amount.StringFixed(2) != "1250.00" {
		t.Errorf("amount not decoded: %v", up.Amount)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	if notifier.sent[0].Type != model.NotifPaymentReceived {
		t.Errorf("wrong notification type: %q", notifier.sent[0].Type)
	}
}

func TestTenantPaymentMadeRejectsBadAmount(t *testing.T) {
	t.Parallel()

	h, _, tracking, _ := newTestHandlers()
	ev := eventWith(model.EventTenantPaymentMade, map[string]interface{}{
		"owner_id":   uuid.NewString(),
		"payment_id": uuid.NewString(),
		"amount":     "not-a-number",
	})
	if err := h.TenantPaymentMade(context.Background(), ev); err == nil {
		t.Fatal("expected error for malformed amount")
	}
	if len(tracking.upserts) != 0 {
		t.Error("no tracking write should happen on bad payload")
	}
}

func TestHandymanExpenseSubmittedEnqueuesWithAmount(t *testing.T) {
	t.Parallel()

	h, approvals, _, _ := newTestHandlers()
	ev := eventWith(model.EventHandymanExpenseSubmitted, map[string]interface{}{
		"owner_id":    uuid.NewString(),
		"handyman_id": uuid.NewString(),
		"expense_id":  uuid.NewString(),
		"amount":      "750.00",
		"description": "replacement water heater",
	})
	if err := h.HandymanExpenseSubmitted(context.Background(), ev); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if len(approvals.enqueued) != 1 {
		t.Fatalf("expected 1 enqueue, got %d", len(approvals.enqueued))
	}
	req := approvals.enqueued[0]
	if req.SubjectType != model.SubjectExpense {
		t.Errorf("wrong subject type: %q", req.SubjectType)
	}
	if req.Amount == nil || req.Amount.StringFixed(2) != "750.00" {
		t.Errorf("amount not carried: %v", req.Amount)
	}
}

func TestOwnerOverrideRequestedAlwaysHighUrgency(t *testing.T) {
	t.Parallel()

	h, approvals, _, _ := newTestHandlers()
	ev := eventWith(model.EventOwnerOverrideRequested, map[string]interface{}{
		"owner_id":   uuid.NewString(),
		"manager_id": uuid.NewString(),
		"request_id": uuid.NewString(),
		"reason":     "evict non-paying tenant",
	})
	if err := h.OwnerOverrideRequested(context.Background(), ev); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if len(approvals.enqueued) != 1 {
		t.Fatalf("expected 1 enqueue, got %d", len(approvals.enqueued))
	}
	if approvals.enqueued[0].Urgency != model.UrgencyHigh {
		t.Errorf("override requests must enqueue HIGH, got %q", approvals.enqueued[0].Urgency)
	}
}

func TestManagerActionTakenMirrorsSubject(t *testing.T) {
	t.Parallel()

	h, _, tracking, notifier := newTestHandlers()
	subjectID := uuid.NewString()
	ev := eventWith(model.EventManagerActionTaken, map[string]interface{}{
		"owner_id":     uuid.NewString(),
		"manager_id":   uuid.NewString(),
		"subject_type": model.SubjectMaintenance,
		"subject_id":   subjectID,
		"status":       model.TrackScheduled,
		"action":       "scheduled plumber for Tuesday",
	})
	if err := h.ManagerActionTaken(context.Background(), ev); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if len(tracking.upserts) != 1 || tracking.upserts[0].Status != model.TrackScheduled {
		t.Fatalf("unexpected upserts: %+v", tracking.upserts)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Type != model.NotifManagerAction {
		t.Fatalf("unexpected notifications: %+v", notifier.sent)
	}
}

func TestRegisterAllCoversEveryEventType(t *testing.T) {
	t.Parallel()

	h, _, _, _ := newTestHandlers()
	r := NewRouter()
	h.RegisterAll(r)

	for _, et := range []string{
		model.EventTenantIssueReported,
		model.EventTenantPaymentMade,
		model.EventMaintenanceApproved,
		model.EventHandymanJobCompleted,
		model.EventHandymanExpenseSubmitted,
		model.EventManagerActionTaken,
		model.EventOwnerOverrideRequested,
	} {
		if !r.Knows(et) {
			t.Errorf("event type %q is not registered", et)
		}
	}
}
