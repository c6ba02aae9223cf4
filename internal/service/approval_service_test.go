package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"propertyops/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestApprovalService() (ApprovalService, *fakeApprovalRepo, *fakeAuditRepo, *recordingNotifier) {
	repo := newFakeApprovalRepo()
	audit := &fakeAuditRepo{}
	notifier := &recordingNotifier{}
	svc := NewApprovalService(repo, audit, fakeTxManager{}, notifier, decimal.NewFromInt(500))
	return svc, repo, audit, notifier
}

func TestEnqueueHighAmountPromotesUrgencyAndNotifies(t *testing.T) {
	t.Parallel()

	svc, _, audit, notifier := newTestApprovalService()
	amount := decimal.RequireFromString("750.00")

	resp, err := svc.Enqueue(context.Background(), EnqueueApprovalRequest{
		OwnerID:     uuid.NewString(),
		SubjectType: model.SubjectExpense,
		SubjectID:   uuid.NewString(),
		Description: "replacement water heater",
		Amount:      &amount,
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	if resp.Urgency != model.UrgencyHigh {
		t.Errorf("amount over threshold should promote to HIGH, got %q", resp.Urgency)
	}
	if resp.Status != model.ApprovalPending {
		t.Errorf("new entry should be PENDING, got %q", resp.Status)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("HIGH urgency should notify the owner once, got %d", len(notifier.sent))
	}
	if notifier.sent[0].Type != model.NotifExpenseSubmitted {
		t.Errorf("wrong notification type: %q", notifier.sent[0].Type)
	}

	actions := audit.actions()
	if len(actions) != 1 || actions[0] != model.ActionEnqueueApproval {
		t.Errorf("expected one ENQUEUE_APPROVAL audit entry, got %v", actions)
	}
}

func TestEnqueueModestAmountStaysQuiet(t *testing.T) {
	t.Parallel()

	svc, _, _, notifier := newTestApprovalService()
	amount := decimal.RequireFromString("200.00")

	resp, err := svc.Enqueue(context.Background(), EnqueueApprovalRequest{
		OwnerID:     uuid.NewString(),
		SubjectType: model.SubjectExpense,
		SubjectID:   uuid.NewString(),
		Amount:      &amount,
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	if resp.Urgency != model.UrgencyNormal {
		t.Errorf("expected NORMAL urgency, got %q", resp.Urgency)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("non-HIGH entries must not notify, got %d notifications", len(notifier.sent))
	}
}

func TestEnqueueAmountExactlyAtThresholdNotPromoted(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestApprovalService()
	amount := decimal.RequireFromString("500.00")

	resp, err := svc.Enqueue(context.Background(), EnqueueApprovalRequest{
		OwnerID:     uuid.NewString(),
		SubjectType: model.SubjectExpense,
		SubjectID:   uuid.NewString(),
		Amount:      &amount,
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if resp.Urgency != model.UrgencyNormal {
		t.Errorf("threshold is strictly greater-than; got %q", resp.Urgency)
	}
}

func TestEnqueueNormalizesUrgencyCasing(t *testing.T) {
	t.Parallel()

	svc, _, _, notifier := newTestApprovalService()

	// Submitting subsystems send urgency in their own casing; the
	// stored value must be canonical and still trigger the owner alert.
	resp, err := svc.Enqueue(context.Background(), EnqueueApprovalRequest{
		OwnerID:     uuid.NewString(),
		SubjectType: model.SubjectOverride,
		SubjectID:   uuid.NewString(),
		Urgency:     "high",
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if resp.Urgency != model.UrgencyHigh {
		t.Errorf("lowercase urgency should normalize to HIGH, got %q", resp.Urgency)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("normalized HIGH urgency must notify the owner, got %d notifications", len(notifier.sent))
	}
}

func TestEnqueueRejectsUnknownUrgency(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newTestApprovalService()

	_, err := svc.Enqueue(context.Background(), EnqueueApprovalRequest{
		OwnerID:     uuid.NewString(),
		SubjectType: model.SubjectExpense,
		SubjectID:   uuid.NewString(),
		Urgency:     "critical",
	})
	if err == nil {
		t.Fatal("unknown urgency must be rejected")
	}
	if len(repo.entries) != 0 {
		t.Error("nothing should be persisted for a rejected urgency")
	}
}

func TestDecideIsOneShot(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestApprovalService()
	deciderID := uuid.NewString()

	resp, err := svc.Enqueue(context.Background(), EnqueueApprovalRequest{
		OwnerID:     uuid.NewString(),
		SubjectType: model.SubjectMaintenance,
		SubjectID:   uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	approved, err := svc.Approve(context.Background(), resp.ID, deciderID, "go ahead")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != model.ApprovalApproved {
		t.Errorf("expected APPROVED, got %q", approved.Status)
	}
	if approved.DecidedBy == nil || *approved.DecidedBy != deciderID {
		t.Error("decider not recorded")
	}

	if _, err := svc.Deny(context.Background(), resp.ID, deciderID, "changed my mind"); !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("second decision must return ErrAlreadyDecided, got %v", err)
	}

	// The first decision stays in place.
	entries, _, err := svc.List(context.Background(), approved.OwnerID, model.ApprovalApproved, 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected the approved entry to survive, got %d", len(entries))
	}
}

func TestDecideConcurrentOnlyOneWins(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestApprovalService()
	resp, err := svc.Enqueue(context.Background(), EnqueueApprovalRequest{
		OwnerID:     uuid.NewString(),
		SubjectType: model.SubjectOverride,
		SubjectID:   uuid.NewString(),
		Urgency:     model.UrgencyNormal,
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	// Half approve, half deny, all racing on the same entry.
	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = svc.Approve(context.Background(), resp.ID, uuid.NewString(), "")
			} else {
				_, errs[i] = svc.Deny(context.Background(), resp.ID, uuid.NewString(), "")
			}
		}(i)
	}
	wg.Wait()

	wins := 0
	winnerApproved := false
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
			winnerApproved = i%2 == 0
		case errors.Is(err, ErrAlreadyDecided):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("exactly one decision must win, got %d", wins)
	}

	// The losers must not have overwritten the winner's terminal state.
	entries, _, err := svc.List(context.Background(), resp.OwnerID, "", 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	want := model.ApprovalDenied
	if winnerApproved {
		want = model.ApprovalApproved
	}
	if entries[0].Status != want {
		t.Fatalf("final status %q does not match the winning decision %q", entries[0].Status, want)
	}
}

func TestDecideUnknownEntry(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestApprovalService()
	_, err := svc.Approve(context.Background(), uuid.NewString(), uuid.NewString(), "")
	if !errors.Is(err, ErrApprovalNotFound) {
		t.Fatalf("expected ErrApprovalNotFound, got %v", err)
	}
}

func TestListPendingScopedToOwner(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestApprovalService()
	ownerA := uuid.NewString()
	ownerB := uuid.NewString()

	for _, owner := range []string{ownerA, ownerA, ownerB} {
		if _, err := svc.Enqueue(context.Background(), EnqueueApprovalRequest{
			OwnerID:     owner,
			SubjectType: model.SubjectMaintenance,
			SubjectID:   uuid.NewString(),
		}); err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	}

	pending, err := svc.ListPending(context.Background(), ownerA)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending entries for owner A, got %d", len(pending))
	}
}
