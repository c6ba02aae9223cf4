package service

import (
	"context"
	"errors"
	"testing"

	"propertyops/internal/model"

	"github.com/google/uuid"
)

func TestNotifyPersistsAndPushes(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{}
	pusher := &fakePusher{}
	svc := NewNotificationService(repo, pusher)

	ownerID := uuid.NewString()
	resp, err := svc.Notify(context.Background(), NotifyRequest{
		OwnerID: ownerID,
		Type:    model.NotifPaymentReceived,
		Title:   "Rent payment received",
		Message: "Payment of 1250.00 received",
	})
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	if len(repo.notifications) != 1 {
		t.Fatalf("notification not persisted, got %d rows", len(repo.notifications))
	}
	if resp.Urgency != model.UrgencyNormal {
		t.Errorf("empty urgency should default to NORMAL, got %q", resp.Urgency)
	}
	if len(pusher.pushes) != 1 || pusher.pushes[0] != ownerID {
		t.Errorf("expected one push to %s, got %v", ownerID, pusher.pushes)
	}
}

func TestNotifySurvivesPushFailure(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{}
	pusher := &fakePusher{err: errors.New("no connected clients")}
	svc := NewNotificationService(repo, pusher)

	if _, err := svc.Notify(context.Background(), NotifyRequest{
		OwnerID: uuid.NewString(),
		Type:    model.NotifJobCompleted,
		Title:   "Job completed",
	}); err != nil {
		t.Fatalf("push failure must not fail the notify call: %v", err)
	}

	if len(repo.notifications) != 1 {
		t.Fatal("notification must be persisted even when the push fails")
	}
}

func TestNotifyFailsWhenStoreFails(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{createErr: errors.New("db down")}
	pusher := &fakePusher{}
	svc := NewNotificationService(repo, pusher)

	if _, err := svc.Notify(context.Background(), NotifyRequest{
		OwnerID: uuid.NewString(),
		Type:    model.NotifManagerAction,
		Title:   "Manager action",
	}); err == nil {
		t.Fatal("store failure must surface")
	}
	if len(pusher.pushes) != 0 {
		t.Error("nothing should be pushed when the store write fails")
	}
}

func TestMarkReadAndUnreadFilter(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, nil)
	ownerID := uuid.NewString()

	first, err := svc.Notify(context.Background(), NotifyRequest{
		OwnerID: ownerID,
		Type:    model.NotifMaintenanceRequest,
		Title:   "Approval needed",
	})
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if _, err := svc.Notify(context.Background(), NotifyRequest{
		OwnerID: ownerID,
		Type:    model.NotifMaintenanceRequest,
		Title:   "Another approval needed",
	}); err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	if err := svc.MarkRead(context.Background(), first.ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	unread, total, err := svc.ListForOwner(context.Background(), ownerID, true, 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(unread) != 1 {
		t.Fatalf("expected exactly one unread notification, got %d", len(unread))
	}
	if unread[0].Title != "Another approval needed" {
		t.Errorf("wrong notification left unread: %q", unread[0].Title)
	}
}
