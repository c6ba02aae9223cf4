package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"propertyops/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestTrackingService() (TrackingService, *fakeTrackingRepo, *fakeAuditRepo) {
	repo := newFakeTrackingRepo()
	audit := &fakeAuditRepo{}
	svc := NewTrackingService(repo, audit, fakeTxManager{})
	return svc, repo, audit
}

func TestUpsertCreatesThenAdvances(t *testing.T) {
	t.Parallel()

	svc, repo, audit := newTestTrackingService()
	ownerID := uuid.NewString()
	subjectID := uuid.NewString()

	first, err := svc.Upsert(context.Background(), UpsertTrackingRequest{
		OwnerID:     ownerID,
		SubjectType: model.SubjectMaintenance,
		SubjectID:   subjectID,
		Status:      model.TrackReported,
		Actor:       "tenant-1",
	})
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if first.Status != model.TrackReported {
		t.Errorf("wrong status after create: %q", first.Status)
	}

	second, err := svc.Upsert(context.Background(), UpsertTrackingRequest{
		OwnerID:     ownerID,
		SubjectType: model.SubjectMaintenance,
		SubjectID:   subjectID,
		Status:      model.TrackApproved,
		Actor:       "owner-1",
	})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if second.Status != model.TrackApproved {
		t.Errorf("wrong status after update: %q", second.Status)
	}

	if len(repo.history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(repo.history))
	}
	if repo.history[0].Seq != 1 || repo.history[1].Seq != 2 {
		t.Errorf("history sequence wrong: %d, %d", repo.history[0].Seq, repo.history[1].Seq)
	}

	for _, action := range audit.actions() {
		if action != model.ActionUpsertTracking {
			t.Errorf("unexpected audit action %q", action)
		}
	}
}

func TestUpsertConcurrentWritersKeepSequenceOrdered(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestTrackingService()
	ownerID := uuid.NewString()
	subjectID := uuid.NewString()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Upsert(context.Background(), UpsertTrackingRequest{
				OwnerID:     ownerID,
				SubjectType: model.SubjectFinancial,
				SubjectID:   subjectID,
				Status:      model.TrackPaid,
			})
			if err != nil {
				t.Errorf("upsert failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(repo.history) != writers {
		t.Fatalf("expected %d history entries, got %d", writers, len(repo.history))
	}

	seqs := make([]int, 0, writers)
	for _, h := range repo.history {
		seqs = append(seqs, h.Seq)
	}
	sort.Ints(seqs)
	for i, seq := range seqs {
		if seq != i+1 {
			t.Fatalf("sequence numbers must be 1..%d without gaps or duplicates, got %v", writers, seqs)
		}
	}
}

func TestUpsertAmountOnlyOverwritesWhenProvided(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestTrackingService()
	ownerID := uuid.NewString()
	subjectID := uuid.NewString()
	amount := decimal.RequireFromString("1250.00")

	if _, err := svc.Upsert(context.Background(), UpsertTrackingRequest{
		OwnerID:     ownerID,
		SubjectType: model.SubjectFinancial,
		SubjectID:   subjectID,
		Status:      model.TrackDue,
		Amount:      &amount,
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// Status-only update keeps the stored amount.
	resp, err := svc.Upsert(context.Background(), UpsertTrackingRequest{
		OwnerID:     ownerID,
		SubjectType: model.SubjectFinancial,
		SubjectID:   subjectID,
		Status:      model.TrackPaid,
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if resp.Amount == nil || *resp.Amount != "1250.00" {
		t.Errorf("amount should survive status-only update, got %v", resp.Amount)
	}
}

func TestGetUnknownSubject(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestTrackingService()
	_, err := svc.Get(context.Background(), model.SubjectLease, uuid.NewString())
	if !errors.Is(err, ErrTrackingNotFound) {
		t.Fatalf("expected ErrTrackingNotFound, got %v", err)
	}
}

func TestListByOwnerFiltersSubjectType(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestTrackingService()
	ownerID := uuid.NewString()

	for _, subjectType := range []string{model.SubjectLease, model.SubjectLease, model.SubjectMaintenance} {
		if _, err := svc.Upsert(context.Background(), UpsertTrackingRequest{
			OwnerID:     ownerID,
			SubjectType: subjectType,
			SubjectID:   uuid.NewString(),
			Status:      model.TrackActive,
		}); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	leases, err := svc.ListByOwner(context.Background(), ownerID, model.SubjectLease)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(leases) != 2 {
		t.Fatalf("expected 2 lease records, got %d", len(leases))
	}
}
