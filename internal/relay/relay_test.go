package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"propertyops/internal/event"
	"propertyops/internal/model"

	"github.com/google/uuid"
)

type fakeEventRepo struct {
	mu        sync.Mutex
	claimable []model.DomainEvent
	processed []uuid.UUID
	failed    []uuid.UUID
	dead      []uuid.UUID
	nextTimes map[uuid.UUID]time.Time
}

func newFakeEventRepo(events ...model.DomainEvent) *fakeEventRepo {
	return &fakeEventRepo{claimable: events, nextTimes: make(map[uuid.UUID]time.Time)}
}

func (f *fakeEventRepo) Create(ctx context.Context, ev *model.DomainEvent) error { return nil }

func (f *fakeEventRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.DomainEvent, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeEventRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeEventRepo) MarkFailed(ctx context.Context, id uuid.UUID, cause string, nextAttemptAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	f.nextTimes[id] = nextAttemptAt
	return nil
}

func (f *fakeEventRepo) MarkDead(ctx context.Context, id uuid.UUID, cause string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dead = append(f.dead, id)
	return nil
}

func (f *fakeEventRepo) ClaimFailed(ctx context.Context, limit int, lease time.Duration) ([]model.DomainEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claimed := f.claimable
	f.claimable = nil
	return claimed, nil
}

func (f *fakeEventRepo) List(ctx context.Context, status string, page, limit int) ([]model.DomainEvent, int64, error) {
	return nil, 0, nil
}

func failedEvent(eventType string, attempts int) model.DomainEvent {
	return model.DomainEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Status:    model.EventStatusFailed,
		Attempts:  attempts,
	}
}

func TestRunOnceRedeliversSuccessfully(t *testing.T) {
	t.Parallel()

	router := event.NewRouter()
	router.Register(model.EventTenantPaymentMade, func(ctx context.Context, ev model.DomainEvent) error {
		return nil
	})

	ev := failedEvent(model.EventTenantPaymentMade, 1)
	repo := newFakeEventRepo(ev)

	r := New(Config{MaxAttempts: 5}, repo, router)
	r.runOnce(context.Background())
	r.Close()

	if len(repo.processed) != 1 || repo.processed[0] != ev.ID {
		t.Fatalf("event should be marked processed, got %v", repo.processed)
	}
	if len(repo.failed) != 0 || len(repo.dead) != 0 {
		t.Error("no failure bookkeeping expected on success")
	}
}

func TestRunOnceSchedulesRetryOnFailure(t *testing.T) {
	t.Parallel()

	router := event.NewRouter()
	router.Register(model.EventManagerActionTaken, func(ctx context.Context, ev model.DomainEvent) error {
		return errors.New("downstream down")
	})

	ev := failedEvent(model.EventManagerActionTaken, 1)
	repo := newFakeEventRepo(ev)

	r := New(Config{MaxAttempts: 5, Backoff: 10 * time.Second}, repo, router)
	before := time.Now()
	r.runOnce(context.Background())
	r.Close()

	if len(repo.failed) != 1 {
		t.Fatalf("event should be marked failed again, got %v", repo.failed)
	}
	// Second attempt doubles the 10s base once.
	next := repo.nextTimes[ev.ID]
	if next.Before(before.Add(15 * time.Second)) {
		t.Errorf("backoff too short: next attempt at %v", next)
	}
}

func TestRunOnceParksExhaustedEvents(t *testing.T) {
	t.Parallel()

	router := event.NewRouter()
	called := false
	router.Register(model.EventTenantIssueReported, func(ctx context.Context, ev model.DomainEvent) error {
		called = true
		return nil
	})

	ev := failedEvent(model.EventTenantIssueReported, 5)
	repo := newFakeEventRepo(ev)

	r := New(Config{MaxAttempts: 5}, repo, router)
	r.runOnce(context.Background())
	r.Close()

	if len(repo.dead) != 1 || repo.dead[0] != ev.ID {
		t.Fatalf("exhausted event should be parked DEAD, got %v", repo.dead)
	}
	if called {
		t.Error("handler must not run once the attempt budget is spent")
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	t.Parallel()

	r := New(Config{Backoff: time.Minute}, newFakeEventRepo(), event.NewRouter())
	defer r.Close()

	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{10, time.Hour},
	}
	for _, tc := range cases {
		if got := r.backoffFor(tc.attempts); got != tc.want {
			t.Errorf("backoffFor(%d) = %v, want %v", tc.attempts, got, tc.want)
		}
	}
}
