package service

import (
	"context"
	"sync"
	"time"

	"propertyops/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory doubles for the repository layer. They run the transactional
// closure directly; the one-shot and ordering guarantees under test live in
// the services, not in postgres.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AuditLog(nil), f.entries...), int64(len(f.entries)), nil
}

func (f *fakeAuditRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeApprovalRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]model.ApprovalQueueEntry
}

func newFakeApprovalRepo() *fakeApprovalRepo {
	return &fakeApprovalRepo{entries: make(map[uuid.UUID]model.ApprovalQueueEntry)}
}

func (f *fakeApprovalRepo) Create(ctx context.Context, entry *model.ApprovalQueueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.entries[entry.ID] = *entry
	return nil
}

func (f *fakeApprovalRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalQueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := entry
	return &copy, nil
}

func (f *fakeApprovalRepo) ListPending(ctx context.Context, ownerID uuid.UUID) ([]model.ApprovalQueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ApprovalQueueEntry
	for _, e := range f.entries {
		if e.OwnerID == ownerID && e.Status == model.ApprovalPending {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeApprovalRepo) List(ctx context.Context, ownerID uuid.UUID, status string, page, limit int) ([]model.ApprovalQueueEntry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ApprovalQueueEntry
	for _, e := range f.entries {
		if e.OwnerID != ownerID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

// Decide mirrors the guarded UPDATE: the status check and the write
// happen under one lock, so of N racing deciders exactly one sees true.
func (f *fakeApprovalRepo) Decide(ctx context.Context, id uuid.UUID, status string, decidedBy uuid.UUID, decidedAt time.Time, note string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok || entry.Status != model.ApprovalPending {
		return false, nil
	}
	entry.Status = status
	entry.DecidedBy = &decidedBy
	entry.DecidedAt = &decidedAt
	entry.DecisionNote = note
	f.entries[id] = entry
	return true, nil
}

type subjectKey struct {
	subjectType string
	subjectID   uuid.UUID
}

type fakeTrackingRepo struct {
	mu      sync.Mutex
	records map[subjectKey]model.TrackingRecord
	history []model.TrackingHistoryEntry
}

func newFakeTrackingRepo() *fakeTrackingRepo {
	return &fakeTrackingRepo{records: make(map[subjectKey]model.TrackingRecord)}
}

func (f *fakeTrackingRepo) Create(ctx context.Context, record *model.TrackingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.records[subjectKey{record.SubjectType, record.SubjectID}] = *record
	return nil
}

func (f *fakeTrackingRepo) Update(ctx context.Context, record *model.TrackingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[subjectKey{record.SubjectType, record.SubjectID}] = *record
	return nil
}

func (f *fakeTrackingRepo) AppendHistory(ctx context.Context, entry *model.TrackingHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, *entry)
	return nil
}

func (f *fakeTrackingRepo) FindBySubject(ctx context.Context, subjectType string, subjectID uuid.UUID) (*model.TrackingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[subjectKey{subjectType, subjectID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := record
	return &copy, nil
}

func (f *fakeTrackingRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, subjectType string) ([]model.TrackingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TrackingRecord
	for _, r := range f.records {
		if r.OwnerID != ownerID {
			continue
		}
		if subjectType != "" && r.SubjectType != subjectType {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeTrackingRepo) CountByOwner(ctx context.Context, ownerID uuid.UUID, subjectType, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.records {
		if r.OwnerID != ownerID || r.SubjectType != subjectType {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		n++
	}
	return n, nil
}

func (f *fakeTrackingRepo) SumAmountByOwner(ctx context.Context, ownerID uuid.UUID, subjectType, status string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, r := range f.records {
		if r.OwnerID != ownerID || r.SubjectType != subjectType || r.Amount == nil {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		sum = sum.Add(*r.Amount)
	}
	return sum, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []model.Notification
	createErr     error
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakeNotificationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID == id {
			copy := n
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeNotificationRepo) ListForOwner(ctx context.Context, ownerID uuid.UUID, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Notification
	for _, n := range f.notifications {
		if n.OwnerID != ownerID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakePusher struct {
	mu     sync.Mutex
	pushes []string
	err    error
}

func (f *fakePusher) Push(ownerID string, message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.pushes = append(f.pushes, ownerID)
	return nil
}

// recordingNotifier stands in for the full notification service when only
// the outgoing calls matter.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []NotifyRequest
	err  error
}

func (f *recordingNotifier) Notify(ctx context.Context, req NotifyRequest) (NotificationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return NotificationResponse{}, f.err
	}
	f.sent = append(f.sent, req)
	return NotificationResponse{ID: uuid.NewString()}, nil
}

func (f *recordingNotifier) ListForOwner(ctx context.Context, ownerID string, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error) {
	return nil, 0, nil
}

func (f *recordingNotifier) MarkRead(ctx context.Context, id string) error { return nil }
