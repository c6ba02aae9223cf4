package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"propertyops/internal/model"
	"propertyops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrTrackingNotFound = errors.New("tracking record not found")

// subjectLocks serializes writers per (subjectType, subjectID) so history
// sequence numbers stay strictly ordered under concurrent upserts.
// Mutexes are kept for the life of the process; the key space is bounded
// by the number of tracked subjects.
type subjectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSubjectLocks() *subjectLocks {
	return &subjectLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *subjectLocks) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.locks[key]; ok {
		return m
	}
	m := &sync.Mutex{}
	l.locks[key] = m
	return m
}

// --- DTOs ---

type UpsertTrackingRequest struct {
	OwnerID     string           `json:"owner_id" binding:"required"`
	SubjectType string           `json:"subject_type" binding:"required,oneof=LEASE MAINTENANCE FINANCIAL"`
	SubjectID   string           `json:"subject_id" binding:"required"`
	Status      string           `json:"status" binding:"required"`
	Actor       string           `json:"actor"`
	Amount      *decimal.Decimal `json:"amount"`
}

type TrackingHistoryResponse struct {
	Seq       int    `json:"seq"`
	Status    string `json:"status"`
	Actor     string `json:"actor"`
	CreatedAt string `json:"created_at"`
}

type TrackingResponse struct {
	ID          string                    `json:"id"`
	OwnerID     string                    `json:"owner_id"`
	SubjectType string                    `json:"subject_type"`
	SubjectID   string                    `json:"subject_id"`
	Status      string                    `json:"status"`
	Amount      *string                   `json:"amount,omitempty"`
	History     []TrackingHistoryResponse `json:"history,omitempty"`
}

// --- Interface ---

type TrackingService interface {
	Upsert(ctx context.Context, req UpsertTrackingRequest) (TrackingResponse, error)
	Get(ctx context.Context, subjectType, subjectID string) (TrackingResponse, error)
	ListByOwner(ctx context.Context, ownerID string, subjectType string) ([]TrackingResponse, error)
}

type trackingService struct {
	trackingRepo repository.TrackingRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	locks        *subjectLocks
}

func NewTrackingService(
	trackingRepo repository.TrackingRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) TrackingService {
	return &trackingService{
		trackingRepo: trackingRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		locks:        newSubjectLocks(),
	}
}

// --- Implementation ---

// Upsert creates the record on first reference, otherwise appends a history
// entry and updates the current status. All writes on the same subject run
// under the subject's lock.
func (s *trackingService) Upsert(ctx context.Context, req UpsertTrackingRequest) (TrackingResponse, error) {
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return TrackingResponse{}, fmt.Errorf("invalid owner_id: %w", err)
	}
	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		return TrackingResponse{}, fmt.Errorf("invalid subject_id: %w", err)
	}

	lock := s.locks.get(req.SubjectType + "/" + req.SubjectID)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.trackingRepo.FindBySubject(ctx, req.SubjectType, subjectID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return TrackingResponse{}, fmt.Errorf("failed to load tracking record: %w", err)
	}

	creating := errors.Is(err, gorm.ErrRecordNotFound)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if creating {
			record = &model.TrackingRecord{
				OwnerID:     ownerID,
				SubjectType: req.SubjectType,
				SubjectID:   subjectID,
				Status:      req.Status,
				Amount:      req.Amount,
				LastSeq:     1,
			}
			if createErr := s.trackingRepo.Create(txCtx, record); createErr != nil {
				return fmt.Errorf("failed to create tracking record: %w", createErr)
			}
		} else {
			record.Status = req.Status
			record.LastSeq++
			if req.Amount != nil {
				record.Amount = req.Amount
			}
			if updateErr := s.trackingRepo.Update(txCtx, record); updateErr != nil {
				return fmt.Errorf("failed to update tracking record: %w", updateErr)
			}
		}

		history := &model.TrackingHistoryEntry{
			RecordID: record.ID,
			Seq:      record.LastSeq,
			Status:   req.Status,
			Actor:    req.Actor,
		}
		if histErr := s.trackingRepo.AppendHistory(txCtx, history); histErr != nil {
			return fmt.Errorf("failed to append tracking history: %w", histErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"subject_type": req.SubjectType,
			"subject_id":   req.SubjectID,
			"status":       req.Status,
			"seq":          record.LastSeq,
		})
		audit := &model.AuditLog{
			Action:     model.ActionUpsertTracking,
			EntityID:   record.ID.String(),
			EntityName: req.SubjectType,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return TrackingResponse{}, err
	}

	return toTrackingResponse(*record), nil
}

func (s *trackingService) Get(ctx context.Context, subjectType, subjectID string) (TrackingResponse, error) {
	parsed, err := uuid.Parse(subjectID)
	if err != nil {
		return TrackingResponse{}, fmt.Errorf("invalid subject id: %w", err)
	}

	record, err := s.trackingRepo.FindBySubject(ctx, subjectType, parsed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TrackingResponse{}, ErrTrackingNotFound
		}
		return TrackingResponse{}, fmt.Errorf("failed to load tracking record: %w", err)
	}

	return toTrackingResponse(*record), nil
}

func (s *trackingService) ListByOwner(ctx context.Context, ownerID string, subjectType string) ([]TrackingResponse, error) {
	parsed, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	records, err := s.trackingRepo.ListByOwner(ctx, parsed, subjectType)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking records: %w", err)
	}

	result := make([]TrackingResponse, 0, len(records))
	for _, r := range records {
		result = append(result, toTrackingResponse(r))
	}
	return result, nil
}

// --- Helpers ---

func toTrackingResponse(r model.TrackingRecord) TrackingResponse {
	resp := TrackingResponse{
		ID:          r.ID.String(),
		OwnerID:     r.OwnerID.String(),
		SubjectType: r.SubjectType,
		SubjectID:   r.SubjectID.String(),
		Status:      r.Status,
	}
	if r.Amount != nil {
		s := r.Amount.StringFixed(2)
		resp.Amount = &s
	}
	for _, h := range r.History {
		resp.History = append(resp.History, TrackingHistoryResponse{
			Seq:       h.Seq,
			Status:    h.Status,
			Actor:     h.Actor,
			CreatedAt: h.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}
