package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"propertyops/internal/model"
	"propertyops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recoverable approval errors, surfaced to the caller (the UI shows
// "already decided" instead of a generic failure).
var (
	ErrApprovalNotFound = errors.New("approval entry not found")
	ErrAlreadyDecided   = errors.New("approval entry already decided")
)

// --- DTOs ---

type EnqueueApprovalRequest struct {
	OwnerID     string           `json:"owner_id" binding:"required"`
	SubjectType string           `json:"subject_type" binding:"required,oneof=MAINTENANCE EXPENSE OVERRIDE"`
	SubjectID   string           `json:"subject_id" binding:"required"`
	SubmittedBy string           `json:"submitted_by"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Urgency     string           `json:"urgency"`
}

type ApprovalEntryResponse struct {
	ID           string  `json:"id"`
	OwnerID      string  `json:"owner_id"`
	SubjectType  string  `json:"subject_type"`
	SubjectID    string  `json:"subject_id"`
	SubmittedBy  *string `json:"submitted_by"`
	Description  string  `json:"description"`
	Amount       *string `json:"amount,omitempty"`
	Urgency      string  `json:"urgency"`
	Status       string  `json:"status"`
	SubmittedAt  string  `json:"submitted_at"`
	DecidedBy    *string `json:"decided_by"`
	DecidedAt    *string `json:"decided_at"`
	DecisionNote string  `json:"decision_note"`
}

// --- Interface ---

type ApprovalService interface {
	Enqueue(ctx context.Context, req EnqueueApprovalRequest) (ApprovalEntryResponse, error)
	Approve(ctx context.Context, id string, userID string, note string) (ApprovalEntryResponse, error)
	Deny(ctx context.Context, id string, userID string, note string) (ApprovalEntryResponse, error)
	ListPending(ctx context.Context, ownerID string) ([]ApprovalEntryResponse, error)
	List(ctx context.Context, ownerID string, status string, page, limit int) ([]ApprovalEntryResponse, int64, error)
}

type approvalService struct {
	approvalRepo repository.ApprovalRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	notifier     NotificationService

	// amounts above this threshold promote the entry to HIGH urgency
	highAmountThreshold decimal.Decimal
}

func NewApprovalService(
	approvalRepo repository.ApprovalRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier NotificationService,
	highAmountThreshold decimal.Decimal,
) ApprovalService {
	return &approvalService{
		approvalRepo:        approvalRepo,
		auditRepo:           auditRepo,
		txManager:           txManager,
		notifier:            notifier,
		highAmountThreshold: highAmountThreshold,
	}
}

// --- Implementation ---

func (s *approvalService) Enqueue(ctx context.Context, req EnqueueApprovalRequest) (ApprovalEntryResponse, error) {
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return ApprovalEntryResponse{}, fmt.Errorf("invalid owner_id: %w", err)
	}
	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		return ApprovalEntryResponse{}, fmt.Errorf("invalid subject_id: %w", err)
	}

	var submittedBy *uuid.UUID
	if req.SubmittedBy != "" {
		if parsed, parseErr := uuid.Parse(req.SubmittedBy); parseErr == nil {
			submittedBy = &parsed
		}
	}

	// Urgency arrives from event payloads in whatever casing the
	// submitting subsystem used; store only the canonical values.
	urgency := strings.ToUpper(req.Urgency)
	switch urgency {
	case "":
		urgency = model.UrgencyNormal
	case model.UrgencyNormal, model.UrgencyHigh:
	default:
		return ApprovalEntryResponse{}, fmt.Errorf("invalid urgency %q", req.Urgency)
	}
	if req.Amount != nil && req.Amount.GreaterThan(s.highAmountThreshold) {
		urgency = model.UrgencyHigh
	}

	entry := model.ApprovalQueueEntry{
		OwnerID:     ownerID,
		SubjectType: req.SubjectType,
		SubjectID:   subjectID,
		SubmittedBy: submittedBy,
		Description: req.Description,
		Amount:      req.Amount,
		Urgency:     urgency,
		Status:      model.ApprovalPending,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.approvalRepo.Create(txCtx, &entry); createErr != nil {
			return fmt.Errorf("failed to create approval entry: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"subject_type": req.SubjectType,
			"subject_id":   req.SubjectID,
			"urgency":      urgency,
		})
		audit := &model.AuditLog{
			UserID:     submittedBy,
			Action:     model.ActionEnqueueApproval,
			EntityID:   entry.ID.String(),
			EntityName: req.SubjectType,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return ApprovalEntryResponse{}, err
	}

	// HIGH urgency entries alert the owner immediately; everything else
	// waits in the queue for the next review.
	if urgency == model.UrgencyHigh {
		if _, notifyErr := s.notifier.Notify(ctx, NotifyRequest{
			OwnerID:   req.OwnerID,
			Type:      notificationTypeFor(req.SubjectType),
			Title:     fmt.Sprintf("%s approval needed", req.SubjectType),
			Message:   req.Description,
			RelatedID: entry.ID.String(),
			Urgency:   model.UrgencyHigh,
		}); notifyErr != nil {
			return ApprovalEntryResponse{}, fmt.Errorf("failed to notify owner: %w", notifyErr)
		}
	}

	return toApprovalResponse(entry), nil
}

func (s *approvalService) Approve(ctx context.Context, id string, userID string, note string) (ApprovalEntryResponse, error) {
	return s.decide(ctx, id, userID, model.ApprovalApproved, note)
}

func (s *approvalService) Deny(ctx context.Context, id string, userID string, note string) (ApprovalEntryResponse, error) {
	return s.decide(ctx, id, userID, model.ApprovalDenied, note)
}

// decide performs the one-shot PENDING -> APPROVED|DENIED transition.
// The status guard lives in the UPDATE itself (repo.Decide), so two
// racing deciders cannot both flip the row: the statement matches at
// most once and the loser gets ErrAlreadyDecided.
func (s *approvalService) decide(ctx context.Context, id string, userID string, status string, note string) (ApprovalEntryResponse, error) {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return ApprovalEntryResponse{}, fmt.Errorf("invalid approval entry id: %w", err)
	}
	deciderID, err := uuid.Parse(userID)
	if err != nil {
		return ApprovalEntryResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var entry *model.ApprovalQueueEntry
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		entry, err = s.approvalRepo.FindByID(txCtx, entryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApprovalNotFound
			}
			return fmt.Errorf("failed to load approval entry: %w", err)
		}

		now := time.Now()
		decided, decideErr := s.approvalRepo.Decide(txCtx, entryID, status, deciderID, now, note)
		if decideErr != nil {
			return fmt.Errorf("failed to update approval entry: %w", decideErr)
		}
		if !decided {
			return ErrAlreadyDecided
		}

		entry.Status = status
		entry.DecidedBy = &deciderID
		entry.DecidedAt = &now
		entry.DecisionNote = note

		action := model.ActionApproveEntry
		if status == model.ApprovalDenied {
			action = model.ActionDenyEntry
		}
		details, _ := json.Marshal(map[string]interface{}{
			"subject_type": entry.SubjectType,
			"subject_id":   entry.SubjectID.String(),
			"note":         note,
		})
		audit := &model.AuditLog{
			UserID:     &deciderID,
			Action:     action,
			EntityID:   entry.ID.String(),
			EntityName: entry.SubjectType,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return ApprovalEntryResponse{}, err
	}

	log.Printf("approval %s %s by %s", entry.ID, status, userID)
	return toApprovalResponse(*entry), nil
}

func (s *approvalService) ListPending(ctx context.Context, ownerID string) ([]ApprovalEntryResponse, error) {
	parsed, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	entries, err := s.approvalRepo.ListPending(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}

	result := make([]ApprovalEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, toApprovalResponse(e))
	}
	return result, nil
}

func (s *approvalService) List(ctx context.Context, ownerID string, status string, page, limit int) ([]ApprovalEntryResponse, int64, error) {
	parsed, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid owner id: %w", err)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	entries, total, err := s.approvalRepo.List(ctx, parsed, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list approvals: %w", err)
	}

	result := make([]ApprovalEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, toApprovalResponse(e))
	}
	return result, total, nil
}

// --- Helpers ---

func notificationTypeFor(subjectType string) string {
	switch subjectType {
	case model.SubjectExpense:
		return model.NotifExpenseSubmitted
	case model.SubjectOverride:
		return model.NotifOverrideRequest
	default:
		return model.NotifMaintenanceRequest
	}
}

func toApprovalResponse(e model.ApprovalQueueEntry) ApprovalEntryResponse {
	resp := ApprovalEntryResponse{
		ID:           e.ID.String(),
		OwnerID:      e.OwnerID.String(),
		SubjectType:  e.SubjectType,
		SubjectID:    e.SubjectID.String(),
		Description:  e.Description,
		Urgency:      e.Urgency,
		Status:       e.Status,
		SubmittedAt:  e.SubmittedAt.Format(time.RFC3339),
		DecisionNote: e.DecisionNote,
	}

	if e.SubmittedBy != nil {
		s := e.SubmittedBy.String()
		resp.SubmittedBy = &s
	}
	if e.Amount != nil {
		s := e.Amount.StringFixed(2)
		resp.Amount = &s
	}
	if e.DecidedBy != nil {
		s := e.DecidedBy.String()
		resp.DecidedBy = &s
	}
	if e.DecidedAt != nil {
		s := e.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &s
	}

	return resp
}
