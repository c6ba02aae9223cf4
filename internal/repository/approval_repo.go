package repository

import (
	"context"
	"time"

	"propertyops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApprovalRepository interface {
	Create(ctx context.Context, entry *model.ApprovalQueueEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalQueueEntry, error)
	ListPending(ctx context.Context, ownerID uuid.UUID) ([]model.ApprovalQueueEntry, error)
	List(ctx context.Context, ownerID uuid.UUID, status string, page, limit int) ([]model.ApprovalQueueEntry, int64, error)
	Decide(ctx context.Context, id uuid.UUID, status string, decidedBy uuid.UUID, decidedAt time.Time, note string) (bool, error)
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, entry *model.ApprovalQueueEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *approvalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalQueueEntry, error) {
	var entry model.ApprovalQueueEntry
	if err := GetDB(ctx, r.db).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListPending returns the owner's undecided entries oldest-first so review
// order is FIFO.
func (r *approvalRepository) ListPending(ctx context.Context, ownerID uuid.UUID) ([]model.ApprovalQueueEntry, error) {
	var entries []model.ApprovalQueueEntry
	err := GetDB(ctx, r.db).
		Where("owner_id = ? AND status = ?", ownerID, model.ApprovalPending).
		Order("submitted_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *approvalRepository) List(ctx context.Context, ownerID uuid.UUID, status string, page, limit int) ([]model.ApprovalQueueEntry, int64, error) {
	var entries []model.ApprovalQueueEntry
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.ApprovalQueueEntry{}).Where("owner_id = ?", ownerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Where("owner_id = ?", ownerID)
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("submitted_at ASC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// Decide flips a PENDING entry to its terminal status with a single
// guarded UPDATE. The status condition makes the transition atomic:
// when two deciders race, only one statement matches the row, so the
// loser sees false and the winner's terminal state is never
// overwritten.
func (r *approvalRepository) Decide(ctx context.Context, id uuid.UUID, status string, decidedBy uuid.UUID, decidedAt time.Time, note string) (bool, error) {
	result := GetDB(ctx, r.db).
		Model(&model.ApprovalQueueEntry{}).
		Where("id = ? AND status = ?", id, model.ApprovalPending).
		Updates(map[string]interface{}{
			"status":        status,
			"decided_by":    decidedBy,
			"decided_at":    decidedAt,
			"decision_note": note,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
