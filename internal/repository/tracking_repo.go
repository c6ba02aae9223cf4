package repository

import (
	"context"

	"propertyops/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TrackingRepository interface {
	Create(ctx context.Context, record *model.TrackingRecord) error
	Update(ctx context.Context, record *model.TrackingRecord) error
	AppendHistory(ctx context.Context, entry *model.TrackingHistoryEntry) error
	FindBySubject(ctx context.Context, subjectType string, subjectID uuid.UUID) (*model.TrackingRecord, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, subjectType string) ([]model.TrackingRecord, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID, subjectType, status string) (int64, error)
	SumAmountByOwner(ctx context.Context, ownerID uuid.UUID, subjectType, status string) (decimal.Decimal, error)
}

type trackingRepository struct {
	db *gorm.DB
}

func NewTrackingRepository(db *gorm.DB) TrackingRepository {
	return &trackingRepository{db: db}
}

func (r *trackingRepository) Create(ctx context.Context, record *model.TrackingRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *trackingRepository) Update(ctx context.Context, record *model.TrackingRecord) error {
	return GetDB(ctx, r.db).Save(record).Error
}

func (r *trackingRepository) AppendHistory(ctx context.Context, entry *model.TrackingHistoryEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

// FindBySubject loads a record with its history ordered by sequence number.
func (r *trackingRepository) FindBySubject(ctx context.Context, subjectType string, subjectID uuid.UUID) (*model.TrackingRecord, error) {
	var record model.TrackingRecord
	err := GetDB(ctx, r.db).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		First(&record, "subject_type = ? AND subject_id = ?", subjectType, subjectID).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *trackingRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, subjectType string) ([]model.TrackingRecord, error) {
	var records []model.TrackingRecord
	query := GetDB(ctx, r.db).Where("owner_id = ?", ownerID)
	if subjectType != "" {
		query = query.Where("subject_type = ?", subjectType)
	}
	if err := query.Order("updated_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *trackingRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID, subjectType, status string) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.TrackingRecord{}).
		Where("owner_id = ? AND subject_type = ?", ownerID, subjectType)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *trackingRepository) SumAmountByOwner(ctx context.Context, ownerID uuid.UUID, subjectType, status string) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	query := GetDB(ctx, r.db).Model(&model.TrackingRecord{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("owner_id = ? AND subject_type = ?", ownerID, subjectType)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}
