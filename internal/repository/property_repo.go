package repository

import (
	"context"

	"propertyops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyRepository interface {
	CreateProperty(ctx context.Context, p *model.Property) error
	ListProperties(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]model.Property, int64, error)
	CreateUnit(ctx context.Context, u *model.Unit) error
	ListUnits(ctx context.Context, propertyID uuid.UUID) ([]model.Unit, error)
	CreateLease(ctx context.Context, l *model.Lease) error
	FindLeaseByID(ctx context.Context, id uuid.UUID) (*model.Lease, error)
	UpdateLease(ctx context.Context, l *model.Lease) error
	ListLeases(ctx context.Context, ownerID uuid.UUID) ([]model.Lease, error)
}

type propertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) CreateProperty(ctx context.Context, p *model.Property) error {
	return GetDB(ctx, r.db).Create(p).Error
}

func (r *propertyRepository) ListProperties(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]model.Property, int64, error) {
	var properties []model.Property
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Property{}).Where("owner_id = ?", ownerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("owner_id = ?", ownerID).Order("created_at ASC").Offset(offset).Limit(limit).Find(&properties).Error; err != nil {
		return nil, 0, err
	}

	return properties, total, nil
}

func (r *propertyRepository) CreateUnit(ctx context.Context, u *model.Unit) error {
	return GetDB(ctx, r.db).Create(u).Error
}

func (r *propertyRepository) ListUnits(ctx context.Context, propertyID uuid.UUID) ([]model.Unit, error) {
	var units []model.Unit
	if err := GetDB(ctx, r.db).Where("property_id = ?", propertyID).Order("unit_number ASC").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *propertyRepository) CreateLease(ctx context.Context, l *model.Lease) error {
	return GetDB(ctx, r.db).Create(l).Error
}

func (r *propertyRepository) FindLeaseByID(ctx context.Context, id uuid.UUID) (*model.Lease, error) {
	var lease model.Lease
	if err := GetDB(ctx, r.db).First(&lease, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lease, nil
}

func (r *propertyRepository) UpdateLease(ctx context.Context, l *model.Lease) error {
	return GetDB(ctx, r.db).Save(l).Error
}

func (r *propertyRepository) ListLeases(ctx context.Context, ownerID uuid.UUID) ([]model.Lease, error) {
	var leases []model.Lease
	if err := GetDB(ctx, r.db).Where("owner_id = ?", ownerID).Order("start_date ASC").Find(&leases).Error; err != nil {
		return nil, err
	}
	return leases, nil
}
