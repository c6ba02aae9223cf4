package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"propertyops/internal/model"
	"propertyops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreatePropertyRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

type CreateUnitRequest struct {
	PropertyID string `json:"property_id" binding:"required"`
	UnitNumber string `json:"unit_number" binding:"required"`
	Bedrooms   int    `json:"bedrooms"`
}

type CreateLeaseRequest struct {
	UnitID      string `json:"unit_id" binding:"required"`
	OwnerID     string `json:"owner_id" binding:"required"`
	TenantID    string `json:"tenant_id" binding:"required"`
	MonthlyRent string `json:"monthly_rent" binding:"required"`
	StartDate   string `json:"start_date" binding:"required"` // RFC3339 date
}

// --- Interface ---

type PropertyService interface {
	CreateProperty(ctx context.Context, req CreatePropertyRequest) (*model.Property, error)
	ListProperties(ctx context.Context, ownerID string, page, limit int) ([]model.Property, int64, error)
	CreateUnit(ctx context.Context, req CreateUnitRequest) (*model.Unit, error)
	ListUnits(ctx context.Context, propertyID string) ([]model.Unit, error)
	CreateLease(ctx context.Context, req CreateLeaseRequest) (*model.Lease, error)
	EndLease(ctx context.Context, id string, actor string) (*model.Lease, error)
	ListLeases(ctx context.Context, ownerID string) ([]model.Lease, error)
}

type propertyService struct {
	propertyRepo repository.PropertyRepository
	tracking     TrackingService
}

// NewPropertyService wires property inventory to the tracking store: lease
// lifecycle changes are mirrored as LEASE tracking records so occupancy
// rollups see them.
func NewPropertyService(propertyRepo repository.PropertyRepository, tracking TrackingService) PropertyService {
	return &propertyService{propertyRepo: propertyRepo, tracking: tracking}
}

// --- Implementation ---

func (s *propertyService) CreateProperty(ctx context.Context, req CreatePropertyRequest) (*model.Property, error) {
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner_id: %w", err)
	}

	property := &model.Property{
		OwnerID: ownerID,
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		ZipCode: req.ZipCode,
	}
	if err := s.propertyRepo.CreateProperty(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	return property, nil
}

func (s *propertyService) ListProperties(ctx context.Context, ownerID string, page, limit int) ([]model.Property, int64, error) {
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
	return s.propertyRepo.ListProperties(ctx, parsed, page, limit)
}

func (s *propertyService) CreateUnit(ctx context.Context, req CreateUnitRequest) (*model.Unit, error) {
	propertyID, err := uuid.Parse(req.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("invalid property_id: %w", err)
	}

	unit := &model.Unit{
		PropertyID: propertyID,
		UnitNumber: req.UnitNumber,
		Bedrooms:   req.Bedrooms,
	}
	if err := s.propertyRepo.CreateUnit(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}
	return unit, nil
}

func (s *propertyService) ListUnits(ctx context.Context, propertyID string) ([]model.Unit, error) {
	parsed, err := uuid.Parse(propertyID)
	if err != nil {
		return nil, fmt.Errorf("invalid property id: %w", err)
	}
	return s.propertyRepo.ListUnits(ctx, parsed)
}

func (s *propertyService) CreateLease(ctx context.Context, req CreateLeaseRequest) (*model.Lease, error) {
	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		return nil, fmt.Errorf("invalid unit_id: %w", err)
	}
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner_id: %w", err)
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant_id: %w", err)
	}
	rent, err := decimal.NewFromString(req.MonthlyRent)
	if err != nil {
		return nil, fmt.Errorf("invalid monthly_rent: %w", err)
	}
	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", err)
	}

	lease := &model.Lease{
		UnitID:      unitID,
		OwnerID:     ownerID,
		TenantID:    tenantID,
		MonthlyRent: rent,
		StartDate:   startDate,
		Status:      model.TrackActive,
	}
	if err := s.propertyRepo.CreateLease(ctx, lease); err != nil {
		return nil, fmt.Errorf("failed to create lease: %w", err)
	}

	// Mirror into the tracking store for occupancy rollups.
	if _, err := s.tracking.Upsert(ctx, UpsertTrackingRequest{
		OwnerID:     req.OwnerID,
		SubjectType: model.SubjectLease,
		SubjectID:   lease.ID.String(),
		Status:      model.TrackActive,
		Actor:       "manager",
	}); err != nil {
		return nil, fmt.Errorf("failed to track lease: %w", err)
	}

	return lease, nil
}

func (s *propertyService) EndLease(ctx context.Context, id string, actor string) (*model.Lease, error) {
	leaseID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid lease id: %w", err)
	}

	lease, err := s.propertyRepo.FindLeaseByID(ctx, leaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("lease not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	now := time.Now()
	lease.Status = model.TrackEnded
	lease.EndDate = &now
	if err := s.propertyRepo.UpdateLease(ctx, lease); err != nil {
		return nil, fmt.Errorf("failed to end lease: %w", err)
	}

	if _, err := s.tracking.Upsert(ctx, UpsertTrackingRequest{
		OwnerID:     lease.OwnerID.String(),
		SubjectType: model.SubjectLease,
		SubjectID:   lease.ID.String(),
		Status:      model.TrackEnded,
		Actor:       actor,
	}); err != nil {
		return nil, fmt.Errorf("failed to track lease end: %w", err)
	}

	return lease, nil
}

func (s *propertyService) ListLeases(ctx context.Context, ownerID string) ([]model.Lease, error) {
	parsed, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}
	return s.propertyRepo.ListLeases(ctx, parsed)
}
