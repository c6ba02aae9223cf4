package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"propertyops/internal/model"
	"propertyops/internal/repository"

	"github.com/google/uuid"
)

var ErrUnknownMetric = errors.New("unknown metric")

// MetricsService derives rollup numbers from the current tracking
// snapshot. Computation is read-only and repeatable: two calls with no
// intervening writes return the same value.
type MetricsService interface {
	ComputeRollup(ctx context.Context, ownerID string, metric string) (model.RollupResponse, error)
}

type metricsService struct {
	trackingRepo repository.TrackingRepository
}

func NewMetricsService(trackingRepo repository.TrackingRepository) MetricsService {
	return &metricsService{trackingRepo: trackingRepo}
}

func (s *metricsService) ComputeRollup(ctx context.Context, ownerID string, metric string) (model.RollupResponse, error) {
	parsed, err := uuid.Parse(ownerID)
	if err != nil {
		return model.RollupResponse{}, fmt.Errorf("invalid owner id: %w", err)
	}

	var value float64
	var sampleSize int

	switch metric {
	case model.MetricOccupancyRate:
		value, sampleSize, err = s.occupancyRate(ctx, parsed)
	case model.MetricCollectionRate:
		value, sampleSize, err = s.collectionRate(ctx, parsed)
	default:
		return model.RollupResponse{}, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	if err != nil {
		return model.RollupResponse{}, err
	}

	return model.RollupResponse{
		OwnerID:    ownerID,
		Metric:     metric,
		Value:      value,
		SampleSize: sampleSize,
		ComputedAt: time.Now(),
	}, nil
}

// occupancyRate is the share of the owner's lease records currently ACTIVE.
func (s *metricsService) occupancyRate(ctx context.Context, ownerID uuid.UUID) (float64, int, error) {
	total, err := s.trackingRepo.CountByOwner(ctx, ownerID, model.SubjectLease, "")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count lease records: %w", err)
	}
	if total == 0 {
		return 0, 0, nil
	}

	active, err := s.trackingRepo.CountByOwner(ctx, ownerID, model.SubjectLease, model.TrackActive)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count active leases: %w", err)
	}

	return float64(active) / float64(total), int(total), nil
}

// collectionRate is the PAID share of the owner's financial record amounts.
func (s *metricsService) collectionRate(ctx context.Context, ownerID uuid.UUID) (float64, int, error) {
	total, err := s.trackingRepo.SumAmountByOwner(ctx, ownerID, model.SubjectFinancial, "")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum financial amounts: %w", err)
	}

	count, err := s.trackingRepo.CountByOwner(ctx, ownerID, model.SubjectFinancial, "")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count financial records: %w", err)
	}
	if total.IsZero() {
		return 0, int(count), nil
	}

	paid, err := s.trackingRepo.SumAmountByOwner(ctx, ownerID, model.SubjectFinancial, model.TrackPaid)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum paid amounts: %w", err)
	}

	rate, _ := paid.Div(total).Float64()
	return rate, int(count), nil
}
