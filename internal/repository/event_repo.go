package repository

import (
	"context"
	"time"

	"propertyops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.DomainEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DomainEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause string, nextAttemptAt time.Time) error
	MarkDead(ctx context.Context, id uuid.UUID, cause string) error
	ClaimFailed(ctx context.Context, limit int, lease time.Duration) ([]model.DomainEvent, error)
	List(ctx context.Context, status string, page, limit int) ([]model.DomainEvent, int64, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *model.DomainEvent) error {
	return GetDB(ctx, r.db).Create(event).Error
}

func (r *eventRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DomainEvent, error) {
	var event model.DomainEvent
	if err := GetDB(ctx, r.db).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.DomainEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          model.EventStatusProcessed,
			"last_error":      "",
			"next_attempt_at": nil,
		}).Error
}

func (r *eventRepository) MarkFailed(ctx context.Context, id uuid.UUID, cause string, nextAttemptAt time.Time) error {
	return GetDB(ctx, r.db).Model(&model.DomainEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          model.EventStatusFailed,
			"attempts":        gorm.Expr("attempts + 1"),
			"last_error":      cause,
			"next_attempt_at": nextAttemptAt,
		}).Error
}

func (r *eventRepository) MarkDead(ctx context.Context, id uuid.UUID, cause string) error {
	return GetDB(ctx, r.db).Model(&model.DomainEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          model.EventStatusDead,
			"last_error":      cause,
			"next_attempt_at": nil,
		}).Error
}

// ClaimFailed picks up to limit retryable events and pushes their
// next_attempt_at forward by the lease duration, so concurrent relay
// consumers never grab the same rows.
func (r *eventRepository) ClaimFailed(ctx context.Context, limit int, lease time.Duration) ([]model.DomainEvent, error) {
	var events []model.DomainEvent
	leaseSeconds := int(lease / time.Second)
	raw := `
		WITH cte AS (
		  SELECT id
		  FROM domain_events
		  WHERE status = 'FAILED'
		    AND next_attempt_at <= now()
		  ORDER BY next_attempt_at
		  LIMIT ?
		  FOR UPDATE SKIP LOCKED
		)
		UPDATE domain_events e
		SET next_attempt_at = now() + (? * interval '1 second'),
		    updated_at = now()
		FROM cte
		WHERE e.id = cte.id
		RETURNING e.*;
		`
	if err := GetDB(ctx, r.db).Raw(raw, limit, leaseSeconds).Scan(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) List(ctx context.Context, status string, page, limit int) ([]model.DomainEvent, int64, error) {
	var events []model.DomainEvent
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.DomainEvent{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}
