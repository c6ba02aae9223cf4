package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"propertyops/internal/model"
	"propertyops/internal/repository"

	"github.com/google/uuid"
)

// NotificationPusher delivers a live message to an owner's connected
// clients. The websocket hub implements this; tests substitute a fake.
type NotificationPusher interface {
	Push(ownerID string, message []byte) error
}

// --- DTOs ---

type NotifyRequest struct {
	OwnerID   string `json:"owner_id" binding:"required"`
	Type      string `json:"type" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Message   string `json:"message"`
	RelatedID string `json:"related_id"`
	Urgency   string `json:"urgency"`
}

type NotificationResponse struct {
	ID        string  `json:"id"`
	OwnerID   string  `json:"owner_id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	RelatedID *string `json:"related_id,omitempty"`
	Urgency   string  `json:"urgency"`
	IsRead    bool    `json:"is_read"`
	CreatedAt string  `json:"created_at"`
}

// --- Interface ---

type NotificationService interface {
	Notify(ctx context.Context, req NotifyRequest) (NotificationResponse, error)
	ListForOwner(ctx context.Context, ownerID string, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error)
	MarkRead(ctx context.Context, id string) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	pusher           NotificationPusher
}

func NewNotificationService(notificationRepo repository.NotificationRepository, pusher NotificationPusher) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		pusher:           pusher,
	}
}

// --- Implementation ---

// Notify persists the notification first, then attempts a live push.
// Push failure is logged and swallowed: the row is already stored, so the
// owner sees it on the next poll.
func (s *notificationService) Notify(ctx context.Context, req NotifyRequest) (NotificationResponse, error) {
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return NotificationResponse{}, fmt.Errorf("invalid owner_id: %w", err)
	}

	var relatedID *uuid.UUID
	if req.RelatedID != "" {
		if parsed, parseErr := uuid.Parse(req.RelatedID); parseErr == nil {
			relatedID = &parsed
		}
	}

	urgency := req.Urgency
	if urgency == "" {
		urgency = model.UrgencyNormal
	}

	notification := model.Notification{
		OwnerID:   ownerID,
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		RelatedID: relatedID,
		Urgency:   urgency,
	}

	if err := s.notificationRepo.Create(ctx, &notification); err != nil {
		return NotificationResponse{}, fmt.Errorf("failed to store notification: %w", err)
	}

	if s.pusher != nil {
		payload, _ := json.Marshal(toNotificationResponse(notification))
		if pushErr := s.pusher.Push(req.OwnerID, payload); pushErr != nil {
			log.Printf("live push to owner %s failed (notification stored): %v", req.OwnerID, pushErr)
		}
	}

	return toNotificationResponse(notification), nil
}

func (s *notificationService) ListForOwner(ctx context.Context, ownerID string, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error) {
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

	notifications, total, err := s.notificationRepo.ListForOwner(ctx, parsed, unreadOnly, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	result := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, toNotificationResponse(n))
	}
	return result, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid notification id: %w", err)
	}
	if err := s.notificationRepo.MarkRead(ctx, parsed); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// --- Helpers ---

func toNotificationResponse(n model.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		OwnerID:   n.OwnerID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Urgency:   n.Urgency,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
	if n.RelatedID != nil {
		s := n.RelatedID.String()
		resp.RelatedID = &s
	}
	return resp
}
