package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification type constants
const (
	NotifMaintenanceRequest  = "MAINTENANCE_REQUEST"
	NotifMaintenanceApproved = "MAINTENANCE_APPROVED"
	NotifJobCompleted        = "JOB_COMPLETED"
	NotifPaymentReceived     = "PAYMENT_RECEIVED"
	NotifExpenseSubmitted    = "EXPENSE_SUBMITTED"
	NotifOverrideRequest     = "OVERRIDE_REQUEST"
	NotifManagerAction       = "MANAGER_ACTION"
)

// Notification is a persisted message for an owner. The row is written
// before any live push attempt, so a failed websocket delivery still leaves
// the notification visible on the next poll.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	Type      string     `gorm:"type:varchar(50);not null" json:"type"`
	Title     string     `gorm:"type:varchar(255);not null" json:"title"`
	Message   string     `gorm:"type:text" json:"message"`
	RelatedID *uuid.UUID `gorm:"type:uuid" json:"related_id,omitempty"`
	Urgency   string     `gorm:"type:varchar(10);not null;default:'NORMAL'" json:"urgency"`
	IsRead    bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
