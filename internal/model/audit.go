package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionSubmitEvent     = "SUBMIT_EVENT"
	ActionDispatchFailed  = "DISPATCH_FAILED"
	ActionEnqueueApproval = "ENQUEUE_APPROVAL"
	ActionApproveEntry    = "APPROVE_ENTRY"
	ActionDenyEntry       = "DENY_ENTRY"
	ActionUpsertTracking  = "UPSERT_TRACKING"
	ActionNotifyOwner     = "NOTIFY_OWNER"

	ActionCreateUser = "CREATE_USER"
	ActionUpdateUser = "UPDATE_USER"
	ActionDeleteUser = "DELETE_USER"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if written by the relay
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
