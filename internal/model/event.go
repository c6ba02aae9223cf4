package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Domain event types raised by the role subsystems. The names are part of
// the external contract and must not change.
const (
	EventTenantIssueReported      = "tenant_issue_reported"
	EventTenantPaymentMade        = "tenant_payment_made"
	EventMaintenanceApproved      = "maintenance_approved"
	EventHandymanJobCompleted     = "handyman_job_completed"
	EventHandymanExpenseSubmitted = "handyman_expense_submitted"
	EventManagerActionTaken       = "manager_action_taken"
	EventOwnerOverrideRequested   = "owner_override_requested"
)

// EventStatus enum constants
const (
	EventStatusReceived  = "RECEIVED"
	EventStatusProcessed = "PROCESSED"
	EventStatusFailed    = "FAILED"
	EventStatusDead      = "DEAD"
)

// DomainEvent is the persisted envelope for a cross-subsystem event.
// The type and payload are immutable after ingestion; only the delivery
// bookkeeping columns (status, attempts, last_error) change.
type DomainEvent struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EventType     string            `gorm:"type:varchar(50);not null;index" json:"event_type"`
	Payload       datatypes.JSONMap `gorm:"type:jsonb;not null" json:"payload"`
	Status        string            `gorm:"type:varchar(20);not null;default:'RECEIVED';index" json:"status"`
	Attempts      int               `gorm:"not null;default:0" json:"attempts"`
	LastError     string            `gorm:"type:text" json:"last_error,omitempty"`
	NextAttemptAt *time.Time        `gorm:"index" json:"next_attempt_at,omitempty"`
	SubmittedBy   *uuid.UUID        `gorm:"type:uuid" json:"submitted_by"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
