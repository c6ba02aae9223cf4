package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalStatus enum constants
const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalDenied   = "DENIED"
)

// ApprovalQueueEntry represents a pending decision awaiting owner sign-off:
// a maintenance request, a submitted expense, or a manager override.
// Entries are never deleted; a decision transitions the status exactly once
// (PENDING -> APPROVED or PENDING -> DENIED) and the row remains as the
// audit trail.
type ApprovalQueueEntry struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"owner_id"`
	SubjectType  string           `gorm:"type:varchar(20);not null;index" json:"subject_type"` // MAINTENANCE, EXPENSE, OVERRIDE
	SubjectID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"subject_id"`
	SubmittedBy  *uuid.UUID       `gorm:"type:uuid" json:"submitted_by"`
	Description  string           `gorm:"type:text" json:"description"`
	Amount       *decimal.Decimal `gorm:"type:decimal(18,4)" json:"amount,omitempty"`
	Urgency      string           `gorm:"type:varchar(10);not null;default:'NORMAL'" json:"urgency"`
	Status       string           `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	SubmittedAt  time.Time        `gorm:"not null;index;autoCreateTime" json:"submitted_at"`
	DecidedBy    *uuid.UUID       `gorm:"type:uuid" json:"decided_by"`
	DecidedAt    *time.Time       `json:"decided_at"`
	DecisionNote string           `gorm:"type:text" json:"decision_note"`
}
