package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tracking status constants per subject type
const (
	// MAINTENANCE
	TrackReported  = "REPORTED"
	TrackApproved  = "APPROVED"
	TrackScheduled = "SCHEDULED"
	TrackCompleted = "COMPLETED"

	// LEASE
	TrackActive = "ACTIVE"
	TrackEnded  = "ENDED"

	// FINANCIAL
	TrackDue     = "DUE"
	TrackPaid    = "PAID"
	TrackOverdue = "OVERDUE"
)

// TrackingRecord is the current status of a lease, maintenance job, or
// financial item, scoped to an owner. Every status change appends a
// TrackingHistoryEntry; history is never rewritten. LastSeq is the sequence
// number of the newest history entry and is only advanced under the
// per-subject lock held by the tracking service.
type TrackingRecord struct {
	ID          uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID     uuid.UUID              `gorm:"type:uuid;not null;index" json:"owner_id"`
	SubjectType string                 `gorm:"type:varchar(20);not null;uniqueIndex:idx_tracking_subject" json:"subject_type"` // LEASE, MAINTENANCE, FINANCIAL
	SubjectID   uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_tracking_subject" json:"subject_id"`
	Status      string                 `gorm:"type:varchar(30);not null" json:"status"`
	Amount      *decimal.Decimal       `gorm:"type:decimal(18,4)" json:"amount,omitempty"` // FINANCIAL subjects only
	LastSeq     int                    `gorm:"not null;default:0" json:"last_seq"`
	History     []TrackingHistoryEntry `gorm:"foreignKey:RecordID" json:"history,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// TrackingHistoryEntry is one append-only status transition on a record.
type TrackingHistoryEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecordID  uuid.UUID `gorm:"type:uuid;not null;index" json:"record_id"`
	Seq       int       `gorm:"not null" json:"seq"`
	Status    string    `gorm:"type:varchar(30);not null" json:"status"`
	Actor     string    `gorm:"type:varchar(100)" json:"actor"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
