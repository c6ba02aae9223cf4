package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Property is a building or complex owned by an owner account.
type Property struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Address   string    `gorm:"type:varchar(255);not null" json:"address"`
	City      string    `gorm:"type:varchar(100)" json:"city"`
	State     string    `gorm:"type:varchar(50)" json:"state"`
	ZipCode   string    `gorm:"type:varchar(20)" json:"zip_code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Unit is a tenant-addressable space inside a property.
type Unit struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PropertyID uuid.UUID `gorm:"type:uuid;not null;index" json:"property_id"`
	UnitNumber string    `gorm:"type:varchar(20);not null" json:"unit_number"`
	Bedrooms   int       `gorm:"default:0" json:"bedrooms"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Lease ties a tenant to a unit. Lease lifecycle changes are mirrored into
// the tracking store (subject type LEASE) by the manager event handler.
type Lease struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UnitID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"unit_id"`
	OwnerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	MonthlyRent decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"monthly_rent"`
	StartDate   time.Time       `gorm:"not null" json:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	Status      string          `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"` // ACTIVE, ENDED
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
