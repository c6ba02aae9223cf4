package model

// Subject types referenced by approval entries and tracking records.
const (
	SubjectLease       = "LEASE"
	SubjectMaintenance = "MAINTENANCE"
	SubjectFinancial   = "FINANCIAL"
	SubjectExpense     = "EXPENSE"
	SubjectOverride    = "OVERRIDE"
)

// Urgency enum constants
const (
	UrgencyLow    = "LOW"
	UrgencyNormal = "NORMAL"
	UrgencyHigh   = "HIGH"
)
