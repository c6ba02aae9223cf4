package event

import (
	"context"
	"encoding/json"
	"fmt"

	"propertyops/internal/model"
	"propertyops/internal/service"

	"github.com/shopspring/decimal"
)

// Handlers composes the store and notifier services into one handler per
// event type. Each handler writes tracking/approval state and alerts the
// owning role; the event envelope itself is never mutated.
type Handlers struct {
	approvals service.ApprovalService
	tracking  service.TrackingService
	notifier  service.NotificationService
}

func NewHandlers(
	approvals service.ApprovalService,
	tracking service.TrackingService,
	notifier service.NotificationService,
) *Handlers {
	return &Handlers{
		approvals: approvals,
		tracking:  tracking,
		notifier:  notifier,
	}
}

// RegisterAll binds every known event type to its handler.
func (h *Handlers) RegisterAll(r *Router) {
	r.Register(model.EventTenantIssueReported, h.TenantIssueReported)
	r.Register(model.EventTenantPaymentMade, h.TenantPaymentMade)
	r.Register(model.EventMaintenanceApproved, h.MaintenanceApproved)
	r.Register(model.EventHandymanJobCompleted, h.HandymanJobCompleted)
	r.Register(model.EventHandymanExpenseSubmitted, h.HandymanExpenseSubmitted)
	r.Register(model.EventManagerActionTaken, h.ManagerActionTaken)
	r.Register(model.EventOwnerOverrideRequested, h.OwnerOverrideRequested)
}

// --- Payload shapes (field names are part of the external contract) ---

type tenantIssuePayload struct {
	OwnerID     string `json:"owner_id"`
	TenantID    string `json:"tenant_id"`
	IssueID     string `json:"issue_id"`
	Description string `json:"description"`
	Urgency     string `json:"urgency"`
}

type tenantPaymentPayload struct {
	OwnerID   string `json:"owner_id"`
	TenantID  string `json:"tenant_id"`
	PaymentID string `json:"payment_id"`
	Amount    string `json:"amount"`
}

type maintenanceApprovedPayload struct {
	OwnerID       string `json:"owner_id"`
	MaintenanceID string `json:"maintenance_id"`
	ApprovedBy    string `json:"approved_by"`
}

type jobCompletedPayload struct {
	OwnerID    string `json:"owner_id"`
	HandymanID string `json:"handyman_id"`
	JobID      string `json:"job_id"`
	Summary    string `json:"summary"`
}

type expenseSubmittedPayload struct {
	OwnerID     string `json:"owner_id"`
	HandymanID  string `json:"handyman_id"`
	ExpenseID   string `json:"expense_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type managerActionPayload struct {
	OwnerID     string `json:"owner_id"`
	ManagerID   string `json:"manager_id"`
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
	Status      string `json:"status"`
	Action      string `json:"action"`
}

type overrideRequestedPayload struct {
	OwnerID   string `json:"owner_id"`
	ManagerID string `json:"manager_id"`
	RequestID string `json:"request_id"`
	Reason    string `json:"reason"`
}

// decodePayload maps the stored JSONB payload into a typed struct.
func decodePayload(ev model.DomainEvent, out interface{}) error {
	raw, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// --- Handlers ---

// TenantIssueReported opens a maintenance tracking record and queues the
// repair for owner approval. HIGH urgency issues alert the owner
// immediately via the approval enqueue gate.
func (h *Handlers) TenantIssueReported(ctx context.Context, ev model.DomainEvent) error {
	var p tenantIssuePayload
	if err := decodePayload(ev, &p); err != nil {
		return err
	}

	if _, err := h.tracking.Upsert(ctx, service.UpsertTrackingRequest{
		OwnerID:     p.OwnerID,
		SubjectType: model.SubjectMaintenance,
		SubjectID:   p.IssueID,
		Status:      model.TrackReported,
		Actor:       p.TenantID,
	}); err != nil {
		return err
	}

	_, err := h.approvals.Enqueue(ctx, service.EnqueueApprovalRequest{
		OwnerID:     p.OwnerID,
		SubjectType: model.SubjectMaintenance,
		SubjectID:   p.IssueID,
		SubmittedBy: p.TenantID,
		Description: p.Description,
		Urgency:     p.Urgency,
	})
	return err
}

// TenantPaymentMade records the payment in the financial tracking store and
// tells the owner.
func (h *Handlers) TenantPaymentMade(ctx context.Context, ev model.DomainEvent) error {
	var p tenantPaymentPayload
	if err := decodePayload(ev, &p); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return fmt.Errorf("invalid payment amount %q: %w", p.Amount, err)
	}

	if _, err := h.tracking.Upsert(ctx, service.UpsertTrackingRequest{
		OwnerID:     p.OwnerID,
		SubjectType: model.SubjectFinancial,
		SubjectID:   p.PaymentID,
		Status:      model.TrackPaid,
		Actor:       p.TenantID,
		Amount:      &amount,
	}); err != nil {
		return err
	}

	_, err = h.notifier.Notify(ctx, service.NotifyRequest{
		OwnerID:   p.OwnerID,
		Type:      model.NotifPaymentReceived,
		Title:     "Rent payment received",
		Message:   fmt.Sprintf("Payment of %s received", amount.StringFixed(2)),
		RelatedID: p.PaymentID,
	})
	return err
}

// MaintenanceApproved moves the job's tracking record forward after the
// owner signed off.
func (h *Handlers) MaintenanceApproved(ctx context.Context, ev model.DomainEvent) error {
	var p maintenanceApprovedPayload
	if err := decodePayload(ev, &p); err != nil {
		return err
	}

	if _, err := h.tracking.Upsert(ctx, service.UpsertTrackingRequest{
		OwnerID:     p.OwnerID,
		SubjectType: model.SubjectMaintenance,
		SubjectID:   p.MaintenanceID,
		Status:      model.TrackApproved,
		Actor:       p.ApprovedBy,
	}); err != nil {
		return err
	}

	_, err := h.notifier.Notify(ctx, service.NotifyRequest{
		OwnerID:   p.OwnerID,
		Type:      model.NotifMaintenanceApproved,
		Title:     "Maintenance approved",
		Message:   "The maintenance request was approved and will be scheduled",
		RelatedID: p.MaintenanceID,
	})
	return err
}

func (h *Handlers) HandymanJobCompleted(ctx context.Context, ev model.DomainEvent) error {
	var p jobCompletedPayload
	if err := decodePayload(ev, &p); err != nil {
		return err
	}

	if _, err := h.tracking.Upsert(ctx, service.UpsertTrackingRequest{
		OwnerID:     p.OwnerID,
		SubjectType: model.SubjectMaintenance,
		SubjectID:   p.JobID,
		Status:      model.TrackCompleted,
		Actor:       p.HandymanID,
	}); err != nil {
		return err
	}

	_, err := h.notifier.Notify(ctx, service.NotifyRequest{
		OwnerID:   p.OwnerID,
		Type:      model.NotifJobCompleted,
		Title:     "Job completed",
		Message:   p.Summary,
		RelatedID: p.JobID,
	})
	return err
}

// HandymanExpenseSubmitted queues the expense for owner approval. The
// enqueue gate promotes amounts over the configured threshold to HIGH
// urgency, which is the only case that generates a notification.
func (h *Handlers) HandymanExpenseSubmitted(ctx context.Context, ev model.DomainEvent) error {
	var p expenseSubmittedPayload
	if err := decodePayload(ev, &p); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return fmt.Errorf("invalid expense amount %q: %w", p.Amount, err)
	}

	_, err = h.approvals.Enqueue(ctx, service.EnqueueApprovalRequest{
		OwnerID:     p.OwnerID,
		SubjectType: model.SubjectExpense,
		SubjectID:   p.ExpenseID,
		SubmittedBy: p.HandymanID,
		Description: p.Description,
		Amount:      &amount,
	})
	return err
}

// ManagerActionTaken mirrors a manager's change onto the referenced
// subject's tracking record and tells the owner what happened.
func (h *Handlers) ManagerActionTaken(ctx context.Context, ev model.DomainEvent) error {
	var p managerActionPayload
	if err := decodePayload(ev, &p); err != nil {
		return err
	}

	if _, err := h.tracking.Upsert(ctx, service.UpsertTrackingRequest{
		OwnerID:     p.OwnerID,
		SubjectType: p.SubjectType,
		SubjectID:   p.SubjectID,
		Status:      p.Status,
		Actor:       p.ManagerID,
	}); err != nil {
		return err
	}

	_, err := h.notifier.Notify(ctx, service.NotifyRequest{
		OwnerID:   p.OwnerID,
		Type:      model.NotifManagerAction,
		Title:     "Manager action",
		Message:   p.Action,
		RelatedID: p.SubjectID,
	})
	return err
}

// OwnerOverrideRequested always enters the queue at HIGH urgency: override
// requests bypass normal manager authority and need immediate attention.
func (h *Handlers) OwnerOverrideRequested(ctx context.Context, ev model.DomainEvent) error {
	var p overrideRequestedPayload
	if err := decodePayload(ev, &p); err != nil {
		return err
	}

	_, err := h.approvals.Enqueue(ctx, service.EnqueueApprovalRequest{
		OwnerID:     p.OwnerID,
		SubjectType: model.SubjectOverride,
		SubjectID:   p.RequestID,
		SubmittedBy: p.ManagerID,
		Description: p.Reason,
		Urgency:     model.UrgencyHigh,
	})
	return err
}
