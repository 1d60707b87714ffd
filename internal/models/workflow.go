package models

import "time"

// WorkflowCategory enumerates the generic approval workflow kinds.
type WorkflowCategory string

const (
	WorkflowPurchaseOrder WorkflowCategory = "PURCHASE_ORDER"
	WorkflowTravel        WorkflowCategory = "TRAVEL"
	WorkflowEquipment     WorkflowCategory = "EQUIPMENT"
	WorkflowBudget        WorkflowCategory = "BUDGET"
	WorkflowOther         WorkflowCategory = "OTHER"
)

// WorkflowItem is a generic multi-step approval record. StepsTotal is fixed
// at creation (>= 1); StepsApproved counts completed approval steps and never
// exceeds StepsTotal.
type WorkflowItem struct {
	ID              string           `db:"id" json:"id"`
	Category        WorkflowCategory `db:"category" json:"category"`
	Title           string           `db:"title" json:"title"`
	Description     string           `db:"description" json:"description"`
	RequesterID     string           `db:"requester_id" json:"requesterId"`
	RequesterName   string           `db:"requester_name" json:"requesterName"`
	StepsTotal      int              `db:"steps_total" json:"stepsTotal"`
	StepsApproved   int              `db:"steps_approved" json:"stepsApproved"`
	Status          ApprovalStatus   `db:"status" json:"status"`
	RejectionReason *string          `db:"rejection_reason" json:"rejectionReason,omitempty"`
	DecisionNote    *string          `db:"decision_note" json:"decisionNote,omitempty"`
	DecidedBy       *string          `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt       *time.Time       `db:"decided_at" json:"decidedAt,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updatedAt"`
}

// ApprovalRecord projects the workflow item onto the uniform approval shape.
func (w WorkflowItem) ApprovalRecord() ApprovalRecord {
	return ApprovalRecord{
		ID:              w.ID,
		Type:            RecordTypeWorkflow,
		Status:          w.Status,
		SubjectID:       w.RequesterID,
		SubjectName:     w.RequesterName,
		Title:           w.Title,
		StepsTotal:      w.StepsTotal,
		StepsApproved:   w.StepsApproved,
		RejectionReason: w.RejectionReason,
		DecisionNote:    w.DecisionNote,
		DecidedBy:       w.DecidedBy,
		DecidedAt:       w.DecidedAt,
		CreatedAt:       w.CreatedAt,
	}
}

// WorkflowFilter constrains workflow listing queries.
type WorkflowFilter struct {
	Status      []ApprovalStatus
	Category    WorkflowCategory
	RequesterID string
	Page        int
	PageSize    int
}
