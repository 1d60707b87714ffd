package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FeeRefund is a student fee refund claim. Amounts are decimal rupee values;
// NetAmount = Amount - Deductions is fixed at creation and re-checked on
// every state change.
type FeeRefund struct {
	ID              string          `db:"id" json:"id"`
	StudentID       string          `db:"student_id" json:"studentId"`
	StudentName     string          `db:"student_name" json:"studentName"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Deductions      decimal.Decimal `db:"deductions" json:"deductions"`
	NetAmount       decimal.Decimal `db:"net_amount" json:"netAmount"`
	Reason          string          `db:"reason" json:"reason"`
	Status          ApprovalStatus  `db:"status" json:"status"`
	RejectionReason *string         `db:"rejection_reason" json:"rejectionReason,omitempty"`
	DecisionNote    *string         `db:"decision_note" json:"decisionNote,omitempty"`
	DecidedBy       *string         `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt       *time.Time      `db:"decided_at" json:"decidedAt,omitempty"`
	ProcessedAt     *time.Time      `db:"processed_at" json:"processedAt,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// ApprovalRecord projects the refund onto the uniform approval shape.
func (f FeeRefund) ApprovalRecord() ApprovalRecord {
	return ApprovalRecord{
		ID:              f.ID,
		Type:            RecordTypeRefund,
		Status:          f.Status,
		SubjectID:       f.StudentID,
		SubjectName:     f.StudentName,
		Title:           fmt.Sprintf("Fee refund %s", f.NetAmount.StringFixed(2)),
		RejectionReason: f.RejectionReason,
		DecisionNote:    f.DecisionNote,
		DecidedBy:       f.DecidedBy,
		DecidedAt:       f.DecidedAt,
		CreatedAt:       f.CreatedAt,
	}
}

// RefundFilter constrains refund listing queries.
type RefundFilter struct {
	Status    []ApprovalStatus
	StudentID string
	Page      int
	PageSize  int
}
