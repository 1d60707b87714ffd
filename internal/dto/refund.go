package dto

import "github.com/shopspring/decimal"

// CreateRefundRequest payload for filing a fee refund claim. Deductions
// default to zero.
type CreateRefundRequest struct {
	StudentID  string          `json:"studentId" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	Deductions decimal.Decimal `json:"deductions"`
	Reason     string          `json:"reason" validate:"required"`
}
