package dto

import "github.com/noah-isme/stikes-adp-api/internal/models"

// CreateLeaveRequest payload for applying for leave. Dates are inclusive
// "2006-01-02" strings.
type CreateLeaveRequest struct {
	FacultyID string               `json:"facultyId" validate:"required"`
	TypeCode  models.LeaveTypeCode `json:"typeCode" validate:"required"`
	FromDate  string               `json:"fromDate" validate:"required"`
	ToDate    string               `json:"toDate" validate:"required"`
	Reason    string               `json:"reason" validate:"required"`
}

// LeaveQuery mirrors supported listing filters.
type LeaveQuery struct {
	Status       []models.ApprovalStatus
	FacultyID    string
	DepartmentID string
	DateFrom     string
	DateTo       string
}
