package models

import (
	"fmt"
	"time"
)

// LeaveTypeCode enumerates leave categories. Codes follow the college's
// service-rule shorthand and appear verbatim on calendar labels.
type LeaveTypeCode string

const (
	LeaveTypeCasual     LeaveTypeCode = "CL"
	LeaveTypeSick       LeaveTypeCode = "SL"
	LeaveTypeEarned     LeaveTypeCode = "EL"
	LeaveTypeMaternity  LeaveTypeCode = "ML"
	LeaveTypeConference LeaveTypeCode = "CONF"
)

// LeaveRequest is a faculty leave application. FromDate and ToDate are
// inclusive calendar dates; the time component is always midnight UTC.
type LeaveRequest struct {
	ID              string         `db:"id" json:"id"`
	FacultyID       string         `db:"faculty_id" json:"facultyId"`
	FacultyName     string         `db:"faculty_name" json:"facultyName"`
	DepartmentID    string         `db:"department_id" json:"departmentId"`
	TypeCode        LeaveTypeCode  `db:"type_code" json:"typeCode"`
	FromDate        time.Time      `db:"from_date" json:"fromDate"`
	ToDate          time.Time      `db:"to_date" json:"toDate"`
	Reason          string         `db:"reason" json:"reason"`
	Status          ApprovalStatus `db:"status" json:"status"`
	RejectionReason *string        `db:"rejection_reason" json:"rejectionReason,omitempty"`
	DecisionNote    *string        `db:"decision_note" json:"decisionNote,omitempty"`
	DecidedBy       *string        `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt       *time.Time     `db:"decided_at" json:"decidedAt,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// Days returns the inclusive day count of the leave range, zero when the
// range is inverted.
func (l LeaveRequest) Days() int {
	if l.ToDate.Before(l.FromDate) {
		return 0
	}
	return int(l.ToDate.Sub(l.FromDate).Hours()/24) + 1
}

// ApprovalRecord projects the leave onto the uniform approval shape.
func (l LeaveRequest) ApprovalRecord() ApprovalRecord {
	return ApprovalRecord{
		ID:              l.ID,
		Type:            RecordTypeLeave,
		Status:          l.Status,
		SubjectID:       l.FacultyID,
		SubjectName:     l.FacultyName,
		Title:           fmt.Sprintf("%s %s to %s", l.TypeCode, l.FromDate.Format("2006-01-02"), l.ToDate.Format("2006-01-02")),
		RejectionReason: l.RejectionReason,
		DecisionNote:    l.DecisionNote,
		DecidedBy:       l.DecidedBy,
		DecidedAt:       l.DecidedAt,
		CreatedAt:       l.CreatedAt,
	}
}

// LeaveFilter constrains leave listing queries.
type LeaveFilter struct {
	Status       []ApprovalStatus
	FacultyID    string
	DepartmentID string
	DateFrom     *time.Time
	DateTo       *time.Time
	Page         int
	PageSize     int
}
