package models

import (
	"fmt"
	"time"
)

// CertificateType enumerates the certificates the registrar issues.
type CertificateType string

const (
	CertificateBonafide         CertificateType = "BONAFIDE"
	CertificateTranscript       CertificateType = "TRANSCRIPT"
	CertificateMigration        CertificateType = "MIGRATION"
	CertificateCharacter        CertificateType = "CHARACTER"
	CertificateCourseCompletion CertificateType = "COURSE_COMPLETION"
)

// CertificateRequest is a student's application for an official certificate.
// An APPROVED request becomes ISSUED once the registrar generates the
// artifact; ArtifactPath is set by the issuance worker.
type CertificateRequest struct {
	ID              string          `db:"id" json:"id"`
	StudentID       string          `db:"student_id" json:"studentId"`
	StudentName     string          `db:"student_name" json:"studentName"`
	Type            CertificateType `db:"type" json:"type"`
	Purpose         string          `db:"purpose" json:"purpose"`
	Status          ApprovalStatus  `db:"status" json:"status"`
	RejectionReason *string         `db:"rejection_reason" json:"rejectionReason,omitempty"`
	DecisionNote    *string         `db:"decision_note" json:"decisionNote,omitempty"`
	DecidedBy       *string         `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt       *time.Time      `db:"decided_at" json:"decidedAt,omitempty"`
	IssuedAt        *time.Time      `db:"issued_at" json:"issuedAt,omitempty"`
	ArtifactPath    *string         `db:"artifact_path" json:"-"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// ApprovalRecord projects the certificate request onto the uniform approval
// shape.
func (c CertificateRequest) ApprovalRecord() ApprovalRecord {
	return ApprovalRecord{
		ID:              c.ID,
		Type:            RecordTypeCertificate,
		Status:          c.Status,
		SubjectID:       c.StudentID,
		SubjectName:     c.StudentName,
		Title:           fmt.Sprintf("%s certificate", c.Type),
		RejectionReason: c.RejectionReason,
		DecisionNote:    c.DecisionNote,
		DecidedBy:       c.DecidedBy,
		DecidedAt:       c.DecidedAt,
		CreatedAt:       c.CreatedAt,
	}
}

// CertificateFilter constrains certificate listing queries.
type CertificateFilter struct {
	Status    []ApprovalStatus
	Type      CertificateType
	StudentID string
	Page      int
	PageSize  int
}
