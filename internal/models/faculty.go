package models

import (
	"strings"
	"time"
)

// FacultyDesignation enumerates teaching cadre ranks.
type FacultyDesignation string

const (
	DesignationProfessor          FacultyDesignation = "PROFESSOR"
	DesignationAssociateProfessor FacultyDesignation = "ASSOCIATE_PROFESSOR"
	DesignationAssistantProfessor FacultyDesignation = "ASSISTANT_PROFESSOR"
	DesignationSeniorResident     FacultyDesignation = "SENIOR_RESIDENT"
	DesignationTutor              FacultyDesignation = "TUTOR"
)

// Faculty is a roster entry. Only ACTIVE faculty count toward department
// staffing in the compliance and impact derivations.
type Faculty struct {
	ID           string             `db:"id" json:"id"`
	FullName     string             `db:"full_name" json:"fullName"`
	Email        string             `db:"email" json:"email"`
	Phone        *string            `db:"phone" json:"phone,omitempty"`
	DepartmentID string             `db:"department_id" json:"departmentId"`
	Designation  FacultyDesignation `db:"designation" json:"designation"`
	Active       bool               `db:"active" json:"active"`
	JoinedAt     *time.Time         `db:"joined_at" json:"joinedAt,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updatedAt"`
}

// ShortName returns the display form used on calendar cells: "Dr. Meena
// Krishnan" becomes "Dr. Meena".
func (f Faculty) ShortName() string {
	return ShortDisplayName(f.FullName)
}

// ShortDisplayName shortens a full name for calendar cells, keeping a leading
// honorific.
func ShortDisplayName(fullName string) string {
	fields := strings.Fields(fullName)
	switch {
	case len(fields) >= 2 && isHonorific(fields[0]):
		return fields[0] + " " + fields[1]
	case len(fields) >= 1:
		return fields[0]
	}
	return fullName
}

func isHonorific(s string) bool {
	switch s {
	case "Dr.", "Dr", "Prof.", "Prof", "Mr.", "Mrs.", "Ms.":
		return true
	}
	return false
}

// FacultyFilter constrains roster listing queries.
type FacultyFilter struct {
	DepartmentID string
	Active       *bool
	Search       string
	Page         int
	PageSize     int
}
