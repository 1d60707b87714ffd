package models

import "time"

// Department is an academic department of the college.
type Department struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Code          string    `db:"code" json:"code"`
	RequiredCount int       `db:"required_count" json:"requiredCount"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// DepartmentRequirement joins a department's MSR-mandated faculty strength
// with its current active headcount. ActualCount is recomputed on every
// fetch, never stored.
type DepartmentRequirement struct {
	DepartmentID   string `db:"department_id" json:"departmentId"`
	DepartmentName string `db:"department_name" json:"departmentName"`
	RequiredCount  int    `db:"required_count" json:"requiredCount"`
	ActualCount    int    `db:"actual_count" json:"actualCount"`
}
