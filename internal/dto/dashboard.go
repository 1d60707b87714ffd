package dto

import "time"

// AdminDashboardResponse captures the aggregated admin dashboard payload.
type AdminDashboardResponse struct {
	PendingApprovals   PendingApprovalCounts `json:"pendingApprovals"`
	RefundsInProcess   int                   `json:"refundsInProcess"`
	MSRRiskDepartments int                   `json:"msrRiskDepartments"`
	StaffingGap        int                   `json:"staffingGap"`
	OpenNotices        int                   `json:"openNotices"`
	GeneratedAt        time.Time             `json:"generatedAt"`
}

// PendingApprovalCounts breaks the review backlog down per record type.
type PendingApprovalCounts struct {
	Leaves       int `json:"leaves"`
	Workflows    int `json:"workflows"`
	Certificates int `json:"certificates"`
	Refunds      int `json:"refunds"`
	Total        int `json:"total"`
}
