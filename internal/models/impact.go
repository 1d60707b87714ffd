package models

// DefaultMSRRiskThreshold is the on-leave percentage above which a department
// is flagged as MSR risk. The 30% figure is an operational heuristic carried
// over from the registrar's office, not a Medical Council rule; it is
// overridable via IMPACT_MSR_RISK_THRESHOLD.
const DefaultMSRRiskThreshold = 30.0

// DepartmentImpact is one department's derived absence position for a single
// reference instant. Departments with nobody on leave are omitted from
// results entirely rather than zero-filled.
type DepartmentImpact struct {
	DepartmentID   string  `json:"departmentId"`
	DepartmentName string  `json:"departmentName"`
	OnLeaveCount   int     `json:"onLeaveCount"`
	TotalCount     int     `json:"totalCount"`
	Pct            float64 `json:"pct"`
	MSRRisk        bool    `json:"msrRisk"`
}
