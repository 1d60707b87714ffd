package models

import "time"

// ComplianceBand is the deterministic severity banding of a department's
// staffing percentage.
type ComplianceBand string

const (
	BandCompliant    ComplianceBand = "green"
	BandAtRisk       ComplianceBand = "yellow"
	BandNonCompliant ComplianceBand = "red"
)

// BandFor maps a compliance percentage onto its severity band: at or above
// 100 is compliant, 80 up to (but excluding) 100 is at risk, below 80 is
// non-compliant.
func BandFor(pct float64) ComplianceBand {
	switch {
	case pct >= 100:
		return BandCompliant
	case pct >= 80:
		return BandAtRisk
	default:
		return BandNonCompliant
	}
}

// ComplianceStatus is one department's derived MSR staffing position.
type ComplianceStatus struct {
	DepartmentID   string         `json:"departmentId"`
	DepartmentName string         `json:"departmentName"`
	RequiredCount  int            `json:"requiredCount"`
	ActualCount    int            `json:"actualCount"`
	Gap            int            `json:"gap"`
	Percentage     float64        `json:"percentage"`
	Band           ComplianceBand `json:"band"`
	IsCompliant    bool           `json:"isCompliant"`
}

// ComplianceReport is the college-wide rollup.
type ComplianceReport struct {
	Departments []ComplianceStatus `json:"departments"`
	OverallPct  float64            `json:"overallPct"`
	TotalGap    int                `json:"totalGap"`
	GeneratedAt time.Time          `json:"generatedAt"`
}
