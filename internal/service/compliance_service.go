package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
)

// ZeroRequiredCompliancePct is the compliance assigned to a department whose
// mandated strength is zero. Treating such departments as fully compliant
// (rather than dividing by zero) matches how the registrar reads the MSR
// tables; the constant exists so the choice is visible and testable.
const ZeroRequiredCompliancePct = 100.0

type departmentRequirementLister interface {
	ListRequirements(ctx context.Context) ([]models.DepartmentRequirement, error)
}

// ComplianceService derives the MSR staffing compliance report.
type ComplianceService struct {
	departments departmentRequirementLister
	cache       *CacheService
	metrics     *MetricsService
	cacheTTL    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// ComplianceServiceParams groups constructor dependencies.
type ComplianceServiceParams struct {
	Departments departmentRequirementLister
	Cache       *CacheService
	Metrics     *MetricsService
	CacheTTL    time.Duration
	Logger      *zap.Logger
}

// NewComplianceService constructs the service.
func NewComplianceService(params ComplianceServiceParams) *ComplianceService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ComplianceService{
		departments: params.Departments,
		cache:       params.Cache,
		metrics:     params.Metrics,
		cacheTTL:    ttl,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

const complianceCacheKey = "compliance:report"

// Report returns the current compliance rollup and indicates cache
// utilisation. The report is recomputed from a fresh requirements fetch on
// every miss; the cached copy expires by TTL or is dropped when a roster
// change publishes the compliance topic.
func (s *ComplianceService) Report(ctx context.Context) (*models.ComplianceReport, bool, error) {
	if s.cache.Enabled() {
		var cached models.ComplianceReport
		if hit, err := s.cache.Get(ctx, complianceCacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	requirements, err := s.departments.ListRequirements(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department requirements")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("compliance_requirements", time.Since(start))
	}

	report := ComputeCompliance(requirements)
	report.GeneratedAt = s.now()

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, complianceCacheKey, report, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache compliance report", zap.Error(err))
		}
	}
	return &report, false, nil
}

// ComputeCompliance folds department requirements into the compliance
// report. Pure: identical input yields identical output, department order is
// preserved, and the input is never mutated. GeneratedAt is left zero for the
// caller to stamp.
func ComputeCompliance(requirements []models.DepartmentRequirement) models.ComplianceReport {
	departments := make([]models.ComplianceStatus, 0, len(requirements))
	totalGap := 0
	sumRequired := 0
	sumActual := 0

	for _, req := range requirements {
		gap := req.RequiredCount - req.ActualCount
		if gap < 0 {
			gap = 0
		}

		pct := ZeroRequiredCompliancePct
		if req.RequiredCount > 0 {
			pct = float64(req.ActualCount) / float64(req.RequiredCount) * 100
			sumRequired += req.RequiredCount
			sumActual += req.ActualCount
		}

		departments = append(departments, models.ComplianceStatus{
			DepartmentID:   req.DepartmentID,
			DepartmentName: req.DepartmentName,
			RequiredCount:  req.RequiredCount,
			ActualCount:    req.ActualCount,
			Gap:            gap,
			Percentage:     pct,
			Band:           models.BandFor(pct),
			IsCompliant:    req.ActualCount >= req.RequiredCount,
		})
		totalGap += gap
	}

	overall := ZeroRequiredCompliancePct
	if sumRequired > 0 {
		overall = float64(sumActual) / float64(sumRequired) * 100
	}

	return models.ComplianceReport{
		Departments: departments,
		OverallPct:  overall,
		TotalGap:    totalGap,
	}
}
