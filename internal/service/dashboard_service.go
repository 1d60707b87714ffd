package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/stikes-adp-api/internal/dto"
	"github.com/noah-isme/stikes-adp-api/internal/models"
)

const adminDashboardCacheKey = "dashboard:admin"

type approvalCounter interface {
	CountByStatus(ctx context.Context, statuses []models.ApprovalStatus) (int, error)
}

type impactProvider interface {
	Impact(ctx context.Context, at *time.Time) ([]models.DepartmentImpact, error)
}

type complianceProvider interface {
	Report(ctx context.Context) (*models.ComplianceReport, bool, error)
}

type noticeCounter interface {
	CountOpen(ctx context.Context) (int, error)
}

// DashboardService composes the admin landing-page summary from the approval
// queues, the staffing derivations and the notice board.
type DashboardService struct {
	leaves       approvalCounter
	workflows    approvalCounter
	certificates approvalCounter
	refunds      approvalCounter
	impact       impactProvider
	compliance   complianceProvider
	notices      noticeCounter
	cache        *CacheService
	logger       *zap.Logger
	now          func() time.Time
	cacheTTL     time.Duration
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Leaves       approvalCounter
	Workflows    approvalCounter
	Certificates approvalCounter
	Refunds      approvalCounter
	Impact       impactProvider
	Compliance   complianceProvider
	Notices      noticeCounter
	Cache        *CacheService
	Logger       *zap.Logger
	CacheTTL     time.Duration
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		leaves:       params.Leaves,
		workflows:    params.Workflows,
		certificates: params.Certificates,
		refunds:      params.Refunds,
		impact:       params.Impact,
		compliance:   params.Compliance,
		notices:      params.Notices,
		cache:        params.Cache,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		cacheTTL:     ttl,
	}
}

// Admin returns the admin dashboard summary and indicates cache utilisation.
// The cache key lives under the "dashboard" invalidation topic, so any
// approval decision flushes it.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboardResponse, bool, error) {
	if summary, hit, err := s.tryCache(ctx); err != nil {
		return nil, false, err
	} else if hit {
		return summary, true, nil
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, summary)
	return summary, false, nil
}

func (s *DashboardService) tryCache(ctx context.Context) (*dto.AdminDashboardResponse, bool, error) {
	if s.cache == nil {
		return nil, false, nil
	}
	var cached dto.AdminDashboardResponse
	hit, err := s.cache.Get(ctx, adminDashboardCacheKey, &cached)
	if err != nil {
		return nil, false, err
	}
	if hit {
		return &cached, true, nil
	}
	return nil, false, nil
}

func (s *DashboardService) persistCache(ctx context.Context, summary *dto.AdminDashboardResponse) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, adminDashboardCacheKey, summary, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
}

func (s *DashboardService) compose(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	pending, err := s.pendingCounts(ctx)
	if err != nil {
		return nil, err
	}

	summary := &dto.AdminDashboardResponse{
		PendingApprovals: pending,
		GeneratedAt:      s.now(),
	}

	if s.refunds != nil {
		inProcess, err := s.refunds.CountByStatus(ctx, []models.ApprovalStatus{models.StatusProcessing})
		if err != nil {
			return nil, err
		}
		summary.RefundsInProcess = inProcess
	}

	if s.impact != nil {
		impacts, err := s.impact.Impact(ctx, nil)
		if err != nil {
			return nil, err
		}
		for _, impact := range impacts {
			if impact.MSRRisk {
				summary.MSRRiskDepartments++
			}
		}
	}

	if s.compliance != nil {
		report, _, err := s.compliance.Report(ctx)
		if err != nil {
			return nil, err
		}
		summary.StaffingGap = report.TotalGap
	}

	if s.notices != nil {
		open, err := s.notices.CountOpen(ctx)
		if err != nil {
			return nil, err
		}
		summary.OpenNotices = open
	}

	return summary, nil
}

func (s *DashboardService) pendingCounts(ctx context.Context) (dto.PendingApprovalCounts, error) {
	counts := dto.PendingApprovalCounts{}
	sources := []struct {
		counter approvalCounter
		kind    models.RecordType
		target  *int
	}{
		{s.leaves, models.RecordTypeLeave, &counts.Leaves},
		{s.workflows, models.RecordTypeWorkflow, &counts.Workflows},
		{s.certificates, models.RecordTypeCertificate, &counts.Certificates},
		{s.refunds, models.RecordTypeRefund, &counts.Refunds},
	}
	for _, source := range sources {
		if source.counter == nil {
			continue
		}
		count, err := source.counter.CountByStatus(ctx, models.ActionableStatuses(source.kind))
		if err != nil {
			return counts, err
		}
		*source.target = count
		counts.Total += count
	}
	return counts, nil
}
