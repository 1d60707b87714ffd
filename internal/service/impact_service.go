package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
)

type facultyRosterLister interface {
	ListActive(ctx context.Context) ([]models.Faculty, error)
}

type departmentLister interface {
	List(ctx context.Context) ([]models.Department, error)
}

// ImpactService derives, for one reference instant, how much of each
// department is absent.
type ImpactService struct {
	leaves      leaveOverlapLister
	faculty     facultyRosterLister
	departments departmentLister
	metrics     *MetricsService
	threshold   float64
	logger      *zap.Logger
	now         func() time.Time
}

// ImpactServiceParams groups constructor dependencies.
type ImpactServiceParams struct {
	Leaves      leaveOverlapLister
	Faculty     facultyRosterLister
	Departments departmentLister
	Metrics     *MetricsService
	// Threshold is the on-leave percentage above which a department is
	// flagged; DefaultMSRRiskThreshold when unset.
	Threshold float64
	Logger    *zap.Logger
}

// NewImpactService constructs the service.
func NewImpactService(params ImpactServiceParams) *ImpactService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := params.Threshold
	if threshold <= 0 {
		threshold = models.DefaultMSRRiskThreshold
	}
	return &ImpactService{
		leaves:      params.Leaves,
		faculty:     params.Faculty,
		departments: params.Departments,
		metrics:     params.Metrics,
		threshold:   threshold,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Impact computes the department absence snapshot for the given instant (the
// current time when at is nil) and decorates it with department names.
func (s *ImpactService) Impact(ctx context.Context, at *time.Time) ([]models.DepartmentImpact, error) {
	reference := s.now()
	if at != nil {
		reference = *at
	}
	day := dateOnly(reference)

	start := time.Now()
	records, err := s.leaves.ListOverlapping(ctx, day, day, []models.ApprovalStatus{models.StatusPending, models.StatusApproved})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave records")
	}
	roster, err := s.faculty.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty roster")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("impact_snapshot", time.Since(start))
	}

	impacts := ComputeDepartmentImpact(records, roster, reference, s.threshold)

	if s.departments != nil {
		departments, err := s.departments.List(ctx)
		if err != nil {
			s.logger.Warn("failed to resolve department names", zap.Error(err))
			return impacts, nil
		}
		names := make(map[string]string, len(departments))
		for _, department := range departments {
			names[department.ID] = department.Name
		}
		for i := range impacts {
			impacts[i].DepartmentName = names[impacts[i].DepartmentID]
		}
	}
	return impacts, nil
}

// ComputeDepartmentImpact counts, per department, the distinct faculty with a
// PENDING or APPROVED leave containing the reference instant (date-level,
// inclusive on both ends). Pure and deterministic: the single reference
// instant is evaluated once, departments with nobody on leave are omitted,
// and the result is sorted by percentage descending with department id as the
// tiebreak. Records for unknown faculty and inverted date ranges are skipped.
func ComputeDepartmentImpact(records []models.LeaveRequest, faculty []models.Faculty, now time.Time, threshold float64) []models.DepartmentImpact {
	if threshold <= 0 {
		threshold = models.DefaultMSRRiskThreshold
	}
	day := dateOnly(now)

	departmentOf := make(map[string]string, len(faculty))
	totals := make(map[string]int, len(faculty))
	for _, member := range faculty {
		departmentOf[member.ID] = member.DepartmentID
		totals[member.DepartmentID]++
	}

	onLeave := make(map[string]map[string]struct{})
	for _, record := range records {
		if record.Status != models.StatusPending && record.Status != models.StatusApproved {
			continue
		}
		from := dateOnly(record.FromDate)
		to := dateOnly(record.ToDate)
		if to.Before(from) {
			continue
		}
		if day.Before(from) || day.After(to) {
			continue
		}
		departmentID, ok := departmentOf[record.FacultyID]
		if !ok {
			continue
		}
		if onLeave[departmentID] == nil {
			onLeave[departmentID] = make(map[string]struct{})
		}
		onLeave[departmentID][record.FacultyID] = struct{}{}
	}

	impacts := make([]models.DepartmentImpact, 0, len(onLeave))
	for departmentID, members := range onLeave {
		total := totals[departmentID]
		if total == 0 {
			continue
		}
		pct := float64(len(members)) / float64(total) * 100
		impacts = append(impacts, models.DepartmentImpact{
			DepartmentID: departmentID,
			OnLeaveCount: len(members),
			TotalCount:   total,
			Pct:          pct,
			MSRRisk:      pct > threshold,
		})
	}

	sort.Slice(impacts, func(i, j int) bool {
		if impacts[i].Pct != impacts[j].Pct {
			return impacts[i].Pct > impacts[j].Pct
		}
		return impacts[i].DepartmentID < impacts[j].DepartmentID
	})
	return impacts
}
