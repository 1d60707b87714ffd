package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
)

type countStub struct {
	pending    int
	processing int
	calls      int
}

func (s *countStub) CountByStatus(_ context.Context, statuses []models.ApprovalStatus) (int, error) {
	s.calls++
	if len(statuses) == 1 && statuses[0] == models.StatusProcessing {
		return s.processing, nil
	}
	return s.pending, nil
}

type impactStub struct {
	impacts []models.DepartmentImpact
}

func (s *impactStub) Impact(context.Context, *time.Time) ([]models.DepartmentImpact, error) {
	return s.impacts, nil
}

type complianceStub struct {
	report *models.ComplianceReport
}

func (s *complianceStub) Report(context.Context) (*models.ComplianceReport, bool, error) {
	return s.report, false, nil
}

type noticeCountStub struct {
	open int
}

func (s *noticeCountStub) CountOpen(context.Context) (int, error) {
	return s.open, nil
}

// memoryCacheRepo mirrors the redis repository contract: misses surface as
// ErrCacheMiss and deletes are prefix patterns ending in '*'.
type memoryCacheRepo struct {
	entries   map[string][]byte
	published []string
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *memoryCacheRepo) Publish(_ context.Context, channel, message string) error {
	m.published = append(m.published, channel+"|"+message)
	return nil
}

func newDashboardFixture(cache *CacheService) (*DashboardService, *countStub) {
	leaves := &countStub{pending: 3}
	svc := NewDashboardService(DashboardServiceParams{
		Leaves:       leaves,
		Workflows:    &countStub{pending: 2},
		Certificates: &countStub{pending: 1},
		Refunds:      &countStub{pending: 4, processing: 2},
		Impact: &impactStub{impacts: []models.DepartmentImpact{
			{DepartmentID: "dept-anatomy", MSRRisk: true},
			{DepartmentID: "dept-biochem", MSRRisk: false},
			{DepartmentID: "dept-pharma", MSRRisk: true},
		}},
		Compliance: &complianceStub{report: &models.ComplianceReport{TotalGap: 5}},
		Notices:    &noticeCountStub{open: 3},
		Cache:      cache,
	})
	return svc, leaves
}

func TestDashboardServiceAdminComposesSummary(t *testing.T) {
	svc, _ := newDashboardFixture(nil)

	summary, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	require.False(t, hit)

	assert.Equal(t, 3, summary.PendingApprovals.Leaves)
	assert.Equal(t, 2, summary.PendingApprovals.Workflows)
	assert.Equal(t, 1, summary.PendingApprovals.Certificates)
	assert.Equal(t, 4, summary.PendingApprovals.Refunds)
	assert.Equal(t, 10, summary.PendingApprovals.Total)
	assert.Equal(t, 2, summary.RefundsInProcess)
	assert.Equal(t, 2, summary.MSRRiskDepartments)
	assert.Equal(t, 5, summary.StaffingGap)
	assert.Equal(t, 3, summary.OpenNotices)
	assert.False(t, summary.GeneratedAt.IsZero())
}

func TestDashboardServiceAdminServesFromCache(t *testing.T) {
	repo := &memoryCacheRepo{}
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc, leaves := newDashboardFixture(cache)

	_, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, 1, leaves.calls)

	summary, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 10, summary.PendingApprovals.Total)
	assert.Equal(t, 1, leaves.calls)
}

func TestDashboardServiceAdminRecomputesAfterInvalidation(t *testing.T) {
	repo := &memoryCacheRepo{}
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc, leaves := newDashboardFixture(cache)

	_, _, err := svc.Admin(context.Background())
	require.NoError(t, err)

	// Any decision's staleness set includes the dashboard topic; the flush
	// drops the "dashboard:admin" key by prefix and notifies subscribers.
	cache.Invalidate(context.Background(), models.InvalidationTopics(models.RecordTypeLeave))
	assert.Contains(t, repo.published, InvalidationChannel+"|dashboard")

	_, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	require.False(t, hit)
	assert.Equal(t, 2, leaves.calls)
}
