package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stikes-adp-api/internal/models"
)

type rosterStub struct {
	rows []models.Faculty
}

func (s *rosterStub) ListActive(ctx context.Context) ([]models.Faculty, error) {
	return s.rows, nil
}

type departmentsStub struct {
	rows []models.Department
}

func (s *departmentsStub) List(ctx context.Context) ([]models.Department, error) {
	return s.rows, nil
}

func impactRoster() []models.Faculty {
	return []models.Faculty{
		{ID: "f1", DepartmentID: "anatomy"},
		{ID: "f2", DepartmentID: "anatomy"},
		{ID: "f3", DepartmentID: "anatomy"},
		{ID: "f4", DepartmentID: "biochem"},
		{ID: "f5", DepartmentID: "biochem"},
		{ID: "f6", DepartmentID: "pharma"},
	}
}

func leaveOn(facultyID string, status models.ApprovalStatus, from, to time.Time) models.LeaveRequest {
	return models.LeaveRequest{FacultyID: facultyID, Status: status, FromDate: from, ToDate: to}
}

func TestComputeDepartmentImpact(t *testing.T) {
	now := day(2026, time.June, 10)
	records := []models.LeaveRequest{
		leaveOn("f1", models.StatusApproved, day(2026, time.June, 9), day(2026, time.June, 11)),
		leaveOn("f4", models.StatusPending, day(2026, time.June, 10), day(2026, time.June, 10)),
		// Decided records never count.
		leaveOn("f2", models.StatusRejected, day(2026, time.June, 10), day(2026, time.June, 10)),
		// Outside the reference day.
		leaveOn("f5", models.StatusApproved, day(2026, time.June, 12), day(2026, time.June, 14)),
	}

	impacts := ComputeDepartmentImpact(records, impactRoster(), now, 30)
	// pharma has nobody on leave and is absent, not listed with zero.
	require.Len(t, impacts, 2)

	// biochem 1/2 = 50% sorts above anatomy 1/3 = 33.3%.
	require.Equal(t, "biochem", impacts[0].DepartmentID)
	require.Equal(t, 1, impacts[0].OnLeaveCount)
	require.Equal(t, 2, impacts[0].TotalCount)
	require.InDelta(t, 50, impacts[0].Pct, 0.001)
	require.True(t, impacts[0].MSRRisk)

	require.Equal(t, "anatomy", impacts[1].DepartmentID)
	require.InDelta(t, 33.333, impacts[1].Pct, 0.01)
	require.True(t, impacts[1].MSRRisk)
}

func TestComputeDepartmentImpactThresholdIsStrict(t *testing.T) {
	// 3 of 10 on leave is exactly 30%: at the threshold is not above it.
	roster := make([]models.Faculty, 0, 10)
	for i := 0; i < 10; i++ {
		roster = append(roster, models.Faculty{ID: string(rune('a' + i)), DepartmentID: "anatomy"})
	}
	now := day(2026, time.June, 10)
	records := []models.LeaveRequest{
		leaveOn("a", models.StatusApproved, now, now),
		leaveOn("b", models.StatusApproved, now, now),
		leaveOn("c", models.StatusApproved, now, now),
	}

	impacts := ComputeDepartmentImpact(records, roster, now, 30)
	require.Len(t, impacts, 1)
	require.InDelta(t, 30, impacts[0].Pct, 0.001)
	require.False(t, impacts[0].MSRRisk)

	records = append(records, leaveOn("d", models.StatusPending, now, now))
	impacts = ComputeDepartmentImpact(records, roster, now, 30)
	require.InDelta(t, 40, impacts[0].Pct, 0.001)
	require.True(t, impacts[0].MSRRisk)
}

func TestComputeDepartmentImpactCountsFacultyOnce(t *testing.T) {
	now := day(2026, time.June, 10)
	records := []models.LeaveRequest{
		leaveOn("f1", models.StatusApproved, day(2026, time.June, 9), day(2026, time.June, 10)),
		leaveOn("f1", models.StatusPending, day(2026, time.June, 10), day(2026, time.June, 12)),
	}
	impacts := ComputeDepartmentImpact(records, impactRoster(), now, 30)
	require.Len(t, impacts, 1)
	require.Equal(t, 1, impacts[0].OnLeaveCount)
}

func TestComputeDepartmentImpactSkipsUnknownFacultyAndInvertedRanges(t *testing.T) {
	now := day(2026, time.June, 10)
	records := []models.LeaveRequest{
		leaveOn("ghost", models.StatusApproved, now, now),
		leaveOn("f1", models.StatusApproved, day(2026, time.June, 12), day(2026, time.June, 9)),
	}
	impacts := ComputeDepartmentImpact(records, impactRoster(), now, 30)
	require.Empty(t, impacts)
}

func TestComputeDepartmentImpactTiebreaksOnDepartmentID(t *testing.T) {
	roster := []models.Faculty{
		{ID: "f1", DepartmentID: "zoology"},
		{ID: "f2", DepartmentID: "zoology"},
		{ID: "f3", DepartmentID: "anatomy"},
		{ID: "f4", DepartmentID: "anatomy"},
	}
	now := day(2026, time.June, 10)
	records := []models.LeaveRequest{
		leaveOn("f1", models.StatusApproved, now, now),
		leaveOn("f3", models.StatusApproved, now, now),
	}
	impacts := ComputeDepartmentImpact(records, roster, now, 30)
	require.Len(t, impacts, 2)
	require.Equal(t, "anatomy", impacts[0].DepartmentID)
	require.Equal(t, "zoology", impacts[1].DepartmentID)
}

func TestImpactServiceDecoratesDepartmentNames(t *testing.T) {
	now := day(2026, time.June, 10)
	svc := NewImpactService(ImpactServiceParams{
		Leaves: &overlapStub{rows: []models.LeaveRequest{
			leaveOn("f1", models.StatusApproved, now, now),
		}},
		Faculty:     &rosterStub{rows: impactRoster()},
		Departments: &departmentsStub{rows: []models.Department{{ID: "anatomy", Name: "Anatomy"}}},
	})

	at := now
	impacts, err := svc.Impact(context.Background(), &at)
	require.NoError(t, err)
	require.Len(t, impacts, 1)
	require.Equal(t, "Anatomy", impacts[0].DepartmentName)
	require.True(t, impacts[0].MSRRisk, "1 of 3 exceeds the default 30 threshold")
}

func TestColorForIsDeterministic(t *testing.T) {
	first := ColorFor("Dr. Asha Rao")
	require.Equal(t, first, ColorFor("Dr. Asha Rao"))
	require.Contains(t, leavePalette[:], first)
	require.NotEmpty(t, ColorFor(""))
}
