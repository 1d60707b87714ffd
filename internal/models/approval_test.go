package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRecordType(t *testing.T) {
	tests := []struct {
		raw  string
		want RecordType
		ok   bool
	}{
		{"leave", RecordTypeLeave, true},
		{"LEAVES", RecordTypeLeave, true},
		{" workflow ", RecordTypeWorkflow, true},
		{"certificates", RecordTypeCertificate, true},
		{"Refund", RecordTypeRefund, true},
		{"grade", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRecordType(tt.raw)
		require.Equal(t, tt.ok, ok, "raw=%q", tt.raw)
		require.Equal(t, tt.want, got, "raw=%q", tt.raw)
	}
}

func TestNormalizeStatus(t *testing.T) {
	got, ok := NormalizeStatus("requested")
	require.True(t, ok)
	require.Equal(t, StatusPending, got)

	got, ok = NormalizeStatus(" approved ")
	require.True(t, ok)
	require.Equal(t, StatusApproved, got)

	got, ok = NormalizeStatus("partially_approved")
	require.True(t, ok)
	require.Equal(t, StatusPartiallyApproved, got)

	_, ok = NormalizeStatus("nonsense")
	require.False(t, ok)

	_, ok = NormalizeStatus("")
	require.False(t, ok)
}

func TestIsTerminalStatus(t *testing.T) {
	tests := []struct {
		name     string
		typ      RecordType
		status   ApprovalStatus
		terminal bool
	}{
		{"leave pending", RecordTypeLeave, StatusPending, false},
		{"leave approved ends chain", RecordTypeLeave, StatusApproved, true},
		{"workflow approved not terminal", RecordTypeWorkflow, StatusApproved, false},
		{"workflow completed", RecordTypeWorkflow, StatusCompleted, true},
		{"certificate approved not terminal", RecordTypeCertificate, StatusApproved, false},
		{"certificate issued", RecordTypeCertificate, StatusIssued, true},
		{"refund processing not terminal", RecordTypeRefund, StatusProcessing, false},
		{"refund completed", RecordTypeRefund, StatusCompleted, true},
		{"rejected always terminal", RecordTypeWorkflow, StatusRejected, true},
		{"cancelled always terminal", RecordTypeRefund, StatusCancelled, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.terminal, IsTerminalStatus(tt.typ, tt.status))
		})
	}
}

func TestActionableStatuses(t *testing.T) {
	require.Equal(t, []ApprovalStatus{StatusPending}, ActionableStatuses(RecordTypeLeave))
	require.Equal(t,
		[]ApprovalStatus{StatusPending, StatusPartiallyApproved, StatusApproved},
		ActionableStatuses(RecordTypeWorkflow))
	require.Equal(t,
		[]ApprovalStatus{StatusPending, StatusApproved},
		ActionableStatuses(RecordTypeCertificate))
	require.Equal(t,
		[]ApprovalStatus{StatusPending, StatusApproved, StatusProcessing},
		ActionableStatuses(RecordTypeRefund))
	require.Nil(t, ActionableStatuses(RecordType("UNKNOWN")))
}

func TestNextForwardChains(t *testing.T) {
	tests := []struct {
		name   string
		record ApprovalRecord
		want   ApprovalStatus
		ok     bool
	}{
		{"leave pending", ApprovalRecord{Type: RecordTypeLeave, Status: StatusPending}, StatusApproved, true},
		{"leave approved is terminal", ApprovalRecord{Type: RecordTypeLeave, Status: StatusApproved}, "", false},
		{"certificate pending", ApprovalRecord{Type: RecordTypeCertificate, Status: StatusPending}, StatusApproved, true},
		{"certificate approved", ApprovalRecord{Type: RecordTypeCertificate, Status: StatusApproved}, StatusIssued, true},
		{"refund approved", ApprovalRecord{Type: RecordTypeRefund, Status: StatusApproved}, StatusProcessing, true},
		{"refund processing", ApprovalRecord{Type: RecordTypeRefund, Status: StatusProcessing}, StatusCompleted, true},
		{"rejected never advances", ApprovalRecord{Type: RecordTypeRefund, Status: StatusRejected}, "", false},
		{"cancelled never advances", ApprovalRecord{Type: RecordTypeLeave, Status: StatusCancelled}, "", false},
		{"off-chain status", ApprovalRecord{Type: RecordTypeLeave, Status: StatusProcessing}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.record.NextForward()
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNextForwardWorkflowSteps(t *testing.T) {
	// Single-step workflows skip PARTIALLY_APPROVED entirely.
	single := ApprovalRecord{Type: RecordTypeWorkflow, Status: StatusPending, StepsTotal: 1}
	next, ok := single.NextForward()
	require.True(t, ok)
	require.Equal(t, StatusApproved, next)

	// A three-step workflow holds in PARTIALLY_APPROVED until the last step.
	multi := ApprovalRecord{Type: RecordTypeWorkflow, Status: StatusPending, StepsTotal: 3}
	next, ok = multi.NextForward()
	require.True(t, ok)
	require.Equal(t, StatusPartiallyApproved, next)

	multi.Status = StatusPartiallyApproved
	multi.StepsApproved = 1
	next, ok = multi.NextForward()
	require.True(t, ok)
	require.Equal(t, StatusPartiallyApproved, next)

	multi.StepsApproved = 2
	next, ok = multi.NextForward()
	require.True(t, ok)
	require.Equal(t, StatusApproved, next)

	multi.Status = StatusApproved
	next, ok = multi.NextForward()
	require.True(t, ok)
	require.Equal(t, StatusCompleted, next)

	multi.Status = StatusCompleted
	_, ok = multi.NextForward()
	require.False(t, ok)
}

func TestAllowedNext(t *testing.T) {
	pending := ApprovalRecord{Type: RecordTypeCertificate, Status: StatusPending}
	require.Equal(t,
		[]ApprovalStatus{StatusApproved, StatusRejected, StatusCancelled},
		pending.AllowedNext())

	issued := ApprovalRecord{Type: RecordTypeCertificate, Status: StatusIssued}
	require.Nil(t, issued.AllowedNext())

	rejected := ApprovalRecord{Type: RecordTypeLeave, Status: StatusRejected}
	require.Nil(t, rejected.AllowedNext())
}

func TestCanTransition(t *testing.T) {
	record := ApprovalRecord{Type: RecordTypeRefund, Status: StatusApproved}
	require.True(t, record.CanTransition(StatusProcessing))
	require.True(t, record.CanTransition(StatusRejected))
	require.True(t, record.CanTransition(StatusCancelled))
	// Never backward, never skipping ahead, never a self-hop.
	require.False(t, record.CanTransition(StatusPending))
	require.False(t, record.CanTransition(StatusCompleted))
	require.False(t, record.CanTransition(StatusApproved))

	terminal := ApprovalRecord{Type: RecordTypeRefund, Status: StatusCompleted}
	require.False(t, terminal.CanTransition(StatusRejected))
	require.False(t, terminal.CanTransition(StatusCancelled))
}

func TestInvalidationTopics(t *testing.T) {
	for _, typ := range []RecordType{RecordTypeLeave, RecordTypeWorkflow, RecordTypeCertificate, RecordTypeRefund} {
		topics := InvalidationTopics(typ)
		require.Contains(t, topics, TopicDashboard, "type=%s", typ)
		require.Contains(t, topics, TopicAlerts, "type=%s", typ)
	}

	leave := InvalidationTopics(RecordTypeLeave)
	require.Contains(t, leave, TopicLeaves)
	require.Contains(t, leave, TopicCalendar)
	require.Contains(t, leave, TopicImpact)

	require.Contains(t, InvalidationTopics(RecordTypeWorkflow), TopicWorkflows)
	require.Contains(t, InvalidationTopics(RecordTypeCertificate), TopicCertificates)
	require.Contains(t, InvalidationTopics(RecordTypeRefund), TopicRefunds)
	require.NotContains(t, InvalidationTopics(RecordTypeRefund), TopicCalendar)
}

func TestLeaveApprovalRecordProjection(t *testing.T) {
	leave := LeaveRequest{
		ID:          "leave-1",
		FacultyID:   "fac-1",
		FacultyName: "Dr. Ratna Dewi",
		TypeCode:    LeaveTypeSick,
		FromDate:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		ToDate:      time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		Status:      StatusPending,
	}
	record := leave.ApprovalRecord()
	require.Equal(t, RecordTypeLeave, record.Type)
	require.Equal(t, "fac-1", record.SubjectID)
	require.Equal(t, "SL 2026-03-02 to 2026-03-04", record.Title)
	require.Equal(t, 3, leave.Days())

	inverted := LeaveRequest{FromDate: leave.ToDate, ToDate: leave.FromDate}
	require.Equal(t, 0, inverted.Days())
}
