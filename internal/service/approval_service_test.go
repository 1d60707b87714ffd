package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
)

type approvalStoreStub struct {
	records     map[string]*models.ApprovalRecord
	transitions []models.TransitionParams
	failNext    error
	getCalls    int
	pending     []models.ApprovalRecord
	pendingN    int
}

func newApprovalStoreStub() *approvalStoreStub {
	return &approvalStoreStub{records: make(map[string]*models.ApprovalRecord)}
}

func (s *approvalStoreStub) GetApproval(ctx context.Context, id string) (*models.ApprovalRecord, error) {
	s.getCalls++
	record, ok := s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *record
	return &copied, nil
}

func (s *approvalStoreStub) Transition(ctx context.Context, params models.TransitionParams) error {
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	s.transitions = append(s.transitions, params)
	record, ok := s.records[params.ID]
	if !ok || record.Status != params.FromStatus {
		return sql.ErrNoRows
	}
	record.Status = params.ToStatus
	if params.StepsApproved != nil {
		record.StepsApproved = *params.StepsApproved
	}
	return nil
}

func (s *approvalStoreStub) ListPendingApprovals(ctx context.Context, statuses []models.ApprovalStatus, limit int) ([]models.ApprovalRecord, int, error) {
	if limit > len(s.pending) {
		limit = len(s.pending)
	}
	return s.pending[:limit], s.pendingN, nil
}

type invalidatorStub struct {
	sets [][]models.InvalidationTopic
}

func (i *invalidatorStub) Invalidate(ctx context.Context, topics []models.InvalidationTopic) {
	i.sets = append(i.sets, topics)
}

type issuerStub struct {
	issued []string
}

func (i *issuerStub) EnqueueIssue(recordID string) {
	i.issued = append(i.issued, recordID)
}

type auditTrailStub struct {
	logs []*models.AuditLog
}

func (a *auditTrailStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newApprovalFixture() (*ApprovalService, map[models.RecordType]*approvalStoreStub, *invalidatorStub, *auditTrailStub, *issuerStub) {
	stores := map[models.RecordType]*approvalStoreStub{
		models.RecordTypeLeave:       newApprovalStoreStub(),
		models.RecordTypeWorkflow:    newApprovalStoreStub(),
		models.RecordTypeCertificate: newApprovalStoreStub(),
		models.RecordTypeRefund:      newApprovalStoreStub(),
	}
	cache := &invalidatorStub{}
	audit := &auditTrailStub{}
	issuer := &issuerStub{}
	svc := NewApprovalService(ApprovalServiceParams{
		Leaves:       stores[models.RecordTypeLeave],
		Workflows:    stores[models.RecordTypeWorkflow],
		Certificates: stores[models.RecordTypeCertificate],
		Refunds:      stores[models.RecordTypeRefund],
		Cache:        cache,
		Audit:        audit,
		Issuer:       issuer,
	})
	return svc, stores, cache, audit, issuer
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *appErrors.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, code, apiErr.Code)
}

func TestApprovalServiceApproveLeave(t *testing.T) {
	svc, stores, cache, audit, _ := newApprovalFixture()
	stores[models.RecordTypeLeave].records["leave-1"] = &models.ApprovalRecord{
		ID: "leave-1", Type: models.RecordTypeLeave, Status: models.StatusPending,
	}

	result, err := svc.Approve(context.Background(), models.RecordTypeLeave, "leave-1", "ok by me", "reviewer-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, result.Record.Status)
	require.Equal(t, "reviewer-1", *result.Record.DecidedBy)
	require.NotNil(t, result.Record.DecidedAt)
	require.Equal(t, "ok by me", *result.Record.DecisionNote)
	// APPROVED ends the leave chain, so no follow-up actions remain.
	require.Empty(t, result.AllowedNext)

	require.Len(t, cache.sets, 1)
	require.Equal(t, models.InvalidationTopics(models.RecordTypeLeave), cache.sets[0])
	require.Equal(t, result.Invalidated, cache.sets[0])

	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionApprove, audit.logs[0].Action)
	require.Equal(t, "leave", audit.logs[0].Resource)
}

func TestApprovalServiceApproveBlankCommentOmitsNote(t *testing.T) {
	svc, stores, _, _, _ := newApprovalFixture()
	stores[models.RecordTypeRefund].records["ref-1"] = &models.ApprovalRecord{
		ID: "ref-1", Type: models.RecordTypeRefund, Status: models.StatusPending,
	}

	result, err := svc.Approve(context.Background(), models.RecordTypeRefund, "ref-1", "   ", "reviewer-1")
	require.NoError(t, err)
	require.Nil(t, result.Record.DecisionNote)
	require.Equal(t, models.StatusApproved, result.Record.Status)
}

func TestApprovalServiceApproveWalksRefundChain(t *testing.T) {
	svc, stores, _, _, _ := newApprovalFixture()
	stores[models.RecordTypeRefund].records["ref-1"] = &models.ApprovalRecord{
		ID: "ref-1", Type: models.RecordTypeRefund, Status: models.StatusPending,
	}

	for _, want := range []models.ApprovalStatus{models.StatusApproved, models.StatusProcessing, models.StatusCompleted} {
		result, err := svc.Approve(context.Background(), models.RecordTypeRefund, "ref-1", "", "reviewer-1")
		require.NoError(t, err)
		require.Equal(t, want, result.Record.Status)
	}

	// COMPLETED is terminal; a fourth approve must conflict.
	_, err := svc.Approve(context.Background(), models.RecordTypeRefund, "ref-1", "", "reviewer-1")
	requireCode(t, err, appErrors.ErrInvalidTransition.Code)
}

func TestApprovalServiceApproveMultiStepWorkflow(t *testing.T) {
	svc, stores, _, _, _ := newApprovalFixture()
	store := stores[models.RecordTypeWorkflow]
	store.records["wf-1"] = &models.ApprovalRecord{
		ID: "wf-1", Type: models.RecordTypeWorkflow, Status: models.StatusPending, StepsTotal: 3,
	}

	first, err := svc.Approve(context.Background(), models.RecordTypeWorkflow, "wf-1", "", "reviewer-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusPartiallyApproved, first.Record.Status)
	require.Equal(t, 1, first.Record.StepsApproved)

	second, err := svc.Approve(context.Background(), models.RecordTypeWorkflow, "wf-1", "", "reviewer-2")
	require.NoError(t, err)
	require.Equal(t, models.StatusPartiallyApproved, second.Record.Status)
	require.Equal(t, 2, second.Record.StepsApproved)

	third, err := svc.Approve(context.Background(), models.RecordTypeWorkflow, "wf-1", "", "reviewer-3")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, third.Record.Status)
	require.Equal(t, 3, third.Record.StepsApproved)

	final, err := svc.Approve(context.Background(), models.RecordTypeWorkflow, "wf-1", "", "reviewer-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, final.Record.Status)

	// Intermediate hops keep the same status, so the step counter guards them.
	require.Len(t, store.transitions, 4)
	require.NotNil(t, store.transitions[0].GuardSteps)
	require.Equal(t, 0, *store.transitions[0].GuardSteps)
	require.NotNil(t, store.transitions[1].GuardSteps)
	require.Equal(t, 1, *store.transitions[1].GuardSteps)
	require.Nil(t, store.transitions[3].GuardSteps)
}

func TestApprovalServiceConcurrentDecisionConflicts(t *testing.T) {
	svc, stores, cache, _, _ := newApprovalFixture()
	store := stores[models.RecordTypeLeave]
	store.records["leave-1"] = &models.ApprovalRecord{
		ID: "leave-1", Type: models.RecordTypeLeave, Status: models.StatusPending,
	}
	// Another reviewer decided between our read and our write.
	store.failNext = sql.ErrNoRows

	_, err := svc.Approve(context.Background(), models.RecordTypeLeave, "leave-1", "", "reviewer-1")
	requireCode(t, err, appErrors.ErrInvalidTransition.Code)
	require.Empty(t, cache.sets, "a conflicted decision must not invalidate anything")
}

func TestApprovalServiceTransitionFailurePropagates(t *testing.T) {
	svc, stores, _, _, _ := newApprovalFixture()
	store := stores[models.RecordTypeLeave]
	store.records["leave-1"] = &models.ApprovalRecord{
		ID: "leave-1", Type: models.RecordTypeLeave, Status: models.StatusPending,
	}
	store.failNext = errors.New("connection reset")

	_, err := svc.Approve(context.Background(), models.RecordTypeLeave, "leave-1", "", "reviewer-1")
	requireCode(t, err, appErrors.ErrInternal.Code)
}

func TestApprovalServiceRejectRequiresReason(t *testing.T) {
	svc, stores, cache, audit, _ := newApprovalFixture()
	store := stores[models.RecordTypeLeave]
	store.records["leave-1"] = &models.ApprovalRecord{
		ID: "leave-1", Type: models.RecordTypeLeave, Status: models.StatusPending,
	}

	_, err := svc.Reject(context.Background(), models.RecordTypeLeave, "leave-1", "   ", "reviewer-1")
	requireCode(t, err, appErrors.ErrValidation.Code)
	// The reason check runs before any store access.
	require.Zero(t, store.getCalls)
	require.Empty(t, store.transitions)
	require.Empty(t, cache.sets)
	require.Empty(t, audit.logs)
}

func TestApprovalServiceReject(t *testing.T) {
	svc, stores, _, audit, _ := newApprovalFixture()
	stores[models.RecordTypeWorkflow].records["wf-1"] = &models.ApprovalRecord{
		ID: "wf-1", Type: models.RecordTypeWorkflow, Status: models.StatusPartiallyApproved, StepsTotal: 3, StepsApproved: 1,
	}

	result, err := svc.Reject(context.Background(), models.RecordTypeWorkflow, "wf-1", "budget exceeded", "reviewer-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, result.Record.Status)
	require.Equal(t, "budget exceeded", *result.Record.RejectionReason)
	require.Empty(t, result.AllowedNext)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionReject, audit.logs[0].Action)

	// Rejection is terminal for every type.
	_, err = svc.Reject(context.Background(), models.RecordTypeWorkflow, "wf-1", "again", "reviewer-1")
	requireCode(t, err, appErrors.ErrInvalidTransition.Code)
}

func TestApprovalServiceCancel(t *testing.T) {
	svc, stores, cache, _, _ := newApprovalFixture()
	stores[models.RecordTypeCertificate].records["cert-1"] = &models.ApprovalRecord{
		ID: "cert-1", Type: models.RecordTypeCertificate, Status: models.StatusApproved,
	}

	result, err := svc.Cancel(context.Background(), models.RecordTypeCertificate, "cert-1", "student-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, result.Record.Status)
	require.Len(t, cache.sets, 1)

	_, err = svc.Cancel(context.Background(), models.RecordTypeCertificate, "cert-1", "student-1")
	requireCode(t, err, appErrors.ErrInvalidTransition.Code)
}

func TestApprovalServiceIssuesCertificateArtifact(t *testing.T) {
	svc, stores, _, _, issuer := newApprovalFixture()
	stores[models.RecordTypeCertificate].records["cert-1"] = &models.ApprovalRecord{
		ID: "cert-1", Type: models.RecordTypeCertificate, Status: models.StatusPending,
	}

	_, err := svc.Approve(context.Background(), models.RecordTypeCertificate, "cert-1", "", "reviewer-1")
	require.NoError(t, err)
	require.Empty(t, issuer.issued, "APPROVED must not trigger rendering")

	result, err := svc.Approve(context.Background(), models.RecordTypeCertificate, "cert-1", "", "reviewer-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusIssued, result.Record.Status)
	require.Equal(t, []string{"cert-1"}, issuer.issued)
}

func TestApprovalServiceGet(t *testing.T) {
	svc, stores, _, _, _ := newApprovalFixture()
	stores[models.RecordTypeRefund].records["ref-1"] = &models.ApprovalRecord{
		ID: "ref-1", Type: models.RecordTypeRefund, Status: models.StatusProcessing,
	}

	result, err := svc.Get(context.Background(), models.RecordTypeRefund, "ref-1")
	require.NoError(t, err)
	require.Equal(t, []models.ApprovalStatus{models.StatusCompleted, models.StatusRejected, models.StatusCancelled}, result.AllowedNext)
	require.Empty(t, result.Invalidated, "reads have no cascade")

	_, err = svc.Get(context.Background(), models.RecordTypeRefund, "missing")
	requireCode(t, err, appErrors.ErrNotFound.Code)
}

func TestApprovalServiceUnsupportedType(t *testing.T) {
	svc, _, _, _, _ := newApprovalFixture()
	_, err := svc.Approve(context.Background(), models.RecordType("GRADE"), "id-1", "", "reviewer-1")
	requireCode(t, err, appErrors.ErrValidation.Code)
}

func TestApprovalServicePendingMergesOldestFirst(t *testing.T) {
	svc, stores, _, _, _ := newApprovalFixture()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	stores[models.RecordTypeLeave].pending = []models.ApprovalRecord{
		{ID: "leave-1", Type: models.RecordTypeLeave, Status: models.StatusPending, CreatedAt: base.Add(2 * time.Hour)},
	}
	stores[models.RecordTypeLeave].pendingN = 1
	stores[models.RecordTypeWorkflow].pending = []models.ApprovalRecord{
		{ID: "wf-1", Type: models.RecordTypeWorkflow, Status: models.StatusPending, StepsTotal: 2, CreatedAt: base},
	}
	stores[models.RecordTypeWorkflow].pendingN = 1
	stores[models.RecordTypeCertificate].pending = []models.ApprovalRecord{
		{ID: "cert-1", Type: models.RecordTypeCertificate, Status: models.StatusApproved, CreatedAt: base.Add(time.Hour)},
	}
	stores[models.RecordTypeCertificate].pendingN = 1

	items, pagination, err := svc.Pending(context.Background(), nil, 1, 20)
	require.NoError(t, err)
	require.Equal(t, 3, pagination.TotalCount)
	require.Len(t, items, 3)
	require.Equal(t, "wf-1", items[0].ID)
	require.Equal(t, "cert-1", items[1].ID)
	require.Equal(t, "leave-1", items[2].ID)

	// The certificate sits in APPROVED, so its forward hop is ISSUED.
	require.Equal(t, []models.ApprovalStatus{models.StatusIssued, models.StatusRejected, models.StatusCancelled}, items[1].AllowedNext)
	require.Equal(t, base.Format(time.RFC3339), items[0].CreatedAt)
}

func TestApprovalServicePendingPaginates(t *testing.T) {
	svc, stores, _, _, _ := newApprovalFixture()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	store := stores[models.RecordTypeLeave]
	for i := 0; i < 5; i++ {
		store.pending = append(store.pending, models.ApprovalRecord{
			ID:        string(rune('a' + i)),
			Type:      models.RecordTypeLeave,
			Status:    models.StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	store.pendingN = 5

	leaveType := models.RecordTypeLeave
	items, pagination, err := svc.Pending(context.Background(), &leaveType, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 5, pagination.TotalCount)
	require.Equal(t, 2, pagination.Page)
	require.Len(t, items, 2)
	require.Equal(t, "c", items[0].ID)
	require.Equal(t, "d", items[1].ID)
}

func TestApprovalServicePendingUnknownTypeFilter(t *testing.T) {
	svc, _, _, _, _ := newApprovalFixture()
	unknown := models.RecordType("GRADE")
	_, _, err := svc.Pending(context.Background(), &unknown, 1, 20)
	requireCode(t, err, appErrors.ErrValidation.Code)
}
