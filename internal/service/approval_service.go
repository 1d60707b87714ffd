package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/stikes-adp-api/internal/dto"
	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
)

// approvalStore is the per-type slice of the record store the state machine
// needs: the uniform projection, the guarded transition and the pending feed.
type approvalStore interface {
	GetApproval(ctx context.Context, id string) (*models.ApprovalRecord, error)
	Transition(ctx context.Context, params models.TransitionParams) error
	ListPendingApprovals(ctx context.Context, statuses []models.ApprovalStatus, limit int) ([]models.ApprovalRecord, int, error)
}

// cacheInvalidator consumes the declarative invalidation topic set a decision
// produces.
type cacheInvalidator interface {
	Invalidate(ctx context.Context, topics []models.InvalidationTopic)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CertificateIssuer renders the artifact for a certificate that just moved to
// ISSUED. Enqueueing must not block the decision path.
type CertificateIssuer interface {
	EnqueueIssue(recordID string)
}

// ApprovalService drives the shared approval lifecycle across every record
// type. It owns no state machine data of its own: the chain lives on the
// models, the current status lives in the store, and the store's guarded
// update is the concurrency arbiter.
type ApprovalService struct {
	stores map[models.RecordType]approvalStore
	cache  cacheInvalidator
	audit  auditLogger
	issuer CertificateIssuer
	logger *zap.Logger
	now    func() time.Time
}

// ApprovalServiceParams groups constructor dependencies.
type ApprovalServiceParams struct {
	Leaves       approvalStore
	Workflows    approvalStore
	Certificates approvalStore
	Refunds      approvalStore
	Cache        cacheInvalidator
	Audit        auditLogger
	Issuer       CertificateIssuer
	Logger       *zap.Logger
}

// NewApprovalService constructs the service.
func NewApprovalService(params ApprovalServiceParams) *ApprovalService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stores := make(map[models.RecordType]approvalStore, 4)
	if params.Leaves != nil {
		stores[models.RecordTypeLeave] = params.Leaves
	}
	if params.Workflows != nil {
		stores[models.RecordTypeWorkflow] = params.Workflows
	}
	if params.Certificates != nil {
		stores[models.RecordTypeCertificate] = params.Certificates
	}
	if params.Refunds != nil {
		stores[models.RecordTypeRefund] = params.Refunds
	}
	return &ApprovalService{
		stores: stores,
		cache:  params.Cache,
		audit:  params.Audit,
		issuer: params.Issuer,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Approve moves the record one hop forward along its type's chain. The
// guarded update means a record decided concurrently elsewhere surfaces as an
// INVALID_TRANSITION conflict, never a double transition.
func (s *ApprovalService) Approve(ctx context.Context, recordType models.RecordType, id, comment, actorID string) (*dto.DecisionResponse, error) {
	store, record, err := s.load(ctx, recordType, id)
	if err != nil {
		return nil, err
	}

	next, ok := record.NextForward()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "record already processed")
	}

	now := s.now()
	params := models.TransitionParams{
		ID:           id,
		FromStatus:   record.Status,
		ToStatus:     next,
		DecidedBy:    actorID,
		DecisionNote: optionalString(comment),
		DecidedAt:    now,
	}
	if recordType == models.RecordTypeWorkflow &&
		(record.Status == models.StatusPending || record.Status == models.StatusPartiallyApproved) {
		steps := record.StepsApproved + 1
		guard := record.StepsApproved
		params.StepsApproved = &steps
		params.GuardSteps = &guard
		record.StepsApproved = steps
	}

	if err := store.Transition(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "record already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transition")
	}

	previous := record.Status
	record.Status = next
	record.DecidedBy = &actorID
	record.DecidedAt = &now
	record.DecisionNote = params.DecisionNote

	if recordType == models.RecordTypeCertificate && next == models.StatusIssued && s.issuer != nil {
		s.issuer.EnqueueIssue(id)
	}

	return s.finish(ctx, record, previous, models.AuditActionApprove, actorID), nil
}

// Reject moves the record into REJECTED. The reason is mandatory and checked
// before any store call.
func (s *ApprovalService) Reject(ctx context.Context, recordType models.RecordType, id, reason, actorID string) (*dto.DecisionResponse, error) {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}

	store, record, err := s.load(ctx, recordType, id)
	if err != nil {
		return nil, err
	}
	if record.IsTerminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "record already processed")
	}

	now := s.now()
	params := models.TransitionParams{
		ID:              id,
		FromStatus:      record.Status,
		ToStatus:        models.StatusRejected,
		DecidedBy:       actorID,
		RejectionReason: &trimmed,
		DecidedAt:       now,
	}
	if err := store.Transition(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "record already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transition")
	}

	previous := record.Status
	record.Status = models.StatusRejected
	record.DecidedBy = &actorID
	record.DecidedAt = &now
	record.RejectionReason = &trimmed

	return s.finish(ctx, record, previous, models.AuditActionReject, actorID), nil
}

// Cancel withdraws a non-terminal record on behalf of its requester.
func (s *ApprovalService) Cancel(ctx context.Context, recordType models.RecordType, id, actorID string) (*dto.DecisionResponse, error) {
	store, record, err := s.load(ctx, recordType, id)
	if err != nil {
		return nil, err
	}
	if record.IsTerminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "record already processed")
	}

	now := s.now()
	params := models.TransitionParams{
		ID:         id,
		FromStatus: record.Status,
		ToStatus:   models.StatusCancelled,
		DecidedBy:  actorID,
		DecidedAt:  now,
	}
	if err := store.Transition(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "record already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transition")
	}

	previous := record.Status
	record.Status = models.StatusCancelled
	record.DecidedBy = &actorID
	record.DecidedAt = &now

	return s.finish(ctx, record, previous, models.AuditActionCancel, actorID), nil
}

// Get returns the uniform projection with its legal follow-up transitions.
func (s *ApprovalService) Get(ctx context.Context, recordType models.RecordType, id string) (*dto.DecisionResponse, error) {
	_, record, err := s.load(ctx, recordType, id)
	if err != nil {
		return nil, err
	}
	return &dto.DecisionResponse{Record: *record, AllowedNext: record.AllowedNext()}, nil
}

// reviewOrder fixes the cross-type merge order so pagination stays stable
// between requests.
var reviewOrder = []models.RecordType{
	models.RecordTypeLeave,
	models.RecordTypeWorkflow,
	models.RecordTypeCertificate,
	models.RecordTypeRefund,
}

// Pending assembles the cross-type review queue, oldest submissions first.
// Each type contributes its actionable states; pagination spans the merged
// queue, so every type is asked for the full window before slicing.
func (s *ApprovalService) Pending(ctx context.Context, recordType *models.RecordType, page, pageSize int) ([]dto.PendingApprovalItem, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	types := reviewOrder
	if recordType != nil {
		if _, ok := s.stores[*recordType]; !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unsupported record type")
		}
		types = []models.RecordType{*recordType}
	}

	window := page * pageSize
	merged := make([]models.ApprovalRecord, 0, window)
	total := 0
	for _, t := range types {
		store, ok := s.stores[t]
		if !ok {
			continue
		}
		records, count, err := store.ListPendingApprovals(ctx, models.ActionableStatuses(t), window)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending queue")
		}
		merged = append(merged, records...)
		total += count
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID < merged[j].ID
		}
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})

	offset := (page - 1) * pageSize
	if offset > len(merged) {
		offset = len(merged)
	}
	end := offset + pageSize
	if end > len(merged) {
		end = len(merged)
	}

	items := make([]dto.PendingApprovalItem, 0, end-offset)
	for _, record := range merged[offset:end] {
		items = append(items, dto.PendingApprovalItem{
			ID:          record.ID,
			Type:        record.Type,
			Status:      record.Status,
			SubjectName: record.SubjectName,
			Title:       record.Title,
			CreatedAt:   record.CreatedAt.Format(time.RFC3339),
			AllowedNext: record.AllowedNext(),
		})
	}
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return items, pagination, nil
}

func (s *ApprovalService) load(ctx context.Context, recordType models.RecordType, id string) (approvalStore, *models.ApprovalRecord, error) {
	store, ok := s.stores[recordType]
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unsupported record type")
	}
	record, err := store.GetApproval(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrNotFound
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
	}
	return store, record, nil
}

// finish emits the cascade and audit trail and assembles the response. The
// invalidation set is returned to the caller too, so clients know which
// summaries to refetch.
func (s *ApprovalService) finish(ctx context.Context, record *models.ApprovalRecord, previous models.ApprovalStatus, action, actorID string) *dto.DecisionResponse {
	topics := models.InvalidationTopics(record.Type)
	if s.cache != nil {
		s.cache.Invalidate(ctx, topics)
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   strings.ToLower(string(record.Type)),
		ResourceID: &record.ID,
		OldValues:  []byte(`{"status":"` + string(previous) + `"}`),
		NewValues:  []byte(`{"status":"` + string(record.Status) + `"}`),
	})
	return &dto.DecisionResponse{
		Record:      *record,
		AllowedNext: record.AllowedNext(),
		Invalidated: topics,
	}
}

func (s *ApprovalService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "approval-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func optionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}
