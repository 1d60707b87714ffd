package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/stikes-adp-api/internal/models"
)

// RefundRepository persists fee refund claims.
type RefundRepository struct {
	db *sqlx.DB
}

// NewRefundRepository constructs the repository.
func NewRefundRepository(db *sqlx.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

const refundColumns = `id, student_id, student_name, amount, deductions, net_amount, reason, status,
       rejection_reason, decision_note, decided_by, decided_at, processed_at, created_at, updated_at`

// Create inserts a new refund claim.
func (r *RefundRepository) Create(ctx context.Context, refund *models.FeeRefund) error {
	if refund.ID == "" {
		refund.ID = uuid.NewString()
	}
	if refund.Status == "" {
		refund.Status = models.StatusPending
	}
	refund.NetAmount = refund.Amount.Sub(refund.Deductions)
	now := time.Now().UTC()
	if refund.CreatedAt.IsZero() {
		refund.CreatedAt = now
	}
	refund.UpdatedAt = now
	const query = `INSERT INTO refunds (id, student_id, student_name, amount, deductions, net_amount, reason, status, created_at, updated_at)
        VALUES (:id, :student_id, :student_name, :amount, :deductions, :net_amount, :reason, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, refund); err != nil {
		return fmt.Errorf("create refund: %w", err)
	}
	return nil
}

// GetByID fetches a refund claim by identifier.
func (r *RefundRepository) GetByID(ctx context.Context, id string) (*models.FeeRefund, error) {
	query := fmt.Sprintf("SELECT %s FROM refunds WHERE id = $1", refundColumns)
	var refund models.FeeRefund
	if err := r.db.GetContext(ctx, &refund, query, id); err != nil {
		return nil, err
	}
	return &refund, nil
}

// List returns refund claims matching the filter, newest first, plus the
// unpaginated total.
func (r *RefundRepository) List(ctx context.Context, filter models.RefundFilter) ([]models.FeeRefund, int, error) {
	base := "FROM refunds"
	args := make([]interface{}, 0, 3)
	conditions := []string{"1=1"}

	if len(filter.Status) > 0 {
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", statusPlaceholders(&args, filter.Status)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", refundColumns, base, size, (page-1)*size)
	var refunds []models.FeeRefund
	if err := r.db.SelectContext(ctx, &refunds, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list refunds: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count refunds: %w", err)
	}
	return refunds, total, nil
}

// CountByStatus counts refund claims holding any of the given statuses.
func (r *RefundRepository) CountByStatus(ctx context.Context, statuses []models.ApprovalStatus) (int, error) {
	args := make([]interface{}, 0, len(statuses))
	query := fmt.Sprintf("SELECT COUNT(*) FROM refunds WHERE status IN (%s)", statusPlaceholders(&args, statuses))
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count refunds by status: %w", err)
	}
	return total, nil
}

// ListPendingApprovals returns the oldest refund claims still awaiting a
// decision, projected onto the uniform approval shape, plus the actionable
// total.
func (r *RefundRepository) ListPendingApprovals(ctx context.Context, statuses []models.ApprovalStatus, limit int) ([]models.ApprovalRecord, int, error) {
	if limit <= 0 {
		limit = 20
	}
	args := make([]interface{}, 0, len(statuses))
	query := fmt.Sprintf("SELECT %s FROM refunds WHERE status IN (%s) ORDER BY created_at ASC LIMIT %d",
		refundColumns, statusPlaceholders(&args, statuses), limit)
	var refunds []models.FeeRefund
	if err := r.db.SelectContext(ctx, &refunds, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list pending refunds: %w", err)
	}
	total, err := r.CountByStatus(ctx, statuses)
	if err != nil {
		return nil, 0, err
	}
	records := make([]models.ApprovalRecord, len(refunds))
	for i, refund := range refunds {
		records[i] = refund.ApprovalRecord()
	}
	return records, total, nil
}

// GetApproval fetches the uniform approval projection for a refund claim.
func (r *RefundRepository) GetApproval(ctx context.Context, id string) (*models.ApprovalRecord, error) {
	refund, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	record := refund.ApprovalRecord()
	return &record, nil
}

// Transition applies a guarded status update; moving into PROCESSING stamps
// processed_at in the same statement.
func (r *RefundRepository) Transition(ctx context.Context, params models.TransitionParams) error {
	var extraSet []string
	var extraArgs map[string]interface{}
	if params.ToStatus == models.StatusProcessing {
		extraSet = []string{"processed_at = :decided_at"}
	}
	return execTransition(ctx, r.db, "refunds", params, extraSet, extraArgs)
}
