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

// WorkflowRepository persists generic approval workflow items.
type WorkflowRepository struct {
	db *sqlx.DB
}

// NewWorkflowRepository constructs the repository.
func NewWorkflowRepository(db *sqlx.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

const workflowColumns = `id, category, title, description, requester_id, requester_name,
       steps_total, steps_approved, status, rejection_reason, decision_note,
       decided_by, decided_at, created_at, updated_at`

// Create inserts a new workflow item.
func (r *WorkflowRepository) Create(ctx context.Context, item *models.WorkflowItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = models.StatusPending
	}
	if item.StepsTotal < 1 {
		item.StepsTotal = 1
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	const query = `INSERT INTO workflows (id, category, title, description, requester_id, requester_name, steps_total, steps_approved, status, created_at, updated_at)
        VALUES (:id, :category, :title, :description, :requester_id, :requester_name, :steps_total, :steps_approved, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create workflow: %w", err)
	}
	return nil
}

// GetByID fetches a workflow item by identifier.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.WorkflowItem, error) {
	query := fmt.Sprintf("SELECT %s FROM workflows WHERE id = $1", workflowColumns)
	var item models.WorkflowItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns workflow items matching the filter, newest first, plus the
// unpaginated total.
func (r *WorkflowRepository) List(ctx context.Context, filter models.WorkflowFilter) ([]models.WorkflowItem, int, error) {
	base := "FROM workflows"
	args := make([]interface{}, 0, 4)
	conditions := []string{"1=1"}

	if len(filter.Status) > 0 {
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", statusPlaceholders(&args, filter.Status)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", workflowColumns, base, size, (page-1)*size)
	var items []models.WorkflowItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list workflows: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count workflows: %w", err)
	}
	return items, total, nil
}

// CountByStatus counts workflow items holding any of the given statuses.
func (r *WorkflowRepository) CountByStatus(ctx context.Context, statuses []models.ApprovalStatus) (int, error) {
	args := make([]interface{}, 0, len(statuses))
	query := fmt.Sprintf("SELECT COUNT(*) FROM workflows WHERE status IN (%s)", statusPlaceholders(&args, statuses))
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count workflows by status: %w", err)
	}
	return total, nil
}

// ListPendingApprovals returns the oldest workflow items still awaiting a
// decision, projected onto the uniform approval shape, plus the actionable
// total.
func (r *WorkflowRepository) ListPendingApprovals(ctx context.Context, statuses []models.ApprovalStatus, limit int) ([]models.ApprovalRecord, int, error) {
	if limit <= 0 {
		limit = 20
	}
	args := make([]interface{}, 0, len(statuses))
	query := fmt.Sprintf("SELECT %s FROM workflows WHERE status IN (%s) ORDER BY created_at ASC LIMIT %d",
		workflowColumns, statusPlaceholders(&args, statuses), limit)
	var items []models.WorkflowItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list pending workflows: %w", err)
	}
	total, err := r.CountByStatus(ctx, statuses)
	if err != nil {
		return nil, 0, err
	}
	records := make([]models.ApprovalRecord, len(items))
	for i, item := range items {
		records[i] = item.ApprovalRecord()
	}
	return records, total, nil
}

// GetApproval fetches the uniform approval projection for a workflow item.
func (r *WorkflowRepository) GetApproval(ctx context.Context, id string) (*models.ApprovalRecord, error) {
	item, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	record := item.ApprovalRecord()
	return &record, nil
}

// Transition applies a guarded status update; the step counter moves in the
// same statement when the decision advances a step.
func (r *WorkflowRepository) Transition(ctx context.Context, params models.TransitionParams) error {
	var extraSet []string
	var extraArgs map[string]interface{}
	if params.StepsApproved != nil {
		extraSet = []string{"steps_approved = :steps_approved"}
		extraArgs = map[string]interface{}{"steps_approved": *params.StepsApproved}
	}
	return execTransition(ctx, r.db, "workflows", params, extraSet, extraArgs)
}
