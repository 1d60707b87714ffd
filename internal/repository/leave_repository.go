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

// LeaveRepository persists faculty leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveColumns = `l.id, l.faculty_id, f.full_name AS faculty_name, f.department_id, l.type_code,
       l.from_date, l.to_date, l.reason, l.status, l.rejection_reason, l.decision_note,
       l.decided_by, l.decided_at, l.created_at, l.updated_at`

// Create inserts a new leave request.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveRequest) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	if leave.Status == "" {
		leave.Status = models.StatusPending
	}
	now := time.Now().UTC()
	if leave.CreatedAt.IsZero() {
		leave.CreatedAt = now
	}
	leave.UpdatedAt = now
	const query = `INSERT INTO leaves (id, faculty_id, type_code, from_date, to_date, reason, status, created_at, updated_at)
        VALUES (:id, :faculty_id, :type_code, :from_date, :to_date, :reason, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave: %w", err)
	}
	return nil
}

// GetByID fetches a leave request with its faculty name joined in.
func (r *LeaveRepository) GetByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM leaves l JOIN faculty f ON f.id = l.faculty_id WHERE l.id = $1`, leaveColumns)
	var leave models.LeaveRequest
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// List returns leave requests matching the filter, newest first, plus the
// unpaginated total.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, int, error) {
	base := "FROM leaves l JOIN faculty f ON f.id = l.faculty_id"
	args := make([]interface{}, 0, 6)
	conditions := []string{"1=1"}

	if len(filter.Status) > 0 {
		conditions = append(conditions, fmt.Sprintf("l.status IN (%s)", statusPlaceholders(&args, filter.Status)))
	}
	if filter.FacultyID != "" {
		args = append(args, filter.FacultyID)
		conditions = append(conditions, fmt.Sprintf("l.faculty_id = $%d", len(args)))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("f.department_id = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("l.to_date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("l.from_date <= $%d", len(args)))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY l.created_at DESC LIMIT %d OFFSET %d", leaveColumns, base, size, (page-1)*size)
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leaves: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leaves: %w", err)
	}
	return leaves, total, nil
}

// ListOverlapping returns leave requests whose inclusive date range
// intersects [from, to], optionally narrowed to the given statuses. Input
// order is stable (created_at ascending) so downstream folds are
// deterministic.
func (r *LeaveRepository) ListOverlapping(ctx context.Context, from, to time.Time, statuses []models.ApprovalStatus) ([]models.LeaveRequest, error) {
	args := []interface{}{from, to}
	query := fmt.Sprintf(`SELECT %s FROM leaves l JOIN faculty f ON f.id = l.faculty_id
        WHERE l.to_date >= $1 AND l.from_date <= $2`, leaveColumns)
	if len(statuses) > 0 {
		query += fmt.Sprintf(" AND l.status IN (%s)", statusPlaceholders(&args, statuses))
	}
	query += " ORDER BY l.created_at ASC"

	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, fmt.Errorf("list overlapping leaves: %w", err)
	}
	return leaves, nil
}

// CountByStatus counts leave requests holding any of the given statuses.
func (r *LeaveRepository) CountByStatus(ctx context.Context, statuses []models.ApprovalStatus) (int, error) {
	args := make([]interface{}, 0, len(statuses))
	query := fmt.Sprintf("SELECT COUNT(*) FROM leaves WHERE status IN (%s)", statusPlaceholders(&args, statuses))
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count leaves by status: %w", err)
	}
	return total, nil
}

// ListPendingApprovals returns the oldest leave requests still awaiting a
// decision, projected onto the uniform approval shape, plus the actionable
// total.
func (r *LeaveRepository) ListPendingApprovals(ctx context.Context, statuses []models.ApprovalStatus, limit int) ([]models.ApprovalRecord, int, error) {
	if limit <= 0 {
		limit = 20
	}
	args := make([]interface{}, 0, len(statuses))
	query := fmt.Sprintf(`SELECT %s FROM leaves l JOIN faculty f ON f.id = l.faculty_id
        WHERE l.status IN (%s) ORDER BY l.created_at ASC LIMIT %d`, leaveColumns, statusPlaceholders(&args, statuses), limit)
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list pending leaves: %w", err)
	}
	total, err := r.CountByStatus(ctx, statuses)
	if err != nil {
		return nil, 0, err
	}
	records := make([]models.ApprovalRecord, len(leaves))
	for i, leave := range leaves {
		records[i] = leave.ApprovalRecord()
	}
	return records, total, nil
}

// GetApproval fetches the uniform approval projection for a leave request.
func (r *LeaveRepository) GetApproval(ctx context.Context, id string) (*models.ApprovalRecord, error) {
	leave, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	record := leave.ApprovalRecord()
	return &record, nil
}

// Transition applies a guarded status update; sql.ErrNoRows reports that the
// row no longer holds the expected status.
func (r *LeaveRepository) Transition(ctx context.Context, params models.TransitionParams) error {
	return execTransition(ctx, r.db, "leaves", params, nil, nil)
}
