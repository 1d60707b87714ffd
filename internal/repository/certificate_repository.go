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

// CertificateRepository persists certificate requests.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

const certificateColumns = `id, student_id, student_name, type, purpose, status, rejection_reason,
       decision_note, decided_by, decided_at, issued_at, artifact_path, created_at, updated_at`

// Create inserts a new certificate request.
func (r *CertificateRepository) Create(ctx context.Context, cert *models.CertificateRequest) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.Status == "" {
		cert.Status = models.StatusPending
	}
	now := time.Now().UTC()
	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = now
	}
	cert.UpdatedAt = now
	const query = `INSERT INTO certificates (id, student_id, student_name, type, purpose, status, created_at, updated_at)
        VALUES (:id, :student_id, :student_name, :type, :purpose, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cert); err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// GetByID fetches a certificate request by identifier.
func (r *CertificateRepository) GetByID(ctx context.Context, id string) (*models.CertificateRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM certificates WHERE id = $1", certificateColumns)
	var cert models.CertificateRequest
	if err := r.db.GetContext(ctx, &cert, query, id); err != nil {
		return nil, err
	}
	return &cert, nil
}

// List returns certificate requests matching the filter, newest first, plus
// the unpaginated total.
func (r *CertificateRepository) List(ctx context.Context, filter models.CertificateFilter) ([]models.CertificateRequest, int, error) {
	base := "FROM certificates"
	args := make([]interface{}, 0, 4)
	conditions := []string{"1=1"}

	if len(filter.Status) > 0 {
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", statusPlaceholders(&args, filter.Status)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", certificateColumns, base, size, (page-1)*size)
	var certs []models.CertificateRequest
	if err := r.db.SelectContext(ctx, &certs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list certificates: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count certificates: %w", err)
	}
	return certs, total, nil
}

// CountByStatus counts certificate requests holding any of the given statuses.
func (r *CertificateRepository) CountByStatus(ctx context.Context, statuses []models.ApprovalStatus) (int, error) {
	args := make([]interface{}, 0, len(statuses))
	query := fmt.Sprintf("SELECT COUNT(*) FROM certificates WHERE status IN (%s)", statusPlaceholders(&args, statuses))
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count certificates by status: %w", err)
	}
	return total, nil
}

// ListPendingApprovals returns the oldest certificate requests still awaiting
// a decision, projected onto the uniform approval shape, plus the actionable
// total.
func (r *CertificateRepository) ListPendingApprovals(ctx context.Context, statuses []models.ApprovalStatus, limit int) ([]models.ApprovalRecord, int, error) {
	if limit <= 0 {
		limit = 20
	}
	args := make([]interface{}, 0, len(statuses))
	query := fmt.Sprintf("SELECT %s FROM certificates WHERE status IN (%s) ORDER BY created_at ASC LIMIT %d",
		certificateColumns, statusPlaceholders(&args, statuses), limit)
	var certs []models.CertificateRequest
	if err := r.db.SelectContext(ctx, &certs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list pending certificates: %w", err)
	}
	total, err := r.CountByStatus(ctx, statuses)
	if err != nil {
		return nil, 0, err
	}
	records := make([]models.ApprovalRecord, len(certs))
	for i, cert := range certs {
		records[i] = cert.ApprovalRecord()
	}
	return records, total, nil
}

// GetApproval fetches the uniform approval projection for a certificate
// request.
func (r *CertificateRepository) GetApproval(ctx context.Context, id string) (*models.ApprovalRecord, error) {
	cert, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	record := cert.ApprovalRecord()
	return &record, nil
}

// Transition applies a guarded status update; moving into ISSUED stamps
// issued_at in the same statement.
func (r *CertificateRepository) Transition(ctx context.Context, params models.TransitionParams) error {
	var extraSet []string
	var extraArgs map[string]interface{}
	if params.ToStatus == models.StatusIssued {
		extraSet = []string{"issued_at = :decided_at"}
	}
	return execTransition(ctx, r.db, "certificates", params, extraSet, extraArgs)
}

// SetArtifact records the rendered artifact location for an issued
// certificate.
func (r *CertificateRepository) SetArtifact(ctx context.Context, id, path string) error {
	const query = `UPDATE certificates SET artifact_path = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, path, time.Now().UTC()); err != nil {
		return fmt.Errorf("set certificate artifact: %w", err)
	}
	return nil
}

// ListIssuedWithoutArtifact returns issued certificates whose artifact has
// not been rendered yet, oldest first. Used to replay rendering after a
// process restart.
func (r *CertificateRepository) ListIssuedWithoutArtifact(ctx context.Context, limit int) ([]models.CertificateRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM certificates WHERE status = $1 AND artifact_path IS NULL ORDER BY issued_at ASC LIMIT %d", certificateColumns, limit)
	var certs []models.CertificateRequest
	if err := r.db.SelectContext(ctx, &certs, query, models.StatusIssued); err != nil {
		return nil, fmt.Errorf("list unrendered certificates: %w", err)
	}
	return certs, nil
}
