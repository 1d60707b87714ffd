package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/stikes-adp-api/internal/models"
)

// DepartmentRepository persists departments and derives staffing
// requirements.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns every department ordered by name.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT id, name, code, required_count, created_at, updated_at FROM departments ORDER BY name ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// GetByID fetches a department by identifier.
func (r *DepartmentRepository) GetByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, name, code, required_count, created_at, updated_at FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// Create inserts a new department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if department.CreatedAt.IsZero() {
		department.CreatedAt = now
	}
	department.UpdatedAt = now
	const query = `INSERT INTO departments (id, name, code, required_count, created_at, updated_at)
        VALUES (:id, :name, :code, :required_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// ListRequirements joins each department's mandated strength with its current
// active faculty headcount. ActualCount reflects this instant; rows are never
// cached here.
func (r *DepartmentRepository) ListRequirements(ctx context.Context) ([]models.DepartmentRequirement, error) {
	const query = `SELECT d.id AS department_id, d.name AS department_name, d.required_count,
       COUNT(f.id) AS actual_count
        FROM departments d
        LEFT JOIN faculty f ON f.department_id = d.id AND f.active = true
        GROUP BY d.id, d.name, d.required_count
        ORDER BY d.name ASC`
	var requirements []models.DepartmentRequirement
	if err := r.db.SelectContext(ctx, &requirements, query); err != nil {
		return nil, fmt.Errorf("list department requirements: %w", err)
	}
	return requirements, nil
}
