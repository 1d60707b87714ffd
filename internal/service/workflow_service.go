package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stikes-adp-api/internal/dto"
	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
)

type workflowRepository interface {
	List(ctx context.Context, filter models.WorkflowFilter) ([]models.WorkflowItem, int, error)
	GetByID(ctx context.Context, id string) (*models.WorkflowItem, error)
	Create(ctx context.Context, item *models.WorkflowItem) error
}

// WorkflowService handles generic multi-step approval items.
type WorkflowService struct {
	repo      workflowRepository
	validator *validator.Validate
	logger    *zap.Logger
	maxSteps  int
}

// NewWorkflowService constructs the service. maxSteps caps StepsTotal at
// creation; zero falls back to 10.
func NewWorkflowService(repo workflowRepository, validate *validator.Validate, logger *zap.Logger, maxSteps int) *WorkflowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSteps <= 0 {
		maxSteps = 10
	}
	svc := &WorkflowService{repo: repo, validator: validate, logger: logger, maxSteps: maxSteps}
	svc.validator.RegisterValidation("workflowcategory", func(fl validator.FieldLevel) bool {
		switch models.WorkflowCategory(strings.ToUpper(fl.Field().String())) {
		case models.WorkflowPurchaseOrder, models.WorkflowTravel, models.WorkflowEquipment,
			models.WorkflowBudget, models.WorkflowOther:
			return true
		default:
			return false
		}
	})
	return svc
}

// List returns workflow items with pagination.
func (s *WorkflowService) List(ctx context.Context, filter models.WorkflowFilter) ([]models.WorkflowItem, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list workflows")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a workflow item by id.
func (s *WorkflowService) Get(ctx context.Context, id string) (*models.WorkflowItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workflow not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workflow")
	}
	return item, nil
}

// Create opens a new workflow item in PENDING. StepsTotal is fixed here;
// omitting it yields a single-step workflow.
func (s *WorkflowService) Create(ctx context.Context, req dto.CreateWorkflowRequest, requesterID, requesterName string) (*models.WorkflowItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workflow payload")
	}
	category := models.WorkflowCategory(strings.ToUpper(string(req.Category)))
	if err := s.validator.Var(string(category), "workflowcategory"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown workflow category")
	}
	if requesterID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requester is required")
	}
	if req.StepsTotal > s.maxSteps {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("stepsTotal must not exceed %d", s.maxSteps))
	}

	item := &models.WorkflowItem{
		Category:      category,
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		RequesterID:   requesterID,
		RequesterName: requesterName,
		StepsTotal:    req.StepsTotal,
		Status:        models.StatusPending,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create workflow")
	}
	return item, nil
}
