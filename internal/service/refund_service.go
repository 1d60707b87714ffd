package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stikes-adp-api/internal/dto"
	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
)

type refundRepository interface {
	List(ctx context.Context, filter models.RefundFilter) ([]models.FeeRefund, int, error)
	GetByID(ctx context.Context, id string) (*models.FeeRefund, error)
	Create(ctx context.Context, refund *models.FeeRefund) error
}

type userGetter interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// RefundService handles fee refund claims. Money fields are decimals;
// NetAmount is derived once at creation and never recomputed.
type RefundService struct {
	repo      refundRepository
	users     userGetter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRefundService constructs the service.
func NewRefundService(repo refundRepository, users userGetter, validate *validator.Validate, logger *zap.Logger) *RefundService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefundService{repo: repo, users: users, validator: validate, logger: logger}
}

// List returns refund claims with pagination.
func (s *RefundService) List(ctx context.Context, filter models.RefundFilter) ([]models.FeeRefund, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list refunds")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a refund claim by id.
func (s *RefundService) Get(ctx context.Context, id string) (*models.FeeRefund, error) {
	refund, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "refund not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load refund")
	}
	return refund, nil
}

// Create files a refund claim in PENDING. Amount must be positive and
// deductions may not exceed it.
func (s *RefundService) Create(ctx context.Context, req dto.CreateRefundRequest) (*models.FeeRefund, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refund payload")
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}
	if req.Deductions.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deductions must not be negative")
	}
	if req.Deductions.GreaterThan(req.Amount) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deductions must not exceed amount")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "refunds can only be filed for students")
	}

	refund := &models.FeeRefund{
		StudentID:   req.StudentID,
		StudentName: student.FullName,
		Amount:      req.Amount,
		Deductions:  req.Deductions,
		Reason:      strings.TrimSpace(req.Reason),
		Status:      models.StatusPending,
	}
	if err := s.repo.Create(ctx, refund); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refund")
	}
	return refund, nil
}
