package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stikes-adp-api/internal/dto"
	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
)

type leaveRepository interface {
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, int, error)
	GetByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	Create(ctx context.Context, leave *models.LeaveRequest) error
}

type facultyGetter interface {
	GetByID(ctx context.Context, id string) (*models.Faculty, error)
}

// LeaveService handles leave applications up to the point the approval
// workflow takes over.
type LeaveService struct {
	repo      leaveRepository
	faculty   facultyGetter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeaveService constructs the service.
func NewLeaveService(repo leaveRepository, faculty facultyGetter, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &LeaveService{repo: repo, faculty: faculty, validator: validate, logger: logger}
	svc.validator.RegisterValidation("leavetype", func(fl validator.FieldLevel) bool {
		switch models.LeaveTypeCode(strings.ToUpper(fl.Field().String())) {
		case models.LeaveTypeCasual, models.LeaveTypeSick, models.LeaveTypeEarned,
			models.LeaveTypeMaternity, models.LeaveTypeConference:
			return true
		default:
			return false
		}
	})
	return svc
}

// List returns leave applications with pagination.
func (s *LeaveService) List(ctx context.Context, query dto.LeaveQuery, page, pageSize int) ([]models.LeaveRequest, *models.Pagination, error) {
	filter := models.LeaveFilter{
		Status:       query.Status,
		FacultyID:    query.FacultyID,
		DepartmentID: query.DepartmentID,
		Page:         page,
		PageSize:     pageSize,
	}
	if query.DateFrom != "" {
		from, err := parseDateOnly(query.DateFrom)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "dateFrom must be formatted YYYY-MM-DD")
		}
		filter.DateFrom = &from
	}
	if query.DateTo != "" {
		to, err := parseDateOnly(query.DateTo)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "dateTo must be formatted YYYY-MM-DD")
		}
		filter.DateTo = &to
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leaves")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a leave application by id.
func (s *LeaveService) Get(ctx context.Context, id string) (*models.LeaveRequest, error) {
	leave, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave")
	}
	return leave, nil
}

// Create files a new leave application in PENDING. The date range is
// validated here so inverted ranges never reach the calendar fold.
func (s *LeaveService) Create(ctx context.Context, req dto.CreateLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	typeCode := models.LeaveTypeCode(strings.ToUpper(string(req.TypeCode)))
	if err := s.validator.Var(string(typeCode), "leavetype"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown leave type code")
	}
	from, err := parseDateOnly(req.FromDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fromDate must be formatted YYYY-MM-DD")
	}
	to, err := parseDateOnly(req.ToDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "toDate must be formatted YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fromDate must not be after toDate")
	}

	member, err := s.faculty.GetByID(ctx, req.FacultyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown faculty")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate faculty")
	}
	if !member.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "faculty is inactive")
	}

	leave := &models.LeaveRequest{
		FacultyID: req.FacultyID,
		TypeCode:  typeCode,
		FromDate:  from,
		ToDate:    to,
		Reason:    strings.TrimSpace(req.Reason),
		Status:    models.StatusPending,
	}
	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave")
	}
	leave.FacultyName = member.FullName
	leave.DepartmentID = member.DepartmentID
	return leave, nil
}

// parseDateOnly parses an inclusive YYYY-MM-DD calendar date at midnight UTC.
func parseDateOnly(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(raw))
}
