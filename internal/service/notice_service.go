package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
)

type noticeRepository interface {
	List(ctx context.Context, filter models.NoticeFilter) ([]models.Notice, int, error)
	GetByID(ctx context.Context, id string) (*models.Notice, error)
	Create(ctx context.Context, notice *models.Notice) error
	Delete(ctx context.Context, id string) error
}

// NoticeService handles the notice board.
type NoticeService struct {
	repo      noticeRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewNoticeService constructs the service.
func NewNoticeService(repo noticeRepository, validate *validator.Validate, logger *zap.Logger) *NoticeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NoticeService{repo: repo, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
	svc.validator.RegisterValidation("noticeaudience", func(fl validator.FieldLevel) bool {
		switch models.NoticeAudience(strings.ToUpper(fl.Field().String())) {
		case models.NoticeAudienceAll, models.NoticeAudienceFaculty, models.NoticeAudienceStudents, models.NoticeAudienceStaff:
			return true
		default:
			return false
		}
	})
	svc.validator.RegisterValidation("noticepriority", func(fl validator.FieldLevel) bool {
		switch models.NoticePriority(strings.ToUpper(fl.Field().String())) {
		case models.NoticePriorityLow, models.NoticePriorityNormal, models.NoticePriorityUrgent:
			return true
		default:
			return false
		}
	})
	return svc
}

// NoticeListRequest describes filters for listing notices.
type NoticeListRequest struct {
	Role     models.UserRole `json:"role"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// CreateNoticeRequest describes the create payload. PublishedAt defaults to
// now; audience defaults to ALL and priority to NORMAL.
type CreateNoticeRequest struct {
	Title       string     `json:"title" validate:"required"`
	Content     string     `json:"content" validate:"required"`
	Audience    string     `json:"audience" validate:"omitempty,noticeaudience"`
	Priority    string     `json:"priority" validate:"omitempty,noticepriority"`
	IsPinned    bool       `json:"is_pinned"`
	PublishedAt *time.Time `json:"published_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// List returns live notices visible to the requesting role.
func (s *NoticeService) List(ctx context.Context, req NoticeListRequest) ([]models.Notice, *models.Pagination, error) {
	filter := models.NoticeFilter{
		Audiences: audiencesForRole(req.Role),
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a notice by id. Notices outside the caller's audiences read as
// missing rather than forbidden, so their existence is not leaked.
func (s *NoticeService) Get(ctx context.Context, id string, role models.UserRole) (*models.Notice, error) {
	notice, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get notice")
	}
	if !audienceVisible(notice.Audience, role) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
	}
	return notice, nil
}

func audienceVisible(audience models.NoticeAudience, role models.UserRole) bool {
	if audience == models.NoticeAudienceAll {
		return true
	}
	for _, allowed := range audiencesForRole(role) {
		if allowed == audience {
			return true
		}
	}
	return false
}

// Create publishes a new notice.
func (s *NoticeService) Create(ctx context.Context, req CreateNoticeRequest, createdBy string) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}
	if createdBy == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "author is required")
	}
	publishedAt := s.now()
	if req.PublishedAt != nil {
		publishedAt = req.PublishedAt.UTC()
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(publishedAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expires_at must be after published_at")
	}
	audience := models.NoticeAudience(strings.ToUpper(req.Audience))
	if audience == "" {
		audience = models.NoticeAudienceAll
	}
	priority := models.NoticePriority(strings.ToUpper(req.Priority))
	if priority == "" {
		priority = models.NoticePriorityNormal
	}
	notice := &models.Notice{
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		Audience:    audience,
		Priority:    priority,
		IsPinned:    req.IsPinned,
		PublishedAt: publishedAt,
		ExpiresAt:   req.ExpiresAt,
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(ctx, notice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
	}
	return notice, nil
}

// Delete removes a notice.
func (s *NoticeService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get notice")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notice")
	}
	return nil
}

// audiencesForRole maps an RBAC role onto the notice audiences it may read.
// The repository always adds ALL.
func audiencesForRole(role models.UserRole) []models.NoticeAudience {
	switch role {
	case models.RoleAdmin, models.RolePrincipal:
		return []models.NoticeAudience{models.NoticeAudienceFaculty, models.NoticeAudienceStudents, models.NoticeAudienceStaff}
	case models.RoleHOD, models.RoleFaculty:
		return []models.NoticeAudience{models.NoticeAudienceFaculty}
	case models.RoleStudent:
		return []models.NoticeAudience{models.NoticeAudienceStudents}
	default:
		return nil
	}
}
