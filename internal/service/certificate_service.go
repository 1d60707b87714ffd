package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/stikes-adp-api/internal/dto"
	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
	"github.com/noah-isme/stikes-adp-api/pkg/export"
	"github.com/noah-isme/stikes-adp-api/pkg/jobs"
)

// JobTypeCertificateIssue tags artifact-rendering jobs on the queue.
const JobTypeCertificateIssue = "certificate.issue"

type certificateRepository interface {
	List(ctx context.Context, filter models.CertificateFilter) ([]models.CertificateRequest, int, error)
	GetByID(ctx context.Context, id string) (*models.CertificateRequest, error)
	Create(ctx context.Context, cert *models.CertificateRequest) error
	SetArtifact(ctx context.Context, id, path string) error
	ListIssuedWithoutArtifact(ctx context.Context, limit int) ([]models.CertificateRequest, error)
}

type certificateDispatcher interface {
	Enqueue(job jobs.Job) error
}

type artifactStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type certificateRenderer interface {
	Render(data export.CertificateData) ([]byte, error)
}

type downloadSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (id, relPath string, expiresAt time.Time, err error)
}

// CertificateDownload aggregates resolved artifact download data.
type CertificateDownload struct {
	File      *os.File
	Filename  string
	SizeBytes int64
	ExpiresAt time.Time
}

// CertificateService handles certificate requests and renders the artifact
// once a request reaches ISSUED. Rendering runs on the job queue so the
// issuing decision never waits on PDF generation.
type CertificateService struct {
	repo      certificateRepository
	users     userGetter
	queue     certificateDispatcher
	renderer  certificateRenderer
	store     artifactStore
	signer    downloadSigner
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// CertificateServiceParams groups constructor dependencies.
type CertificateServiceParams struct {
	Repo      certificateRepository
	Users     userGetter
	Queue     certificateDispatcher
	Renderer  certificateRenderer
	Store     artifactStore
	Signer    downloadSigner
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewCertificateService constructs the service.
func NewCertificateService(params CertificateServiceParams) *CertificateService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &CertificateService{
		repo:      params.Repo,
		users:     params.Users,
		queue:     params.Queue,
		renderer:  params.Renderer,
		store:     params.Store,
		signer:    params.Signer,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	svc.validator.RegisterValidation("certtype", func(fl validator.FieldLevel) bool {
		switch models.CertificateType(strings.ToUpper(fl.Field().String())) {
		case models.CertificateBonafide, models.CertificateTranscript, models.CertificateMigration,
			models.CertificateCharacter, models.CertificateCourseCompletion:
			return true
		default:
			return false
		}
	})
	return svc
}

// List returns certificate requests with pagination.
func (s *CertificateService) List(ctx context.Context, filter models.CertificateFilter) ([]models.CertificateRequest, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a certificate request by id.
func (s *CertificateService) Get(ctx context.Context, id string) (*models.CertificateRequest, error) {
	cert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	return cert, nil
}

// Create files a certificate request in PENDING.
func (s *CertificateService) Create(ctx context.Context, req dto.CreateCertificateRequest) (*models.CertificateRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate payload")
	}
	certType := models.CertificateType(strings.ToUpper(string(req.Type)))
	if err := s.validator.Var(string(certType), "certtype"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown certificate type")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "certificates can only be requested for students")
	}

	cert := &models.CertificateRequest{
		StudentID:   req.StudentID,
		StudentName: student.FullName,
		Type:        certType,
		Purpose:     strings.TrimSpace(req.Purpose),
		Status:      models.StatusPending,
	}
	if err := s.repo.Create(ctx, cert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create certificate")
	}
	return cert, nil
}

// EnqueueIssue schedules artifact rendering for a certificate that just moved
// to ISSUED. The decision has already committed, so enqueue failures are
// logged and left to the recovery scan.
func (s *CertificateService) EnqueueIssue(recordID string) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: recordID, Type: JobTypeCertificateIssue}); err != nil {
		s.logger.Warn("failed to enqueue certificate issuance",
			zap.String("certificate_id", recordID), zap.Error(err))
	}
}

// RecoverPending re-enqueues issued certificates whose artifact is still
// missing, e.g. after a process restart.
func (s *CertificateService) RecoverPending(ctx context.Context) {
	pending, err := s.repo.ListIssuedWithoutArtifact(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to scan unrendered certificates", zap.Error(err))
		return
	}
	for _, cert := range pending {
		s.EnqueueIssue(cert.ID)
	}
}

// HandleIssue renders and stores the artifact for one queue job. Rendering is
// idempotent: a certificate that already has an artifact, or that is no
// longer ISSUED, is skipped.
func (s *CertificateService) HandleIssue(ctx context.Context, job jobs.Job) error {
	cert, err := s.repo.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load certificate %s: %w", job.ID, err)
	}
	if cert.Status != models.StatusIssued {
		s.logger.Warn("skipping artifact render for non-issued certificate",
			zap.String("certificate_id", cert.ID), zap.String("status", string(cert.Status)))
		return nil
	}
	if cert.ArtifactPath != nil && *cert.ArtifactPath != "" {
		return nil
	}

	data, err := s.renderer.Render(buildCertificateData(cert, s.now()))
	if err != nil {
		return fmt.Errorf("render certificate %s: %w", cert.ID, err)
	}
	relPath := filepath.Join("certificates", fmt.Sprintf("%s.pdf", cert.ID))
	stored, err := s.store.Save(relPath, data)
	if err != nil {
		return fmt.Errorf("store certificate %s: %w", cert.ID, err)
	}
	if err := s.repo.SetArtifact(ctx, cert.ID, stored); err != nil {
		return fmt.Errorf("record certificate artifact %s: %w", cert.ID, err)
	}
	s.logger.Info("certificate artifact rendered",
		zap.String("certificate_id", cert.ID), zap.String("path", stored))
	return nil
}

// SignedDownload mints a time-limited download token for an issued
// certificate's artifact.
func (s *CertificateService) SignedDownload(ctx context.Context, id string) (*dto.CertificateDownloadResponse, error) {
	cert, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert.Status != models.StatusIssued {
		return nil, appErrors.Clone(appErrors.ErrConflict, "certificate is not issued")
	}
	if cert.ArtifactPath == nil || *cert.ArtifactPath == "" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "certificate artifact not ready")
	}
	token, expiresAt, err := s.signer.Generate(cert.ID, *cert.ArtifactPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	return &dto.CertificateDownloadResponse{
		URL:       fmt.Sprintf("/api/v1/certificates/download?token=%s", token),
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// ResolveDownload validates a download token and opens the artifact.
func (s *CertificateService) ResolveDownload(ctx context.Context, token string) (*CertificateDownload, error) {
	id, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	cert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	if cert.ArtifactPath == nil || *cert.ArtifactPath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open certificate artifact")
	}
	var size int64
	if info, statErr := file.Stat(); statErr == nil {
		size = info.Size()
	}
	return &CertificateDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		SizeBytes: size,
		ExpiresAt: expiresAt,
	}, nil
}

// buildCertificateData composes the printable certificate content.
func buildCertificateData(cert *models.CertificateRequest, fallbackDate time.Time) export.CertificateData {
	issuedAt := fallbackDate
	if cert.IssuedAt != nil {
		issuedAt = *cert.IssuedAt
	}
	title := certificateTitle(cert.Type)
	body := []string{certificateBodyLine(cert)}
	if cert.Purpose != "" {
		body = append(body, fmt.Sprintf("This certificate is issued at the request of the student for the purpose of %s.", cert.Purpose))
	}
	return export.CertificateData{
		SerialNo:   fmt.Sprintf("CERT/%s/%s", issuedAt.Format("2006"), shortID(cert.ID)),
		Title:      title,
		Body:       body,
		IssuedAt:   issuedAt,
		SignedBy:   "Registrar",
		SignedRole: "Office of the Registrar",
	}
}

func certificateTitle(t models.CertificateType) string {
	switch t {
	case models.CertificateBonafide:
		return "Bonafide Certificate"
	case models.CertificateTranscript:
		return "Academic Transcript"
	case models.CertificateMigration:
		return "Migration Certificate"
	case models.CertificateCharacter:
		return "Character Certificate"
	case models.CertificateCourseCompletion:
		return "Course Completion Certificate"
	default:
		return string(t)
	}
}

func certificateBodyLine(cert *models.CertificateRequest) string {
	switch cert.Type {
	case models.CertificateBonafide:
		return fmt.Sprintf("This is to certify that %s (Reg. No. %s) is a bonafide student of this institution.", cert.StudentName, cert.StudentID)
	case models.CertificateCharacter:
		return fmt.Sprintf("This is to certify that %s (Reg. No. %s) has borne a good moral character during the period of study at this institution.", cert.StudentName, cert.StudentID)
	default:
		return fmt.Sprintf("This is to certify that the %s has been granted to %s (Reg. No. %s).", strings.ToLower(certificateTitle(cert.Type)), cert.StudentName, cert.StudentID)
	}
}

// shortID keeps serial numbers readable without losing uniqueness in print.
func shortID(id string) string {
	cleaned := strings.ReplaceAll(id, "-", "")
	if len(cleaned) <= 8 {
		return strings.ToUpper(cleaned)
	}
	return strings.ToUpper(cleaned[:8])
}
