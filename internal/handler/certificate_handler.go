package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stikes-adp-api/internal/dto"
	"github.com/noah-isme/stikes-adp-api/internal/models"
	"github.com/noah-isme/stikes-adp-api/internal/service"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
	"github.com/noah-isme/stikes-adp-api/pkg/response"
)

type certificateService interface {
	List(ctx context.Context, filter models.CertificateFilter) ([]models.CertificateRequest, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.CertificateRequest, error)
	Create(ctx context.Context, req dto.CreateCertificateRequest) (*models.CertificateRequest, error)
	SignedDownload(ctx context.Context, id string) (*dto.CertificateDownloadResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.CertificateDownload, error)
}

// CertificateHandler exposes certificate request endpoints, including the
// signed artifact download.
type CertificateHandler struct {
	service certificateService
}

// NewCertificateHandler constructs the handler.
func NewCertificateHandler(service certificateService) *CertificateHandler {
	return &CertificateHandler{service: service}
}

// List godoc
// @Summary List certificate requests
// @Tags Certificates
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param type query string false "Certificate type"
// @Param studentId query string false "Filter by student"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /certificates [get]
func (h *CertificateHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "certificate service not configured"))
		return
	}
	filter := models.CertificateFilter{
		Status:    statusesFromQuery(c),
		StudentID: strings.TrimSpace(c.Query("studentId")),
	}
	if rawType := c.Query("type"); rawType != "" {
		filter.Type = models.CertificateType(strings.ToUpper(strings.TrimSpace(rawType)))
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	certs, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certs, pagination)
}

// Get godoc
// @Summary Get certificate request detail
// @Description Issued certificates carry a signed download link
// @Tags Certificates
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/{id} [get]
func (h *CertificateHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "certificate service not configured"))
		return
	}
	cert, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if cert.Status == models.StatusIssued && cert.ArtifactPath != nil {
		if download, dlErr := h.service.SignedDownload(c.Request.Context(), cert.ID); dlErr == nil {
			response.JSON(c, http.StatusOK, dto.CertificateDetailResponse{
				CertificateRequest: *cert,
				Download:           download,
			}, nil)
			return
		}
	}
	response.JSON(c, http.StatusOK, cert, nil)
}

// Create godoc
// @Summary Request a certificate
// @Tags Certificates
// @Accept json
// @Produce json
// @Param payload body dto.CreateCertificateRequest true "Certificate payload"
// @Success 201 {object} response.Envelope
// @Router /certificates [post]
func (h *CertificateHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "certificate service not configured"))
		return
	}
	var req dto.CreateCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid certificate payload"))
		return
	}
	cert, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, cert, nil)
}

// Download godoc
// @Summary Download an issued certificate via signed token
// @Tags Certificates
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /certificates/download [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "certificate service not configured"))
		return
	}
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, "application/pdf", result.File, nil)
}
