package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stikes-adp-api/internal/middleware"
	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
	"github.com/noah-isme/stikes-adp-api/pkg/response"
)

type complianceService interface {
	Report(ctx context.Context) (*models.ComplianceReport, bool, error)
}

// ComplianceHandler serves the department staffing compliance report.
type ComplianceHandler struct {
	service complianceService
}

// NewComplianceHandler constructs the handler.
func NewComplianceHandler(service complianceService) *ComplianceHandler {
	return &ComplianceHandler{service: service}
}

// Report godoc
// @Summary Department staffing compliance report
// @Description Served from cache within the TTL; roster changes drop the cached copy
// @Tags Compliance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /compliance [get]
func (h *ComplianceHandler) Report(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	report, cacheHit, err := h.service.Report(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, report, nil, meta)
}
