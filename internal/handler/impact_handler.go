package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stikes-adp-api/internal/service"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
	"github.com/noah-isme/stikes-adp-api/pkg/response"
)

// ImpactHandler serves the per-department staffing impact snapshot.
type ImpactHandler struct {
	impact *service.ImpactService
}

// NewImpactHandler constructs ImpactHandler.
func NewImpactHandler(impact *service.ImpactService) *ImpactHandler {
	return &ImpactHandler{impact: impact}
}

// Snapshot godoc
// @Summary Department impact of concurrent leave
// @Description Share of each department on leave for a day; defaults to today
// @Tags Impact
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /impact [get]
func (h *ImpactHandler) Snapshot(c *gin.Context) {
	var at *time.Time
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD"))
			return
		}
		at = &parsed
	}

	impacts, err := h.impact.Impact(c.Request.Context(), at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, impacts, nil)
}
