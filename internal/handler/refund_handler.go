package handler

import (
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

// RefundHandler exposes fee refund endpoints.
type RefundHandler struct {
	refunds *service.RefundService
}

// NewRefundHandler constructs RefundHandler.
func NewRefundHandler(refunds *service.RefundService) *RefundHandler {
	return &RefundHandler{refunds: refunds}
}

// List godoc
// @Summary List refund claims
// @Tags Refunds
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param studentId query string false "Filter by student"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /refunds [get]
func (h *RefundHandler) List(c *gin.Context) {
	filter := models.RefundFilter{
		Status:    statusesFromQuery(c),
		StudentID: strings.TrimSpace(c.Query("studentId")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	refunds, pagination, err := h.refunds.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, refunds, pagination)
}

// Get godoc
// @Summary Get refund claim detail
// @Tags Refunds
// @Produce json
// @Param id path string true "Refund ID"
// @Success 200 {object} response.Envelope
// @Router /refunds/{id} [get]
func (h *RefundHandler) Get(c *gin.Context) {
	refund, err := h.refunds.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, refund, nil)
}

// Create godoc
// @Summary File a refund claim
// @Tags Refunds
// @Accept json
// @Produce json
// @Param payload body dto.CreateRefundRequest true "Refund payload"
// @Success 201 {object} response.Envelope
// @Router /refunds [post]
func (h *RefundHandler) Create(c *gin.Context) {
	var req dto.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid refund payload"))
		return
	}
	refund, err := h.refunds.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, refund)
}
