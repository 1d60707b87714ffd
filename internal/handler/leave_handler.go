package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stikes-adp-api/internal/dto"
	"github.com/noah-isme/stikes-adp-api/internal/service"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
	"github.com/noah-isme/stikes-adp-api/pkg/response"
)

// LeaveHandler exposes faculty leave endpoints.
type LeaveHandler struct {
	leaves *service.LeaveService
}

// NewLeaveHandler constructs LeaveHandler.
func NewLeaveHandler(leaves *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaves: leaves}
}

// List godoc
// @Summary List leave requests
// @Tags Leaves
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param facultyId query string false "Filter by faculty member"
// @Param departmentId query string false "Filter by department"
// @Param dateFrom query string false "Overlap window start (YYYY-MM-DD)"
// @Param dateTo query string false "Overlap window end (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leaves [get]
func (h *LeaveHandler) List(c *gin.Context) {
	query := dto.LeaveQuery{
		Status:       statusesFromQuery(c),
		FacultyID:    strings.TrimSpace(c.Query("facultyId")),
		DepartmentID: strings.TrimSpace(c.Query("departmentId")),
		DateFrom:     strings.TrimSpace(c.Query("dateFrom")),
		DateTo:       strings.TrimSpace(c.Query("dateTo")),
	}
	page := 1
	pageSize := 20
	if parsed, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = parsed
	}
	if parsed, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		pageSize = parsed
	}

	leaves, pagination, err := h.leaves.List(c.Request.Context(), query, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, pagination)
}

// Get godoc
// @Summary Get leave request detail
// @Tags Leaves
// @Produce json
// @Param id path string true "Leave ID"
// @Success 200 {object} response.Envelope
// @Router /leaves/{id} [get]
func (h *LeaveHandler) Get(c *gin.Context) {
	leave, err := h.leaves.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}

// Create godoc
// @Summary Apply for leave
// @Tags Leaves
// @Accept json
// @Produce json
// @Param payload body dto.CreateLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Router /leaves [post]
func (h *LeaveHandler) Create(c *gin.Context) {
	var req dto.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid leave payload"))
		return
	}
	leave, err := h.leaves.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}
