package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stikes-adp-api/internal/dto"
	"github.com/noah-isme/stikes-adp-api/internal/models"
	appErrors "github.com/noah-isme/stikes-adp-api/pkg/errors"
	"github.com/noah-isme/stikes-adp-api/pkg/response"
)

type approvalService interface {
	Approve(ctx context.Context, recordType models.RecordType, id, comment, actorID string) (*dto.DecisionResponse, error)
	Reject(ctx context.Context, recordType models.RecordType, id, reason, actorID string) (*dto.DecisionResponse, error)
	Cancel(ctx context.Context, recordType models.RecordType, id, actorID string) (*dto.DecisionResponse, error)
	Get(ctx context.Context, recordType models.RecordType, id string) (*dto.DecisionResponse, error)
	Pending(ctx context.Context, recordType *models.RecordType, page, pageSize int) ([]dto.PendingApprovalItem, *models.Pagination, error)
}

// ApprovalHandler exposes the uniform decision endpoints shared by every
// record type.
type ApprovalHandler struct {
	service approvalService
}

// NewApprovalHandler constructs the handler.
func NewApprovalHandler(service approvalService) *ApprovalHandler {
	return &ApprovalHandler{service: service}
}

func recordTypeParam(c *gin.Context) (models.RecordType, bool) {
	recordType, ok := models.ParseRecordType(c.Param("type"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown record type"))
		return "", false
	}
	return recordType, true
}

// Approve godoc
// @Summary Approve a record
// @Description Moves the record one hop forward along its type's approval chain
// @Tags Approvals
// @Accept json
// @Produce json
// @Param type path string true "Record type (leave|workflow|certificate|refund)"
// @Param id path string true "Record ID"
// @Param payload body dto.ApproveRequest false "Optional reviewer comment"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/{type}/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "approval service not configured"))
		return
	}
	recordType, ok := recordTypeParam(c)
	if !ok {
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid approve payload"))
		return
	}
	decision, err := h.service.Approve(c.Request.Context(), recordType, c.Param("id"), req.Comment, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decision, nil)
}

// Reject godoc
// @Summary Reject a record
// @Description Moves the record into REJECTED; the reason is mandatory
// @Tags Approvals
// @Accept json
// @Produce json
// @Param type path string true "Record type (leave|workflow|certificate|refund)"
// @Param id path string true "Record ID"
// @Param payload body dto.RejectRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/{type}/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "approval service not configured"))
		return
	}
	recordType, ok := recordTypeParam(c)
	if !ok {
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid reject payload"))
		return
	}
	decision, err := h.service.Reject(c.Request.Context(), recordType, c.Param("id"), req.Reason, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decision, nil)
}

// Cancel godoc
// @Summary Cancel a record
// @Description Withdraws a non-terminal record on behalf of its requester
// @Tags Approvals
// @Produce json
// @Param type path string true "Record type (leave|workflow|certificate|refund)"
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/{type}/{id}/cancel [post]
func (h *ApprovalHandler) Cancel(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "approval service not configured"))
		return
	}
	recordType, ok := recordTypeParam(c)
	if !ok {
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	decision, err := h.service.Cancel(c.Request.Context(), recordType, c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decision, nil)
}

// Get godoc
// @Summary Approval projection of a record
// @Description Uniform status view with the legal follow-up transitions
// @Tags Approvals
// @Produce json
// @Param type path string true "Record type (leave|workflow|certificate|refund)"
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /approvals/{type}/{id} [get]
func (h *ApprovalHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "approval service not configured"))
		return
	}
	recordType, ok := recordTypeParam(c)
	if !ok {
		return
	}
	decision, err := h.service.Get(c.Request.Context(), recordType, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decision, nil)
}

// Pending godoc
// @Summary Cross-type pending review queue
// @Tags Approvals
// @Produce json
// @Param type query string false "Restrict to one record type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /approvals/pending [get]
func (h *ApprovalHandler) Pending(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "approval service not configured"))
		return
	}
	var typeFilter *models.RecordType
	if raw := c.Query("type"); raw != "" {
		recordType, ok := models.ParseRecordType(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown record type"))
			return
		}
		typeFilter = &recordType
	}
	page := 1
	pageSize := 20
	if parsed, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = parsed
	}
	if parsed, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		pageSize = parsed
	}
	items, pagination, err := h.service.Pending(c.Request.Context(), typeFilter, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}
