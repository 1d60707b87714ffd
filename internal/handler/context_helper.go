package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/stikes-adp-api/internal/middleware"
	"github.com/noah-isme/stikes-adp-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// statusesFromQuery parses the comma separated ?status= filter. Entries are
// normalized (the legacy "requested" alias folds into PENDING); entries that
// normalize to nothing are dropped.
func statusesFromQuery(c *gin.Context) []models.ApprovalStatus {
	raw := c.Query("status")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	statuses := make([]models.ApprovalStatus, 0, len(parts))
	for _, part := range parts {
		status, ok := models.NormalizeStatus(part)
		if !ok {
			continue
		}
		statuses = append(statuses, status)
	}
	return statuses
}
