package dto

import "github.com/noah-isme/stikes-adp-api/internal/models"

// CreateWorkflowRequest payload for opening a generic approval workflow.
// StepsTotal defaults to 1 when omitted.
type CreateWorkflowRequest struct {
	Category    models.WorkflowCategory `json:"category" validate:"required"`
	Title       string                  `json:"title" validate:"required"`
	Description string                  `json:"description"`
	StepsTotal  int                     `json:"stepsTotal" validate:"gte=0"`
}
