package dto

import "github.com/noah-isme/stikes-adp-api/internal/models"

// ApproveRequest carries the optional reviewer comment on an approve action.
type ApproveRequest struct {
	Comment string `json:"comment"`
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// DecisionResponse returns the updated record projection together with the
// legal follow-up transitions and the summary views the decision made stale.
type DecisionResponse struct {
	Record      models.ApprovalRecord      `json:"record"`
	AllowedNext []models.ApprovalStatus    `json:"allowedNext"`
	Invalidated []models.InvalidationTopic `json:"invalidated"`
}

// PendingApprovalItem is one entry of the cross-type review queue.
type PendingApprovalItem struct {
	ID          string                  `json:"id"`
	Type        models.RecordType       `json:"type"`
	Status      models.ApprovalStatus   `json:"status"`
	SubjectName string                  `json:"subjectName"`
	Title       string                  `json:"title"`
	CreatedAt   string                  `json:"createdAt"`
	AllowedNext []models.ApprovalStatus `json:"allowedNext"`
}
