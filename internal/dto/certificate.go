package dto

import "github.com/noah-isme/stikes-adp-api/internal/models"

// CreateCertificateRequest payload for requesting an official certificate.
type CreateCertificateRequest struct {
	StudentID string                 `json:"studentId" validate:"required"`
	Type      models.CertificateType `json:"type" validate:"required"`
	Purpose   string                 `json:"purpose" validate:"required"`
}

// CertificateDownloadResponse exposes the signed artifact URL for an issued
// certificate.
type CertificateDownloadResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

// CertificateDetailResponse decorates an issued certificate with its signed
// download link.
type CertificateDetailResponse struct {
	models.CertificateRequest
	Download *CertificateDownloadResponse `json:"download,omitempty"`
}
