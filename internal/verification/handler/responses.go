package handler

import (
	"attest/internal/verification/models"
	"attest/internal/verification/service"
)

// TrackSummaryResponse is the wire form of the per-track verification state.
type TrackSummaryResponse struct {
	EmailVerified bool `json:"email_verified"`
	EmailPending  bool `json:"email_pending"`
	PhoneVerified bool `json:"phone_verified"`
	PhonePending  bool `json:"phone_pending"`
	IDVerified    bool `json:"id_verified"`
	IDPending     bool `json:"id_pending"`
	FullyVerified bool `json:"fully_verified"`
}

// StatusResponse is the HTTP response for GET /verification/status.
type StatusResponse struct {
	TrackSummaryResponse
	DocumentType    string `json:"document_type,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	DocumentURL     string `json:"document_url,omitempty"`
}

// FromTrackSummary converts the domain summary to its wire form.
func FromTrackSummary(summary models.TrackSummary) TrackSummaryResponse {
	return TrackSummaryResponse{
		EmailVerified: summary.Email,
		EmailPending:  summary.EmailPending,
		PhoneVerified: summary.Phone,
		PhonePending:  summary.PhonePending,
		IDVerified:    summary.ID,
		IDPending:     summary.IDPending,
		FullyVerified: summary.FullyVerified,
	}
}

// FromStatusView converts the domain status view to its wire form.
func FromStatusView(view service.StatusView) StatusResponse {
	return StatusResponse{
		TrackSummaryResponse: FromTrackSummary(view.TrackSummary),
		DocumentType:         view.DocumentType,
		RejectionReason:      view.RejectionReason,
		DocumentURL:          view.DocumentURL,
	}
}
