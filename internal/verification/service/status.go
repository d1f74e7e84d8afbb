package service

import (
	"context"
	"errors"
	"time"

	"attest/internal/verification/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/sentinel"
)

// StatusView is the subject-facing verification status. Document review
// details appear only when they exist.
type StatusView struct {
	models.TrackSummary
	DocumentType    string `json:"document_type,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	DocumentURL     string `json:"document_url,omitempty"`
}

// Status reports the three track states and the derived fully-verified flag.
func (s *Service) Status(ctx context.Context, subjectID id.SubjectID) (StatusView, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Status")
	defer span.End()

	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return StatusView{}, dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		return StatusView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subject")
	}

	view := StatusView{
		TrackSummary: models.ComputeStatus(subject.EmailStatus, subject.PhoneStatus, subject.IDStatus),
	}
	if subject.IDDocument != nil {
		view.DocumentType = string(subject.IDDocument.Type)
		if url, err := s.blobs.SignedURL(ctx, subject.IDDocument.FrontKey, 15*time.Minute); err == nil {
			view.DocumentURL = url
		}
	}
	if reason := subject.LastRejectionReason(); reason != "" {
		view.RejectionReason = reason
	}
	return view, nil
}
