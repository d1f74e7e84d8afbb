package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	identity "attest/internal/identity/models"
	notifmodels "attest/internal/notification/models"
	"attest/internal/verification/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/audit"
	"attest/pkg/platform/sentinel"
	platformstrings "attest/pkg/platform/strings"
	"attest/pkg/requestcontext"
)

// Upload is one side of an identity document as received at the boundary.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// SubmitIDDocument validates and stores a document submission. All uploads
// complete before the track flips to pending, so a storage failure leaves the
// subject's status untouched.
func (s *Service) SubmitIDDocument(ctx context.Context, subjectID id.SubjectID, docType identity.DocumentType, front Upload, back *Upload) error {
	ctx, span := s.tracer.Start(ctx, "verification.SubmitIDDocument")
	defer span.End()

	if !docType.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "unknown document type")
	}
	if err := validateUpload("front", front); err != nil {
		return err
	}
	if docType.RequiresBack() {
		if back == nil {
			return dErrors.New(dErrors.CodeBadRequest, "document type requires a back side")
		}
		if err := validateUpload("back", *back); err != nil {
			return err
		}
	} else {
		back = nil
	}

	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subject")
	}
	if err := subject.CanSubmitIDDocument(); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	doc := identity.IDDocument{
		Type:        docType,
		SubmittedAt: now,
	}

	doc.FrontKey = documentKey(subjectID, now.UnixMilli(), "front", front.Filename)
	if err := s.blobs.Upload(ctx, doc.FrontKey, front.Data, front.Size, front.ContentType); err != nil {
		return wrapStorageErr(err, "failed to store front side")
	}
	if back != nil {
		doc.BackKey = documentKey(subjectID, now.UnixMilli(), "back", back.Filename)
		if err := s.blobs.Upload(ctx, doc.BackKey, back.Data, back.Size, back.ContentType); err != nil {
			return wrapStorageErr(err, "failed to store back side")
		}
	}

	// Status flips only once every upload has landed.
	subject, err = s.subjects.Execute(ctx, subjectID,
		func(sub *identity.Subject) error { return sub.CanSubmitIDDocument() },
		func(sub *identity.Subject) { sub.ApplyIDSubmission(doc, now) },
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record document submission")
	}

	if s.metrics != nil {
		s.metrics.DocumentsSubmitted.Inc()
	}

	s.notifyReviewers(ctx, notifmodels.ReviewEvent{
		Kind:         notifmodels.EventIDDocumentSubmitted,
		SubjectID:    subjectID,
		SubjectEmail: subject.Email,
		Link:         s.baseURL + "/admin/subjects/" + subjectID.String(),
		OccurredAt:   now,
	})

	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryOf(audit.ActionIDDocumentSubmitted),
		Action:    audit.ActionIDDocumentSubmitted,
		Timestamp: now,
		SubjectID: subjectID,
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// DecideIDDocument records an administrator's verdict on the pending
// submission. Rejections accumulate as history; a later resubmission never
// erases the recorded reason.
func (s *Service) DecideIDDocument(ctx context.Context, subjectID id.SubjectID, reviewerID id.SubjectID, outcome identity.ReviewOutcome, reason string) error {
	ctx, span := s.tracer.Start(ctx, "verification.DecideIDDocument")
	defer span.End()

	if outcome != identity.ReviewApproved && outcome != identity.ReviewRejected {
		return dErrors.New(dErrors.CodeBadRequest, "outcome must be approved or rejected")
	}
	if outcome == identity.ReviewRejected && reason == "" {
		return dErrors.New(dErrors.CodeBadRequest, "a rejection requires a reason")
	}

	now := requestcontext.Now(ctx)
	review := identity.IDReview{
		ID:         id.NewReviewID(),
		ReviewerID: reviewerID,
		Outcome:    outcome,
		Reason:     reason,
		DecidedAt:  now,
	}
	_, err := s.subjects.Execute(ctx, subjectID,
		func(sub *identity.Subject) error { return sub.CanDecideID() },
		func(sub *identity.Subject) { sub.ApplyIDDecision(review, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record review decision")
	}

	if s.metrics != nil {
		s.metrics.ReviewDecisions.WithLabelValues(string(outcome)).Inc()
	}

	action := audit.ActionIDDocumentApproved
	if outcome == identity.ReviewRejected {
		action = audit.ActionIDDocumentRejected
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryOf(action),
		Action:    action,
		Timestamp: now,
		SubjectID: subjectID,
		ActorID:   reviewerID.String(),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})

	if outcome == identity.ReviewApproved && s.metrics != nil {
		s.metrics.TracksVerified.WithLabelValues("id").Inc()
	}
	return nil
}

func validateUpload(side string, u Upload) error {
	if u.Data == nil || u.Filename == "" {
		return dErrors.New(dErrors.CodeBadRequest, side+" side document is required")
	}
	if !models.AllowedContentTypes[u.ContentType] {
		return dErrors.New(dErrors.CodeBadRequest, side+" side has an unsupported content type")
	}
	if u.Size <= 0 || u.Size > models.MaxDocumentSize {
		return dErrors.New(dErrors.CodeBadRequest, side+" side exceeds the size limit")
	}
	return nil
}

func documentKey(subjectID id.SubjectID, epochMillis int64, side, filename string) string {
	return fmt.Sprintf("%s/%d-%s-%s", subjectID.String(), epochMillis, side, platformstrings.SanitizeFilename(filename))
}

func wrapStorageErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "document storage is unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
