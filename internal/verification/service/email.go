package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	identity "attest/internal/identity/models"
	notifmodels "attest/internal/notification/models"
	"attest/internal/verification/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/audit"
	"attest/pkg/platform/sentinel"
	"attest/pkg/requestcontext"
)

// RequestEmailVerification moves the email track to pending and sends the
// subject a redeemable verification link. Re-requesting while pending simply
// issues a fresh link.
func (s *Service) RequestEmailVerification(ctx context.Context, subjectID id.SubjectID) error {
	ctx, span := s.tracer.Start(ctx, "verification.RequestEmailVerification")
	defer span.End()

	now := requestcontext.Now(ctx)
	subject, err := s.subjects.Execute(ctx, subjectID,
		func(sub *identity.Subject) error { return sub.CanRequestEmailVerification() },
		func(sub *identity.Subject) { sub.ApplyEmailPending(now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to request email verification")
	}

	token := models.EmailToken{
		Token:     uuid.NewString(),
		SubjectID: subjectID,
		IssuedAt:  now,
	}
	if err := s.tokens.Put(ctx, token); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue verification token")
	}

	link := s.baseURL + "/verification/email/redeem?token=" + token.Token
	if err := s.notifier.SendEmailVerification(ctx, subject.Email, link); err != nil {
		// Delivery is out-of-band and best-effort; the subject can re-request.
		s.logger.WarnContext(ctx, "failed to send verification email",
			"subject_id", subjectID.String(),
			"error", err,
		)
	}

	s.notifyReviewers(ctx, notifmodels.ReviewEvent{
		Kind:         notifmodels.EventEmailVerificationRequested,
		SubjectID:    subjectID,
		SubjectEmail: subject.Email,
		Link:         s.baseURL + "/admin/subjects/" + subjectID.String(),
		OccurredAt:   now,
	})

	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryOf(audit.ActionEmailVerificationRequested),
		Action:    audit.ActionEmailVerificationRequested,
		Timestamp: now,
		SubjectID: subjectID,
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// RedeemEmailToken flips the email track to verified. Redemption is
// idempotent: a token for an already-verified subject resolves successfully
// without changing anything.
func (s *Service) RedeemEmailToken(ctx context.Context, rawToken string) (models.TrackSummary, error) {
	ctx, span := s.tracer.Start(ctx, "verification.RedeemEmailToken")
	defer span.End()

	if rawToken == "" {
		return models.TrackSummary{}, dErrors.New(dErrors.CodeBadRequest, "verification token is required")
	}

	token, err := s.tokens.Get(ctx, rawToken)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.TrackSummary{}, dErrors.New(dErrors.CodeNotFound, "unknown or expired verification token")
		}
		return models.TrackSummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification token")
	}

	now := requestcontext.Now(ctx)
	if now.Sub(token.IssuedAt) > models.EmailTokenTTL {
		return models.TrackSummary{}, dErrors.New(dErrors.CodeExpired, "verification token has expired")
	}

	var alreadyVerified bool
	subject, err := s.subjects.Execute(ctx, token.SubjectID,
		func(sub *identity.Subject) error {
			alreadyVerified = sub.EmailStatus == identity.EmailVerified
			return nil
		},
		func(sub *identity.Subject) { sub.ApplyEmailVerified(now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.TrackSummary{}, dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		return models.TrackSummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to redeem verification token")
	}

	if !alreadyVerified {
		if s.metrics != nil {
			s.metrics.TracksVerified.WithLabelValues("email").Inc()
		}
		s.emitAudit(ctx, audit.Event{
			Category:  audit.CategoryOf(audit.ActionEmailVerified),
			Action:    audit.ActionEmailVerified,
			Timestamp: now,
			SubjectID: subject.ID,
			RequestID: requestcontext.RequestID(ctx),
		})
	}

	return models.ComputeStatus(subject.EmailStatus, subject.PhoneStatus, subject.IDStatus), nil
}
