package service

import (
	"context"
	"crypto/subtle"
	"errors"

	identity "attest/internal/identity/models"
	"attest/internal/verification/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/audit"
	"attest/pkg/platform/sentinel"
	"attest/pkg/requestcontext"
)

// RequestPhoneVerification issues a fresh one-time code for the subject's
// phone number. A repeated request replaces any earlier code; only the latest
// one is redeemable.
func (s *Service) RequestPhoneVerification(ctx context.Context, subjectID id.SubjectID) error {
	ctx, span := s.tracer.Start(ctx, "verification.RequestPhoneVerification")
	defer span.End()

	now := requestcontext.Now(ctx)
	subject, err := s.subjects.Execute(ctx, subjectID,
		func(sub *identity.Subject) error { return sub.CanRequestPhoneVerification() },
		func(sub *identity.Subject) { sub.ApplyPhonePending(now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		if dErrors.HasCode(err, dErrors.CodeConflict) || dErrors.HasCode(err, dErrors.CodeBadRequest) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to request phone verification")
	}

	code, err := s.generateCode()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate verification code")
	}
	pending := models.PendingCode{
		SubjectID:    subjectID,
		ContactValue: subject.Phone,
		Code:         code,
		IssuedAt:     now,
	}
	if err := s.codes.Put(ctx, pending); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification code")
	}

	if s.metrics != nil {
		s.metrics.CodesIssued.Inc()
	}

	if err := s.notifier.SendPhoneCode(ctx, subject.Phone, code); err != nil {
		s.logger.WarnContext(ctx, "failed to send phone verification code",
			"subject_id", subjectID.String(),
			"error", err,
		)
	}

	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryOf(audit.ActionPhoneVerificationRequested),
		Action:    audit.ActionPhoneVerificationRequested,
		Timestamp: now,
		SubjectID: subjectID,
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// VerifyPhoneCode redeems a one-time code. An expired code is discarded so a
// retry with the same digits reports not-found rather than expired again; a
// mismatched code stays live so the subject can correct a typo without
// re-requesting.
func (s *Service) VerifyPhoneCode(ctx context.Context, subjectID id.SubjectID, submitted string) (models.TrackSummary, error) {
	ctx, span := s.tracer.Start(ctx, "verification.VerifyPhoneCode")
	defer span.End()

	if submitted == "" {
		return models.TrackSummary{}, dErrors.New(dErrors.CodeBadRequest, "verification code is required")
	}

	pending, err := s.codes.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.TrackSummary{}, dErrors.New(dErrors.CodeNotFound, "no pending verification code")
		}
		return models.TrackSummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification code")
	}

	now := requestcontext.Now(ctx)
	if pending.Expired(now) {
		if err := s.codes.Delete(ctx, subjectID); err != nil {
			s.logger.WarnContext(ctx, "failed to discard expired code",
				"subject_id", subjectID.String(),
				"error", err,
			)
		}
		if s.metrics != nil {
			s.metrics.CodesExpired.Inc()
		}
		return models.TrackSummary{}, dErrors.New(dErrors.CodeExpired, "verification code has expired")
	}

	if subtle.ConstantTimeCompare([]byte(pending.Code), []byte(submitted)) != 1 {
		if s.metrics != nil {
			s.metrics.CodesMismatched.Inc()
		}
		return models.TrackSummary{}, dErrors.New(dErrors.CodeBadRequest, "verification code does not match")
	}

	subject, err := s.subjects.Execute(ctx, subjectID,
		func(sub *identity.Subject) error { return nil },
		func(sub *identity.Subject) { sub.ApplyPhoneVerified(now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.TrackSummary{}, dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		return models.TrackSummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify phone")
	}

	if err := s.codes.Delete(ctx, subjectID); err != nil {
		s.logger.WarnContext(ctx, "failed to discard redeemed code",
			"subject_id", subjectID.String(),
			"error", err,
		)
	}

	if s.metrics != nil {
		s.metrics.TracksVerified.WithLabelValues("phone").Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryOf(audit.ActionPhoneVerified),
		Action:    audit.ActionPhoneVerified,
		Timestamp: now,
		SubjectID: subjectID,
		RequestID: requestcontext.RequestID(ctx),
	})

	return models.ComputeStatus(subject.EmailStatus, subject.PhoneStatus, subject.IDStatus), nil
}
