package service

import (
	"strings"
	"time"

	identity "attest/internal/identity/models"
	notifmodels "attest/internal/notification/models"
	"attest/internal/verification/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/audit"
)

// =============================================================================
// RequestEmailVerification Tests
// =============================================================================

func (s *VerificationServiceSuite) TestRequestEmailVerification() {
	s.Run("moves track to pending and sends link", func() {
		s.SetupTest()
		subjectID := s.seedSubject("alice@example.com", "")

		err := s.service.RequestEmailVerification(s.ctx(), subjectID)
		s.NoError(err)

		s.Equal(identity.EmailPending, s.mustSubject(subjectID).EmailStatus)
		s.Require().Len(s.notifier.emails, 1)
		s.Equal("alice@example.com", s.notifier.emails[0].email)
		s.Contains(s.notifier.emails[0].link, "https://attest.test/verification/email/redeem?token=")
	})

	s.Run("re-request while pending issues a fresh link", func() {
		s.SetupTest()
		subjectID := s.seedSubject("bob@example.com", "")

		s.Require().NoError(s.service.RequestEmailVerification(s.ctx(), subjectID))
		s.Require().NoError(s.service.RequestEmailVerification(s.ctx(), subjectID))

		s.Equal(identity.EmailPending, s.mustSubject(subjectID).EmailStatus)
		s.Require().Len(s.notifier.emails, 2)
		s.NotEqual(s.notifier.emails[0].link, s.notifier.emails[1].link)
	})

	s.Run("already verified returns conflict", func() {
		s.SetupTest()
		subjectID := s.seedSubject("carol@example.com", "")
		s.verifyEmail(subjectID)

		err := s.service.RequestEmailVerification(s.ctx(), subjectID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown subject returns not found", func() {
		s.SetupTest()
		err := s.service.RequestEmailVerification(s.ctx(), id.NewSubjectID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("notifies reviewers and audits", func() {
		s.SetupTest()
		subjectID := s.seedSubject("dave@example.com", "")

		s.Require().NoError(s.service.RequestEmailVerification(s.ctx(), subjectID))

		s.Require().Len(s.fanout.events, 1)
		s.Equal(notifmodels.EventEmailVerificationRequested, s.fanout.events[0].Kind)
		s.Equal("dave@example.com", s.fanout.events[0].SubjectEmail)
		s.Contains(s.auditActions(), audit.ActionEmailVerificationRequested)
	})
}

// =============================================================================
// RedeemEmailToken Tests
// =============================================================================

func (s *VerificationServiceSuite) TestRedeemEmailToken() {
	s.Run("valid token verifies the email track", func() {
		s.SetupTest()
		subjectID := s.seedSubject("alice@example.com", "")
		token := s.requestEmailToken(subjectID)

		summary, err := s.service.RedeemEmailToken(s.ctx(), token)
		s.NoError(err)
		s.True(summary.Email)
		s.False(summary.EmailPending)
		s.False(summary.FullyVerified)
		s.Equal(identity.EmailVerified, s.mustSubject(subjectID).EmailStatus)
		s.Contains(s.auditActions(), audit.ActionEmailVerified)
	})

	s.Run("second redemption is idempotent", func() {
		s.SetupTest()
		subjectID := s.seedSubject("bob@example.com", "")
		token := s.requestEmailToken(subjectID)

		_, err := s.service.RedeemEmailToken(s.ctx(), token)
		s.Require().NoError(err)
		summary, err := s.service.RedeemEmailToken(s.ctx(), token)
		s.NoError(err)
		s.True(summary.Email)

		// The verified audit event fires exactly once.
		verified := 0
		for _, action := range s.auditActions() {
			if action == audit.ActionEmailVerified {
				verified++
			}
		}
		s.Equal(1, verified)
	})

	s.Run("unknown token returns not found", func() {
		s.SetupTest()
		_, err := s.service.RedeemEmailToken(s.ctx(), "no-such-token")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("empty token returns bad request", func() {
		s.SetupTest()
		_, err := s.service.RedeemEmailToken(s.ctx(), "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("stale token returns expired", func() {
		s.SetupTest()
		subjectID := s.seedSubject("carol@example.com", "")
		token := s.requestEmailToken(subjectID)

		_, err := s.service.RedeemEmailToken(s.ctxAt(models.EmailTokenTTL+time.Second), token)
		s.True(dErrors.HasCode(err, dErrors.CodeExpired))
		s.Equal(identity.EmailPending, s.mustSubject(subjectID).EmailStatus)
	})
}

// requestEmailToken runs the request flow and extracts the issued token from
// the delivered link.
func (s *VerificationServiceSuite) requestEmailToken(subjectID id.SubjectID) string {
	s.Require().NoError(s.service.RequestEmailVerification(s.ctx(), subjectID))
	s.Require().NotEmpty(s.notifier.emails)
	link := s.notifier.emails[len(s.notifier.emails)-1].link
	_, token, found := strings.Cut(link, "token=")
	s.Require().True(found)
	return token
}

// verifyEmail drives the email track to verified through the public flow.
func (s *VerificationServiceSuite) verifyEmail(subjectID id.SubjectID) {
	token := s.requestEmailToken(subjectID)
	_, err := s.service.RedeemEmailToken(s.ctx(), token)
	s.Require().NoError(err)
}
