package service

import (
	"context"
	"time"

	identity "attest/internal/identity/models"
	"attest/internal/verification/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/audit"
	"attest/pkg/platform/sentinel"
)

// =============================================================================
// RequestPhoneVerification Tests
// =============================================================================

func (s *VerificationServiceSuite) TestRequestPhoneVerification() {
	s.Run("issues a code and moves track to pending", func() {
		s.SetupTest()
		subjectID := s.seedSubject("alice@example.com", "+15550001111")

		err := s.service.RequestPhoneVerification(s.ctx(), subjectID)
		s.NoError(err)

		s.Equal(identity.PhonePending, s.mustSubject(subjectID).PhoneStatus)
		s.Require().Len(s.notifier.codes, 1)
		s.Equal("+15550001111", s.notifier.codes[0].phone)
		s.Equal("042137", s.notifier.codes[0].code)
	})

	s.Run("no phone on file returns bad request", func() {
		s.SetupTest()
		subjectID := s.seedSubject("nophone@example.com", "")

		err := s.service.RequestPhoneVerification(s.ctx(), subjectID)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("already verified returns conflict", func() {
		s.SetupTest()
		subjectID := s.seedSubject("bob@example.com", "+15550002222")
		s.verifyPhone(subjectID)

		err := s.service.RequestPhoneVerification(s.ctx(), subjectID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("re-request replaces the earlier code", func() {
		s.SetupTest()
		subjectID := s.seedSubject("carol@example.com", "+15550003333")

		codes := []string{"111111", "222222"}
		s.service.generateCode = func() (string, error) {
			code := codes[0]
			codes = codes[1:]
			return code, nil
		}

		s.Require().NoError(s.service.RequestPhoneVerification(s.ctx(), subjectID))
		s.Require().NoError(s.service.RequestPhoneVerification(s.ctx(), subjectID))

		// Only the latest code redeems.
		_, err := s.service.VerifyPhoneCode(s.ctx(), subjectID, "111111")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		_, err = s.service.VerifyPhoneCode(s.ctx(), subjectID, "222222")
		s.NoError(err)
	})
}

// =============================================================================
// VerifyPhoneCode Tests
// =============================================================================

func (s *VerificationServiceSuite) TestVerifyPhoneCode() {
	s.Run("matching code verifies the phone track", func() {
		s.SetupTest()
		subjectID := s.seedSubject("alice@example.com", "+15550001111")
		s.Require().NoError(s.service.RequestPhoneVerification(s.ctx(), subjectID))

		summary, err := s.service.VerifyPhoneCode(s.ctx(), subjectID, "042137")
		s.NoError(err)
		s.True(summary.Phone)
		s.Equal(identity.PhoneVerified, s.mustSubject(subjectID).PhoneStatus)
		s.Contains(s.auditActions(), audit.ActionPhoneVerified)

		// The code is consumed.
		_, err = s.codes.Get(context.Background(), subjectID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("no pending code returns not found", func() {
		s.SetupTest()
		subjectID := s.seedSubject("bob@example.com", "+15550002222")

		_, err := s.service.VerifyPhoneCode(s.ctx(), subjectID, "042137")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("mismatched code keeps the code live", func() {
		s.SetupTest()
		subjectID := s.seedSubject("carol@example.com", "+15550003333")
		s.Require().NoError(s.service.RequestPhoneVerification(s.ctx(), subjectID))

		_, err := s.service.VerifyPhoneCode(s.ctx(), subjectID, "999999")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

		// A corrected retry still succeeds without re-requesting.
		summary, err := s.service.VerifyPhoneCode(s.ctx(), subjectID, "042137")
		s.NoError(err)
		s.True(summary.Phone)
	})

	s.Run("expired code is discarded", func() {
		s.SetupTest()
		subjectID := s.seedSubject("dave@example.com", "+15550004444")
		s.Require().NoError(s.service.RequestPhoneVerification(s.ctx(), subjectID))

		late := s.ctxAt(models.CodeTTL + time.Second)
		_, err := s.service.VerifyPhoneCode(late, subjectID, "042137")
		s.True(dErrors.HasCode(err, dErrors.CodeExpired))

		// The stale code is gone; a retry reports not found, not expired.
		_, err = s.service.VerifyPhoneCode(late, subjectID, "042137")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("code at exactly the TTL boundary still redeems", func() {
		s.SetupTest()
		subjectID := s.seedSubject("erin@example.com", "+15550005555")
		s.Require().NoError(s.service.RequestPhoneVerification(s.ctx(), subjectID))

		summary, err := s.service.VerifyPhoneCode(s.ctxAt(models.CodeTTL), subjectID, "042137")
		s.NoError(err)
		s.True(summary.Phone)
	})

	s.Run("empty code returns bad request", func() {
		s.SetupTest()
		subjectID := s.seedSubject("frank@example.com", "+15550006666")

		_, err := s.service.VerifyPhoneCode(s.ctx(), subjectID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

// verifyPhone drives the phone track to verified through the public flow.
func (s *VerificationServiceSuite) verifyPhone(subjectID id.SubjectID) {
	s.Require().NoError(s.service.RequestPhoneVerification(s.ctx(), subjectID))
	code := s.notifier.codes[len(s.notifier.codes)-1].code
	_, err := s.service.VerifyPhoneCode(s.ctx(), subjectID, code)
	s.Require().NoError(err)
}
