package service

import (
	identity "attest/internal/identity/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// =============================================================================
// Status Tests
// =============================================================================

func (s *VerificationServiceSuite) TestStatus() {
	s.Run("fresh subject has nothing verified", func() {
		s.SetupTest()
		subjectID := s.seedSubject("alice@example.com", "+15550001111")

		view, err := s.service.Status(s.ctx(), subjectID)
		s.NoError(err)
		s.False(view.Email)
		s.False(view.Phone)
		s.False(view.ID)
		s.False(view.FullyVerified)
		s.Empty(view.RejectionReason)
		s.Empty(view.DocumentURL)
	})

	s.Run("fully verified only when all three tracks are", func() {
		s.SetupTest()
		subjectID := s.seedSubject("bob@example.com", "+15550002222")

		s.verifyEmail(subjectID)
		s.verifyPhone(subjectID)

		view, err := s.service.Status(s.ctx(), subjectID)
		s.Require().NoError(err)
		s.True(view.Email)
		s.True(view.Phone)
		s.False(view.FullyVerified)

		s.submitAndApprove(subjectID)

		view, err = s.service.Status(s.ctx(), subjectID)
		s.Require().NoError(err)
		s.True(view.FullyVerified)
	})

	s.Run("losing a track drops fully verified", func() {
		s.SetupTest()
		subjectID := s.seedSubject("carol@example.com", "+15550003333")
		s.verifyEmail(subjectID)
		s.verifyPhone(subjectID)
		s.submitDocument(subjectID)

		// Pending submission, not yet approved.
		view, err := s.service.Status(s.ctx(), subjectID)
		s.Require().NoError(err)
		s.True(view.IDPending)
		s.False(view.FullyVerified)
	})

	s.Run("surfaces the last rejection reason and a document link", func() {
		s.SetupTest()
		subjectID := s.seedSubject("dave@example.com", "")
		s.submitAndReject(subjectID, "photo is blurry")

		view, err := s.service.Status(s.ctx(), subjectID)
		s.Require().NoError(err)
		s.Equal("photo is blurry", view.RejectionReason)
		s.Equal(string(identity.DocumentPassport), view.DocumentType)
		s.Contains(view.DocumentURL, "https://blobs.test/"+subjectID.String()+"/")
	})

	s.Run("unknown subject returns not found", func() {
		s.SetupTest()
		_, err := s.service.Status(s.ctx(), id.NewSubjectID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
