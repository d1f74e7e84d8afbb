package service

import (
	"errors"
	"strings"

	identity "attest/internal/identity/models"
	notifmodels "attest/internal/notification/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/audit"
	"attest/pkg/platform/sentinel"
)

func pdfUpload(filename string) Upload {
	return Upload{
		Filename:    filename,
		ContentType: "application/pdf",
		Size:        1024,
		Data:        strings.NewReader("%PDF-1.7 test"),
	}
}

// =============================================================================
// SubmitIDDocument Tests
// =============================================================================

func (s *VerificationServiceSuite) TestSubmitIDDocument() {
	s.Run("driver license stores both sides and flips to pending", func() {
		s.SetupTest()
		subjectID := s.seedSubject("alice@example.com", "")
		back := pdfUpload("license-back.pdf")

		err := s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentDriverLicense, pdfUpload("license-front.pdf"), &back)
		s.NoError(err)

		subject := s.mustSubject(subjectID)
		s.Equal(identity.IDPending, subject.IDStatus)
		s.Require().NotNil(subject.IDDocument)
		s.Contains(subject.IDDocument.FrontKey, subjectID.String()+"/")
		s.Contains(subject.IDDocument.FrontKey, "-front-license-front.pdf")
		s.Contains(subject.IDDocument.BackKey, "-back-license-back.pdf")
		s.Len(s.blobs.uploads, 2)
	})

	s.Run("passport needs no back side", func() {
		s.SetupTest()
		subjectID := s.seedSubject("bob@example.com", "")

		err := s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentPassport, pdfUpload("passport.pdf"), nil)
		s.NoError(err)

		subject := s.mustSubject(subjectID)
		s.Equal(identity.IDPending, subject.IDStatus)
		s.Empty(subject.IDDocument.BackKey)
		s.Len(s.blobs.uploads, 1)
	})

	s.Run("passport with a back side ignores it", func() {
		s.SetupTest()
		subjectID := s.seedSubject("carol@example.com", "")
		back := pdfUpload("stray-back.pdf")

		err := s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentPassport, pdfUpload("passport.pdf"), &back)
		s.NoError(err)
		s.Len(s.blobs.uploads, 1)
	})

	s.Run("missing back side for two-sided document returns bad request", func() {
		s.SetupTest()
		subjectID := s.seedSubject("dave@example.com", "")

		err := s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentNationalID, pdfUpload("id-front.pdf"), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Equal(identity.IDNotVerified, s.mustSubject(subjectID).IDStatus)
	})

	s.Run("unknown document type returns bad request", func() {
		s.SetupTest()
		subjectID := s.seedSubject("erin@example.com", "")

		err := s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentType("library_card"), pdfUpload("card.pdf"), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unsupported content type returns bad request", func() {
		s.SetupTest()
		subjectID := s.seedSubject("frank@example.com", "")
		front := pdfUpload("doc.gif")
		front.ContentType = "image/gif"

		err := s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentPassport, front, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Empty(s.blobs.uploads)
	})

	s.Run("oversized upload returns bad request before any storage call", func() {
		s.SetupTest()
		subjectID := s.seedSubject("grace@example.com", "")
		front := pdfUpload("huge.pdf")
		front.Size = 6 << 20

		err := s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentPassport, front, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Empty(s.blobs.uploads)
	})

	s.Run("filename is sanitized in the storage key", func() {
		s.SetupTest()
		subjectID := s.seedSubject("henry@example.com", "")

		err := s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentPassport, pdfUpload("my id (front).PDF"), nil)
		s.NoError(err)

		subject := s.mustSubject(subjectID)
		s.Contains(subject.IDDocument.FrontKey, "my_id__front_.PDF")
	})

	s.Run("upload failure leaves the status untouched", func() {
		s.SetupTest()
		subjectID := s.seedSubject("iris@example.com", "")
		s.blobs.failKeys["-back-"] = errors.New("bucket write failed")
		back := pdfUpload("id-back.pdf")

		err := s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentNationalID, pdfUpload("id-front.pdf"), &back)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))

		subject := s.mustSubject(subjectID)
		s.Equal(identity.IDNotVerified, subject.IDStatus)
		s.Nil(subject.IDDocument)
	})

	s.Run("storage unavailable returns unavailable", func() {
		s.SetupTest()
		subjectID := s.seedSubject("judy@example.com", "")
		s.blobs.failKeys["*"] = sentinel.ErrUnavailable

		err := s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentPassport, pdfUpload("passport.pdf"), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("already verified returns conflict", func() {
		s.SetupTest()
		subjectID := s.seedSubject("kate@example.com", "")
		s.submitAndApprove(subjectID)

		err := s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentPassport, pdfUpload("again.pdf"), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("resubmission after rejection re-enters pending", func() {
		s.SetupTest()
		subjectID := s.seedSubject("liam@example.com", "")
		s.submitAndReject(subjectID, "photo is blurry")

		err := s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentPassport, pdfUpload("retake.pdf"), nil)
		s.NoError(err)
		s.Equal(identity.IDPending, s.mustSubject(subjectID).IDStatus)
	})

	s.Run("notifies reviewers of the submission", func() {
		s.SetupTest()
		subjectID := s.seedSubject("mary@example.com", "")

		s.Require().NoError(s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentPassport, pdfUpload("passport.pdf"), nil))

		s.Require().Len(s.fanout.events, 1)
		s.Equal(notifmodels.EventIDDocumentSubmitted, s.fanout.events[0].Kind)
		s.Contains(s.auditActions(), audit.ActionIDDocumentSubmitted)
	})
}

// =============================================================================
// DecideIDDocument Tests
// =============================================================================

func (s *VerificationServiceSuite) TestDecideIDDocument() {
	reviewer := id.NewSubjectID()

	s.Run("approval verifies the id track", func() {
		s.SetupTest()
		subjectID := s.seedSubject("alice@example.com", "")
		s.submitDocument(subjectID)

		err := s.service.DecideIDDocument(s.ctx(), subjectID, reviewer, identity.ReviewApproved, "")
		s.NoError(err)

		subject := s.mustSubject(subjectID)
		s.Equal(identity.IDVerified, subject.IDStatus)
		s.Require().Len(subject.IDReviews, 1)
		s.Equal(reviewer, subject.IDReviews[0].ReviewerID)
		s.Contains(s.auditActions(), audit.ActionIDDocumentApproved)
	})

	s.Run("rejection records the reason", func() {
		s.SetupTest()
		subjectID := s.seedSubject("bob@example.com", "")
		s.submitDocument(subjectID)

		err := s.service.DecideIDDocument(s.ctx(), subjectID, reviewer, identity.ReviewRejected, "document is expired")
		s.NoError(err)

		subject := s.mustSubject(subjectID)
		s.Equal(identity.IDRejected, subject.IDStatus)
		s.Equal("document is expired", subject.LastRejectionReason())
		s.Contains(s.auditActions(), audit.ActionIDDocumentRejected)
	})

	s.Run("rejection without a reason returns bad request", func() {
		s.SetupTest()
		subjectID := s.seedSubject("carol@example.com", "")
		s.submitDocument(subjectID)

		err := s.service.DecideIDDocument(s.ctx(), subjectID, reviewer, identity.ReviewRejected, "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("no pending submission returns conflict", func() {
		s.SetupTest()
		subjectID := s.seedSubject("dave@example.com", "")

		err := s.service.DecideIDDocument(s.ctx(), subjectID, reviewer, identity.ReviewApproved, "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown outcome returns bad request", func() {
		s.SetupTest()
		subjectID := s.seedSubject("erin@example.com", "")
		s.submitDocument(subjectID)

		err := s.service.DecideIDDocument(s.ctx(), subjectID, reviewer, identity.ReviewOutcome("escalated"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejection history survives resubmission", func() {
		s.SetupTest()
		subjectID := s.seedSubject("frank@example.com", "")
		s.submitAndReject(subjectID, "name does not match")

		s.Require().NoError(s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentPassport, pdfUpload("retake.pdf"), nil))
		s.Require().NoError(s.service.DecideIDDocument(s.ctx(), subjectID, reviewer, identity.ReviewApproved, ""))

		subject := s.mustSubject(subjectID)
		s.Equal(identity.IDVerified, subject.IDStatus)
		s.Len(subject.IDReviews, 2)
		s.Equal("name does not match", subject.LastRejectionReason())
	})
}

func (s *VerificationServiceSuite) submitDocument(subjectID id.SubjectID) {
	err := s.service.SubmitIDDocument(s.ctx(), subjectID, identity.DocumentPassport, pdfUpload("passport.pdf"), nil)
	s.Require().NoError(err)
}

func (s *VerificationServiceSuite) submitAndApprove(subjectID id.SubjectID) {
	s.submitDocument(subjectID)
	err := s.service.DecideIDDocument(s.ctx(), subjectID, id.NewSubjectID(), identity.ReviewApproved, "")
	s.Require().NoError(err)
}

func (s *VerificationServiceSuite) submitAndReject(subjectID id.SubjectID, reason string) {
	s.submitDocument(subjectID)
	err := s.service.DecideIDDocument(s.ctx(), subjectID, id.NewSubjectID(), identity.ReviewRejected, reason)
	s.Require().NoError(err)
}
