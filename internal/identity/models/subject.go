// Package models defines the Subject aggregate: one user account with its
// three verification tracks, document submission state, and credential
// rotation timestamp. All fields are always present (zero-valued when unset)
// so callers never probe for field existence.
package models

import (
	"time"

	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
)

// Role distinguishes ordinary subjects from reviewers.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// EmailStatus is the email track state. There is no rejected state: the email
// track auto-resolves from token redemption.
type EmailStatus string

const (
	EmailNotVerified EmailStatus = "not_verified"
	EmailPending     EmailStatus = "pending"
	EmailVerified    EmailStatus = "verified"
)

// PhoneStatus is the phone track state.
type PhoneStatus string

const (
	PhoneNotVerified PhoneStatus = "not_verified"
	PhonePending     PhoneStatus = "pending"
	PhoneVerified    PhoneStatus = "verified"
)

// IDStatus is the identity document track state. Unlike the other tracks it
// has a rejected state, from which resubmission re-enters pending.
type IDStatus string

const (
	IDNotVerified IDStatus = "not_verified"
	IDPending     IDStatus = "pending"
	IDVerified    IDStatus = "verified"
	IDRejected    IDStatus = "rejected"
)

// Valid reports whether the status is a known value. Boundaries reject
// out-of-range values instead of coercing them.
func (s EmailStatus) Valid() bool {
	return s == EmailNotVerified || s == EmailPending || s == EmailVerified
}

func (s PhoneStatus) Valid() bool {
	return s == PhoneNotVerified || s == PhonePending || s == PhoneVerified
}

func (s IDStatus) Valid() bool {
	return s == IDNotVerified || s == IDPending || s == IDVerified || s == IDRejected
}

// DocumentType declares which kind of identity document was submitted.
type DocumentType string

const (
	DocumentPassport      DocumentType = "passport"
	DocumentDriverLicense DocumentType = "driver_license"
	DocumentNationalID    DocumentType = "national_id"
)

func (t DocumentType) Valid() bool {
	return t == DocumentPassport || t == DocumentDriverLicense || t == DocumentNationalID
}

// RequiresBack reports whether the document type needs a back side scan.
// Passports are single-sided.
func (t DocumentType) RequiresBack() bool { return t != DocumentPassport }

// IDDocument references the uploaded document pair in object storage.
type IDDocument struct {
	Type        DocumentType `json:"type"`
	FrontKey    string       `json:"front_key"`
	BackKey     string       `json:"back_key,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// ReviewOutcome is an administrator's verdict on a document submission.
type ReviewOutcome string

const (
	ReviewApproved ReviewOutcome = "approved"
	ReviewRejected ReviewOutcome = "rejected"
)

// IDReview is one review decision. Reviews accumulate as history: a
// resubmission never erases a prior rejection reason.
type IDReview struct {
	ID         id.ReviewID   `json:"id"`
	ReviewerID id.SubjectID  `json:"reviewer_id"`
	Outcome    ReviewOutcome `json:"outcome"`
	Reason     string        `json:"reason,omitempty"`
	DecidedAt  time.Time     `json:"decided_at"`
}

// Subject is a user account as the verification core sees it.
type Subject struct {
	ID    id.SubjectID
	Email string
	Phone string
	Role  Role

	EmailStatus EmailStatus
	PhoneStatus PhoneStatus
	IDStatus    IDStatus

	IDDocument *IDDocument
	IDReviews  []IDReview

	// PasswordLastChangedAt is set only when a password change succeeds.
	PasswordLastChangedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSubject creates a subject with all tracks unverified.
func NewSubject(subjectID id.SubjectID, email, phone string, role Role, now time.Time) (*Subject, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	if role == "" {
		role = RoleUser
	}
	return &Subject{
		ID:          subjectID,
		Email:       email,
		Phone:       phone,
		Role:        role,
		EmailStatus: EmailNotVerified,
		PhoneStatus: PhoneNotVerified,
		IDStatus:    IDNotVerified,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// FullyVerified is always derived from the three track statuses; it is never
// stored as an independent source of truth.
func (s *Subject) FullyVerified() bool {
	return s.EmailStatus == EmailVerified &&
		s.PhoneStatus == PhoneVerified &&
		s.IDStatus == IDVerified
}

// CanRequestEmailVerification guards the email request transition.
// Re-requesting while pending is allowed (the link may have been lost).
func (s *Subject) CanRequestEmailVerification() error {
	if s.EmailStatus == EmailVerified {
		return dErrors.New(dErrors.CodeConflict, "email is already verified")
	}
	return nil
}

func (s *Subject) ApplyEmailPending(now time.Time) {
	s.EmailStatus = EmailPending
	s.UpdatedAt = now
}

// ApplyEmailVerified flips the email track. Safe to call when already
// verified; redemption is idempotent.
func (s *Subject) ApplyEmailVerified(now time.Time) {
	if s.EmailStatus == EmailVerified {
		return
	}
	s.EmailStatus = EmailVerified
	s.UpdatedAt = now
}

// CanRequestPhoneVerification guards the phone request transition.
func (s *Subject) CanRequestPhoneVerification() error {
	if s.Phone == "" {
		return dErrors.New(dErrors.CodeBadRequest, "no phone number on file")
	}
	if s.PhoneStatus == PhoneVerified {
		return dErrors.New(dErrors.CodeConflict, "phone is already verified")
	}
	return nil
}

func (s *Subject) ApplyPhonePending(now time.Time) {
	s.PhoneStatus = PhonePending
	s.UpdatedAt = now
}

func (s *Subject) ApplyPhoneVerified(now time.Time) {
	s.PhoneStatus = PhoneVerified
	s.UpdatedAt = now
}

// CanSubmitIDDocument guards document submission. Submission is allowed from
// not-verified, rejected (resubmission), and pending (supersedes the previous
// upload); only a verified track refuses new documents.
func (s *Subject) CanSubmitIDDocument() error {
	if s.IDStatus == IDVerified {
		return dErrors.New(dErrors.CodeConflict, "identity document is already verified")
	}
	return nil
}

func (s *Subject) ApplyIDSubmission(doc IDDocument, now time.Time) {
	s.IDDocument = &doc
	s.IDStatus = IDPending
	s.UpdatedAt = now
}

// CanDecideID guards the admin decision: only a pending submission can be
// approved or rejected.
func (s *Subject) CanDecideID() error {
	if s.IDStatus != IDPending {
		return dErrors.New(dErrors.CodeConflict, "no document submission awaiting review")
	}
	return nil
}

// ApplyIDDecision records the verdict and appends it to the review history.
func (s *Subject) ApplyIDDecision(review IDReview, now time.Time) {
	if review.Outcome == ReviewApproved {
		s.IDStatus = IDVerified
	} else {
		s.IDStatus = IDRejected
	}
	s.IDReviews = append(s.IDReviews, review)
	s.UpdatedAt = now
}

// LastRejectionReason returns the reason of the most recent rejection, if any.
func (s *Subject) LastRejectionReason() string {
	for i := len(s.IDReviews) - 1; i >= 0; i-- {
		if s.IDReviews[i].Outcome == ReviewRejected {
			return s.IDReviews[i].Reason
		}
	}
	return ""
}

func (s *Subject) ApplyPasswordChanged(now time.Time) {
	t := now
	s.PasswordLastChangedAt = &t
	s.UpdatedAt = now
}

// Clone returns a deep copy so stores never hand out aliased state.
func (s *Subject) Clone() *Subject {
	out := *s
	if s.IDDocument != nil {
		doc := *s.IDDocument
		out.IDDocument = &doc
	}
	if s.PasswordLastChangedAt != nil {
		t := *s.PasswordLastChangedAt
		out.PasswordLastChangedAt = &t
	}
	out.IDReviews = append([]IDReview(nil), s.IDReviews...)
	return &out
}
