// Package models holds the verification workflow's ephemeral records and the
// pure track-status summary.
package models

import (
	"time"

	identity "attest/internal/identity/models"
	id "attest/pkg/domain"
)

// CodeTTL is how long a phone verification code stays redeemable. Expiry is
// checked lazily at verification time; there is no background sweep.
const CodeTTL = 10 * time.Minute

// EmailTokenTTL bounds how long an email verification link stays redeemable.
const EmailTokenTTL = 24 * time.Hour

// MaxDocumentSize is the upload ceiling per document side, enforced before
// any storage call is attempted.
const MaxDocumentSize = 5 << 20 // 5 MB

// AllowedContentTypes lists the accepted identity document formats.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// PendingCode is the sole live phone verification code for a subject. A new
// request overwrites any prior code.
type PendingCode struct {
	SubjectID    id.SubjectID `json:"subject_id"`
	ContactValue string       `json:"contact_value"`
	Code         string       `json:"code"`
	IssuedAt     time.Time    `json:"issued_at"`
}

// Expired reports whether the code has outlived CodeTTL at the given instant.
func (c PendingCode) Expired(now time.Time) bool {
	return now.Sub(c.IssuedAt) > CodeTTL
}

// EmailToken is a redeemable email verification token.
type EmailToken struct {
	Token     string       `json:"token"`
	SubjectID id.SubjectID `json:"subject_id"`
	IssuedAt  time.Time    `json:"issued_at"`
}

// TrackSummary is the derived view of the three verification tracks. Each
// verified/pending boolean pair is mutually exclusive by construction.
type TrackSummary struct {
	Email         bool `json:"email_verified"`
	EmailPending  bool `json:"email_pending"`
	Phone         bool `json:"phone_verified"`
	PhonePending  bool `json:"phone_pending"`
	ID            bool `json:"id_verified"`
	IDPending     bool `json:"id_pending"`
	FullyVerified bool `json:"fully_verified"`
}

// ComputeStatus derives the track summary from the stored statuses. Pure and
// total: any combination of inputs yields a consistent summary, and
// FullyVerified is true iff all three tracks are verified.
func ComputeStatus(email identity.EmailStatus, phone identity.PhoneStatus, idStatus identity.IDStatus) TrackSummary {
	return TrackSummary{
		Email:        email == identity.EmailVerified,
		EmailPending: email == identity.EmailPending,
		Phone:        phone == identity.PhoneVerified,
		PhonePending: phone == identity.PhonePending,
		ID:           idStatus == identity.IDVerified,
		IDPending:    idStatus == identity.IDPending,
		FullyVerified: email == identity.EmailVerified &&
			phone == identity.PhoneVerified &&
			idStatus == identity.IDVerified,
	}
}
