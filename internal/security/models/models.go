// Package models defines the account-security records: the process-wide
// rotation policy and per-subject credentials.
package models

import (
	"time"

	id "attest/pkg/domain"
)

// Policy is the process-wide security policy. A single mutable record, read
// by every password-change attempt and updated only by administrators.
type Policy struct {
	// PasswordChangeIntervalDays is the minimum number of days between
	// password changes. Zero disables the restriction.
	PasswordChangeIntervalDays int
	UpdatedAt                  time.Time
}

// Credential is a subject's stored password hash.
type Credential struct {
	SubjectID    id.SubjectID
	PasswordHash string
	UpdatedAt    time.Time
}
