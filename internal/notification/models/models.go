// Package models defines reviewer notification records and the events that
// fan out into them.
package models

import (
	"time"

	id "attest/pkg/domain"
)

// Record is one notification addressed to one reviewer. The core only ever
// inserts records; reading and acknowledging them happens elsewhere.
type Record struct {
	ID          id.NotificationID
	RecipientID id.SubjectID
	Title       string
	Message     string
	Link        string
	IsRead      bool
	CreatedAt   time.Time
}

// EventKind names the submission that needs reviewer attention.
type EventKind string

const (
	EventEmailVerificationRequested EventKind = "email_verification_requested"
	EventIDDocumentSubmitted        EventKind = "id_document_submitted"
)

// ReviewEvent describes one completed submission to broadcast to reviewers.
type ReviewEvent struct {
	Kind         EventKind
	SubjectID    id.SubjectID
	SubjectEmail string
	// Link is the deep link back to the originating subject's review page.
	Link       string
	OccurredAt time.Time
}

// Title renders the notification headline for the event.
func (e ReviewEvent) Title() string {
	switch e.Kind {
	case EventIDDocumentSubmitted:
		return "Identity document awaiting review"
	case EventEmailVerificationRequested:
		return "Email verification requested"
	default:
		return "Verification activity"
	}
}

// Message renders the notification body for the event.
func (e ReviewEvent) Message() string {
	switch e.Kind {
	case EventIDDocumentSubmitted:
		return e.SubjectEmail + " submitted an identity document for review"
	case EventEmailVerificationRequested:
		return e.SubjectEmail + " requested email verification"
	default:
		return e.SubjectEmail + " has verification activity"
	}
}
