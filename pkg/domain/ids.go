// Package domain defines the typed identifiers shared across features.
// Wrapping uuid.UUID in distinct types stops a reviewer ID from being
// passed where a subject ID is expected.
package domain

import "github.com/google/uuid"

// SubjectID identifies a user account.
type SubjectID uuid.UUID

func NewSubjectID() SubjectID { return SubjectID(uuid.New()) }

func (s SubjectID) String() string { return uuid.UUID(s).String() }

func (s SubjectID) IsNil() bool { return uuid.UUID(s) == uuid.Nil }

// ParseSubjectID parses the canonical string form of a subject ID.
func ParseSubjectID(raw string) (SubjectID, error) {
	u, err := uuid.Parse(raw)
	if err != nil {
		return SubjectID{}, err
	}
	return SubjectID(u), nil
}

// NotificationID identifies a stored reviewer notification.
type NotificationID uuid.UUID

func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

func (n NotificationID) String() string { return uuid.UUID(n).String() }

func (n NotificationID) IsNil() bool { return uuid.UUID(n) == uuid.Nil }

// ParseNotificationID parses the canonical string form of a notification ID.
func ParseNotificationID(raw string) (NotificationID, error) {
	u, err := uuid.Parse(raw)
	if err != nil {
		return NotificationID{}, err
	}
	return NotificationID(u), nil
}

// ReviewID identifies one document review decision.
type ReviewID uuid.UUID

func NewReviewID() ReviewID { return ReviewID(uuid.New()) }

func (r ReviewID) String() string { return uuid.UUID(r).String() }

func (r ReviewID) IsNil() bool { return uuid.UUID(r) == uuid.Nil }
