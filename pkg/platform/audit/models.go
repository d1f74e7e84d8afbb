// Package audit defines the audit event model emitted from domain logic.
// Events are transport-agnostic so publishers can fan them out to whatever
// sink the deployment wires in (Kafka, memory for tests).
package audit

import (
	"time"

	id "attest/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. Categories
// drive retention policy and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance,
	// such as identity document decisions.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring,
	// such as blocked or completed credential changes.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event captures one auditable action against a subject's account.
type Event struct {
	Category  EventCategory `json:"category"`
	Action    Action        `json:"action"`
	Timestamp time.Time     `json:"timestamp"`
	SubjectID id.SubjectID  `json:"subject_id"`
	// ActorID tracks who performed the action when different from SubjectID,
	// e.g. an administrator deciding a document review.
	ActorID string `json:"actor_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
	// Device is a parsed User-Agent summary of the client that triggered
	// the action. Populated for credential changes.
	Device    string `json:"device,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Action enumerates auditable actions.
type Action string

const (
	ActionEmailVerificationRequested Action = "email_verification_requested"
	ActionEmailVerified              Action = "email_verified"
	ActionPhoneVerificationRequested Action = "phone_verification_requested"
	ActionPhoneVerified              Action = "phone_verified"
	ActionIDDocumentSubmitted        Action = "id_document_submitted"
	ActionIDDocumentApproved         Action = "id_document_approved"
	ActionIDDocumentRejected         Action = "id_document_rejected"
	ActionPasswordChanged            Action = "password_changed"
	ActionPasswordChangeBlocked      Action = "password_change_blocked"
	ActionSecurityPolicyUpdated      Action = "security_policy_updated"
)

// actionCategories maps each action to its category.
var actionCategories = map[Action]EventCategory{
	ActionIDDocumentSubmitted:   CategoryCompliance,
	ActionIDDocumentApproved:    CategoryCompliance,
	ActionIDDocumentRejected:    CategoryCompliance,
	ActionPasswordChanged:       CategorySecurity,
	ActionPasswordChangeBlocked: CategorySecurity,
	ActionSecurityPolicyUpdated: CategorySecurity,

	ActionEmailVerificationRequested: CategoryOperations,
	ActionEmailVerified:              CategoryOperations,
	ActionPhoneVerificationRequested: CategoryOperations,
	ActionPhoneVerified:              CategoryOperations,
}

// CategoryOf returns the category for an action, defaulting to operations.
func CategoryOf(action Action) EventCategory {
	if c, ok := actionCategories[action]; ok {
		return c
	}
	return CategoryOperations
}
