// Package service implements the account-security operations: login, the
// gated password change, and security policy administration.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	identity "attest/internal/identity/models"
	"attest/internal/security/metrics"
	"attest/internal/security/models"
	"attest/internal/security/policy"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/audit"
	"attest/pkg/platform/sentinel"
	"attest/pkg/requestcontext"
)

const minPasswordLength = 6

// SubjectStore is the slice of the identity store the security path needs.
type SubjectStore interface {
	FindByID(ctx context.Context, subjectID id.SubjectID) (*identity.Subject, error)
	Execute(ctx context.Context, subjectID id.SubjectID,
		validate func(*identity.Subject) error,
		mutate func(*identity.Subject)) (*identity.Subject, error)
}

// Authenticator verifies and updates credentials. SignIn is session-isolated:
// it checks the stored hash without touching the caller's live session.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*identity.Subject, error)
	UpdateCredential(ctx context.Context, subjectID id.SubjectID, newPassword string) error
}

// PolicyStore persists the process-wide security policy.
type PolicyStore interface {
	Get(ctx context.Context) (models.Policy, error)
	Update(ctx context.Context, policy models.Policy) error
}

// TokenIssuer mints session tokens for authenticated subjects.
type TokenIssuer interface {
	Generate(subjectID id.SubjectID, role string, now time.Time) (string, error)
}

// Service orchestrates the account-security operations.
type Service struct {
	subjects SubjectStore
	auth     Authenticator
	policies PolicyStore
	tokens   TokenIssuer

	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor audit.Publisher
	tracer  trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(p audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

// New creates the account-security service.
func New(subjects SubjectStore, auth Authenticator, policies PolicyStore, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		subjects: subjects,
		auth:     auth,
		policies: policies,
		tokens:   tokens,
		logger:   slog.Default(),
		auditor:  audit.NopPublisher{},
		tracer:   otel.Tracer("attest/security"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates the subject and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "security.Login")
	defer span.End()

	if email == "" || password == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}

	subject, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		if s.metrics != nil {
			s.metrics.Logins.WithLabelValues("rejected").Inc()
		}
		return "", err
	}

	token, err := s.tokens.Generate(subject.ID, string(subject.Role), requestcontext.Now(ctx))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}
	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues("accepted").Inc()
	}
	return token, nil
}

// ChangePassword applies the full password-change contract: input shape,
// rotation policy, fresh re-authentication, then the credential update. The
// rotation timestamp moves only when the update itself lands.
func (s *Service) ChangePassword(ctx context.Context, subjectID id.SubjectID, current, newPassword, confirm string) error {
	ctx, span := s.tracer.Start(ctx, "security.ChangePassword")
	defer span.End()

	if current == "" || newPassword == "" || confirm == "" {
		return dErrors.New(dErrors.CodeBadRequest, "current, new, and confirmation passwords are required")
	}
	if len(newPassword) < minPasswordLength {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("new password must be at least %d characters", minPasswordLength))
	}
	if newPassword != confirm {
		return dErrors.New(dErrors.CodeBadRequest, "new password and confirmation do not match")
	}

	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subject")
	}

	now := requestcontext.Now(ctx)

	currentPolicy, err := s.policies.Get(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load security policy")
	}
	decision := policy.CanChange(subject.PasswordLastChangedAt, currentPolicy.PasswordChangeIntervalDays, now)
	if !decision.Allowed {
		s.recordBlocked(ctx, subject.ID, "rotation_interval", now)
		return dErrors.New(dErrors.CodeForbidden,
			fmt.Sprintf("password was changed recently, try again in %d day(s)", decision.RemainingDays))
	}

	// Fresh re-authentication with the current credential. The caller's
	// session token proves possession of a session, not of the password.
	if _, err := s.auth.SignIn(ctx, subject.Email, current); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.recordBlocked(ctx, subject.ID, "reauth_failed", now)
			return dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect")
		}
		return err
	}

	if err := s.auth.UpdateCredential(ctx, subject.ID, newPassword); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update credential")
	}

	if _, err := s.subjects.Execute(ctx, subject.ID,
		func(*identity.Subject) error { return nil },
		func(sub *identity.Subject) { sub.ApplyPasswordChanged(now) },
	); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record password change")
	}

	if s.metrics != nil {
		s.metrics.PasswordChanges.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryOf(audit.ActionPasswordChanged),
		Action:    audit.ActionPasswordChanged,
		Timestamp: now,
		SubjectID: subject.ID,
		Device:    requestcontext.Device(ctx),
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// GetPolicy returns the current security policy.
func (s *Service) GetPolicy(ctx context.Context) (models.Policy, error) {
	currentPolicy, err := s.policies.Get(ctx)
	if err != nil {
		return models.Policy{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load security policy")
	}
	return currentPolicy, nil
}

// UpdatePolicy replaces the security policy. Admin-only at the transport
// layer; the next password-change attempt observes the new interval.
func (s *Service) UpdatePolicy(ctx context.Context, actorID id.SubjectID, intervalDays int) (models.Policy, error) {
	ctx, span := s.tracer.Start(ctx, "security.UpdatePolicy")
	defer span.End()

	if intervalDays < 0 {
		return models.Policy{}, dErrors.New(dErrors.CodeBadRequest, "interval must be zero or positive")
	}

	now := requestcontext.Now(ctx)
	updated := models.Policy{
		PasswordChangeIntervalDays: intervalDays,
		UpdatedAt:                  now,
	}
	if err := s.policies.Update(ctx, updated); err != nil {
		return models.Policy{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update security policy")
	}

	if s.metrics != nil {
		s.metrics.PolicyUpdates.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryOf(audit.ActionSecurityPolicyUpdated),
		Action:    audit.ActionSecurityPolicyUpdated,
		Timestamp: now,
		SubjectID: actorID,
		ActorID:   actorID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return updated, nil
}

func (s *Service) recordBlocked(ctx context.Context, subjectID id.SubjectID, reason string, now time.Time) {
	if s.metrics != nil {
		s.metrics.ChangesBlocked.WithLabelValues(reason).Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryOf(audit.ActionPasswordChangeBlocked),
		Action:    audit.ActionPasswordChangeBlocked,
		Timestamp: now,
		SubjectID: subjectID,
		Reason:    reason,
		Device:    requestcontext.Device(ctx),
		RequestID: requestcontext.RequestID(ctx),
	})
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(event.Action),
			"error", err,
		)
	}
}
