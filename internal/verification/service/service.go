// Package service implements the verification workflow: the three
// asynchronous tracks (email, phone, identity document), their transition
// rules, and the derived fully-verified predicate.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	identity "attest/internal/identity/models"
	notifmodels "attest/internal/notification/models"
	"attest/internal/verification/metrics"
	"attest/internal/verification/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/audit"
)

//go:generate mockgen -destination=../../../mocks/verification/mocks.go -package=mockverification attest/internal/verification/service Notifier,BlobStore

// SubjectStore is the slice of the identity store the workflow needs.
type SubjectStore interface {
	FindByID(ctx context.Context, subjectID id.SubjectID) (*identity.Subject, error)
	Execute(ctx context.Context, subjectID id.SubjectID,
		validate func(*identity.Subject) error,
		mutate func(*identity.Subject)) (*identity.Subject, error)
}

// CodeStore holds the single live phone verification code per subject.
type CodeStore interface {
	Put(ctx context.Context, code models.PendingCode) error
	Get(ctx context.Context, subjectID id.SubjectID) (*models.PendingCode, error)
	Delete(ctx context.Context, subjectID id.SubjectID) error
}

// TokenStore holds redeemable email verification tokens.
type TokenStore interface {
	Put(ctx context.Context, token models.EmailToken) error
	Get(ctx context.Context, token string) (*models.EmailToken, error)
}

// BlobStore is the opaque document storage capability. Implementations
// return sentinel.ErrUnavailable when the backing bucket is not configured.
type BlobStore interface {
	Upload(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Notifier delivers out-of-band messages to the subject. Delivery is
// best-effort: a failed send never rolls back the status transition that
// triggered it.
type Notifier interface {
	SendEmailVerification(ctx context.Context, email, link string) error
	SendPhoneCode(ctx context.Context, phone, code string) error
}

// ReviewerFanout broadcasts a submission event to all reviewers.
type ReviewerFanout interface {
	NotifyReviewers(ctx context.Context, event notifmodels.ReviewEvent) int
}

// Service orchestrates the per-track state transitions.
type Service struct {
	subjects SubjectStore
	codes    CodeStore
	tokens   TokenStore
	blobs    BlobStore
	notifier Notifier
	fanout   ReviewerFanout

	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor audit.Publisher
	tracer  trace.Tracer
	baseURL string

	// generateCode is injectable for deterministic tests.
	generateCode func() (string, error)
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

func WithFanout(f ReviewerFanout) Option {
	return func(s *Service) { s.fanout = f }
}

// WithBaseURL sets the prefix for links embedded in notifications and
// verification emails.
func WithBaseURL(baseURL string) Option {
	return func(s *Service) { s.baseURL = baseURL }
}

// WithCodeGenerator overrides the phone code generator. Tests use this to
// make codes deterministic.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.generateCode = gen }
}

// New creates the verification workflow service.
func New(
	subjects SubjectStore,
	codes CodeStore,
	tokens TokenStore,
	blobs BlobStore,
	notifier Notifier,
	opts ...Option,
) *Service {
	s := &Service{
		subjects:     subjects,
		codes:        codes,
		tokens:       tokens,
		blobs:        blobs,
		notifier:     notifier,
		logger:       slog.Default(),
		auditor:      audit.NopPublisher{},
		tracer:       otel.Tracer("attest/verification"),
		generateCode: generatePhoneCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// generatePhoneCode draws a uniformly random 6-digit code, zero-padded.
func generatePhoneCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// notifyReviewers runs the fanout when one is wired. Best-effort: the count
// is logged, failures never surface to the caller.
func (s *Service) notifyReviewers(ctx context.Context, event notifmodels.ReviewEvent) {
	if s.fanout == nil {
		return
	}
	count := s.fanout.NotifyReviewers(ctx, event)
	s.logger.InfoContext(ctx, "reviewers notified",
		"event", string(event.Kind),
		"subject_id", event.SubjectID.String(),
		"recipients", count,
	)
}

// emitAudit publishes an audit event. Best-effort: failures are logged and
// swallowed so the audit pipeline can never fail a verification.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(event.Action),
			"error", err,
		)
	}
}
