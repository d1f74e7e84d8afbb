package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	identity "attest/internal/identity/models"
	identityStore "attest/internal/identity/store"
	notifmodels "attest/internal/notification/models"
	codeStore "attest/internal/verification/store/code"
	tokenStore "attest/internal/verification/store/emailtoken"
	id "attest/pkg/domain"
	"attest/pkg/platform/audit"
	"attest/pkg/platform/sentinel"
	"attest/pkg/requestcontext"
)

// =============================================================================
// Test Doubles
// =============================================================================

type sentEmail struct {
	email string
	link  string
}

type sentCode struct {
	phone string
	code  string
}

type fakeNotifier struct {
	mu     sync.Mutex
	emails []sentEmail
	codes  []sentCode
	err    error
}

func (f *fakeNotifier) SendEmailVerification(_ context.Context, email, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.emails = append(f.emails, sentEmail{email: email, link: link})
	return nil
}

func (f *fakeNotifier) SendPhoneCode(_ context.Context, phone, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.codes = append(f.codes, sentCode{phone: phone, code: code})
	return nil
}

type fakeFanout struct {
	events []notifmodels.ReviewEvent
	count  int
}

func (f *fakeFanout) NotifyReviewers(_ context.Context, event notifmodels.ReviewEvent) int {
	f.events = append(f.events, event)
	return f.count
}

type uploadedBlob struct {
	contentType string
	size        int64
}

type fakeBlobs struct {
	uploads  map[string]uploadedBlob
	failKeys map[string]error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{
		uploads:  make(map[string]uploadedBlob),
		failKeys: make(map[string]error),
	}
}

func (f *fakeBlobs) Upload(_ context.Context, key string, data io.Reader, size int64, contentType string) error {
	for pattern, err := range f.failKeys {
		if pattern == "*" || strings.Contains(key, pattern) {
			return err
		}
	}
	if _, err := io.Copy(io.Discard, data); err != nil {
		return err
	}
	f.uploads[key] = uploadedBlob{contentType: contentType, size: size}
	return nil
}

func (f *fakeBlobs) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, ok := f.uploads[key]; !ok {
		return "", sentinel.ErrNotFound
	}
	return "https://blobs.test/" + key, nil
}

// =============================================================================
// Suite Scaffolding
// =============================================================================

type VerificationServiceSuite struct {
	suite.Suite
	subjects *identityStore.Memory
	codes    *codeStore.Memory
	tokens   *tokenStore.Memory
	blobs    *fakeBlobs
	notifier *fakeNotifier
	fanout   *fakeFanout
	auditor  *audit.MemoryPublisher
	service  *Service

	now time.Time
}

func TestVerificationServiceSuite(t *testing.T) {
	suite.Run(t, new(VerificationServiceSuite))
}

func (s *VerificationServiceSuite) SetupTest() {
	s.subjects = identityStore.NewMemory()
	s.codes = codeStore.NewMemory()
	s.tokens = tokenStore.NewMemory()
	s.blobs = newFakeBlobs()
	s.notifier = &fakeNotifier{}
	s.fanout = &fakeFanout{count: 2}
	s.auditor = audit.NewMemoryPublisher()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.service = New(
		s.subjects, s.codes, s.tokens, s.blobs, s.notifier,
		WithFanout(s.fanout),
		WithAuditor(s.auditor),
		WithBaseURL("https://attest.test"),
		WithCodeGenerator(func() (string, error) { return "042137", nil }),
	)
}

// ctx returns a context stamped with the suite's current time.
func (s *VerificationServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

// ctxAt stamps a context at an offset from the suite's base time.
func (s *VerificationServiceSuite) ctxAt(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(offset))
}

// seedSubject stores a subject and returns its ID.
func (s *VerificationServiceSuite) seedSubject(email, phone string) id.SubjectID {
	subjectID := id.NewSubjectID()
	subject, err := identity.NewSubject(subjectID, email, phone, identity.RoleUser, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.subjects.Save(context.Background(), subject))
	return subjectID
}

func (s *VerificationServiceSuite) mustSubject(subjectID id.SubjectID) *identity.Subject {
	subject, err := s.subjects.FindByID(context.Background(), subjectID)
	s.Require().NoError(err)
	return subject
}

func (s *VerificationServiceSuite) auditActions() []audit.Action {
	var actions []audit.Action
	for _, event := range s.auditor.Events() {
		actions = append(actions, event.Action)
	}
	return actions
}

// =============================================================================
// Code Generator Tests
// =============================================================================

func TestGeneratePhoneCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		code, err := generatePhoneCode()
		if err != nil {
			t.Fatalf("generatePhoneCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 digits", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatal("expected variation across generated codes")
	}
}

// notifier failure must never surface: transitions commit regardless.
func (s *VerificationServiceSuite) TestDeliveryFailureDoesNotAbortTransition() {
	subjectID := s.seedSubject("delivery@fail.test", "+15550001111")
	s.notifier.err = errors.New("smtp down")

	s.NoError(s.service.RequestEmailVerification(s.ctx(), subjectID))
	s.Equal(identity.EmailPending, s.mustSubject(subjectID).EmailStatus)

	s.NoError(s.service.RequestPhoneVerification(s.ctx(), subjectID))
	s.Equal(identity.PhonePending, s.mustSubject(subjectID).PhoneStatus)

	// The code is still redeemable even though the SMS never left.
	code, err := s.codes.Get(context.Background(), subjectID)
	s.Require().NoError(err)
	s.Equal("042137", code.Code)
}
