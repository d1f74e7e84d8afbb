// Package authenticator verifies and updates subject credentials. Each
// SignIn is a fresh, stateless check against the stored hash: it never reads
// or mutates any live session, which is what the password-change gate relies
// on.
package authenticator

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	identity "attest/internal/identity/models"
	"attest/internal/security/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/sentinel"
	"attest/pkg/requestcontext"
)

// Directory resolves subjects by email.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*identity.Subject, error)
}

// CredentialStore persists password hashes.
type CredentialStore interface {
	Get(ctx context.Context, subjectID id.SubjectID) (models.Credential, error)
	Upsert(ctx context.Context, credential models.Credential) error
}

// Local authenticates against bcrypt hashes in the credential store.
type Local struct {
	directory   Directory
	credentials CredentialStore
	cost        int
}

func NewLocal(directory Directory, credentials CredentialStore) *Local {
	return &Local{
		directory:   directory,
		credentials: credentials,
		cost:        bcrypt.DefaultCost,
	}
}

// SignIn verifies the email/password pair and returns the matching subject.
// Unknown emails and wrong passwords both report the same unauthorized error.
func (a *Local) SignIn(ctx context.Context, email, password string) (*identity.Subject, error) {
	subject, err := a.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up subject")
	}

	credential, err := a.credentials.Get(ctx, subject.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	return subject, nil
}

// UpdateCredential replaces the subject's password hash.
func (a *Local) UpdateCredential(ctx context.Context, subjectID id.SubjectID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), a.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return a.credentials.Upsert(ctx, models.Credential{
		SubjectID:    subjectID,
		PasswordHash: string(hash),
		UpdatedAt:    requestcontext.Now(ctx),
	})
}
