// Package credentials persists per-subject password hashes.
package credentials

import (
	"context"
	"sync"

	"attest/internal/security/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

// Memory is an in-memory credential store for tests and development.
type Memory struct {
	mu          sync.RWMutex
	credentials map[id.SubjectID]models.Credential
}

func NewMemory() *Memory {
	return &Memory{credentials: make(map[id.SubjectID]models.Credential)}
}

// Get returns the subject's credential, or sentinel.ErrNotFound.
func (s *Memory) Get(_ context.Context, subjectID id.SubjectID) (models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	credential, ok := s.credentials[subjectID]
	if !ok {
		return models.Credential{}, sentinel.ErrNotFound
	}
	return credential, nil
}

// Upsert stores the subject's credential, replacing any prior hash.
func (s *Memory) Upsert(_ context.Context, credential models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[credential.SubjectID] = credential
	return nil
}
