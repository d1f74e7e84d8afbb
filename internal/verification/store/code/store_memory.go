// Package code stores the single live phone verification code per subject.
// Writing a new code replaces any existing one; expiry is the caller's
// concern and is checked lazily at verification time.
package code

import (
	"context"
	"sync"

	"attest/internal/verification/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

// Memory is an in-memory code store for tests and development.
type Memory struct {
	mu    sync.RWMutex
	codes map[id.SubjectID]models.PendingCode
}

func NewMemory() *Memory {
	return &Memory{codes: make(map[id.SubjectID]models.PendingCode)}
}

// Put stores the subject's code, replacing any prior one.
func (s *Memory) Put(_ context.Context, code models.PendingCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.SubjectID] = code
	return nil
}

// Get returns the subject's live code, or sentinel.ErrNotFound.
func (s *Memory) Get(_ context.Context, subjectID id.SubjectID) (*models.PendingCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	code, ok := s.codes[subjectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &code, nil
}

// Delete removes the subject's code. Deleting a missing code is not an error.
func (s *Memory) Delete(_ context.Context, subjectID id.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, subjectID)
	return nil
}
