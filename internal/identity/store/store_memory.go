// Package store persists Subject aggregates. The memory implementation backs
// unit tests and infrastructure-free development; the postgres implementation
// is the production store. Both expose the same Execute callback pattern so
// validate-then-mutate sequences run atomically under the store's lock.
package store

import (
	"context"
	"strings"
	"sync"

	"attest/internal/identity/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

// Memory is an in-memory subject store guarded by a RWMutex.
type Memory struct {
	mu       sync.RWMutex
	subjects map[id.SubjectID]*models.Subject
	byEmail  map[string]id.SubjectID
}

func NewMemory() *Memory {
	return &Memory{
		subjects: make(map[id.SubjectID]*models.Subject),
		byEmail:  make(map[string]id.SubjectID),
	}
}

// Save inserts a new subject. Returns sentinel.ErrConflict when the ID or
// email is already taken.
func (s *Memory) Save(_ context.Context, subject *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subjects[subject.ID]; exists {
		return sentinel.ErrConflict
	}
	email := normalizeEmail(subject.Email)
	if _, exists := s.byEmail[email]; exists {
		return sentinel.ErrConflict
	}

	s.subjects[subject.ID] = subject.Clone()
	s.byEmail[email] = subject.ID
	return nil
}

func (s *Memory) FindByID(_ context.Context, subjectID id.SubjectID) (*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subject, ok := s.subjects[subjectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return subject.Clone(), nil
}

func (s *Memory) FindByEmail(_ context.Context, email string) (*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subjectID, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.subjects[subjectID].Clone(), nil
}

// ListByRole returns all subjects holding any of the given roles.
func (s *Memory) ListByRole(_ context.Context, roles ...models.Role) ([]*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Subject
	for _, subject := range s.subjects {
		for _, role := range roles {
			if subject.Role == role {
				out = append(out, subject.Clone())
				break
			}
		}
	}
	return out, nil
}

// Execute loads the subject, runs validate, and applies mutate, all under the
// store lock. The updated subject is returned. A validation error aborts the
// mutation and is returned unchanged.
func (s *Memory) Execute(
	_ context.Context,
	subjectID id.SubjectID,
	validate func(*models.Subject) error,
	mutate func(*models.Subject),
) (*models.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject, ok := s.subjects[subjectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	working := subject.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)

	s.subjects[subjectID] = working
	return working.Clone(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
