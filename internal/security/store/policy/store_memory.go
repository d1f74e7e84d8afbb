// Package policy persists the single security policy record.
package policy

import (
	"context"
	"sync"

	"attest/internal/security/models"
)

// Memory is an in-memory policy store for tests and development.
type Memory struct {
	mu     sync.RWMutex
	policy models.Policy
}

func NewMemory() *Memory {
	return &Memory{}
}

// Get returns the current policy. The zero policy (no restriction) is valid.
func (s *Memory) Get(_ context.Context) (models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy, nil
}

// Update replaces the policy. Last writer wins.
func (s *Memory) Update(_ context.Context, policy models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = policy
	return nil
}
