// Package emailtoken stores redeemable email verification tokens by value.
// Tokens outlive their first redemption so a second click on the same link
// resolves as an idempotent no-op rather than an error.
package emailtoken

import (
	"context"
	"sync"

	"attest/internal/verification/models"
	"attest/pkg/platform/sentinel"
)

// Memory is an in-memory token store for tests and development.
type Memory struct {
	mu     sync.RWMutex
	tokens map[string]models.EmailToken
}

func NewMemory() *Memory {
	return &Memory{tokens: make(map[string]models.EmailToken)}
}

func (s *Memory) Put(_ context.Context, token models.EmailToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.Token] = token
	return nil
}

func (s *Memory) Get(_ context.Context, token string) (*models.EmailToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[token]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}
