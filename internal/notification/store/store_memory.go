// Package store persists reviewer notification records.
package store

import (
	"context"
	"sync"

	"attest/internal/notification/models"
	id "attest/pkg/domain"
)

// Memory is an in-memory notification store for tests and development.
type Memory struct {
	mu      sync.RWMutex
	records []models.Record
}

func NewMemory() *Memory {
	return &Memory{}
}

// Insert appends one notification record.
func (s *Memory) Insert(_ context.Context, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// ListByRecipient returns the recipient's notifications, newest first.
func (s *Memory) ListByRecipient(_ context.Context, recipientID id.SubjectID) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].RecipientID == recipientID {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

// All returns every stored record. Test helper.
func (s *Memory) All() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Record{}, s.records...)
}
