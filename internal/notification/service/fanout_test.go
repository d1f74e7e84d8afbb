package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "attest/internal/identity/models"
	identityStore "attest/internal/identity/store"
	"attest/internal/notification/models"
	notifStore "attest/internal/notification/store"
	id "attest/pkg/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedAdmins(t *testing.T, directory *identityStore.Memory, count int) []id.SubjectID {
	t.Helper()
	ids := make([]id.SubjectID, 0, count)
	for i := 0; i < count; i++ {
		subject, err := identity.NewSubject(id.NewSubjectID(), string(rune('a'+i))+"-admin@example.com", "", identity.RoleAdmin, time.Now())
		require.NoError(t, err)
		require.NoError(t, directory.Save(context.Background(), subject))
		ids = append(ids, subject.ID)
	}
	return ids
}

func TestNotifyReviewers(t *testing.T) {
	ctx := context.Background()
	event := models.ReviewEvent{
		Kind:         models.EventIDDocumentSubmitted,
		SubjectID:    id.NewSubjectID(),
		SubjectEmail: "subject@example.com",
		Link:         "https://attest.test/admin/subjects/x",
		OccurredAt:   time.Now(),
	}

	t.Run("delivers one record per admin", func(t *testing.T) {
		directory := identityStore.NewMemory()
		admins := seedAdmins(t, directory, 3)
		store := notifStore.NewMemory()
		fanout := NewFanout(directory, store, discardLogger())

		count := fanout.NotifyReviewers(ctx, event)
		assert.Equal(t, 3, count)

		records := store.All()
		require.Len(t, records, 3)
		recipients := make(map[id.SubjectID]bool)
		for _, record := range records {
			recipients[record.RecipientID] = true
			assert.Equal(t, event.Title(), record.Title)
			assert.Equal(t, event.Link, record.Link)
			assert.False(t, record.IsRead)
		}
		for _, adminID := range admins {
			assert.True(t, recipients[adminID])
		}
	})

	t.Run("ordinary users are not notified", func(t *testing.T) {
		directory := identityStore.NewMemory()
		subject, err := identity.NewSubject(id.NewSubjectID(), "user@example.com", "", identity.RoleUser, time.Now())
		require.NoError(t, err)
		require.NoError(t, directory.Save(ctx, subject))
		store := notifStore.NewMemory()

		count := NewFanout(directory, store, discardLogger()).NotifyReviewers(ctx, event)
		assert.Zero(t, count)
		assert.Empty(t, store.All())
	})

	t.Run("one failed insert does not block the rest", func(t *testing.T) {
		directory := identityStore.NewMemory()
		seedAdmins(t, directory, 4)
		store := &flakyStore{failEvery: 2}

		count := NewFanout(directory, store, discardLogger()).NotifyReviewers(ctx, event)
		assert.Equal(t, 2, count)
	})

	t.Run("no admins delivers zero", func(t *testing.T) {
		directory := identityStore.NewMemory()
		store := notifStore.NewMemory()

		count := NewFanout(directory, store, discardLogger()).NotifyReviewers(ctx, event)
		assert.Zero(t, count)
	})
}

// flakyStore fails every n-th insert.
type flakyStore struct {
	mu        sync.Mutex
	calls     int
	failEvery int
}

func (s *flakyStore) Insert(context.Context, models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls%s.failEvery == 0 {
		return errors.New("insert failed")
	}
	return nil
}
