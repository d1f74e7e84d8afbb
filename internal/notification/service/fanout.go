// Package service fans verification events out to reviewer accounts. The
// fanout is best-effort: a failed insert for one reviewer never blocks the
// others, and the triggering operation has already committed by the time the
// fanout runs.
package service

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	identity "attest/internal/identity/models"
	"attest/internal/notification/models"
	id "attest/pkg/domain"
	"attest/pkg/requestcontext"
)

// maxConcurrentInserts bounds parallel notification writes per event.
const maxConcurrentInserts = 8

// Directory lists the reviewer accounts to notify.
type Directory interface {
	ListByRole(ctx context.Context, roles ...identity.Role) ([]*identity.Subject, error)
}

// Store persists notification records.
type Store interface {
	Insert(ctx context.Context, record models.Record) error
}

// Fanout broadcasts review events to every administrator.
type Fanout struct {
	directory Directory
	store     Store
	logger    *slog.Logger
}

func NewFanout(directory Directory, store Store, logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{directory: directory, store: store, logger: logger}
}

// NotifyReviewers inserts one notification per reviewer and returns how many
// were delivered. A reviewer list failure delivers zero; individual insert
// failures are logged and skipped.
func (f *Fanout) NotifyReviewers(ctx context.Context, event models.ReviewEvent) int {
	reviewers, err := f.directory.ListByRole(ctx, identity.RoleAdmin)
	if err != nil {
		f.logger.ErrorContext(ctx, "failed to list reviewers",
			"event", string(event.Kind),
			"error", err,
		)
		return 0
	}
	if len(reviewers) == 0 {
		return 0
	}

	now := requestcontext.Now(ctx)
	var delivered atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentInserts)
	for _, reviewer := range reviewers {
		recipientID := reviewer.ID
		g.Go(func() error {
			record := models.Record{
				ID:          id.NewNotificationID(),
				RecipientID: recipientID,
				Title:       event.Title(),
				Message:     event.Message(),
				Link:        event.Link,
				CreatedAt:   now,
			}
			if err := f.store.Insert(gctx, record); err != nil {
				f.logger.WarnContext(gctx, "failed to insert reviewer notification",
					"recipient_id", recipientID.String(),
					"event", string(event.Kind),
					"error", err,
				)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return int(delivered.Load())
}
