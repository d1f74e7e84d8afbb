package store

import (
	"context"
	"database/sql"
	"fmt"

	"attest/internal/notification/models"
	id "attest/pkg/domain"
)

// Postgres persists notification records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Insert appends one notification record.
func (s *Postgres) Insert(ctx context.Context, record models.Record) error {
	query := `
		INSERT INTO notifications (id, recipient_id, title, message, link, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID.String(),
		record.RecipientID.String(),
		record.Title,
		record.Message,
		record.Link,
		record.IsRead,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByRecipient returns the recipient's notifications, newest first.
func (s *Postgres) ListByRecipient(ctx context.Context, recipientID id.SubjectID) ([]models.Record, error) {
	query := `
		SELECT id, recipient_id, title, message, link, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, recipientID.String())
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var (
			record      models.Record
			rawID       string
			rawReceiver string
		)
		if err := rows.Scan(&rawID, &rawReceiver, &record.Title, &record.Message, &record.Link, &record.IsRead, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notificationID, err := id.ParseNotificationID(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse notification id: %w", err)
		}
		recipient, err := id.ParseSubjectID(rawReceiver)
		if err != nil {
			return nil, fmt.Errorf("parse recipient id: %w", err)
		}
		record.ID = notificationID
		record.RecipientID = recipient
		out = append(out, record)
	}
	return out, rows.Err()
}
