package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"attest/internal/identity/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

// Postgres persists subjects in PostgreSQL. Document references and review
// history are stored as JSONB alongside the track status columns; the
// statuses themselves stay as plain columns so reviewers can be queried.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const subjectColumns = `id, email, phone, role, email_status, phone_status, id_status,
	id_document, id_reviews, password_last_changed_at, created_at, updated_at`

func (s *Postgres) Save(ctx context.Context, subject *models.Subject) error {
	doc, reviews, err := marshalDocumentState(subject)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO subjects (` + subjectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		subject.ID.String(),
		normalizeEmail(subject.Email),
		subject.Phone,
		string(subject.Role),
		string(subject.EmailStatus),
		string(subject.PhoneStatus),
		string(subject.IDStatus),
		doc,
		reviews,
		subject.PasswordLastChangedAt,
		subject.CreatedAt,
		subject.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert subject: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, subjectID id.SubjectID) (*models.Subject, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, subjectID.String())
	return scanSubject(row)
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Subject, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+subjectColumns+` FROM subjects WHERE email = $1`, normalizeEmail(email))
	return scanSubject(row)
}

// ListByRole returns all subjects holding any of the given roles.
func (s *Postgres) ListByRole(ctx context.Context, roles ...models.Role) ([]*models.Subject, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subjectColumns+` FROM subjects WHERE role = ANY($1)`, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("list subjects by role: %w", err)
	}
	defer rows.Close()

	var out []*models.Subject
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, subject)
	}
	return out, rows.Err()
}

// Execute loads the subject FOR UPDATE inside a transaction, runs validate,
// applies mutate, and writes the result back. A validation error rolls the
// transaction back and is returned unchanged.
func (s *Postgres) Execute(
	ctx context.Context,
	subjectID id.SubjectID,
	validate func(*models.Subject) error,
	mutate func(*models.Subject),
) (*models.Subject, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+subjectColumns+` FROM subjects WHERE id = $1 FOR UPDATE`, subjectID.String())
	subject, err := scanSubject(row)
	if err != nil {
		return nil, err
	}

	if err := validate(subject); err != nil {
		return nil, err
	}
	mutate(subject)

	doc, reviews, err := marshalDocumentState(subject)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE subjects SET
			phone = $2, email_status = $3, phone_status = $4, id_status = $5,
			id_document = $6, id_reviews = $7, password_last_changed_at = $8,
			updated_at = $9
		WHERE id = $1
	`,
		subject.ID.String(),
		subject.Phone,
		string(subject.EmailStatus),
		string(subject.PhoneStatus),
		string(subject.IDStatus),
		doc,
		reviews,
		subject.PasswordLastChangedAt,
		subject.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update subject: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit subject update: %w", err)
	}
	return subject, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubject(row rowScanner) (*models.Subject, error) {
	var (
		subject     models.Subject
		rawID       string
		role        string
		emailStatus string
		phoneStatus string
		idStatus    string
		doc         []byte
		reviews     []byte
	)
	err := row.Scan(
		&rawID,
		&subject.Email,
		&subject.Phone,
		&role,
		&emailStatus,
		&phoneStatus,
		&idStatus,
		&doc,
		&reviews,
		&subject.PasswordLastChangedAt,
		&subject.CreatedAt,
		&subject.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan subject: %w", err)
	}

	subjectID, err := id.ParseSubjectID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse subject id: %w", err)
	}
	subject.ID = subjectID
	subject.Role = models.Role(role)
	subject.EmailStatus = models.EmailStatus(emailStatus)
	subject.PhoneStatus = models.PhoneStatus(phoneStatus)
	subject.IDStatus = models.IDStatus(idStatus)

	if len(doc) > 0 {
		var d models.IDDocument
		if err := json.Unmarshal(doc, &d); err != nil {
			return nil, fmt.Errorf("decode id document: %w", err)
		}
		subject.IDDocument = &d
	}
	if len(reviews) > 0 {
		if err := json.Unmarshal(reviews, &subject.IDReviews); err != nil {
			return nil, fmt.Errorf("decode id reviews: %w", err)
		}
	}
	return &subject, nil
}

func marshalDocumentState(subject *models.Subject) (doc, reviews []byte, err error) {
	if subject.IDDocument != nil {
		doc, err = json.Marshal(subject.IDDocument)
		if err != nil {
			return nil, nil, fmt.Errorf("encode id document: %w", err)
		}
	}
	if len(subject.IDReviews) > 0 {
		reviews, err = json.Marshal(subject.IDReviews)
		if err != nil {
			return nil, nil, fmt.Errorf("encode id reviews: %w", err)
		}
	}
	return doc, reviews, nil
}

// isUniqueViolation detects a duplicate-key error without binding to a
// specific driver error type.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
