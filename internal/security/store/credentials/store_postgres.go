package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attest/internal/security/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

// Postgres persists credentials in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Get(ctx context.Context, subjectID id.SubjectID) (models.Credential, error) {
	credential := models.Credential{SubjectID: subjectID}
	query := `SELECT password_hash, updated_at FROM credentials WHERE subject_id = $1`
	err := s.db.QueryRowContext(ctx, query, subjectID.String()).Scan(&credential.PasswordHash, &credential.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Credential{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Credential{}, fmt.Errorf("select credential: %w", err)
	}
	return credential, nil
}

func (s *Postgres) Upsert(ctx context.Context, credential models.Credential) error {
	query := `
		INSERT INTO credentials (subject_id, password_hash, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject_id) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, credential.SubjectID.String(), credential.PasswordHash, credential.UpdatedAt); err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}
