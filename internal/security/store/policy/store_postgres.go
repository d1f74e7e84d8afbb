package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attest/internal/security/models"
)

// Postgres persists the policy as a single-row table. The CHECK constraint
// on id keeps it single-row at the schema level.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Get(ctx context.Context) (models.Policy, error) {
	var policy models.Policy
	query := `SELECT password_change_interval_days, updated_at FROM security_policy WHERE id = 1`
	err := s.db.QueryRowContext(ctx, query).Scan(&policy.PasswordChangeIntervalDays, &policy.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Policy{}, nil
	}
	if err != nil {
		return models.Policy{}, fmt.Errorf("select security policy: %w", err)
	}
	return policy, nil
}

func (s *Postgres) Update(ctx context.Context, policy models.Policy) error {
	query := `
		INSERT INTO security_policy (id, password_change_interval_days, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			password_change_interval_days = EXCLUDED.password_change_interval_days,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, policy.PasswordChangeIntervalDays, policy.UpdatedAt); err != nil {
		return fmt.Errorf("upsert security policy: %w", err)
	}
	return nil
}
