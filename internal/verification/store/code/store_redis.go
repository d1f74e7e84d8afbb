package code

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"attest/internal/verification/models"
	id "attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

// Redis stores pending codes with a TTL slightly beyond the code lifetime.
// The TTL is a safety net for abandoned codes; the authoritative expiry check
// stays in the service so the boundary is exact.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func codeKey(subjectID id.SubjectID) string {
	return "verification:code:" + subjectID.String()
}

func (s *Redis) Put(ctx context.Context, code models.PendingCode) error {
	payload, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("marshal pending code: %w", err)
	}
	if err := s.client.Set(ctx, codeKey(code.SubjectID), payload, models.CodeTTL+time.Minute).Err(); err != nil {
		return fmt.Errorf("store pending code: %w", err)
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, subjectID id.SubjectID) (*models.PendingCode, error) {
	payload, err := s.client.Get(ctx, codeKey(subjectID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load pending code: %w", err)
	}

	var code models.PendingCode
	if err := json.Unmarshal(payload, &code); err != nil {
		return nil, fmt.Errorf("decode pending code: %w", err)
	}
	return &code, nil
}

func (s *Redis) Delete(ctx context.Context, subjectID id.SubjectID) error {
	if err := s.client.Del(ctx, codeKey(subjectID)).Err(); err != nil {
		return fmt.Errorf("delete pending code: %w", err)
	}
	return nil
}
